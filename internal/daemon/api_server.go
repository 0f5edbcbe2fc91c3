package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"podforge/internal/api"
	"podforge/internal/config"
	"podforge/internal/jobs"
	"podforge/internal/logging"
	"podforge/internal/services"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	token := cfg.Paths.APIToken
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", authMiddleware(token, srv.handleGenerate))
	mux.HandleFunc("/api/upload", authMiddleware(token, srv.handleUpload))
	mux.HandleFunc("/api/jobs", authMiddleware(token, srv.handleJobs))
	mux.HandleFunc("/api/status/", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/download/", authMiddleware(token, srv.handleDownload))
	mux.HandleFunc("/api/episodes", authMiddleware(token, srv.handleEpisodes))
	mux.HandleFunc("/api/config", authMiddleware(token, srv.handleConfig))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.GenerateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	topic := strings.TrimSpace(req.Topic)
	material := strings.TrimSpace(req.Material)
	if topic == "" && material == "" {
		s.writeError(w, http.StatusBadRequest, "topic or material is required")
		return
	}

	submit := jobs.SubmitRequest{Topic: topic}
	if material != "" {
		// Inline material goes through the same stored-file lifecycle as
		// uploads so the worker cleans it up on success.
		stored, err := s.storeMaterial(material)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		submit.InputFiles = []jobs.InputFile{stored}
	}

	id := s.daemon.orchestrator.Submit(r.Context(), submit)
	s.writeJSON(w, http.StatusAccepted, api.SubmitResponse{JobID: id})
}

func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	cfg := s.daemon.cfg
	r.Body = http.MaxBytesReader(w, r.Body, cfg.Jobs.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}
	defer r.MultipartForm.RemoveAll()

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		s.writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	var stored []jobs.InputFile
	cleanup := func() {
		for _, file := range stored {
			_ = os.Remove(file.StoredPath)
		}
	}
	for _, part := range parts {
		input, err := s.storeUpload(part)
		if err != nil {
			cleanup()
			status := http.StatusInternalServerError
			if errors.Is(err, services.ErrValidation) {
				status = http.StatusBadRequest
			}
			s.writeError(w, status, err.Error())
			return
		}
		stored = append(stored, input)
	}

	id := s.daemon.orchestrator.Submit(r.Context(), jobs.SubmitRequest{
		Topic:      strings.TrimSpace(r.FormValue("topic")),
		InputFiles: stored,
	})
	s.writeJSON(w, http.StatusAccepted, api.SubmitResponse{JobID: id})
}

// storeUpload copies one multipart file into the upload directory under a
// collision-free name.
func (s *apiServer) storeUpload(part *multipart.FileHeader) (jobs.InputFile, error) {
	cfg := s.daemon.cfg
	name := filepath.Base(part.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !extensionAllowed(ext, cfg.Jobs.AllowedExtensions) {
		return jobs.InputFile{}, services.Wrap(services.ErrValidation, "api", "upload",
			fmt.Sprintf("file type %q not allowed", ext), nil)
	}

	src, err := part.Open()
	if err != nil {
		return jobs.InputFile{}, services.Wrap(services.ErrValidation, "api", "upload", name, err)
	}
	defer src.Close()

	storedPath := filepath.Join(cfg.Paths.UploadDir, storedName(name))
	dst, err := os.OpenFile(storedPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return jobs.InputFile{}, services.Wrap(services.ErrTransient, "api", "upload", "store file", err)
	}
	size, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		_ = os.Remove(storedPath)
		return jobs.InputFile{}, services.Wrap(services.ErrTransient, "api", "upload", "write file", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(storedPath)
		return jobs.InputFile{}, services.Wrap(services.ErrTransient, "api", "upload", "close file", err)
	}

	return jobs.InputFile{
		OriginalName: name,
		StoredPath:   storedPath,
		SizeBytes:    size,
	}, nil
}

// storedName prefixes uploads with a timestamp plus a short random id to
// keep same-named files from colliding.
func storedName(original string) string {
	return fmt.Sprintf("%s-%s-%s",
		time.Now().UTC().Format("20060102T150405"),
		uuid.NewString()[:8],
		filepath.Base(original))
}

// storeMaterial writes inline request text into the upload directory.
func (s *apiServer) storeMaterial(material string) (jobs.InputFile, error) {
	path := filepath.Join(s.daemon.cfg.Paths.UploadDir, storedName("material.txt"))
	if err := os.WriteFile(path, []byte(material), 0o644); err != nil {
		return jobs.InputFile{}, services.Wrap(services.ErrTransient, "api", "generate", "store material", err)
	}
	return jobs.InputFile{
		OriginalName: "material.txt",
		StoredPath:   path,
		SizeBytes:    int64(len(material)),
	}, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, ext) {
			return true
		}
	}
	return false
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snapshots := s.daemon.orchestrator.Jobs()
	views := make([]api.JobView, 0, len(snapshots))
	for _, job := range snapshots {
		views = append(views, api.FromJob(job))
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: views})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/status/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	job, err := s.daemon.orchestrator.Status(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromJob(job))
}

func (s *apiServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/download/")
	job, err := s.daemon.orchestrator.Status(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if job.Status != jobs.StatusCompleted || job.Result == nil {
		s.writeError(w, http.StatusNotFound, "episode not ready")
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(job.Result.EpisodePath)))
	http.ServeFile(w, r, job.Result.EpisodePath)
}

func (s *apiServer) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	episodes, err := s.daemon.library.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]api.EpisodeView, 0, len(episodes))
	for _, episode := range episodes {
		views = append(views, api.FromEpisode(episode))
	}
	s.writeJSON(w, http.StatusOK, api.EpisodeListResponse{Episodes: views})
}

func (s *apiServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	cfg := s.daemon.cfg
	s.writeJSON(w, http.StatusOK, api.ConfigView{
		PodcastTitle:      cfg.Podcast.Title,
		PrimaryHost:       cfg.Podcast.PrimaryHost,
		SecondaryHost:     cfg.Podcast.SecondaryHost,
		PrimaryVoice:      cfg.TTS.PrimaryVoice,
		SecondaryVoice:    cfg.TTS.SecondaryVoice,
		OutputDir:         cfg.Paths.OutputDir,
		AllowedExtensions: cfg.Jobs.AllowedExtensions,
		MaxUploadBytes:    cfg.Jobs.MaxUploadBytes,
		StrictSynthesis:   cfg.Jobs.StrictSynthesis,
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
