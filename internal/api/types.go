// Package api defines the wire types shared by the daemon's HTTP surface and
// the CLI client, plus the client itself.
package api

import (
	"time"

	"podforge/internal/jobs"
	"podforge/internal/library"
)

// JobView describes a generation job in a transport-friendly format. Stored
// upload paths are server-local and never leave the daemon.
type JobView struct {
	ID         string      `json:"id"`
	Status     string      `json:"status"`
	Progress   int         `json:"progress"`
	Message    string      `json:"message"`
	Topic      string      `json:"topic,omitempty"`
	InputFiles []string    `json:"inputFiles,omitempty"`
	Result     *ResultView `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// ResultView is the completed-job payload.
type ResultView struct {
	EpisodePath string `json:"episodePath"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishURL  string `json:"publishUrl"`
	FeedURL     string `json:"feedUrl"`
}

// EpisodeView describes a published episode.
type EpisodeView struct {
	ID              int64     `json:"id"`
	Number          int       `json:"episodeNumber"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	AudioURL        string    `json:"audioUrl"`
	SizeBytes       int64     `json:"sizeBytes"`
	DurationSeconds float64   `json:"durationSeconds"`
	PublishedAt     time.Time `json:"publishedAt"`
}

// ConfigView exposes the non-secret configuration the CLI may display.
type ConfigView struct {
	PodcastTitle      string   `json:"podcastTitle"`
	PrimaryHost       string   `json:"primaryHost"`
	SecondaryHost     string   `json:"secondaryHost"`
	PrimaryVoice      string   `json:"primaryVoice"`
	SecondaryVoice    string   `json:"secondaryVoice"`
	OutputDir         string   `json:"outputDir"`
	AllowedExtensions []string `json:"allowedExtensions"`
	MaxUploadBytes    int64    `json:"maxUploadBytes"`
	StrictSynthesis   bool     `json:"strictSynthesis"`
}

// GenerateRequest submits a topic-driven job. Material optionally carries
// inline source text; when present the topic becomes a hint.
type GenerateRequest struct {
	Topic    string `json:"topic"`
	Material string `json:"material,omitempty"`
}

// SubmitResponse acknowledges an accepted job.
type SubmitResponse struct {
	JobID string `json:"jobId"`
}

// JobListResponse wraps the job collection.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// EpisodeListResponse wraps the episode collection.
type EpisodeListResponse struct {
	Episodes []EpisodeView `json:"episodes"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromJob converts a job snapshot into its API view.
func FromJob(job jobs.Job) JobView {
	view := JobView{
		ID:        job.ID,
		Status:    string(job.Status),
		Progress:  job.Progress,
		Message:   job.Message,
		Topic:     job.Topic,
		Error:     job.Err,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	for _, file := range job.InputFiles {
		view.InputFiles = append(view.InputFiles, file.OriginalName)
	}
	if job.Result != nil {
		view.Result = &ResultView{
			EpisodePath: job.Result.EpisodePath,
			Title:       job.Result.Title,
			Description: job.Result.Description,
			PublishURL:  job.Result.PublishURL,
			FeedURL:     job.Result.FeedURL,
		}
	}
	return view
}

// FromEpisode converts a library row into its API view.
func FromEpisode(episode library.Episode) EpisodeView {
	return EpisodeView{
		ID:              episode.ID,
		Number:          episode.Number,
		Title:           episode.Title,
		Description:     episode.Description,
		AudioURL:        episode.AudioURL,
		SizeBytes:       episode.SizeBytes,
		DurationSeconds: episode.Duration,
		PublishedAt:     episode.PublishedAt,
	}
}
