package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"podforge/internal/logging"
	"podforge/internal/services"
)

// Runner executes the episode pipeline for one job. It receives a snapshot of
// the job at start time and a Reporter for advisory progress.
type Runner interface {
	Run(ctx context.Context, job Job, progress Reporter) (Result, error)
}

// Reporter publishes advisory progress for a running job.
type Reporter interface {
	// Milestone records a named checkpoint from the fixed progress table.
	Milestone(m Milestone)
	// Synthesized records done of total utterances rendered.
	Synthesized(done, total int)
}

// SubmitRequest carries everything needed to start a job.
type SubmitRequest struct {
	Topic      string
	InputFiles []InputFile
}

// Options configures an Orchestrator.
type Options struct {
	Runner            Runner
	HeartbeatInterval time.Duration
	Logger            *slog.Logger
}

// Orchestrator owns the job map and schedules one worker per submission.
// Submission and status polling never block on running workers.
type Orchestrator struct {
	store     *Store
	runner    Runner
	heartbeat time.Duration
	logger    *slog.Logger

	wg sync.WaitGroup
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Runner == nil {
		return nil, services.Wrap(services.ErrConfiguration, "jobs", "new", "runner required", nil)
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 5 * time.Second
	}
	return &Orchestrator{
		store:     NewStore(),
		runner:    opts.Runner,
		heartbeat: opts.HeartbeatInterval,
		logger:    logging.NewComponentLogger(opts.Logger, "orchestrator"),
	}, nil
}

// Submit registers a job and schedules its worker. It returns the job id
// immediately; callers poll Status for the outcome.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) string {
	now := time.Now().UTC()
	percent, message := ProgressFor(MilestoneQueued)
	job := Job{
		ID:         uuid.NewString(),
		Status:     StatusPending,
		Progress:   percent,
		Message:    message,
		Topic:      req.Topic,
		InputFiles: req.InputFiles,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.store.Put(job)

	// Workers outlive the submitting request, so detach from its
	// cancellation while keeping request-scoped values.
	o.wg.Add(1)
	go o.runWorker(context.WithoutCancel(ctx), job.ID)

	o.logger.Info("job submitted",
		logging.String(logging.FieldJobID, job.ID),
		logging.Int("input_files", len(job.InputFiles)))
	return job.ID
}

// Status returns the job's current snapshot, or services.ErrNotFound.
func (o *Orchestrator) Status(id string) (Job, error) {
	return o.store.Get(id)
}

// Jobs lists all known jobs, newest first.
func (o *Orchestrator) Jobs() []Job {
	return o.store.List()
}

// Wait blocks until every in-flight worker has finished. Used during daemon
// shutdown.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// runWorker drives one job from pending to a terminal state. Every failure is
// absorbed here; nothing propagates to the coordinator.
func (o *Orchestrator) runWorker(ctx context.Context, id string) {
	defer o.wg.Done()

	ctx = services.WithJobID(ctx, id)
	log := logging.WithContext(ctx, o.logger)

	o.store.start(id)
	job, err := o.store.Get(id)
	if err != nil {
		log.Error("job vanished before start", logging.Error(err))
		return
	}

	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go o.heartbeatLoop(hbCtx, &hbWG, id)

	started := time.Now()
	result, runErr := o.runSafely(ctx, job)
	hbCancel()
	hbWG.Wait()

	if runErr != nil {
		o.store.fail(id, runErr.Error())
		log.Error("job failed",
			logging.Error(runErr),
			logging.Duration("elapsed", time.Since(started)))
		return
	}

	o.cleanupInputs(log, job.InputFiles)
	o.store.complete(id, result)
	log.Info("job completed",
		logging.String("episode", result.EpisodePath),
		logging.Duration("elapsed", time.Since(started)))
}

// runSafely converts panics inside the pipeline into job failures so a bad
// episode can never take the daemon down.
func (o *Orchestrator) runSafely(ctx context.Context, job Job) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return o.runner.Run(ctx, job, &storeReporter{store: o.store, id: job.ID})
}

// heartbeatLoop refreshes the job's timestamp on an interval so pollers can
// tell a slow job from a dead one. It exits as soon as the job leaves
// running or the worker cancels it.
func (o *Orchestrator) heartbeatLoop(ctx context.Context, wg *sync.WaitGroup, id string) {
	defer wg.Done()
	ticker := time.NewTicker(o.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !o.store.touch(id) {
				return
			}
		}
	}
}

func (o *Orchestrator) cleanupInputs(log *slog.Logger, files []InputFile) {
	for _, file := range files {
		if file.StoredPath == "" {
			continue
		}
		if err := os.Remove(file.StoredPath); err != nil && !os.IsNotExist(err) {
			log.Warn("input file cleanup failed",
				logging.String("path", file.StoredPath),
				logging.Error(err))
		}
	}
}

// storeReporter publishes progress straight into the job map.
type storeReporter struct {
	store *Store
	id    string
}

func (r *storeReporter) Milestone(m Milestone) {
	percent, message := ProgressFor(m)
	r.store.setProgress(r.id, percent, message)
}

func (r *storeReporter) Synthesized(done, total int) {
	percent := SynthesisProgress(done, total)
	r.store.setProgress(r.id, percent, fmt.Sprintf("Synthesizing speech (%d/%d)", done, total))
}
