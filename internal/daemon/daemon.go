// Package daemon hosts the long-running podforge process: the job
// orchestrator, the episode library, and the HTTP API, with single-instance
// enforcement through a lock file.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"podforge/internal/config"
	"podforge/internal/jobs"
	"podforge/internal/library"
	"podforge/internal/logging"
)

// Daemon coordinates background episode generation and enforces
// single-instance execution.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	orchestrator *jobs.Orchestrator
	library      *library.Store
	api          *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Options wires the daemon's collaborators.
type Options struct {
	Config       *config.Config
	Orchestrator *jobs.Orchestrator
	Library      *library.Store
	Logger       *slog.Logger
}

// New constructs a daemon with initialized dependencies.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.Orchestrator == nil || opts.Library == nil {
		return nil, errors.New("daemon requires config, orchestrator, and library")
	}

	lockPath := filepath.Join(opts.Config.Paths.OutputDir, "podforged.lock")
	d := &Daemon{
		cfg:          opts.Config,
		logger:       logging.NewComponentLogger(opts.Logger, "daemon"),
		orchestrator: opts.Orchestrator,
		library:      opts.Library,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}
	d.api = newAPIServer(opts.Config, d, opts.Logger)
	return d, nil
}

// Start acquires the lock and brings up the API listener.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another podforge daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if err := d.api.start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start api: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("podforge daemon started",
		logging.String("lock", d.lockPath),
		logging.String("bind", d.cfg.Paths.APIBind))
	return nil
}

// Stop drains in-flight jobs, shuts down the API, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.running.Store(false)

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()

	done := make(chan struct{})
	go func() {
		d.orchestrator.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Minute):
		d.logger.Warn("timed out waiting for jobs to finish")
	}

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release lock", logging.Error(err))
	}
	d.logger.Info("podforge daemon stopped")
}

// Addr returns the API listener address once started.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Running reports whether Start has completed without a matching Stop.
func (d *Daemon) Running() bool {
	return d.running.Load()
}
