package jobs

import (
	"sync"
	"time"

	"podforge/internal/services"
)

// Store is the concurrency-safe job map. The orchestrator inserts, each
// worker mutates only its own entry, and pollers read snapshots. Jobs are
// never deleted by the system.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Put inserts a new job record.
func (s *Store) Put(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := job.clone()
	s.jobs[job.ID] = &stored
}

// Get returns a snapshot of the job, or services.ErrNotFound for an unknown
// id. Not-found is a distinct outcome, never conflated with a failed job.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, services.Wrap(services.ErrNotFound, "jobs", "get", "unknown job id "+id, nil)
	}
	return job.clone(), nil
}

// List returns snapshots of every job, newest first.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.clone())
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// start moves a pending job to running. Terminal jobs are left alone.
func (s *Store) start(id string) {
	s.mutate(id, func(job *Job) {
		if job.Status != StatusPending {
			return
		}
		job.Status = StatusRunning
		job.Progress = 0
	})
}

// setProgress records an advisory progress/message pair. Updates apply only
// while running, and progress never decreases.
func (s *Store) setProgress(id string, percent int, message string) {
	s.mutate(id, func(job *Job) {
		if job.Status != StatusRunning {
			return
		}
		if percent > job.Progress {
			if percent > 100 {
				percent = 100
			}
			job.Progress = percent
		}
		if message != "" {
			job.Message = message
		}
	})
}

// complete marks the job terminal with its result. Progress snaps to 100.
func (s *Store) complete(id string, result Result) {
	s.mutate(id, func(job *Job) {
		if job.Status.Terminal() {
			return
		}
		job.Status = StatusCompleted
		job.Progress = 100
		_, job.Message = ProgressFor(MilestoneDone)
		job.Result = &result
		job.Err = ""
	})
}

// fail marks the job terminal with an error description. Progress and message
// keep their last values; no partial result is retained.
func (s *Store) fail(id string, errMsg string) {
	s.mutate(id, func(job *Job) {
		if job.Status.Terminal() {
			return
		}
		job.Status = StatusFailed
		job.Err = errMsg
		job.Result = nil
	})
}

// touch refreshes the job's heartbeat timestamp. It reports whether the job
// is still running so the heartbeat routine can stop cooperatively.
func (s *Store) touch(id string) bool {
	running := false
	s.mutate(id, func(job *Job) {
		running = job.Status == StatusRunning
	})
	return running
}

func (s *Store) mutate(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
}
