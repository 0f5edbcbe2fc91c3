// Package jobs owns the episode generation job state machine.
//
// A job moves pending -> running -> completed or failed, is mutated only by
// its own worker, and is observed by status pollers through snapshots. The
// job map lives in memory; retention across restarts is a caller concern.
package jobs

import "time"

// Status is a job lifecycle state. Completed and failed are absorbing.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// InputFile describes one caller-supplied source document. The worker owns
// the stored file from submission until it deletes it after success.
type InputFile struct {
	OriginalName string `json:"originalName"`
	StoredPath   string `json:"storedPath"`
	SizeBytes    int64  `json:"sizeBytes"`
}

// Result is the completed-job descriptor handed to downstream publishing.
type Result struct {
	EpisodePath string `json:"episodePath"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishURL  string `json:"publishUrl"`
	FeedURL     string `json:"feedUrl"`
}

// Job is one asynchronous generation request. Exactly one of Result and Err
// is set once the job is terminal; Progress and Message are advisory and stop
// being meaningful after a failure.
type Job struct {
	ID         string      `json:"id"`
	Status     Status      `json:"status"`
	Progress   int         `json:"progress"`
	Message    string      `json:"message"`
	Topic      string      `json:"topic,omitempty"`
	InputFiles []InputFile `json:"inputFiles,omitempty"`
	Result     *Result     `json:"result,omitempty"`
	Err        string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// clone returns a snapshot safe to hand to pollers.
func (j *Job) clone() Job {
	out := *j
	if j.InputFiles != nil {
		out.InputFiles = make([]InputFile, len(j.InputFiles))
		copy(out.InputFiles, j.InputFiles)
	}
	if j.Result != nil {
		result := *j.Result
		out.Result = &result
	}
	return out
}
