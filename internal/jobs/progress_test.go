package jobs_test

import (
	"context"
	"testing"
	"time"

	"podforge/internal/jobs"
)

func TestProgressTableIsMonotonicInPipelineOrder(t *testing.T) {
	order := []jobs.Milestone{
		jobs.MilestoneQueued,
		jobs.MilestoneScript,
		jobs.MilestoneSegmenting,
		jobs.MilestoneSynthesis,
		jobs.MilestoneAssembly,
		jobs.MilestoneMixing,
		jobs.MilestoneExport,
		jobs.MilestonePublishing,
		jobs.MilestoneDone,
	}
	last := -1
	for _, m := range order {
		percent, message := jobs.ProgressFor(m)
		if percent <= last {
			t.Fatalf("milestone %q percent %d not increasing past %d", m, percent, last)
		}
		if message == "" {
			t.Fatalf("milestone %q has no message", m)
		}
		last = percent
	}
	if last != 100 {
		t.Fatalf("final milestone percent = %d, want 100", last)
	}
}

func TestProgressForUnknownMilestone(t *testing.T) {
	percent, message := jobs.ProgressFor("made-up")
	if percent != 0 || message != "" {
		t.Fatalf("unexpected mapping: %d %q", percent, message)
	}
}

func TestSynthesisProgressBounds(t *testing.T) {
	cases := []struct {
		done, total, want int
	}{
		{0, 4, 30},
		{2, 4, 50},
		{4, 4, 70},
		{9, 4, 70},
		{-1, 4, 30},
		{1, 0, 30},
	}
	for _, tc := range cases {
		if got := jobs.SynthesisProgress(tc.done, tc.total); got != tc.want {
			t.Fatalf("SynthesisProgress(%d, %d) = %d, want %d", tc.done, tc.total, got, tc.want)
		}
	}
}

func TestHeartbeatStopsAfterTerminalState(t *testing.T) {
	runner := &stubRunner{run: func(ctx context.Context, job jobs.Job, progress jobs.Reporter) (jobs.Result, error) {
		return jobs.Result{}, nil
	}}
	o := newOrchestrator(t, runner)

	id := o.Submit(context.Background(), jobs.SubmitRequest{})
	job := waitTerminal(t, o, id)
	settled := job.UpdatedAt

	// Heartbeat interval is 10ms in tests; give it time to misbehave.
	time.Sleep(60 * time.Millisecond)
	after, err := o.Status(id)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !after.UpdatedAt.Equal(settled) {
		t.Fatal("job mutated after reaching a terminal state")
	}
}
