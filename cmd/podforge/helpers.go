package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"podforge/internal/api"
	"podforge/internal/jobs"
)

const pollInterval = 2 * time.Second

// pollJob prints progress updates until the job reaches a terminal state.
// A failed job becomes the command's error.
func pollJob(cmd *cobra.Command, client *api.Client, id string) error {
	out := cmd.OutOrStdout()
	lastLine := ""
	for {
		view, err := client.Status(cmd.Context(), id)
		if err != nil {
			return err
		}

		line := fmt.Sprintf("%3d%%  %s", view.Progress, view.Message)
		if line != lastLine {
			fmt.Fprintln(out, line)
			lastLine = line
		}

		switch view.Status {
		case string(jobs.StatusCompleted):
			if view.Result != nil {
				fmt.Fprintf(out, "Episode ready: %s\n", view.Result.EpisodePath)
				if view.Result.PublishURL != "" {
					fmt.Fprintf(out, "Published at:  %s\n", view.Result.PublishURL)
				}
			}
			return nil
		case string(jobs.StatusFailed):
			return errors.New("job failed: " + view.Error)
		}

		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-time.After(pollInterval):
		}
	}
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	minutes := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}
