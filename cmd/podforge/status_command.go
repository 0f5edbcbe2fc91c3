package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"podforge/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status of a generation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			view, err := client.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, view)
			}
			renderJob(cmd, view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit raw JSON")
	return cmd
}

func renderJob(cmd *cobra.Command, view api.JobView) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	kind := statusInfo
	switch view.Status {
	case "completed":
		kind = statusOK
	case "failed":
		kind = statusError
	case "running":
		kind = statusWarn
	}

	fmt.Fprintln(out, renderStatusLine("Job", kind, view.ID, colorize))
	fmt.Fprintln(out, renderStatusLine("State", kind,
		fmt.Sprintf("%s (%d%%)", view.Status, view.Progress), colorize))
	if view.Message != "" {
		fmt.Fprintln(out, renderStatusLine("Activity", statusInfo, view.Message, colorize))
	}
	if view.Topic != "" {
		fmt.Fprintln(out, renderStatusLine("Topic", statusInfo, view.Topic, colorize))
	}
	for _, name := range view.InputFiles {
		fmt.Fprintln(out, renderStatusLine("Source", statusInfo, name, colorize))
	}
	if view.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, view.Error, colorize))
	}
	if view.Result != nil {
		fmt.Fprintln(out, renderStatusLine("Episode", statusOK, view.Result.Title, colorize))
		fmt.Fprintln(out, renderStatusLine("File", statusOK, view.Result.EpisodePath, colorize))
		if view.Result.PublishURL != "" {
			fmt.Fprintln(out, renderStatusLine("URL", statusOK, view.Result.PublishURL, colorize))
		}
	}
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List generation jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			views, err := client.Jobs(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs.")
				return nil
			}

			rows := make([][]string, 0, len(views))
			for _, view := range views {
				title := view.Topic
				if view.Result != nil {
					title = view.Result.Title
				}
				rows = append(rows, []string{
					view.ID,
					view.Status,
					fmt.Sprintf("%d%%", view.Progress),
					title,
					formatTimestamp(view.CreatedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Status", "Progress", "Title", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit raw JSON")
	return cmd
}
