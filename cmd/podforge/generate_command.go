package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Generate an episode from a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			topic := strings.TrimSpace(strings.Join(args, " "))
			resp, err := client.Generate(cmd.Context(), topic)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s\n", resp.JobID)
			if !wait {
				return nil
			}
			return pollJob(cmd, client, resp.JobID)
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the job finishes")
	return cmd
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	var topic string

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Generate an episode from source documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Upload(cmd.Context(), topic, args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s\n", resp.JobID)
			if !wait {
				return nil
			}
			return pollJob(cmd, client, resp.JobID)
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the job finishes")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic hint for the script")
	return cmd
}
