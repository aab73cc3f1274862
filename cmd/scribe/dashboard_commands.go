package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newDashboardCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show processing counters for the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				summary, err := rt.client.Dashboard.Summary(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, summary)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Dashboard", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Documents", statusInfo, strconv.Itoa(summary.TotalDocuments), colorize))
				fmt.Fprintln(out, renderStatusLine("Audio files", statusInfo, strconv.Itoa(summary.TotalAudioFiles), colorize))
				fmt.Fprintln(out, renderStatusLine("Processed", statusOK, strconv.Itoa(summary.ProcessedAudio), colorize))
				pendingKind := statusOK
				if summary.PendingDiarization > 0 {
					pendingKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Pending speakers", pendingKind, strconv.Itoa(summary.PendingDiarization), colorize))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
