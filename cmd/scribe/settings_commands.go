package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scribe/internal/platform"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change user and system settings",
	}

	settingsCmd.AddCommand(newSettingsShowCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetLanguageCommand(ctx))
	settingsCmd.AddCommand(newSettingsSystemCommand(ctx))
	settingsCmd.AddCommand(newSettingsAuditCommand(ctx))

	return settingsCmd
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the signed-in user's settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				settings, err := rt.client.Settings.UserSettings(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd, settings)
			})
		},
	}
}

func newSettingsSetLanguageCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-language <code>",
		Short: "Change the interface language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := args[0]
			return ctx.withClient(cmd, func(rt *runtime) error {
				updated, err := rt.client.Settings.UpdateUserSettings(cmd.Context(), platform.UserSettingsUpdate{Language: &lang})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Language set to %s\n", updated.Language)
				return nil
			})
		},
	}
}

func newSettingsSystemCommand(ctx *commandContext) *cobra.Command {
	var sopVersion string
	var timeout int

	cmd := &cobra.Command{
		Use:   "system",
		Short: "Show or change platform settings (admin role required)",
		RunE: func(cmd *cobra.Command, args []string) error {
			update := platform.SystemSettingsUpdate{}
			if cmd.Flags().Changed("sop-version") {
				update.DefaultSOPVersion = &sopVersion
			}
			if cmd.Flags().Changed("timeout") {
				if timeout <= 0 {
					return errors.New("--timeout must be positive")
				}
				update.TimeoutThreshold = &timeout
			}
			return ctx.withClient(cmd, func(rt *runtime) error {
				var (
					settings *platform.SystemSettings
					err      error
				)
				if update.DefaultSOPVersion == nil && update.TimeoutThreshold == nil {
					settings, err = rt.client.Settings.SystemSettings(cmd.Context())
				} else {
					settings, err = rt.client.Settings.UpdateSystemSettings(cmd.Context(), update)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderStatusLine("SOP version", statusInfo, settings.DefaultSOPVersion, colorize))
				fmt.Fprintln(out, renderStatusLine("Timeout", statusInfo, strconv.Itoa(settings.TimeoutThreshold), colorize))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sopVersion, "sop-version", "", "Default SOP version")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "Processing timeout threshold")
	return cmd
}

func newSettingsAuditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail (admin role required)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				logs, err := rt.client.Settings.AuditLogs(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(logs) == 0 {
					fmt.Fprintln(out, "No audit entries")
					return nil
				}
				rows := make([][]string, 0, len(logs))
				for _, entry := range logs {
					rows = append(rows, []string{
						formatTime(entry.Timestamp),
						entry.Action,
						entry.ObjectType,
						strconv.FormatInt(entry.ObjectID, 10),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"When", "Action", "Object", "ID"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
				return nil
			})
		},
	}
}
