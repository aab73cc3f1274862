package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var ephemeralFlag bool

	ctx := newCommandContext(&configFlag, &ephemeralFlag)

	rootCmd := &cobra.Command{
		Use:           "scribe",
		Short:         "Client for the audio and document processing platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&ephemeralFlag, "ephemeral", false, "Keep the session in memory for this invocation only")

	rootCmd.AddCommand(newLoginCommand(ctx))
	rootCmd.AddCommand(newLogoutCommand(ctx))
	rootCmd.AddCommand(newRegisterCommand(ctx))
	rootCmd.AddCommand(newWhoamiCommand(ctx))
	rootCmd.AddCommand(newSessionCommand(ctx))
	rootCmd.AddCommand(newAudioCommand(ctx))
	rootCmd.AddCommand(newDocumentsCommand(ctx))
	rootCmd.AddCommand(newDashboardCommand(ctx))
	rootCmd.AddCommand(newAdminCommand(ctx))
	rootCmd.AddCommand(newSettingsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
