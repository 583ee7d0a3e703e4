package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the Amplify CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amplify",
		Short: "Amplify - gamified guitar practice tracker API",
		Long: `Amplify serves the practice-tracking HTTP API. Requests authenticate
with signed bearer tokens issued at login.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewTokenCmd())

	return cmd
}
