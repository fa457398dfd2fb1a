package main

import (
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/murmur/internal/auth/app"
)

// NewRootCmd creates the root command for the murmur CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "murmur",
		Short: "murmur - microblog identity and session service",
		Long: `murmur registers accounts, authenticates browsers with session cookies
and API clients with bearer tokens, and keeps the follower graph.

Configuration is read from MURMUR_* environment variables.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := app.New(cmd.Context(), app.LoadConfig())
			if err != nil {
				return err
			}
			return application.Run()
		},
	}
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(app.BuildVersion)
		},
	}
}
