package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/refgraph/internal/logging"
	"github.com/spf13/cobra"
)

// app carries what PersistentPreRunE prepares for the subcommands.
type app struct {
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: logging.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "refgraph",
		Short: "refgraph inspects and serves reference counted object graphs",
		Long: `refgraph works with documents made of objects that reference each other.
It validates class tables, inspects persisted snapshots and serves a document over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			levelFlag, _ := cmd.Flags().GetString("log-level")
			level, err := logging.ParseLevel(levelFlag)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("log-json")
			a.logger = logging.NewWriter(cmd.ErrOrStderr(), level, asJSON)
			return nil
		},
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newSchemaCmd(a),
		newSnapshotCmd(a),
		newServeCmd(a),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
