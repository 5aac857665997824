package cmd

import (
	"fmt"
	"os"

	"doc-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "doc-sync",
	Short: "Document Synchronization Service",
	Long: `doc-sync keeps two heterogeneous document stores converged: a MySQL table
and an S3-compatible object storage bucket. Documents are matched by identity
and conflicts are resolved by most-recent timestamp.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Report through the standard logger in console format so CLI errors
		// look like the rest of the output.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
