package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/numtree"
)

type rootFlags struct {
	logLevel string
	jsonLogs bool
}

func newRootCmd() *cobra.Command {
	var rf rootFlags

	cmd := &cobra.Command{
		Use:           "numtree",
		Short:         "Numeric range index workbench",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&rf.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&rf.jsonLogs, "json-logs", false, "Emit JSON logs")

	cmd.AddCommand(newBenchCmd(&rf))
	cmd.AddCommand(newDumpCmd(&rf))
	cmd.AddCommand(newInspectCmd())
	return cmd
}

func (rf *rootFlags) logger(cmd *cobra.Command) (*numtree.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(rf.logLevel)); err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	w := cmd.ErrOrStderr()
	if w == nil {
		w = os.Stderr
	}
	if rf.jsonLogs {
		return numtree.NewLogger(slog.NewJSONHandler(w, opts)), nil
	}
	return numtree.NewLogger(slog.NewTextHandler(w, opts)), nil
}
