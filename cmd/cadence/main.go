// cadence runs animation scenarios: trace prints sampled property values
// headlessly, view plays the scenario in a window.
package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phanxgames/cadence"
)

var (
	logLevel  string
	logFormat string
	debug     bool
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "cadence",
		Short:   "Run dispatcher-driven animation scenarios",
		Version: version,
		Long: `cadence loads a YAML scenario of nodes, storyboards and a script.

Examples:
  # Print sampled property values for the first 2 seconds
  cadence trace pulse.yaml --frames 120 --every 30

  # Play the scenario in a window
  cadence view pulse.yaml
`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				logLevel = "debug"
			}
			cadence.SetLogger(newLogger(cmd.ErrOrStderr(), logLevel, logFormat))
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Shorthand for --log-level=debug with dispatcher frame stats")

	rootCmd.AddCommand(traceCmd())
	rootCmd.AddCommand(viewCmd())
	return rootCmd
}

// newLogger builds a text or JSON slog logger writing to w.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// parseLevel converts a level name to slog.Level. Unknown names are Info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
