package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pboyd/fitalloc"
	"github.com/pboyd/fitalloc/internal/logger"
	"github.com/pboyd/fitalloc/internal/trace"
)

var (
	// Global flags
	verbose bool
	jsonOut bool
	useMmap bool
	limit   uint64
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fitsim",
		Short: "Replay allocation traces against a simulated heap",
		Long: `fitsim replays allocation traces against a fixed-size simulated heap
using first-fit, next-fit, best-fit or worst-fit placement, and reports the
resulting block layout and fragmentation.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger.Init(logger.Options{
				Enabled: true,
				JSON:    jsonOut,
				Level:   level,
				Output:  cmd.ErrOrStderr(),
			})
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every trace step")
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	root.PersistentFlags().BoolVar(&useMmap, "mmap", false, "Reserve arenas with mmap")
	root.PersistentFlags().Uint64Var(&limit, "limit", 0, "Refuse arenas larger than this many bytes (0 = no limit)")

	root.AddCommand(newRunCmd(), newCompareCmd())
	return root
}

// readTrace parses the trace in path, or stdin if path is "-".
func readTrace(cmd *cobra.Command, path string) ([]trace.Op, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	ops, err := trace.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ops, nil
}

// runnerOptions translates the global flags.
func runnerOptions() []trace.RunnerOption {
	opts := []trace.RunnerOption{trace.WithLogger(logger.L)}
	if useMmap {
		opts = append(opts, trace.WithArenaOptions(fitalloc.WithMmap()))
	}
	if limit > 0 {
		opts = append(opts, trace.WithArenaOptions(fitalloc.WithLimit(limit)))
	}
	return opts
}

// printJSON outputs data as JSON
func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
