package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pboyd/fitalloc"
	"github.com/pboyd/fitalloc/internal/trace"
)

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <trace>",
		Short: "Replay a trace with every strategy and compare fragmentation",
		Long: `The compare command replays the same trace once per placement strategy,
ignoring the strategy named on init lines, and prints the final statistics
side by side.

Example:
  fitsim compare workload.trace
  fitsim compare --json workload.trace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args[0])
		},
	}
}

type compareRow struct {
	Strategy       string  `json:"strategy"`
	Allocs         uint64  `json:"allocs"`
	Failures       uint64  `json:"failures"`
	Blocks         int     `json:"blocks"`
	FreeBlocks     int     `json:"free_blocks"`
	FreeBytes      uint64  `json:"free_bytes"`
	LargestFree    uint64  `json:"largest_free"`
	Fragmentation  float64 `json:"fragmentation"`
	DoubleReleases uint64  `json:"double_releases"`
}

func runCompare(cmd *cobra.Command, path string) error {
	ops, err := readTrace(cmd, path)
	if err != nil {
		return err
	}

	rows := make([]compareRow, 0, len(fitalloc.Strategies))
	for _, s := range fitalloc.Strategies {
		opts := append(runnerOptions(), trace.WithStrategy(s))
		res, err := trace.NewRunner(opts...).Run(ops)
		if err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
		st := res.Stats
		rows = append(rows, compareRow{
			Strategy:       s.String(),
			Allocs:         st.Allocs,
			Failures:       st.Failures,
			Blocks:         st.Blocks,
			FreeBlocks:     st.FreeBlocks,
			FreeBytes:      st.FreeBytes,
			LargestFree:    st.LargestFree,
			Fragmentation:  st.Fragmentation,
			DoubleReleases: st.DoubleReleases,
		})
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, rows)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tALLOCS\tFAILED\tBLOCKS\tFREE BLOCKS\tFREE BYTES\tLARGEST FREE\tFRAGMENTATION")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.1f%%\n",
			r.Strategy, r.Allocs, r.Failures, r.Blocks, r.FreeBlocks, r.FreeBytes, r.LargestFree, r.Fragmentation*100)
	}
	return tw.Flush()
}
