package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pboyd/fitalloc"
	"github.com/pboyd/fitalloc/internal/trace"
)

var runStrategy string

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <trace>",
		Short: "Replay a trace and show the result of every step",
		Long: `The run command replays a trace file ("-" for stdin) and prints the
outcome of each operation. Dump lines print the full block layout.

Example:
  fitsim run workload.trace
  fitsim run --strategy best-fit workload.trace
  fitsim run --json - < workload.trace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0])
		},
	}
	cmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "Override the strategy of every init line")
	return cmd
}

type stepJSON struct {
	Line   int         `json:"line"`
	Op     string      `json:"op"`
	Addr   *uint64     `json:"addr,omitempty"`
	Error  string      `json:"error,omitempty"`
	Blocks int         `json:"blocks"`
	Layout []blockJSON `json:"layout,omitempty"`
}

type blockJSON struct {
	Addr  uint64 `json:"addr"`
	Size  uint64 `json:"size"`
	State string `json:"state"`
}

func runRun(cmd *cobra.Command, path string) error {
	ops, err := readTrace(cmd, path)
	if err != nil {
		return err
	}

	opts := runnerOptions()
	if runStrategy != "" {
		s, err := fitalloc.ParseStrategy(runStrategy)
		if err != nil {
			return err
		}
		opts = append(opts, trace.WithStrategy(s))
	}

	res, err := trace.NewRunner(opts...).Run(ops)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		steps := make([]stepJSON, 0, len(res.Steps))
		for _, step := range res.Steps {
			steps = append(steps, toStepJSON(step))
		}
		return printJSON(out, map[string]any{
			"steps": steps,
			"stats": res.Stats,
		})
	}

	for _, step := range res.Steps {
		fmt.Fprintf(out, "%4d  %-24s %s\n", step.Op.Line, step.Op, outcome(step))
		if step.Layout != nil {
			printLayout(out, step.Layout)
		}
	}
	return nil
}

func outcome(step trace.Step) string {
	switch {
	case step.Skipped:
		return "skipped"
	case step.Err != nil:
		return "error: " + step.Err.Error()
	case step.Op.Kind == trace.Alloc:
		return fmt.Sprintf("-> %#x  blocks=%d", uint64(step.Addr), step.Blocks)
	}
	return fmt.Sprintf("blocks=%d", step.Blocks)
}

func printLayout(w io.Writer, blocks []fitalloc.Block) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\taddr\tsize\tstate\t")
	for _, b := range blocks {
		fmt.Fprintf(tw, "\t%#x\t%d\t%s\t\n", uint64(b.Addr), b.Size, b.State)
	}
	tw.Flush()
}

func toStepJSON(step trace.Step) stepJSON {
	s := stepJSON{
		Line:   step.Op.Line,
		Op:     step.Op.String(),
		Blocks: step.Blocks,
	}
	if step.Op.Kind == trace.Alloc && step.Err == nil {
		addr := uint64(step.Addr)
		s.Addr = &addr
	}
	if step.Err != nil {
		s.Error = step.Err.Error()
	}
	for _, b := range step.Layout {
		s.Layout = append(s.Layout, blockJSON{Addr: uint64(b.Addr), Size: b.Size, State: b.State.String()})
	}
	return s
}
