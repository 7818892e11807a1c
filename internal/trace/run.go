package trace

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/pboyd/fitalloc"
)

// ErrNotInitialized is returned when a trace uses the arena before an init
// line.
var ErrNotInitialized = errors.New("trace: arena used before init")

// ErrUnknownName is returned for a free of a name that was never allocated.
var ErrUnknownName = errors.New("trace: unknown block name")

// Step is the outcome of one operation.
type Step struct {
	Op Op

	// Addr is the address returned by an alloc.
	Addr fitalloc.Addr

	// Err is the error returned by the arena for an alloc or free. Running
	// out of memory is an expected result and doesn't stop the trace.
	Err error

	// Skipped is set for a free of a name whose alloc failed.
	Skipped bool

	// Blocks is the block count after the operation.
	Blocks int

	// Layout is only set for dump.
	Layout []fitalloc.Block
}

// Result is the outcome of a whole trace.
type Result struct {
	Steps []Step

	// Stats are taken after the last operation, or before the last destroy
	// if the trace ends with one.
	Stats fitalloc.Stats
}

// Runner replays traces.
type Runner struct {
	strategy  *fitalloc.Strategy
	log       *slog.Logger
	arenaOpts []fitalloc.Option
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithStrategy makes every init line use s, whatever the trace says.
func WithStrategy(s fitalloc.Strategy) RunnerOption {
	return func(r *Runner) {
		r.strategy = &s
	}
}

// WithLogger sets the logger for per-step debug output and arena warnings.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

// WithArenaOptions passes options through to fitalloc.New.
func WithArenaOptions(opts ...fitalloc.Option) RunnerOption {
	return func(r *Runner) {
		r.arenaOpts = append(r.arenaOpts, opts...)
	}
}

// NewRunner returns a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{log: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run replays ops against a fresh arena. Errors from the arena are recorded
// in each Step; Run itself only fails when the trace is inconsistent (using
// the arena before init, freeing a name that was never allocated) or an init
// is rejected.
func (r *Runner) Run(ops []Op) (*Result, error) {
	var (
		arena  *fitalloc.Arena
		names  = map[string]fitalloc.Addr{}
		failed = map[string]bool{}
		res    = &Result{}
	)
	defer func() {
		if arena != nil {
			arena.Destroy()
		}
	}()

	for _, op := range ops {
		if op.Kind != Init && arena == nil {
			return nil, errors.Wrapf(ErrNotInitialized, "line %d: %s", op.Line, op)
		}

		step := Step{Op: op}
		switch op.Kind {
		case Init:
			strategy := op.Strategy
			if r.strategy != nil {
				strategy = *r.strategy
			}
			if arena != nil {
				arena.Destroy()
			}
			var err error
			opts := append([]fitalloc.Option{fitalloc.WithLogger(r.log)}, r.arenaOpts...)
			arena, err = fitalloc.New(op.Size, strategy, opts...)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", op.Line)
			}
			clear(names)
			clear(failed)

		case Alloc:
			step.Addr, step.Err = fitalloc.Alloc(arena, op.Size)
			if step.Err == nil {
				names[op.Name] = step.Addr
				delete(failed, op.Name)
			} else {
				delete(names, op.Name)
				failed[op.Name] = true
			}

		case Free:
			addr, ok := names[op.Name]
			if !ok && failed[op.Name] {
				step.Skipped = true
				break
			}
			if !ok {
				return nil, errors.Wrapf(ErrUnknownName, "line %d: %q", op.Line, op.Name)
			}
			step.Err = arena.Release(addr)

		case Dump:
			step.Layout = arena.Blocks()

		case Destroy:
			res.Stats = arena.Stats()
			arena.Destroy()
			arena = nil
			clear(names)
			clear(failed)
		}

		if arena != nil {
			step.Blocks = arena.BlockCount()
		}
		r.log.Debug("trace step",
			"line", op.Line,
			"op", op.String(),
			"addr", uint64(step.Addr),
			"blocks", step.Blocks,
			"err", step.Err)
		res.Steps = append(res.Steps, step)
	}

	if arena != nil {
		res.Stats = arena.Stats()
	}
	return res, nil
}
