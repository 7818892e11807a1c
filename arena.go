package fitalloc

import (
	"log/slog"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Arena holds a fixed amount of memory which can be allocated with one of the
// placement strategies.
//
// The zero value is an uninitialized Arena; call Init before using it.
//
// Arena is not safe for concurrent use. Use a mutex if it will be used in
// multiple goroutines.
type Arena struct {
	buf      []byte
	unmap    func([]byte) error
	strategy Strategy
	blocks   blockList

	// cursor is the block returned by the most recent allocation. NextFit
	// starts scanning after it.
	cursor int

	log   *slog.Logger
	mmap  bool
	limit uint64
	stats counters
}

// Option configures an Arena.
type Option func(*Arena)

// WithLogger sets the logger used for warnings such as double releases. The
// default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Arena) {
		a.log = l
	}
}

// WithMmap reserves the backing region with an anonymous memory mapping
// instead of the Go heap, where the platform supports it.
func WithMmap() Option {
	return func(a *Arena) {
		a.mmap = true
	}
}

// WithLimit caps the size of the backing region. Init fails with ErrReserve
// when the aligned size exceeds n bytes. Zero means no limit.
func WithLimit(n uint64) Option {
	return func(a *Arena) {
		a.limit = n
	}
}

// New makes a new arena of the given size using the given strategy. If the
// size is not evenly divisible by the word size (4 bytes) it will be rounded
// up.
//
// New returns ErrInvalidSize if size is negative, ErrUnknownStrategy if the
// strategy isn't valid, and ErrReserve if the memory can't be reserved.
func New[N constraints.Integer](size N, strategy Strategy, opts ...Option) (*Arena, error) {
	a := &Arena{cursor: nilIndex}
	for _, opt := range opts {
		opt(a)
	}

	if size < 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "arena size %d", size)
	}
	if err := a.init(uint64(size), strategy); err != nil {
		return nil, err
	}
	return a, nil
}

// Init discards any memory currently held by the arena and starts over with a
// new region of the given size and strategy. Options given to New still
// apply.
//
// If Init fails the arena is left uninitialized.
func (a *Arena) Init(size int64, strategy Strategy) error {
	if size < 0 {
		a.Destroy()
		return errors.Wrapf(ErrInvalidSize, "arena size %d", size)
	}
	return a.init(uint64(size), strategy)
}

func (a *Arena) init(size uint64, strategy Strategy) error {
	a.Destroy()

	if !strategy.Valid() {
		return errors.Wrapf(ErrUnknownStrategy, "%d", strategy)
	}

	aligned, ok := align(size)
	if !ok {
		return errors.Wrapf(ErrInvalidSize, "arena size %d", size)
	}
	if a.limit > 0 && aligned > a.limit {
		return errors.Wrapf(ErrReserve, "%d bytes exceeds the limit of %d", aligned, a.limit)
	}
	if aligned > math.MaxInt {
		return errors.Wrapf(ErrReserve, "%d bytes is not addressable", aligned)
	}

	buf, unmap, err := a.reserve(int(aligned))
	if err != nil {
		return err
	}

	a.buf = buf
	a.unmap = unmap
	a.strategy = strategy
	a.blocks.reset(aligned)
	a.cursor = a.blocks.head
	a.stats = counters{}
	return nil
}

func (a *Arena) reserve(n int) ([]byte, func([]byte) error, error) {
	if a.mmap && n > 0 {
		buf, err := mmapRegion(n)
		if err != nil {
			return nil, nil, errors.Wrapf(ErrReserve, "mmap %d bytes: %v", n, err)
		}
		return buf, munmapRegion, nil
	}
	return make([]byte, n), nil, nil
}

// Destroy releases the arena's memory and every block. Allocate, Release and
// Bytes return ErrDestroyed until the arena is initialized again. Calling
// Destroy more than once is harmless.
func (a *Arena) Destroy() {
	if a.unmap != nil {
		if err := a.unmap(a.buf); err != nil {
			a.logger().Warn("fitalloc: munmap failed", "err", err)
		}
	}
	a.buf = nil
	a.unmap = nil
	a.blocks.release()
	a.cursor = nilIndex
}

// Initialized reports whether the arena currently holds memory.
func (a *Arena) Initialized() bool {
	return a.blocks.count > 0
}

// Size returns the total amount of memory (in bytes) managed by the arena.
func (a *Arena) Size() uint64 {
	return uint64(len(a.buf))
}

// Strategy returns the placement strategy chosen at Init.
func (a *Arena) Strategy() Strategy {
	return a.strategy
}

// BlockCount returns the number of blocks, free and used, in the arena. It
// grows by one with every split and shrinks by one with every merge.
func (a *Arena) BlockCount() int {
	return a.blocks.count
}

// Blocks returns a copy of the block list in address order.
func (a *Arena) Blocks() []Block {
	if !a.Initialized() {
		return nil
	}
	return a.blocks.snapshot()
}

// Bytes returns the memory of the used block starting at addr. The slice is
// only valid until the block is released or the arena is destroyed.
func (a *Arena) Bytes(addr Addr) ([]byte, error) {
	if !a.Initialized() {
		return nil, ErrDestroyed
	}
	i := a.blocks.find(addr)
	if i == nilIndex {
		return nil, errors.Wrapf(ErrUnknownAddress, "%#x", addr)
	}
	b := a.blocks.at(i)
	if b.Addr != addr || b.State != Used {
		return nil, errors.Wrapf(ErrUnknownAddress, "%#x", addr)
	}
	return a.buf[b.Addr:b.End():b.End()], nil
}

func (a *Arena) logger() *slog.Logger {
	if a.log == nil {
		return slog.Default()
	}
	return a.log
}

// align rounds size up to the next word boundary. It returns false if that
// would overflow.
func align(size uint64) (uint64, bool) {
	if size > math.MaxUint64-(wordSize-1) {
		return 0, false
	}
	return (size + wordSize - 1) &^ (wordSize - 1), true
}
