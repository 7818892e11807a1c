package fitalloc

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Allocate reserves a block of at least size bytes and returns its address.
// Sizes are rounded up to a multiple of 4. The memory is not zeroed.
//
// The free block is chosen by the arena's Strategy. If it is larger than
// needed it is split and the remainder stays free. ErrOutOfMemory is returned
// when no free block is large enough; the arena is unchanged in that case.
func (a *Arena) Allocate(size uint64) (Addr, error) {
	if !a.Initialized() {
		return 0, ErrDestroyed
	}
	if size == 0 {
		return 0, errors.Wrap(ErrInvalidSize, "zero-byte allocation")
	}

	aligned, ok := align(size)
	if !ok {
		return 0, errors.Wrapf(ErrInvalidSize, "allocation of %d bytes", size)
	}

	var i int
	switch a.strategy {
	case FirstFit:
		i = a.firstFit(aligned)
	case NextFit:
		i = a.nextFit(aligned)
	case BestFit:
		i = a.bestFit(aligned)
	case WorstFit:
		i = a.worstFit(aligned)
	default:
		// Init refuses invalid strategies, so this is only reachable if the
		// arena was modified behind our back.
		panic("fitalloc: unknown strategy " + a.strategy.String())
	}

	if i == nilIndex {
		a.stats.failures++
		return 0, errors.Wrapf(ErrOutOfMemory, "no free block of %d bytes", aligned)
	}

	b := a.blocks.at(i)
	b.State = Used
	if b.Size > aligned {
		a.blocks.split(i, aligned)
	}

	a.cursor = i
	a.stats.allocs++
	return a.blocks.at(i).Addr, nil
}

// Alloc is Allocate for any integer size type. It returns ErrInvalidSize for
// negative sizes.
func Alloc[N constraints.Integer](a *Arena, size N) (Addr, error) {
	if size < 0 {
		return 0, errors.Wrapf(ErrInvalidSize, "allocation of %d bytes", size)
	}
	return a.Allocate(uint64(size))
}

// fits reports whether block i can hold size bytes.
func (a *Arena) fits(i int, size uint64) bool {
	b := a.blocks.at(i)
	return b.State == Free && b.Size >= size
}

func (a *Arena) firstFit(size uint64) int {
	for i := a.blocks.head; i != nilIndex; i = a.blocks.at(i).next {
		if a.fits(i, size) {
			return i
		}
	}
	return nilIndex
}

// nextFit scans from the block after the cursor to the end of the list, then
// from the head back up to where it started. Coming back to the start without
// a match means the arena is exhausted.
func (a *Arena) nextFit(size uint64) int {
	start := a.blocks.head
	if a.cursor != nilIndex {
		if next := a.blocks.at(a.cursor).next; next != nilIndex {
			start = next
		}
	}

	for i := start; i != nilIndex; i = a.blocks.at(i).next {
		if a.fits(i, size) {
			return i
		}
	}
	for i := a.blocks.head; i != start; i = a.blocks.at(i).next {
		if a.fits(i, size) {
			return i
		}
	}
	return nilIndex
}

// bestFit picks the block with the least space left over. Ties go to the
// lowest address.
func (a *Arena) bestFit(size uint64) int {
	best := nilIndex
	var bestLeftover uint64
	for i := a.blocks.head; i != nilIndex; i = a.blocks.at(i).next {
		if !a.fits(i, size) {
			continue
		}
		leftover := a.blocks.at(i).Size - size
		if best == nilIndex || leftover < bestLeftover {
			best = i
			bestLeftover = leftover
			if leftover == 0 {
				break
			}
		}
	}
	return best
}

// worstFit picks the largest block. Ties go to the lowest address.
func (a *Arena) worstFit(size uint64) int {
	worst := nilIndex
	for i := a.blocks.head; i != nilIndex; i = a.blocks.at(i).next {
		if !a.fits(i, size) {
			continue
		}
		if worst == nilIndex || a.blocks.at(i).Size > a.blocks.at(worst).Size {
			worst = i
		}
	}
	return worst
}
