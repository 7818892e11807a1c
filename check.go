package fitalloc

import "github.com/pkg/errors"

// Check verifies the block list:
//
//   - blocks are in address order with no gaps or overlaps,
//   - their sizes add up to the size of the arena,
//   - every size is a multiple of the word size,
//   - no two neighboring blocks are both free,
//   - the links agree in both directions.
//
// It returns an error describing the first problem found.
func (a *Arena) Check() error {
	if !a.Initialized() {
		return ErrDestroyed
	}

	l := &a.blocks
	var (
		next     Addr
		total    uint64
		n        int
		prev     = nilIndex
		prevFree bool
	)
	for i := l.head; i != nilIndex; i = l.at(i).next {
		b := l.at(i)
		switch {
		case b.prev != prev:
			return errors.Errorf("block %#x: prev link is %d, want %d", b.Addr, b.prev, prev)
		case b.Addr != next:
			return errors.Errorf("block %#x: expected to start at %#x", b.Addr, next)
		case b.Size%wordSize != 0:
			return errors.Errorf("block %#x: size %d is not word aligned", b.Addr, b.Size)
		case prevFree && b.State == Free:
			return errors.Errorf("block %#x: adjacent free blocks were not merged", b.Addr)
		}

		total += b.Size
		next = b.End()
		prev = i
		prevFree = b.State == Free
		n++
		if n > len(l.records) {
			return errors.New("block list contains a cycle")
		}
	}

	if total != a.Size() {
		return errors.Errorf("blocks cover %d bytes, arena is %d", total, a.Size())
	}
	if n != l.count {
		return errors.Errorf("found %d blocks, expected %d", n, l.count)
	}
	if a.cursor != nilIndex && (a.cursor >= len(l.records) || l.at(a.cursor).prev == nilIndex && a.cursor != l.head) {
		return errors.Errorf("cursor %d does not refer to a block", a.cursor)
	}
	return nil
}
