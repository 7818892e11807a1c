package fitalloc

import "github.com/pkg/errors"

// Release frees the block starting at addr and merges it with any free
// neighbors.
//
// Releasing an address that is already free is logged as a warning and
// otherwise ignored. Release returns ErrUnknownAddress if addr was never
// returned by Allocate.
func (a *Arena) Release(addr Addr) error {
	if !a.Initialized() {
		return ErrDestroyed
	}

	i := a.blocks.find(addr)
	if i == nilIndex {
		return errors.Wrapf(ErrUnknownAddress, "%#x is outside the arena", addr)
	}

	b := a.blocks.at(i)
	switch {
	case b.State == Free:
		// Either the block is still free at this address, or it was freed
		// and then merged into the free block before it. Both are double
		// releases.
		a.stats.doubleReleases++
		a.logger().Warn("fitalloc: double release detected",
			"addr", uint64(addr),
			"block", uint64(b.Addr),
			"size", b.Size)
		return nil
	case b.Addr != addr:
		return errors.Wrapf(ErrUnknownAddress, "%#x is inside the block at %#x", addr, b.Addr)
	}

	b.State = Free
	a.stats.releases++
	a.coalesce()
	return nil
}

// coalesce walks the whole list and merges every pair of adjacent free
// blocks. After a merge the same block is checked against its new neighbor,
// so runs of any length collapse into one block.
func (a *Arena) coalesce() {
	l := &a.blocks
	i := l.head
	for i != nilIndex {
		b := l.at(i)
		if b.State == Free && b.next != nilIndex && l.at(b.next).State == Free {
			if gone := l.mergeNext(i); gone == a.cursor {
				a.cursor = i
			}
			continue
		}
		i = b.next
	}
}
