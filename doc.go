// Package fitalloc simulates a heap allocator over a single fixed-size arena.
//
// The arena is partitioned into blocks, each either free or used. Allocate
// picks a free block according to the arena's Strategy, splits off whatever
// it doesn't need, and returns the block's address (an offset into the
// arena). Release marks a block free again and merges it with free
// neighbors, so two free blocks are never adjacent.
//
//	a, err := fitalloc.New(1024, fitalloc.BestFit)
//	if err != nil {
//		return err
//	}
//	defer a.Destroy()
//
//	addr, err := a.Allocate(100)
//	if errors.Is(err, fitalloc.ErrOutOfMemory) {
//		// Release something and try again, or ask for less.
//	}
//	buf, _ := a.Bytes(addr) // 100 bytes of arena memory
//
//	a.Release(addr)
//
// Four strategies are available:
//
//   - FirstFit: the lowest-addressed free block that is large enough.
//   - NextFit: like FirstFit, but the search starts after the block returned
//     by the previous allocation and wraps around once.
//   - BestFit: the free block that leaves the least space over.
//   - WorstFit: the largest free block.
//
// Sizes are rounded up to a multiple of 4 bytes. No other alignment is
// guaranteed.
//
// Blocks, Stats and Check expose the layout, which is mostly useful for
// comparing how the strategies fragment the arena under the same workload.
package fitalloc
