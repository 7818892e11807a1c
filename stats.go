package fitalloc

// counters are reset by every Init.
type counters struct {
	allocs         uint64
	failures       uint64
	releases       uint64
	doubleReleases uint64
}

// Stats is a snapshot of the arena's layout and activity.
type Stats struct {
	Strategy   Strategy
	Size       uint64 // Total bytes in the arena
	Blocks     int    // Number of blocks
	FreeBlocks int    // Number of free blocks
	UsedBlocks int    // Number of used blocks
	FreeBytes  uint64 // Bytes in free blocks
	UsedBytes  uint64 // Bytes in used blocks

	// LargestFree is the size of the largest free block, which is the
	// largest allocation that can currently succeed.
	LargestFree uint64

	// Fragmentation is 1 - LargestFree/FreeBytes. It is 0 when all free
	// memory is in one block (or there is none) and approaches 1 as free
	// memory is split into many small blocks.
	Fragmentation float64

	Allocs         uint64 // Successful allocations
	Failures       uint64 // Allocations that returned ErrOutOfMemory
	Releases       uint64 // Successful releases
	DoubleReleases uint64 // Releases of already free memory
}

// Stats walks the block list and returns a snapshot of arena statistics.
func (a *Arena) Stats() Stats {
	s := Stats{
		Strategy:       a.strategy,
		Size:           a.Size(),
		Blocks:         a.blocks.count,
		Allocs:         a.stats.allocs,
		Failures:       a.stats.failures,
		Releases:       a.stats.releases,
		DoubleReleases: a.stats.doubleReleases,
	}
	if !a.Initialized() {
		return s
	}

	for i := a.blocks.head; i != nilIndex; i = a.blocks.at(i).next {
		b := a.blocks.at(i)
		if b.State == Used {
			s.UsedBlocks++
			s.UsedBytes += b.Size
			continue
		}
		s.FreeBlocks++
		s.FreeBytes += b.Size
		s.LargestFree = max(s.LargestFree, b.Size)
	}

	if s.FreeBytes > 0 {
		s.Fragmentation = 1 - float64(s.LargestFree)/float64(s.FreeBytes)
	}
	return s
}
