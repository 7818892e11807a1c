package fitalloc

// Number of bytes in each word. Every block size and address is a multiple of
// wordSize.
const wordSize = 4

// nilIndex terminates the block list in either direction.
const nilIndex = -1

// Addr is the offset of a block from the start of the arena.
type Addr uint64

// State tells whether a block is available for allocation.
type State uint8

const (
	Free State = iota
	Used
)

func (s State) String() string {
	if s == Used {
		return "used"
	}
	return "free"
}

// Block describes one contiguous span of the arena.
type Block struct {
	Addr  Addr
	Size  uint64
	State State
}

// End returns the address immediately following the block.
func (b Block) End() Addr {
	return b.Addr + Addr(b.Size)
}

// blockRecord is a Block plus its position in the list. Records are stored in
// a table and refer to their neighbors by index.
type blockRecord struct {
	Block
	next int
	prev int
}

// blockList is a doubly linked list of blocks, ordered by address, which
// partitions the arena exactly.
type blockList struct {
	records []blockRecord

	// spare holds indexes of records that were discarded by a merge and can
	// be reused by the next split.
	spare []int

	head  int
	count int
}

// reset discards every record and starts over with a single free block of
// the given size.
func (l *blockList) reset(size uint64) {
	clear(l.records)
	l.records = append(l.records[:0], blockRecord{
		Block: Block{Size: size, State: Free},
		next:  nilIndex,
		prev:  nilIndex,
	})
	l.spare = l.spare[:0]
	l.head = 0
	l.count = 1
}

// release drops all records.
func (l *blockList) release() {
	l.records = nil
	l.spare = nil
	l.head = nilIndex
	l.count = 0
}

func (l *blockList) at(i int) *blockRecord {
	return &l.records[i]
}

// newRecord returns the index of an unused record, recycling a discarded one
// if possible.
func (l *blockList) newRecord() int {
	if n := len(l.spare); n > 0 {
		i := l.spare[n-1]
		l.spare = l.spare[:n-1]
		return i
	}
	l.records = append(l.records, blockRecord{})
	return len(l.records) - 1
}

// split shrinks block i to size bytes and inserts a free block covering the
// rest of its span directly after it. The caller guarantees that size is
// smaller than the block.
func (l *blockList) split(i int, size uint64) {
	b := l.at(i)
	if size >= b.Size {
		panic("fitalloc: split size is not smaller than the block")
	}
	leftover := b.Size - size
	addr := b.Addr + Addr(size)
	if addr < b.Addr {
		panic("fitalloc: block address overflow")
	}

	n := l.newRecord()
	// newRecord may have grown the table, so b can't be used past this point.
	b = l.at(i)
	b.Size = size

	*l.at(n) = blockRecord{
		Block: Block{Addr: addr, Size: leftover, State: Free},
		next:  b.next,
		prev:  i,
	}
	if b.next != nilIndex {
		l.at(b.next).prev = n
	}
	b.next = n
	l.count++
}

// mergeNext absorbs the block after i into i and returns the index of the
// discarded record.
func (l *blockList) mergeNext(i int) int {
	b := l.at(i)
	n := b.next
	nb := l.at(n)

	b.Size += nb.Size
	b.next = nb.next
	if nb.next != nilIndex {
		l.at(nb.next).prev = i
	}

	*nb = blockRecord{next: nilIndex, prev: nilIndex}
	l.spare = append(l.spare, n)
	l.count--
	return n
}

// find returns the index of the block containing addr, or nilIndex.
func (l *blockList) find(addr Addr) int {
	for i := l.head; i != nilIndex; i = l.at(i).next {
		b := l.at(i)
		if addr >= b.Addr && addr < b.End() {
			return i
		}
	}
	return nilIndex
}

// snapshot copies the blocks in address order.
func (l *blockList) snapshot() []Block {
	blocks := make([]Block, 0, l.count)
	for i := l.head; i != nilIndex; i = l.at(i).next {
		blocks = append(blocks, l.at(i).Block)
	}
	return blocks
}
