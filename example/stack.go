package example

import (
	"github.com/pkg/errors"

	"github.com/pboyd/fitalloc"
)

// ErrStackOverflow is returned by Push when the memory has been exhausted.
var ErrStackOverflow = errors.New("stack overflow")

// ErrStackUnderflow is returned by Pop when the stack is empty.
var ErrStackUnderflow = errors.New("stack underflow")

// Stack is a stack of variable-length byte records which uses a fixed amount
// of memory.
type Stack struct {
	arena *fitalloc.Arena
	items []stackItem
}

type stackItem struct {
	addr fitalloc.Addr
	len  int
}

// NewStack returns a stack using a specific amount of memory. Size is in
// bytes. The actual memory size may be rounded up.
func NewStack(size int, strategy fitalloc.Strategy) (*Stack, error) {
	a, err := fitalloc.New(size, strategy)
	if err != nil {
		return nil, err
	}
	return &Stack{arena: a}, nil
}

// Push adds a copy of an item to the stack.
//
// Returns ErrStackOverflow if the stack is full.
func (s *Stack) Push(item []byte) error {
	if len(item) == 0 {
		s.items = append(s.items, stackItem{})
		return nil
	}

	addr, err := fitalloc.Alloc(s.arena, len(item))
	if err != nil {
		if errors.Is(err, fitalloc.ErrOutOfMemory) {
			return ErrStackOverflow
		}
		return err
	}

	buf, err := s.arena.Bytes(addr)
	if err != nil {
		return err
	}
	copy(buf, item)

	s.items = append(s.items, stackItem{addr: addr, len: len(item)})
	return nil
}

// Pop removes the last item pushed onto the stack and returns it.
//
// If the stack is empty ErrStackUnderflow is returned.
func (s *Stack) Pop() ([]byte, error) {
	n := len(s.items)
	if n == 0 {
		return nil, ErrStackUnderflow
	}
	top := s.items[n-1]
	s.items = s.items[:n-1]

	if top.len == 0 {
		return []byte{}, nil
	}

	buf, err := s.arena.Bytes(top.addr)
	if err != nil {
		return nil, err
	}
	dup := append([]byte(nil), buf[:top.len]...)

	if err := s.arena.Release(top.addr); err != nil {
		return nil, err
	}
	return dup, nil
}

// Len returns the number of items on the stack.
func (s *Stack) Len() int {
	return len(s.items)
}

// Close releases the stack's memory.
func (s *Stack) Close() {
	s.arena.Destroy()
	s.items = nil
}
