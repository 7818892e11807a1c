package fitalloc

import "github.com/pkg/errors"

var (
	// ErrOutOfMemory is returned when there is no free block in the Arena
	// large enough to satisfy the request.
	ErrOutOfMemory = errors.New("fitalloc: out of memory")

	// ErrInvalidSize is returned for negative sizes, zero-byte allocations
	// and sizes that overflow when rounded up to the word size.
	ErrInvalidSize = errors.New("fitalloc: invalid size")

	// ErrUnknownStrategy is returned by New and Init when the placement
	// strategy is not one of the defined constants.
	ErrUnknownStrategy = errors.New("fitalloc: unknown placement strategy")

	// ErrReserve indicates the backing region could not be reserved.
	ErrReserve = errors.New("fitalloc: cannot reserve arena")

	// ErrUnknownAddress is returned by Release for an address that does not
	// start an allocated block.
	ErrUnknownAddress = errors.New("fitalloc: address was not allocated")

	// ErrDestroyed is returned when an Arena is used before Init or after
	// Destroy.
	ErrDestroyed = errors.New("fitalloc: arena is not initialized")
)
