package fitalloc

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Strategy selects which free block satisfies an allocation.
type Strategy uint8

const (
	// FirstFit takes the first free block, from the start of the arena, that
	// is large enough.
	FirstFit Strategy = iota
	// NextFit is like FirstFit but resumes the scan after the block returned
	// by the previous allocation, wrapping around once.
	NextFit
	// BestFit takes the free block that leaves the least space over.
	BestFit
	// WorstFit takes the largest free block.
	WorstFit
)

// Strategies lists every placement strategy in declaration order.
var Strategies = []Strategy{FirstFit, NextFit, BestFit, WorstFit}

var strategyNames = [...]string{
	FirstFit: "first-fit",
	NextFit:  "next-fit",
	BestFit:  "best-fit",
	WorstFit: "worst-fit",
}

// Valid reports whether s is one of the defined strategies.
func (s Strategy) Valid() bool {
	return int(s) < len(strategyNames)
}

func (s Strategy) String() string {
	if !s.Valid() {
		return "Strategy(" + strconv.Itoa(int(s)) + ")"
	}
	return strategyNames[s]
}

// ParseStrategy converts a name such as "best-fit", "bestfit" or "best" to a
// Strategy. Matching is case-insensitive.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimSuffix(strings.NewReplacer("-", "", "_", "").Replace(n), "fit")
	switch n {
	case "first":
		return FirstFit, nil
	case "next":
		return NextFit, nil
	case "best":
		return BestFit, nil
	case "worst":
		return WorstFit, nil
	}
	return 0, errors.Wrapf(ErrUnknownStrategy, "%q", name)
}
