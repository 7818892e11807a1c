// Package trace reads and replays allocation traces.
//
// A trace is a text file with one operation per line:
//
//	# a comment
//	init 1024 best-fit   # start a new arena
//	alloc a 100          # allocate 100 bytes and call the block "a"
//	free a               # release the block called "a"
//	count                # record the number of blocks
//	dump                 # record the full block layout
//	destroy              # release the arena
//
// Blank lines and anything after a '#' are ignored.
package trace

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/pboyd/fitalloc"
)

// Kind identifies an operation.
type Kind uint8

const (
	Init Kind = iota + 1
	Alloc
	Free
	Count
	Dump
	Destroy
)

var kindNames = map[Kind]string{
	Init:    "init",
	Alloc:   "alloc",
	Free:    "free",
	Count:   "count",
	Dump:    "dump",
	Destroy: "destroy",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Op is one line of a trace.
type Op struct {
	Line     int
	Kind     Kind
	Name     string
	Size     int64
	Strategy fitalloc.Strategy
}

func (op Op) String() string {
	switch op.Kind {
	case Init:
		return "init " + strconv.FormatInt(op.Size, 10) + " " + op.Strategy.String()
	case Alloc:
		return "alloc " + op.Name + " " + strconv.FormatInt(op.Size, 10)
	case Free:
		return "free " + op.Name
	}
	return op.Kind.String()
}

// ErrSyntax is returned for lines that can't be parsed.
var ErrSyntax = errors.New("trace: syntax error")

// Parse reads a trace.
func Parse(r io.Reader) ([]Op, error) {
	var ops []Op
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text, _, _ := strings.Cut(sc.Text(), "#")
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		op, err := parseOp(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		op.Line = line
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "trace: read")
	}
	return ops, nil
}

func parseOp(fields []string) (Op, error) {
	want := map[string]int{
		"init":    3,
		"alloc":   3,
		"free":    2,
		"count":   1,
		"dump":    1,
		"destroy": 1,
	}
	verb := strings.ToLower(fields[0])
	n, ok := want[verb]
	if !ok {
		return Op{}, errors.Wrapf(ErrSyntax, "unknown operation %q", fields[0])
	}
	if len(fields) != n {
		return Op{}, errors.Wrapf(ErrSyntax, "%s takes %d argument(s), got %d", verb, n-1, len(fields)-1)
	}

	switch verb {
	case "init":
		size, err := parseSize(fields[1])
		if err != nil {
			return Op{}, err
		}
		s, err := fitalloc.ParseStrategy(fields[2])
		if err != nil {
			return Op{}, errors.Wrap(ErrSyntax, err.Error())
		}
		return Op{Kind: Init, Size: size, Strategy: s}, nil
	case "alloc":
		size, err := parseSize(fields[2])
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: Alloc, Name: fields[1], Size: size}, nil
	case "free":
		return Op{Kind: Free, Name: fields[1]}, nil
	case "count":
		return Op{Kind: Count}, nil
	case "dump":
		return Op{Kind: Dump}, nil
	}
	return Op{Kind: Destroy}, nil
}

func parseSize(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrSyntax, "bad size %q", s)
	}
	return n, nil
}
