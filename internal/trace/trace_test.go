package trace

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pboyd/fitalloc"
)

const sampleTrace = `
# Leave a hole at the front and see who fills it.
init 200 first-fit
alloc a 52
alloc b 8   # pin the hole
free a
alloc c 40
count
dump
`

func TestParse(t *testing.T) {
	assert := assert.New(t)

	ops, err := Parse(strings.NewReader(sampleTrace))
	if !assert.NoError(err) {
		return
	}

	assert.Equal([]Op{
		{Line: 3, Kind: Init, Size: 200, Strategy: fitalloc.FirstFit},
		{Line: 4, Kind: Alloc, Name: "a", Size: 52},
		{Line: 5, Kind: Alloc, Name: "b", Size: 8},
		{Line: 6, Kind: Free, Name: "a"},
		{Line: 7, Kind: Alloc, Name: "c", Size: 40},
		{Line: 8, Kind: Count},
		{Line: 9, Kind: Dump},
	}, ops)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unknown op":       "grow 10",
		"missing argument": "alloc a",
		"extra argument":   "free a b",
		"bad size":         "alloc a ten",
		"bad strategy":     "init 100 buddy",
		"init arity":       "init 100",
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader("count\n" + text + "\n"))
			assert.ErrorIs(t, err, ErrSyntax)
			assert.ErrorContains(t, err, "line 2")
		})
	}
}

func TestParseHexSize(t *testing.T) {
	ops, err := Parse(strings.NewReader("init 0x400 worst\nalloc x 0x10"))
	require.NoError(t, err)
	assert.Equal(t, int64(1024), ops[0].Size)
	assert.Equal(t, fitalloc.WorstFit, ops[0].Strategy)
	assert.Equal(t, int64(16), ops[1].Size)
}

func runTrace(t *testing.T, text string, opts ...RunnerOption) *Result {
	t.Helper()
	ops, err := Parse(strings.NewReader(text))
	require.NoError(t, err)
	res, err := NewRunner(opts...).Run(ops)
	require.NoError(t, err)
	return res
}

func TestRun(t *testing.T) {
	assert := assert.New(t)

	res := runTrace(t, sampleTrace)
	if !assert.Len(res.Steps, 7) {
		return
	}

	assert.Equal(fitalloc.Addr(0), res.Steps[1].Addr)
	assert.Equal(fitalloc.Addr(52), res.Steps[2].Addr)
	assert.Equal(fitalloc.Addr(0), res.Steps[4].Addr)
	assert.Equal(4, res.Steps[5].Blocks)
	assert.Equal([]fitalloc.Block{
		{Addr: 0, Size: 40, State: fitalloc.Used},
		{Addr: 40, Size: 12, State: fitalloc.Free},
		{Addr: 52, Size: 8, State: fitalloc.Used},
		{Addr: 60, Size: 140, State: fitalloc.Free},
	}, res.Steps[6].Layout)

	assert.Equal(uint64(3), res.Stats.Allocs)
	assert.Equal(uint64(1), res.Stats.Releases)
}

func TestRunWithStrategy(t *testing.T) {
	want := map[fitalloc.Strategy]fitalloc.Addr{
		fitalloc.FirstFit: 0,
		fitalloc.NextFit:  60,
		fitalloc.BestFit:  0,
		fitalloc.WorstFit: 60,
	}
	for s, addr := range want {
		t.Run(s.String(), func(t *testing.T) {
			res := runTrace(t, sampleTrace, WithStrategy(s))
			assert.Equal(t, s, res.Stats.Strategy)
			assert.Equal(t, addr, res.Steps[4].Addr)
		})
	}
}

func TestRunOutOfMemory(t *testing.T) {
	assert := assert.New(t)

	res := runTrace(t, `
init 100 best
alloc a 40
alloc b 40
alloc c 40
free c
free a
`)
	assert.ErrorIs(res.Steps[3].Err, fitalloc.ErrOutOfMemory)
	assert.True(res.Steps[4].Skipped)
	assert.NoError(res.Steps[5].Err)
	assert.Equal(uint64(1), res.Stats.Failures)
}

func TestRunDoubleFree(t *testing.T) {
	assert := assert.New(t)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	res := runTrace(t, "init 100 first\nalloc a 50\nfree a\nfree a\n", WithLogger(logger))
	assert.NoError(res.Steps[3].Err)
	assert.Equal(1, res.Steps[3].Blocks)
	assert.Equal(uint64(1), res.Stats.DoubleReleases)
	assert.Contains(logs.String(), "double release")
}

func TestRunDestroy(t *testing.T) {
	assert := assert.New(t)

	res := runTrace(t, "init 64 next\nalloc a 8\ndestroy\ninit 32 next\ncount\n")
	assert.Equal(0, res.Steps[2].Blocks)
	assert.Equal(1, res.Steps[4].Blocks)
	assert.Equal(uint64(32), res.Stats.Size)
}

func TestRunErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		want error
	}{
		{"before init", "alloc a 4", ErrNotInitialized},
		{"after destroy", "init 8 first\ndestroy\ncount", ErrNotInitialized},
		{"unknown name", "init 8 first\nfree a", ErrUnknownName},
		{"negative init", "init -8 first", fitalloc.ErrInvalidSize},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ops, err := Parse(strings.NewReader(tc.text))
			require.NoError(t, err)
			_, err = NewRunner().Run(ops)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRunArenaOptions(t *testing.T) {
	ops, err := Parse(strings.NewReader("init 1024 first"))
	require.NoError(t, err)

	_, err = NewRunner(WithArenaOptions(fitalloc.WithLimit(512))).Run(ops)
	assert.ErrorIs(t, err, fitalloc.ErrReserve)
}
