package fitalloc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	assert := assert.New(t)

	a, err := New(1024, FirstFit)
	if !assert.NoError(err) {
		return
	}

	assert.Equal(uint64(1024), a.Size())
	assert.Equal(FirstFit, a.Strategy())
	assert.Equal(1, a.BlockCount())
	assert.Equal([]Block{{Addr: 0, Size: 1024, State: Free}}, a.Blocks())
	assert.NoError(a.Check())
}

func TestNewRoundsUp(t *testing.T) {
	assert := assert.New(t)

	a, err := New(uint16(13), WorstFit)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(uint64(16), a.Size())
	assert.Equal([]Block{{Size: 16, State: Free}}, a.Blocks())
}

func TestNewEmpty(t *testing.T) {
	assert := assert.New(t)

	a, err := New(0, BestFit)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(1, a.BlockCount())
	assert.NoError(a.Check())

	_, err = a.Allocate(4)
	assert.ErrorIs(err, ErrOutOfMemory)
}

func TestNewErrors(t *testing.T) {
	cases := []struct {
		name string
		new  func() (*Arena, error)
		want error
	}{
		{
			name: "negative size",
			new:  func() (*Arena, error) { return New(-1, FirstFit) },
			want: ErrInvalidSize,
		},
		{
			name: "align overflow",
			new:  func() (*Arena, error) { return New(uint64(math.MaxUint64), FirstFit) },
			want: ErrInvalidSize,
		},
		{
			name: "not addressable",
			new:  func() (*Arena, error) { return New(uint64(math.MaxUint64-7), FirstFit) },
			want: ErrReserve,
		},
		{
			name: "over limit",
			new:  func() (*Arena, error) { return New(100, FirstFit, WithLimit(64)) },
			want: ErrReserve,
		},
		{
			name: "unknown strategy",
			new:  func() (*Arena, error) { return New(100, Strategy(9)) },
			want: ErrUnknownStrategy,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := tc.new()
			assert.Nil(t, a)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestInitFailureLeavesNoState(t *testing.T) {
	assert := assert.New(t)

	a, err := New(100, FirstFit, WithLimit(128))
	require.NoError(t, err)
	_, err = a.Allocate(10)
	require.NoError(t, err)

	assert.ErrorIs(a.Init(256, FirstFit), ErrReserve)
	assert.False(a.Initialized())
	assert.Equal(0, a.BlockCount())
	assert.Nil(a.Blocks())

	assert.ErrorIs(a.Init(-4, FirstFit), ErrInvalidSize)
	assert.False(a.Initialized())
}

func TestDestroy(t *testing.T) {
	assert := assert.New(t)

	a, err := New(100, FirstFit)
	require.NoError(t, err)
	addr, err := a.Allocate(40)
	require.NoError(t, err)

	a.Destroy()
	a.Destroy()

	assert.False(a.Initialized())
	assert.Equal(0, a.BlockCount())
	assert.Equal(uint64(0), a.Size())

	_, err = a.Allocate(4)
	assert.ErrorIs(err, ErrDestroyed)
	assert.ErrorIs(a.Release(addr), ErrDestroyed)
	_, err = a.Bytes(addr)
	assert.ErrorIs(err, ErrDestroyed)
	assert.ErrorIs(a.Check(), ErrDestroyed)
}

func TestDestroyThenInit(t *testing.T) {
	assert := assert.New(t)

	a, err := New(100, NextFit)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := a.Allocate(20)
		require.NoError(t, err)
	}
	require.Equal(t, 4, a.BlockCount())

	for i := 0; i < 3; i++ {
		a.Destroy()
		if !assert.NoError(a.Init(100, NextFit)) {
			return
		}
		assert.Equal([]Block{{Size: 100, State: Free}}, a.Blocks())
		assert.Equal(Stats{Strategy: NextFit, Size: 100, Blocks: 1, FreeBlocks: 1, FreeBytes: 100, LargestFree: 100}, a.Stats())
	}
}

func TestInitReplacesArena(t *testing.T) {
	assert := assert.New(t)

	a, err := New(64, FirstFit)
	require.NoError(t, err)
	_, err = a.Allocate(16)
	require.NoError(t, err)

	if !assert.NoError(a.Init(200, WorstFit)) {
		return
	}
	assert.Equal(WorstFit, a.Strategy())
	assert.Equal(uint64(200), a.Size())
	assert.Equal(1, a.BlockCount())
	assert.NoError(a.Check())
}

func TestZeroValueArena(t *testing.T) {
	assert := assert.New(t)

	var a Arena
	_, err := a.Allocate(4)
	assert.ErrorIs(err, ErrDestroyed)

	if !assert.NoError(a.Init(32, BestFit)) {
		return
	}
	addr, err := a.Allocate(4)
	assert.NoError(err)
	assert.Equal(Addr(0), addr)
}

func TestBytes(t *testing.T) {
	assert := assert.New(t)

	a, err := New(64, FirstFit)
	require.NoError(t, err)

	first, err := a.Allocate(10)
	require.NoError(t, err)
	second, err := a.Allocate(8)
	require.NoError(t, err)

	buf, err := a.Bytes(first)
	if !assert.NoError(err) {
		return
	}
	assert.Len(buf, 12)
	assert.Equal(12, cap(buf))
	for i := range buf {
		buf[i] = 0xff
	}

	buf, err = a.Bytes(second)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(make([]byte, 8), buf, "writes to one block must not reach the next")

	_, err = a.Bytes(second + 4)
	assert.ErrorIs(err, ErrUnknownAddress)
	_, err = a.Bytes(20)
	assert.ErrorIs(err, ErrUnknownAddress, "free memory has no data view")
	_, err = a.Bytes(4096)
	assert.ErrorIs(err, ErrUnknownAddress)
}

func TestMmap(t *testing.T) {
	assert := assert.New(t)

	a, err := New(8192, FirstFit, WithMmap())
	if !assert.NoError(err) {
		return
	}

	addr, err := a.Allocate(4000)
	require.NoError(t, err)
	buf, err := a.Bytes(addr)
	require.NoError(t, err)
	for i := range buf {
		buf[i] = byte(i)
	}
	assert.NoError(a.Release(addr))
	assert.Equal(1, a.BlockCount())

	a.Destroy()
	assert.False(a.Initialized())

	// Empty regions don't need a mapping.
	assert.NoError(a.Init(0, FirstFit))
}
