package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateWithinBlock(t *testing.T) {
	a := New(1024)
	b1, err := a.Allocate(100, 8)
	require.NoError(t, err)
	require.Len(t, b1, 100)

	b2, err := a.Allocate(50, 8)
	require.NoError(t, err)
	require.Len(t, b2, 50)

	assert.Equal(t, 150, a.BytesAllocated())
	assert.Equal(t, 1024, a.TotalCapacity())
}

func TestAllocateGrowsNewBlock(t *testing.T) {
	a := New(64)
	_, err := a.Allocate(60, 1)
	require.NoError(t, err)
	_, err = a.Allocate(60, 1)
	require.NoError(t, err)
	// The second allocation doesn't fit in the 64-byte first block, so a
	// new block is added; blocks grow geometrically, so the second block
	// is double the first (§4.1).
	assert.Equal(t, 64+128, a.TotalCapacity())
}

func TestAllocateBlocksGrowGeometrically(t *testing.T) {
	a := New(64)
	// Seven 64-byte allocations, none larger than the block size, so none
	// gets a dedicated block: the first fills the 64-byte block, the next
	// two fill a 128-byte block, and the last four fill a 256-byte block.
	for i := 0; i < 7; i++ {
		_, err := a.Allocate(64, 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 64+128+256, a.TotalCapacity())
}

func TestAllocateOversizedGetsDedicatedBlock(t *testing.T) {
	a := New(64)
	buf, err := a.Allocate(1000, 1)
	require.NoError(t, err)
	require.Len(t, buf, 1000)
	assert.GreaterOrEqual(t, a.TotalCapacity(), 1000)
}

func TestAllocateInvalidAlignment(t *testing.T) {
	a := New(64)
	_, err := a.Allocate(10, 3)
	assert.ErrorIs(t, err, ErrInvalidAlignment)

	_, err = a.Allocate(10, 128)
	assert.ErrorIs(t, err, ErrInvalidAlignment)
}

func TestResetRewindsWithoutFreeing(t *testing.T) {
	a := New(1024)
	_, err := a.Allocate(200, 8)
	require.NoError(t, err)
	cap1 := a.TotalCapacity()

	a.Reset()
	assert.Equal(t, 0, a.BytesAllocated())
	assert.Equal(t, cap1, a.TotalCapacity())

	_, err = a.Allocate(200, 8)
	require.NoError(t, err)
	assert.Equal(t, cap1, a.TotalCapacity(), "reset must not grow capacity for an allocation that already fit")
}

func TestAllocationsDoNotOverlap(t *testing.T) {
	a := New(4096)
	var slices [][]byte
	for i := 0; i < 20; i++ {
		b, err := a.Allocate(37, 8)
		require.NoError(t, err)
		for j := range b {
			b[j] = byte(i)
		}
		slices = append(slices, b)
	}
	for i, b := range slices {
		for _, v := range b {
			assert.Equal(t, byte(i), v)
		}
	}
}

func TestStringAndBytes(t *testing.T) {
	a := New(1024)
	s, err := a.String("hello world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", s)

	b, err := a.Bytes([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)
}

func TestAllocateZeroBytes(t *testing.T) {
	a := New(64)
	b, err := a.Allocate(0, 8)
	require.NoError(t, err)
	assert.Nil(t, b)
}
