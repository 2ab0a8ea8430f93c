package memops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZero(t *testing.T) {
	b := make([]byte, 4096)
	Fill(b, 0xAA)

	Zero(b)
	for i := range b {
		require.Equal(t, byte(0), b[i], "byte %d not cleared", i)
	}
}

func TestZeroEmpty(t *testing.T) {
	assert.NotPanics(t, func() { Zero(nil) })
	assert.NotPanics(t, func() { Zero([]byte{}) })
}

func TestFill(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 8, 4096, 4097} {
		b := make([]byte, n)
		Fill(b, 0x5C)
		for i := range b {
			require.Equal(t, byte(0x5C), b[i], "len=%d byte %d", n, i)
		}
	}
}

func TestFillEmpty(t *testing.T) {
	assert.NotPanics(t, func() { Fill(nil, 1) })
}
