package dataset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTickCorrector_FoldsWraparound(t *testing.T) {
	c := NewTickCorrector(65536)

	ticks := []int64{60000, 2000, 3000}
	want := []int64{60000, 67536, 68536}

	for i, raw := range ticks {
		require.Equal(t, want[i], c.Correct(raw))
	}
}

func TestTickCorrector_MultipleWrapsInSequence(t *testing.T) {
	c := NewTickCorrector(256)

	var prev int64 = -1
	for _, raw := range []int64{200, 10, 250, 5, 5, 100, 3} {
		v := c.Correct(raw)
		require.GreaterOrEqual(t, v, prev, "output must never regress")
		prev = v
	}
}

func TestTickCorrector_LargeBackwardJumpFoldsForward(t *testing.T) {
	c := NewTickCorrector(100)

	require.Equal(t, int64(950), c.Correct(950))
	// A regression of more than one modulus still folds forward until
	// monotonic, never backward.
	v := c.Correct(10)
	require.GreaterOrEqual(t, v, int64(950))
	require.Equal(t, int64(1010), v)
}

func TestTickCorrector_ReplayIsIdempotent(t *testing.T) {
	stream := []int64{60000, 2000, 3000, 70, 70}

	c := NewTickCorrector(65536)
	var first []int64
	for _, raw := range stream {
		first = append(first, c.Correct(raw))
	}

	c.Reset()
	var second []int64
	for _, raw := range stream {
		second = append(second, c.Correct(raw))
	}

	require.Equal(t, first, second)
}

func TestTickCorrector_ZeroModulusPassesThrough(t *testing.T) {
	c := NewTickCorrector(0)

	require.Equal(t, int64(500), c.Correct(500))
	require.Equal(t, int64(100), c.Correct(100), "no folding without a modulus")
}
