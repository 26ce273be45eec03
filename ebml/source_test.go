package ebml

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSource_Window(t *testing.T) {
	src := sourceOf([]byte{0, 1, 2, 3, 4, 5, 6, 7})

	win, err := src.Window(2, 4)
	require.NoError(t, err)
	require.Equal(t, int64(4), win.Size())

	data, err := win.ReadRange(0, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3, 4, 5}, data)
}

func TestSource_NestedWindows(t *testing.T) {
	src := sourceOf([]byte{0, 1, 2, 3, 4, 5, 6, 7})

	outer, err := src.Window(2, 5)
	require.NoError(t, err)

	inner, err := outer.Window(1, 3)
	require.NoError(t, err)

	data, err := inner.ReadRange(0, 3)
	require.NoError(t, err)
	require.Equal(t, []byte{3, 4, 5}, data)
}

func TestSource_WindowOutOfRange(t *testing.T) {
	src := sourceOf(make([]byte, 8))

	_, err := src.Window(4, 5)
	require.ErrorIs(t, err, ErrInvalidWindow)

	_, err = src.Window(-1, 2)
	require.ErrorIs(t, err, ErrInvalidWindow)

	win, err := src.Window(2, 4)
	require.NoError(t, err)
	_, err = win.Window(2, 3)
	require.ErrorIs(t, err, ErrInvalidWindow)
}

func TestSource_IndependentCursors(t *testing.T) {
	// Windows carry no read cursor at all: interleaved reads at arbitrary
	// offsets do not disturb each other.
	src := sourceOf([]byte{10, 11, 12, 13, 14, 15})
	a, err := src.Window(0, 6)
	require.NoError(t, err)
	b, err := src.Window(3, 3)
	require.NoError(t, err)

	first, err := a.ReadRange(0, 2)
	require.NoError(t, err)
	second, err := b.ReadRange(0, 2)
	require.NoError(t, err)
	third, err := a.ReadRange(4, 2)
	require.NoError(t, err)

	require.Equal(t, []byte{10, 11}, first)
	require.Equal(t, []byte{13, 14}, second)
	require.Equal(t, []byte{14, 15}, third)
}

func TestSource_ReadAtClampsToBounds(t *testing.T) {
	src := sourceOf([]byte{1, 2, 3, 4})

	buf := make([]byte, 8)
	n, err := src.ReadAt(buf, 2)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 2, n)
	require.Equal(t, []byte{3, 4}, buf[:n])

	_, err = src.ReadAt(buf, 4)
	require.ErrorIs(t, err, io.EOF)
}

func TestSource_ReadRangeOverrun(t *testing.T) {
	src := sourceOf([]byte{1, 2, 3, 4})

	_, err := src.ReadRange(2, 3)
	require.ErrorIs(t, err, ErrWindowOverrun)
}

func TestSource_Fingerprint(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	src := sourceOf(data)
	fp := src.Fingerprint()
	require.Equal(t, fp, src.Fingerprint())

	mutated := append([]byte{}, data...)
	mutated[3] = 0xFF
	require.NotEqual(t, fp, sourceOf(mutated).Fingerprint())

	longer := append(append([]byte{}, data...), 9)
	require.NotEqual(t, fp, sourceOf(longer).Fingerprint())
}

func TestSource_FingerprintLargePrefix(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, fingerprintPrefix+100)
	fp := sourceOf(data).Fingerprint()

	// A change beyond the hashed prefix still alters the fingerprint when
	// it changes the size, but an in-place change past the prefix does not.
	tail := append([]byte{}, data...)
	tail[fingerprintPrefix+50] = 0x00
	require.Equal(t, fp, sourceOf(tail).Fingerprint())
}
