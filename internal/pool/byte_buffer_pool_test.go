package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(16)

	bb.MustWrite([]byte{1, 2, 3})
	require.Equal(t, 3, bb.Len())
	require.Equal(t, []byte{1, 2, 3}, bb.Bytes())

	bb.Reset()
	require.Equal(t, 0, bb.Len())
	require.GreaterOrEqual(t, bb.Cap(), 16)
}

func TestByteBuffer_Grow(t *testing.T) {
	bb := NewByteBuffer(8)
	bb.MustWrite([]byte{1, 2, 3, 4})

	bb.Grow(1024)
	require.GreaterOrEqual(t, bb.Cap()-bb.Len(), 1024)
	require.Equal(t, []byte{1, 2, 3, 4}, bb.Bytes())
}

func TestByteBuffer_SetLength(t *testing.T) {
	bb := NewByteBuffer(8)
	bb.SetLength(4)
	require.Equal(t, 4, bb.Len())

	require.Panics(t, func() { bb.SetLength(-1) })
	require.Panics(t, func() { bb.SetLength(bb.Cap() + 1) })
}

func TestPayloadBufferPool_Reuse(t *testing.T) {
	bb := GetPayloadBuffer()
	bb.MustWrite([]byte("scratch"))
	PutPayloadBuffer(bb)

	bb2 := GetPayloadBuffer()
	require.Equal(t, 0, bb2.Len())
	PutPayloadBuffer(bb2)
}

func TestGetFloat64Slice(t *testing.T) {
	s, release := GetFloat64Slice(128)
	require.Len(t, s, 128)
	release()

	s2, release2 := GetFloat64Slice(defaultSampleSliceCap * 2)
	require.Len(t, s2, defaultSampleSliceCap*2)
	release2()
}
