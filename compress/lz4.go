package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/varanine/daqfile/internal/pool"
)

// maxLZ4DecompressedSize caps the adaptive decompression buffer. A block
// payload is at most a few hundred KiB; anything expanding past this is
// treated as corrupt rather than allowed to exhaust memory.
const maxLZ4DecompressedSize = 16 * 1024 * 1024 // 16MiB

// lz4CompressorPool reuses lz4.Compressor state across blocks.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Codec compresses block payloads with LZ4 block encoding, common on
// older recorder firmware.
type LZ4Codec struct{}

var _ Codec = (*LZ4Codec)(nil)

// NewLZ4Codec creates a new LZ4 codec.
func NewLZ4Codec() LZ4Codec {
	return LZ4Codec{}
}

// Compress compresses the payload using LZ4 block encoding. The
// bound-sized scratch buffer is pooled; only the compressed bytes are
// allocated for the caller.
func (c LZ4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	scratch := pool.GetPayloadBuffer()
	defer pool.PutPayloadBuffer(scratch)
	scratch.Grow(lz4.CompressBlockBound(len(data)))
	dst := scratch.B[:cap(scratch.B)]

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	out := make([]byte, n)
	copy(out, dst[:n])
	return out, nil
}

// Decompress restores an LZ4-compressed payload.
//
// LZ4 block frames do not record the decompressed size, so the buffer is
// sized adaptively: start at 4x the compressed size and double on short
// buffer errors, up to maxLZ4DecompressedSize. The attempts run in a
// pooled scratch buffer; the caller receives a copy of the final result.
func (c LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	scratch := pool.GetPayloadBuffer()
	defer pool.PutPayloadBuffer(scratch)

	size := len(data) * 4
	for size <= maxLZ4DecompressedSize {
		scratch.Grow(size)
		dst := scratch.B[:cap(scratch.B)]

		n, err := lz4.UncompressBlock(data, dst)
		if err == nil {
			out := make([]byte, n)
			copy(out, dst[:n])
			return out, nil
		}
		if !errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		size = cap(dst) * 2
	}

	return nil, fmt.Errorf("lz4 decompressed payload exceeds %d bytes", maxLZ4DecompressedSize)
}
