package compress

import (
	"fmt"

	"github.com/varanine/daqfile/format"
)

// Compressor compresses a block payload.
//
// Recorders with slow storage links may write each channel data block's
// payload as a compressed frame; the channel declares the codec once in its
// description element and every block payload of that channel uses it.
type Compressor interface {
	// Compress returns the compressed payload in a freshly allocated
	// slice the caller owns. The input is never modified; scratch
	// buffers may be pooled internally.
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a compressed block payload.
//
// This is the hot path on read: every query that decodes a compressed block
// goes through Decompress before sample parsing. Implementations must be
// safe for concurrent use; queries may decode blocks from multiple
// goroutines.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original payload.
	//
	// Returns an error if the data is corrupted or was produced by an
	// incompatible codec.
	Decompress(data []byte) ([]byte, error)
}

// Codec handles both directions of one compression scheme.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCodec(),
	format.CompressionZstd: NewZstdCodec(),
	format.CompressionS2:   NewS2Codec(),
	format.CompressionLZ4:  NewLZ4Codec(),
}

// GetCodec retrieves the built-in Codec for the specified compression type.
//
// Returns an error for compression tags outside the supported set; callers
// surface this when a channel description declares a codec this build does
// not know.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported payload compression: %s", compressionType)
}
