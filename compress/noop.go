package compress

// NoOpCodec passes payload bytes through unchanged.
//
// Used for channels without a compression tag, and in tests and benchmarks
// as a baseline.
type NoOpCodec struct{}

var _ Codec = (*NoOpCodec)(nil)

// NewNoOpCodec creates a new pass-through codec.
func NewNoOpCodec() NoOpCodec {
	return NoOpCodec{}
}

// Compress returns the input slice as-is without copying.
//
// The returned slice shares the input's memory; callers must not modify the
// input afterwards if they keep the returned slice.
func (c NoOpCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input slice as-is without copying.
//
// The returned slice shares the input's memory; callers must not modify the
// input afterwards if they keep the returned slice.
func (c NoOpCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
