package compress

// ZstdCodec compresses block payloads with Zstandard.
//
// This is the codec recorders choose when archiving long sessions: it trades
// some compression speed for the best ratio of the supported codecs, and
// decompression stays fast enough for interactive queries.
//
// Two implementations exist behind build tags: a cgo binding (gozstd) for
// deployments that can take the cgo dependency, and a pure-Go fallback
// (klauspost/compress/zstd) used everywhere else. Both produce standard
// zstd frames and interoperate freely.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a new Zstd codec with default settings.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}
