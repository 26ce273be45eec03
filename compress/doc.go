// Package compress provides the payload codecs used for compressed channel
// data blocks.
//
// A channel description may carry a compression tag (see format.CompressionType);
// when present, every data block payload for that channel is a single
// compressed frame that must be restored before sample parsing. Absent or
// CompressionNone means payloads are raw sample bytes.
//
// Supported codecs:
//   - Zstd: best ratio, used by recorders that archive long sessions
//   - S2: fastest, used for high-rate channels
//   - LZ4: balanced, common on older firmware
//   - NoOp: pass-through for raw payloads
//
// All codecs are safe for concurrent use and reuse internal encoder/decoder
// state through sync.Pool where the underlying library benefits from it.
package compress
