// Package ebml implements the binary container codec used by sensor
// recordings: an EBML-style element framing where every element carries a
// variable-length identifier, a variable-length byte size, and a payload that
// is either a primitive value or a sequence of nested child elements.
//
// The package is split into three layers:
//
//   - The codec: variable-length id/size decoding (ReadID, ReadSize) and
//     primitive value decoding (DecodeUint, DecodeInt, DecodeFloat,
//     DecodeString, DecodeDate). Decoding never reads past the declared
//     element extent.
//   - The schema: per-dialect element tables (RecordingSchema for the main
//     recording format, ManifestSchema for the device manifest format)
//     mapping numeric ids to names, value types, and nesting. Ids absent
//     from the schema decode as opaque unknown elements, never errors.
//   - The document tree: a lazy, memoized view over a seekable byte source.
//     Elements expose identity and byte extent immediately; payload decoding
//     and child enumeration are deferred until requested and computed at
//     most once.
//
// A file is a forest of root elements, not a single root. Root enumeration
// is lazy and restartable; iterating twice re-walks from offset zero and
// yields identical elements unless the underlying stream was mutated.
//
// Failure policy: a malformed variable-length prefix is a hard decode error.
// A child element that would overrun its parent's window stops enumeration
// of that parent, which is reported as truncated; everything decoded before
// the damage stays usable. This is how a partially written recording
// degrades to "read what's intact".
package ebml
