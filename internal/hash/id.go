package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
//
// Channel and sensor names are mapped to fixed 64-bit identifiers so the
// dataset can keep O(1) name lookup maps without retaining string keys.
func ID(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Sum64 computes the xxHash64 of the given byte slice.
//
// Used to fingerprint byte source prefixes so a re-walk of a document can
// detect that the underlying stream was mutated.
func Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}
