// Package endian provides byte order utilities for decoding channel payloads.
//
// Recording containers frame elements big-endian, but the sample payloads
// inside data blocks follow the byte order the recording device declares,
// which is little-endian on every supported recorder family. The payload
// parsers therefore take an EndianEngine rather than hard-coding an order.
//
// EndianEngine combines the ByteOrder and AppendByteOrder interfaces from
// encoding/binary into one interface so a parser can both read fixed-width
// fields and append re-encoded values without extra conversions.
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian from
// the standard library, making it fully compatible with existing Go code.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. For a little-endian system the LSB (0x00) is stored
	// first; for a big-endian system the MSB (0x01) is.
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))

	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

func IsNativeBigEndian() bool {
	return CheckEndianness() == binary.BigEndian
}

// CompareNativeEndian reports whether the engine matches the host byte order.
func CompareNativeEndian(engine EndianEngine) bool {
	return engine == CheckEndianness()
}

// GetLittleEndianEngine returns the little-endian engine used for channel
// sample payloads.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine used for container framing.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
