package ebml

import (
	"io"
	"math/bits"
)

const (
	// MaxIDWidth is the maximum encoded width of an element identifier.
	MaxIDWidth = 4
	// MaxSizeWidth is the maximum encoded width of an element size.
	MaxSizeWidth = 8
)

// ReadID decodes an element identifier at off: a big-endian variable-length
// integer of 1-4 bytes whose leading bit pattern encodes its own width.
// The marker bits stay part of the identifier value, matching how schemas
// declare ids.
//
// Returns the id, the number of bytes consumed, and an error. A prefix
// declaring a width beyond MaxIDWidth yields ErrInvalidVarInt wrapped in a
// StructuralError. io.EOF is returned untouched when off is exactly the end
// of the source, so callers can distinguish a clean end from truncation.
func ReadID(src *Source, off int64) (uint32, int, error) {
	if off >= src.Size() {
		return 0, 0, io.EOF
	}

	var b [1]byte
	if _, err := src.ReadAt(b[:], off); err != nil && err != io.EOF {
		return 0, 0, err
	}

	width := bits.LeadingZeros8(b[0]) + 1
	if width > MaxIDWidth {
		return 0, 0, structuralErr(off, 0, ErrInvalidVarInt)
	}

	buf, err := src.ReadRange(off, int64(width))
	if err != nil {
		return 0, 0, structuralErr(off, 0, io.ErrUnexpectedEOF)
	}

	var id uint32
	for _, c := range buf {
		id = id<<8 | uint32(c)
	}

	return id, width, nil
}

// ReadSize decodes an element size at off: a variable-length integer of 1-8
// bytes with the width marker stripped from the value. The distinguished
// all-ones pattern denotes "unknown/unbounded size"; callers must treat it
// as "consume to end of parent".
//
// Returns the size, the number of bytes consumed, whether the size is
// unknown, and an error.
func ReadSize(src *Source, off int64) (int64, int, bool, error) {
	if off >= src.Size() {
		return 0, 0, false, structuralErr(off, 0, io.ErrUnexpectedEOF)
	}

	var b [1]byte
	if _, err := src.ReadAt(b[:], off); err != nil && err != io.EOF {
		return 0, 0, false, err
	}

	width := bits.LeadingZeros8(b[0]) + 1
	if width > MaxSizeWidth {
		return 0, 0, false, structuralErr(off, 0, ErrInvalidVarInt)
	}

	buf, err := src.ReadRange(off, int64(width))
	if err != nil {
		return 0, 0, false, structuralErr(off, 0, io.ErrUnexpectedEOF)
	}

	value := int64(buf[0] & (0xFF >> width))
	for _, c := range buf[1:] {
		value = value<<8 | int64(c)
	}

	allOnes := int64(1)<<(7*width) - 1
	if value == allOnes {
		return 0, width, true, nil
	}

	return value, width, false, nil
}

// IDWidth returns the encoded byte width of an element identifier.
// Ids retain their width marker, so the width is simply the number of
// significant bytes.
func IDWidth(id uint32) int {
	switch {
	case id <= 0xFF:
		return 1
	case id <= 0xFFFF:
		return 2
	case id <= 0xFFFFFF:
		return 3
	default:
		return 4
	}
}

// AppendID appends the encoded form of an element identifier to dst.
func AppendID(dst []byte, id uint32) []byte {
	width := IDWidth(id)
	for i := width - 1; i >= 0; i-- {
		dst = append(dst, byte(id>>(8*i)))
	}

	return dst
}

// SizeWidth returns the minimal encoded byte width for the given size.
func SizeWidth(size int64) int {
	for w := 1; w < MaxSizeWidth; w++ {
		// The all-ones pattern of each width is reserved for unknown size.
		if size < int64(1)<<(7*w)-1 {
			return w
		}
	}

	return MaxSizeWidth
}

// AppendSize appends the encoded form of an element size to dst using the
// given width. Pass SizeWidth(size) for the minimal encoding, or the width
// originally decoded to reproduce a byte-identical header.
func AppendSize(dst []byte, size int64, width int) []byte {
	encoded := uint64(size) | uint64(1)<<(7*width)
	for i := width - 1; i >= 0; i-- {
		dst = append(dst, byte(encoded>>(8*i)))
	}

	return dst
}

// AppendUnknownSize appends the distinguished all-ones "unknown size"
// pattern of the given width to dst.
func AppendUnknownSize(dst []byte, width int) []byte {
	dst = append(dst, 0xFF>>(width-1))
	for i := 1; i < width; i++ {
		dst = append(dst, 0xFF)
	}

	return dst
}
