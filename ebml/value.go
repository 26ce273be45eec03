package ebml

import (
	"math"
	"time"
)

// Epoch is the zero point of container date values: 2001-01-01T00:00:00 UTC.
var Epoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// DateResolution selects the unit of the signed 64-bit date offset a schema
// dialect uses. The recording dialect stores nanoseconds; the device
// manifest dialect stores milliseconds.
type DateResolution uint8

const (
	DateNanoseconds DateResolution = iota
	DateMilliseconds
)

// DecodeUint decodes a big-endian unsigned integer of 0-8 bytes.
// An empty payload decodes to zero.
func DecodeUint(payload []byte) (uint64, error) {
	if len(payload) > 8 {
		return 0, ErrValueSize
	}

	var v uint64
	for _, b := range payload {
		v = v<<8 | uint64(b)
	}

	return v, nil
}

// DecodeInt decodes a big-endian signed integer of 0-8 bytes, sign-extending
// from the payload's most significant bit. An empty payload decodes to zero.
func DecodeInt(payload []byte) (int64, error) {
	if len(payload) > 8 {
		return 0, ErrValueSize
	}
	if len(payload) == 0 {
		return 0, nil
	}

	v := int64(int8(payload[0])) // sign-extend from the first byte
	for _, b := range payload[1:] {
		v = v<<8 | int64(b)
	}

	return v, nil
}

// DecodeFloat decodes an IEEE float selected by payload length:
// 4 bytes yields a single, 8 bytes a double, and an empty payload zero.
// Any other length is an ErrValueSize.
func DecodeFloat(payload []byte) (float64, error) {
	switch len(payload) {
	case 0:
		return 0, nil
	case 4:
		bits, err := DecodeUint(payload)
		if err != nil {
			return 0, err
		}

		return float64(math.Float32frombits(uint32(bits))), nil
	case 8:
		bits, err := DecodeUint(payload)
		if err != nil {
			return 0, err
		}

		return math.Float64frombits(bits), nil
	default:
		return 0, ErrValueSize
	}
}

// DecodeString decodes an ASCII or UTF-8 string payload, trimming trailing
// NUL padding bytes.
func DecodeString(payload []byte) string {
	end := len(payload)
	for end > 0 && payload[end-1] == 0 {
		end--
	}

	return string(payload[:end])
}

// DecodeDate decodes a signed 64-bit offset from Epoch in the given
// resolution. Date payloads must be exactly 8 bytes (or empty, which
// decodes to Epoch itself).
func DecodeDate(payload []byte, res DateResolution) (time.Time, error) {
	if len(payload) == 0 {
		return Epoch, nil
	}
	if len(payload) != 8 {
		return time.Time{}, ErrValueSize
	}

	offset, err := DecodeInt(payload)
	if err != nil {
		return time.Time{}, err
	}

	if res == DateMilliseconds {
		return Epoch.Add(time.Duration(offset) * time.Millisecond), nil
	}

	return Epoch.Add(time.Duration(offset)), nil
}
