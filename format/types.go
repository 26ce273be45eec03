// Package format defines the shared type tags used across the daqfile packages:
// the value types a schema can assign to a container element, and the
// compression types a channel can declare for its block payloads.
package format

type (
	ValueType       uint8
	CompressionType uint8
)

const (
	TypeMaster  ValueType = 0x1 // TypeMaster represents a container element holding child elements.
	TypeUint    ValueType = 0x2 // TypeUint represents a big-endian unsigned integer of 1-8 bytes.
	TypeInt     ValueType = 0x3 // TypeInt represents a big-endian signed integer of 1-8 bytes.
	TypeFloat   ValueType = 0x4 // TypeFloat represents an IEEE float selected by payload length (4 or 8 bytes).
	TypeString  ValueType = 0x5 // TypeString represents an ASCII string, trailing NUL bytes trimmed.
	TypeUnicode ValueType = 0x6 // TypeUnicode represents a UTF-8 string, trailing NUL bytes trimmed.
	TypeDate    ValueType = 0x7 // TypeDate represents a signed 64-bit offset from the container epoch.
	TypeBinary  ValueType = 0x8 // TypeBinary represents an opaque binary payload.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (v ValueType) String() string {
	switch v {
	case TypeMaster:
		return "Master"
	case TypeUint:
		return "Uint"
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeString:
		return "String"
	case TypeUnicode:
		return "Unicode"
	case TypeDate:
		return "Date"
	case TypeBinary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// IsContainer reports whether elements of this type hold child elements
// instead of a primitive payload.
func (v ValueType) IsContainer() bool {
	return v == TypeMaster
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// IsValid reports whether the compression type is one of the supported codecs.
func (c CompressionType) IsValid() bool {
	return c >= CompressionNone && c <= CompressionLZ4
}
