package ebml

import (
	"fmt"
	"sync"

	"github.com/varanine/daqfile/format"
)

// Element is a schema-typed handle over one element's byte span: identity
// and extent are known immediately, payload decoding and child enumeration
// are deferred until requested and computed at most once.
//
// Two Element handles over the same bytes are interchangeable: equality is
// by (schema, id, offset), not handle identity.
type Element struct {
	doc         *Document
	def         *ElementDef // nil for ids absent from the schema
	id          uint32
	offset      int64 // absolute offset of the id field
	idWidth     int
	sizeWidth   int
	payloadSize int64
	unknownSize bool

	// Compute-once cache cell for the decoded value / child list.
	once      sync.Once
	value     any
	valueErr  error
	children  []*Element
	truncated bool
}

// ID returns the element identifier, width marker included.
func (el *Element) ID() uint32 {
	return el.id
}

// Name returns the schema-assigned element name, or a synthetic
// "Unknown-0x..." name for ids absent from the schema.
func (el *Element) Name() string {
	if el.def != nil {
		return el.def.Name
	}

	return fmt.Sprintf("Unknown-0x%X", el.id)
}

// Type returns the schema value type. Unknown elements report TypeBinary:
// they are treated as opaque bytes, preserved but never interpreted.
func (el *Element) Type() format.ValueType {
	if el.def != nil {
		return el.def.Type
	}

	return format.TypeBinary
}

// IsUnknown reports whether the element's id is absent from the schema.
func (el *Element) IsUnknown() bool {
	return el.def == nil
}

// IsContainer reports whether the element holds child elements.
// Unknown elements are never containers.
func (el *Element) IsContainer() bool {
	return el.def != nil && el.def.Type.IsContainer()
}

// Offset returns the absolute byte offset of the element's id field.
func (el *Element) Offset() int64 {
	return el.offset
}

// Size returns the element's total byte extent:
// id field + size field + payload.
func (el *Element) Size() int64 {
	return int64(el.idWidth) + int64(el.sizeWidth) + el.payloadSize
}

// HeaderSize returns the byte length of the id and size fields.
func (el *Element) HeaderSize() int {
	return el.idWidth + el.sizeWidth
}

// PayloadOffset returns the absolute byte offset of the element's payload.
func (el *Element) PayloadOffset() int64 {
	return el.offset + int64(el.HeaderSize())
}

// PayloadSize returns the payload byte length. For an element written with
// the unknown-size pattern this is the resolved length (to the end of its
// parent).
func (el *Element) PayloadSize() int64 {
	return el.payloadSize
}

// UnknownSize reports whether the element was written with the
// distinguished unknown-size pattern.
func (el *Element) UnknownSize() bool {
	return el.unknownSize
}

// Document returns the owning document.
func (el *Element) Document() *Document {
	return el.doc
}

// Equal reports whether two handles address the same element: same schema,
// same id, same byte offset.
func (el *Element) Equal(other *Element) bool {
	if el == nil || other == nil {
		return el == other
	}

	return el.doc.schema == other.doc.schema && el.id == other.id && el.offset == other.offset
}

// Window returns a sub-source covering exactly the element's payload.
func (el *Element) Window() (*Source, error) {
	return el.doc.src.Window(el.PayloadOffset(), el.payloadSize)
}

// Payload reads the element's raw payload bytes. The read is uncached; use
// Value for memoized decoding.
func (el *Element) Payload() ([]byte, error) {
	return el.doc.src.ReadRange(el.PayloadOffset(), el.payloadSize)
}

// AppendHeader appends the element's encoded id and size fields to dst,
// reproducing the original header bytes exactly (including a non-minimal
// or unknown-size encoding).
func (el *Element) AppendHeader(dst []byte) []byte {
	dst = AppendID(dst, el.id)
	if el.unknownSize {
		return AppendUnknownSize(dst, el.sizeWidth)
	}

	return AppendSize(dst, el.payloadSize, el.sizeWidth)
}

// Value decodes the element's payload according to its schema type and
// memoizes the result: repeated calls return the identical value and
// perform the underlying read at most once.
//
// Result type by schema type:
//   - Master: []*Element (document-order children, repeated siblings legal)
//   - Uint: uint64
//   - Int: int64
//   - Float: float64
//   - String, Unicode: string
//   - Date: time.Time
//   - Binary and unknown ids: []byte
func (el *Element) Value() (any, error) {
	el.load()
	return el.value, el.valueErr
}

// Children enumerates a container element's child elements in document
// order. Like Value, the enumeration is computed once and memoized.
//
// If a child's declared extent overruns the container, enumeration stops at
// the last intact child, the container is reported truncated (see
// Truncated), and no error is returned: partial data stays readable.
func (el *Element) Children() ([]*Element, error) {
	if !el.IsContainer() {
		return nil, fmt.Errorf("element %s is not a container", el.Name())
	}
	el.load()

	return el.children, el.valueErr
}

// Truncated reports whether child enumeration stopped early because the
// container's payload ended mid-element. Only meaningful after Value or
// Children has been called on a container.
func (el *Element) Truncated() bool {
	return el.truncated
}

// load performs the single deferred decode of the element's payload.
func (el *Element) load() {
	el.once.Do(func() {
		if el.IsContainer() {
			el.children, el.truncated = el.doc.readChildren(el)
			el.value = el.children
			return
		}

		payload, err := el.Payload()
		if err != nil {
			el.valueErr = structuralErr(el.PayloadOffset(), el.id, err)
			return
		}

		el.value, el.valueErr = el.decodePayload(payload)
	})
}

func (el *Element) decodePayload(payload []byte) (any, error) {
	switch el.Type() {
	case format.TypeUint:
		return DecodeUint(payload)
	case format.TypeInt:
		return DecodeInt(payload)
	case format.TypeFloat:
		return DecodeFloat(payload)
	case format.TypeString, format.TypeUnicode:
		return DecodeString(payload), nil
	case format.TypeDate:
		return DecodeDate(payload, el.doc.schema.DateResolution())
	default:
		// TypeBinary and unknown ids: opaque pass-through.
		return payload, nil
	}
}

// Uint returns the element's value as a uint64, failing if the schema type
// is not Uint.
func (el *Element) Uint() (uint64, error) {
	v, err := el.Value()
	if err != nil {
		return 0, err
	}
	u, ok := v.(uint64)
	if !ok {
		return 0, fmt.Errorf("element %s is %s, not Uint", el.Name(), el.Type())
	}

	return u, nil
}

// Float returns the element's value as a float64, failing if the schema
// type is not Float.
func (el *Element) Float() (float64, error) {
	v, err := el.Value()
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("element %s is %s, not Float", el.Name(), el.Type())
	}

	return f, nil
}

// StringValue returns the element's value as a string, failing if the
// schema type is not String or Unicode.
func (el *Element) StringValue() (string, error) {
	v, err := el.Value()
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("element %s is %s, not String", el.Name(), el.Type())
	}

	return s, nil
}
