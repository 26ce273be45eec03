package ebml

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVarInt reports a variable-length integer whose prefix byte
	// declares a width beyond the supported maximum (4 bytes for ids,
	// 8 bytes for sizes). This is a hard decode error, never a silent
	// truncation.
	ErrInvalidVarInt = errors.New("invalid variable-length integer prefix")

	// ErrWindowOverrun reports an element whose declared extent runs past
	// its parent's window. Enumeration of the parent stops at the previous
	// sibling and the parent is reported as truncated.
	ErrWindowOverrun = errors.New("element overruns parent window")

	// ErrInvalidWindow reports a sub-source request not fully contained in
	// its parent's range.
	ErrInvalidWindow = errors.New("window not contained in parent source")

	// ErrValueSize reports a primitive payload whose byte length is not
	// legal for its schema value type (e.g. a 3-byte float).
	ErrValueSize = errors.New("payload size invalid for value type")

	// ErrSourceMutated reports that a byte source's content changed between
	// walks of the same document. Documents are read-only views; a mutated
	// source invalidates every element handle derived from it.
	ErrSourceMutated = errors.New("byte source mutated since document was opened")
)

// StructuralError identifies the byte boundary at which framing of an
// element failed. It wraps one of the sentinel errors above (or an I/O
// error from the byte source).
type StructuralError struct {
	// Offset is the absolute byte offset at which decoding failed.
	Offset int64
	// ID is the element id being decoded when the failure happened,
	// or zero if the id itself could not be read.
	ID uint32
	// Err is the underlying cause.
	Err error
}

func (e *StructuralError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("structural decode error at offset %d (element 0x%X): %v", e.Offset, e.ID, e.Err)
	}

	return fmt.Sprintf("structural decode error at offset %d: %v", e.Offset, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

func structuralErr(offset int64, id uint32, err error) *StructuralError {
	return &StructuralError{Offset: offset, ID: id, Err: err}
}
