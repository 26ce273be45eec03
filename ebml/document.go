package ebml

import (
	"errors"
	"io"
	"iter"
	"sync"
	"sync/atomic"
)

// Document is a lazy, schema-typed view over a byte source: a forest of
// root elements (a recording is a sequence of roots, not a single root)
// bound to exactly one Schema.
//
// Root enumeration is lazy, finite, and restartable: iterating twice
// independently re-walks from offset zero and yields interchangeable
// element handles, provided the underlying stream has not been mutated
// (documents are read-only views; mutation is detected by fingerprint and
// marks the document damaged).
type Document struct {
	schema *Schema
	src    *Source
	fp     uint64

	damaged atomic.Bool
	mu      sync.Mutex
	cause   error
}

// NewDocument binds a byte source to a schema.
func NewDocument(src *Source, schema *Schema) *Document {
	return &Document{
		schema: schema,
		src:    src,
		fp:     src.Fingerprint(),
	}
}

// Schema returns the schema the document is bound to.
func (d *Document) Schema() *Schema {
	return d.schema
}

// Source returns the document's byte source.
func (d *Document) Source() *Source {
	return d.src
}

// Damaged reports whether a structural decode failure (or source mutation)
// was encountered anywhere in the document. Data decoded before the damage
// point remains valid.
func (d *Document) Damaged() bool {
	return d.damaged.Load()
}

// DamageCause returns the first recorded cause of damage, or nil.
func (d *Document) DamageCause() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.cause
}

func (d *Document) markDamaged(err error) {
	d.mu.Lock()
	if d.cause == nil {
		d.cause = err
	}
	d.mu.Unlock()
	d.damaged.Store(true)
}

// Roots returns a lazy, restartable sequence of the document's root
// elements in file order.
//
// Enumeration stops without yielding further elements when framing fails;
// the document is then marked damaged and DamageCause identifies the
// boundary. Roots decoded before the failure are all intact.
func (d *Document) Roots() iter.Seq[*Element] {
	return func(yield func(*Element) bool) {
		if d.src.Fingerprint() != d.fp {
			d.markDamaged(ErrSourceMutated)
			return
		}

		off := int64(0)
		size := d.src.Size()
		for off < size {
			el, err := d.readOne(d.src, 0, off)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					d.markDamaged(err)
				}

				return
			}
			if !yield(el) {
				return
			}
			off = el.offset + el.Size()
		}
	}
}

// readOne decodes one element's framing at off (relative to win, whose
// absolute start is base) and validates its extent against the window.
func (d *Document) readOne(win *Source, base, off int64) (*Element, error) {
	id, idW, err := ReadID(win, off)
	if err != nil {
		return nil, err
	}

	size, sizeW, unknown, err := ReadSize(win, off+int64(idW))
	if err != nil {
		return nil, err
	}

	payloadOff := off + int64(idW) + int64(sizeW)
	if unknown {
		// Unknown/unbounded size: consume to the end of the parent.
		size = win.Size() - payloadOff
	}
	if payloadOff+size > win.Size() {
		return nil, structuralErr(base+off, id, ErrWindowOverrun)
	}

	def, _ := d.schema.Lookup(id)

	return &Element{
		doc:         d,
		def:         def,
		id:          id,
		offset:      base + off,
		idWidth:     idW,
		sizeWidth:   sizeW,
		payloadSize: size,
		unknownSize: unknown,
	}, nil
}

// readChildren enumerates the children of a container element. On a
// structural failure the enumeration stops, the intact prefix is returned,
// and truncated is true; the failure never propagates past the container
// boundary.
func (d *Document) readChildren(parent *Element) (children []*Element, truncated bool) {
	win, err := parent.Window()
	if err != nil {
		d.markDamaged(structuralErr(parent.offset, parent.id, err))
		return nil, true
	}

	base := parent.PayloadOffset()
	off := int64(0)
	for off < win.Size() {
		el, err := d.readOne(win, base, off)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.markDamaged(err)
			}

			return children, true
		}
		children = append(children, el)
		off += el.Size()
	}

	return children, false
}
