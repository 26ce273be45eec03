package ebml

import (
	"fmt"
	"slices"

	"github.com/varanine/daqfile/format"
	"github.com/varanine/daqfile/internal/hash"
)

// ElementDef describes one legal element of a container dialect: its
// numeric id (width marker included), name, value type, nesting parent,
// and multiplicity.
type ElementDef struct {
	// ID is the element identifier as it appears on the wire.
	ID uint32
	// Name is the human-readable element name, unique within the schema.
	Name string
	// Type selects the payload decoder for this element.
	Type format.ValueType
	// Parent is the id of the containing master element, or zero for
	// root-level elements.
	Parent uint32
	// Mandatory marks elements a conforming writer must emit. The reader
	// does not enforce this; it is carried for introspection only.
	Mandatory bool
	// Multiple marks elements that may repeat within their parent.
	Multiple bool
}

// Schema is the static description of one container dialect: a bidirectional
// name/id lookup plus the nesting structure. Schemas are immutable once
// built and safe for concurrent use; the two built-in dialects are created
// once at package init.
type Schema struct {
	name     string
	dateRes  DateResolution
	byID     map[uint32]*ElementDef
	byName   map[uint64]*ElementDef
	children map[uint32][]uint32
}

// NewSchema builds a Schema from the given element definitions.
//
// Definitions are validated: duplicate ids or names, a parent reference to
// an id not in the set, and a non-container parent are all configuration
// errors.
func NewSchema(name string, dateRes DateResolution, defs []ElementDef) (*Schema, error) {
	s := &Schema{
		name:     name,
		dateRes:  dateRes,
		byID:     make(map[uint32]*ElementDef, len(defs)),
		byName:   make(map[uint64]*ElementDef, len(defs)),
		children: make(map[uint32][]uint32),
	}

	for i := range defs {
		def := &defs[i]
		if _, dup := s.byID[def.ID]; dup {
			return nil, fmt.Errorf("schema %s: duplicate element id 0x%X", name, def.ID)
		}
		nameID := hash.ID(def.Name)
		if _, dup := s.byName[nameID]; dup {
			return nil, fmt.Errorf("schema %s: duplicate element name %q", name, def.Name)
		}
		s.byID[def.ID] = def
		s.byName[nameID] = def
	}

	for _, def := range s.byID {
		if def.Parent == 0 {
			continue
		}
		parent, ok := s.byID[def.Parent]
		if !ok {
			return nil, fmt.Errorf("schema %s: element %s references unknown parent 0x%X", name, def.Name, def.Parent)
		}
		if !parent.Type.IsContainer() {
			return nil, fmt.Errorf("schema %s: element %s nested under non-container %s", name, def.Name, parent.Name)
		}
		s.children[def.Parent] = append(s.children[def.Parent], def.ID)
	}

	for _, ids := range s.children {
		slices.Sort(ids)
	}

	return s, nil
}

// Name returns the dialect name.
func (s *Schema) Name() string {
	return s.name
}

// DateResolution returns the unit of the dialect's date offsets.
func (s *Schema) DateResolution() DateResolution {
	return s.dateRes
}

// Lookup returns the definition for the given element id.
func (s *Schema) Lookup(id uint32) (*ElementDef, bool) {
	def, ok := s.byID[id]
	return def, ok
}

// LookupName returns the definition for the given element name.
func (s *Schema) LookupName(name string) (*ElementDef, bool) {
	def, ok := s.byName[hash.ID(name)]
	return def, ok
}

// Children returns the sorted ids of elements that may nest under the
// given container id.
func (s *Schema) Children(id uint32) []uint32 {
	return s.children[id]
}

// Len returns the number of element definitions in the schema.
func (s *Schema) Len() int {
	return len(s.byID)
}

func mustSchema(s *Schema, err error) *Schema {
	if err != nil {
		panic(err)
	}

	return s
}
