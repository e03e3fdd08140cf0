package morph

import (
	"maps"
	"slices"

	"github.com/golang/geo/r3"
)

// Neurite is one maximal subtree rooted at a parentless section. Its type
// is the type of the root section and applies to every section below it.
type Neurite struct {
	RootID int
	Type   SectionType
}

// Morphology owns an optional soma and an ordered list of neurites. Section
// ids are unique across the whole morphology, not just within a neurite.
type Morphology struct {
	Name     string
	Soma     *Soma
	Neurites []Neurite
	Sections map[int]*Section
}

// New returns an empty morphology with no soma and no neurites.
func New(name string) *Morphology {
	return &Morphology{
		Name:     name,
		Sections: make(map[int]*Section),
	}
}

// Section returns the section with the given id.
func (m *Morphology) Section(id int) (*Section, bool) {
	s, ok := m.Sections[id]
	return s, ok
}

// Parent returns the parent of s, or false for roots and dangling parents.
func (m *Morphology) Parent(s *Section) (*Section, bool) {
	if s.IsRoot() {
		return nil, false
	}
	return m.Section(s.Parent)
}

// Children returns the children of s in stored order. Dangling child ids
// are skipped; the traversal package reports them.
func (m *Morphology) Children(s *Section) []*Section {
	out := make([]*Section, 0, len(s.Children))
	for _, id := range s.Children {
		if c, ok := m.Sections[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// SectionCount returns the number of sections in the arena.
func (m *Morphology) SectionCount() int { return len(m.Sections) }

// SectionIDs returns all arena ids in ascending order.
func (m *Morphology) SectionIDs() []int {
	return slices.Sorted(maps.Keys(m.Sections))
}

// SomaCenter returns the soma centre or ErrMissingSomaCenter.
func (m *Morphology) SomaCenter() (r3.Vector, error) {
	return m.Soma.Center()
}

// SomaRadius returns the soma radius, zero without a soma.
func (m *Morphology) SomaRadius() float64 {
	return m.Soma.Radius()
}

// Clone returns a deep copy that shares no slices with m.
func (m *Morphology) Clone() *Morphology {
	c := &Morphology{
		Name:     m.Name,
		Soma:     m.Soma.clone(),
		Neurites: append([]Neurite(nil), m.Neurites...),
		Sections: make(map[int]*Section, len(m.Sections)),
	}
	for id, s := range m.Sections {
		c.Sections[id] = s.clone()
	}
	return c
}

// Population is an ordered collection of independent morphologies that are
// analysed together.
type Population []*Morphology

// Names returns the morphology names in population order.
func (p Population) Names() []string {
	out := make([]string, len(p))
	for i, m := range p {
		out[i] = m.Name
	}
	return out
}
