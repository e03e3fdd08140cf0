package morph

import "math"

// Builder assembles a Morphology from loader records. Sections may be added
// in any order; parents are resolved in Build. Children and neurites keep
// the order in which their sections were added.
type Builder struct {
	name     string
	soma     *Soma
	order    []int
	sections map[int]*Section
}

// NewBuilder returns an empty builder for a morphology called name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:     name,
		sections: make(map[int]*Section),
	}
}

// SetSoma replaces the soma. Passing no points clears it.
func (b *Builder) SetSoma(t SomaType, points []Point) *Builder {
	if len(points) == 0 {
		b.soma = nil
		return b
	}
	b.soma = &Soma{Type: t, Points: append([]Point(nil), points...)}
	return b
}

// AddSection records a section. parent is NoParent for neurite roots.
func (b *Builder) AddSection(id, parent int, t SectionType, points []Point) error {
	if id < 0 {
		return structuralf(NoParent, "section id %d is negative", id)
	}
	if _, exists := b.sections[id]; exists {
		return structuralf(id, "duplicate section id")
	}
	if parent == id {
		return structuralf(id, "section is its own parent")
	}
	if len(points) < 2 {
		return structuralf(id, "section has %d points, need at least 2", len(points))
	}
	for i, p := range points {
		if p.R < 0 || math.IsNaN(p.R) {
			return structuralf(id, "point %d has invalid radius %g", i, p.R)
		}
	}
	b.sections[id] = &Section{
		ID:     id,
		Type:   t,
		Points: append([]Point(nil), points...),
		Parent: parent,
	}
	b.order = append(b.order, id)
	return nil
}

// Build links parents and children and returns the finished morphology.
// Every section must be reachable from a root; a parent loop with no root
// is reported as a StructuralError.
func (b *Builder) Build() (*Morphology, error) {
	m := New(b.name)
	m.Soma = b.soma.clone()

	for _, id := range b.order {
		s := b.sections[id].clone()
		m.Sections[id] = s
	}
	for _, id := range b.order {
		s := m.Sections[id]
		if s.IsRoot() {
			m.Neurites = append(m.Neurites, Neurite{RootID: id, Type: s.Type})
			continue
		}
		p, ok := m.Sections[s.Parent]
		if !ok {
			return nil, structuralf(id, "parent %d does not exist", s.Parent)
		}
		p.Children = append(p.Children, id)
	}

	reached := 0
	stack := make([]int, 0, len(m.Neurites))
	for _, n := range m.Neurites {
		stack = append(stack, n.RootID)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached++
		stack = append(stack, m.Sections[id].Children...)
	}
	if reached != len(m.Sections) {
		for _, id := range b.order {
			if !reachesRoot(m, id) {
				return nil, structuralf(id, "section is not reachable from any root (parent cycle)")
			}
		}
	}
	return m, nil
}

// reachesRoot follows parent links from id, giving up after visiting every
// section once.
func reachesRoot(m *Morphology, id int) bool {
	for steps := 0; steps <= len(m.Sections); steps++ {
		s := m.Sections[id]
		if s.IsRoot() {
			return true
		}
		id = s.Parent
	}
	return false
}
