package traversal

import (
	"iter"

	"github.com/banshee-data/arbor/morph"
)

// Sections walks every admitted neurite depth-first and yields the sections
// accepted by f.Section, in f.Order.
func Sections(m *morph.Morphology, f Filter) iter.Seq2[*morph.Section, error] {
	f = f.Normalize()
	return func(yield func(*morph.Section, error) bool) {
		w := &walker{
			m:      m,
			f:      f,
			yield:  yield,
			onPath: make(map[int]bool),
			seen:   make(map[int]bool),
		}
		for _, n := range m.Neurites {
			if !f.Neurite(n.Type) {
				continue
			}
			if !w.visit(n.RootID, morph.NoParent) {
				return
			}
		}
	}
}

// walker holds the state of a single pass. It is discarded when the pass
// ends so the returned sequence can be ranged over again.
type walker struct {
	m      *morph.Morphology
	f      Filter
	yield  func(*morph.Section, error) bool
	onPath map[int]bool
	seen   map[int]bool
}

// visit returns false once the walk must stop.
func (w *walker) visit(id, parent int) bool {
	switch {
	case w.onPath[id]:
		return w.fail(morph.NewStructuralError(id, "cycle: section is its own ancestor"))
	case w.seen[id]:
		return w.fail(morph.NewStructuralError(id, "section reached twice (duplicate id)"))
	}
	s, ok := w.m.Sections[id]
	if !ok {
		if parent == morph.NoParent {
			return w.fail(morph.NewStructuralError(id, "neurite root does not exist"))
		}
		return w.fail(morph.NewStructuralError(parent, "child %d does not exist", id))
	}
	if s.Parent != parent {
		return w.fail(morph.NewStructuralError(id, "parent is %d but reached from %d", s.Parent, parent))
	}

	w.seen[id] = true
	w.onPath[id] = true
	if w.f.Order == PreOrder && w.f.Section(s) && !w.yield(s, nil) {
		return false
	}
	for _, c := range s.Children {
		if !w.visit(c, id) {
			return false
		}
	}
	delete(w.onPath, id)
	if w.f.Order == PostOrder && w.f.Section(s) && !w.yield(s, nil) {
		return false
	}
	return true
}

func (w *walker) fail(err error) bool {
	w.yield(nil, err)
	return false
}

// Points yields the points of every section Sections(m, f) yields, kept by
// pf. A nil pf keeps all points.
func Points(m *morph.Morphology, f Filter, pf PointFilter) iter.Seq2[morph.Point, error] {
	if pf == nil {
		pf = AllPoints
	}
	return func(yield func(morph.Point, error) bool) {
		for s, err := range Sections(m, f) {
			if err != nil {
				yield(morph.Point{}, err)
				return
			}
			for i, p := range s.Points {
				if pf(s, i) && !yield(p, nil) {
					return
				}
			}
		}
	}
}

// TipPoints yields the last point of every tip section in the admitted
// neurites.
func TipPoints(m *morph.Morphology, nf NeuriteFilter) iter.Seq2[morph.Point, error] {
	return Points(m, Filter{Neurite: nf, Section: IsTip}, LastPoint)
}

// SectionSegment is one segment together with its position in the tree.
type SectionSegment struct {
	SectionID int
	Index     int // segment index within the section
	Segment   morph.Segment
}

// Segments yields every segment of the sections Sections(m, f) yields.
func Segments(m *morph.Morphology, f Filter) iter.Seq2[SectionSegment, error] {
	return func(yield func(SectionSegment, error) bool) {
		for s, err := range Sections(m, f) {
			if err != nil {
				yield(SectionSegment{}, err)
				return
			}
			for i := 0; i < s.SegmentCount(); i++ {
				if !yield(SectionSegment{SectionID: s.ID, Index: i, Segment: s.Segment(i)}, nil) {
					return
				}
			}
		}
	}
}

// Upstream yields the section id and then each ancestor up to the root.
func Upstream(m *morph.Morphology, id int) iter.Seq2[*morph.Section, error] {
	return func(yield func(*morph.Section, error) bool) {
		seen := make(map[int]bool)
		child := morph.NoParent
		for {
			s, ok := m.Sections[id]
			if !ok {
				if child == morph.NoParent {
					yield(nil, morph.NewStructuralError(id, "section does not exist"))
				} else {
					yield(nil, morph.NewStructuralError(child, "parent %d does not exist", id))
				}
				return
			}
			if seen[id] {
				yield(nil, morph.NewStructuralError(id, "cycle: section is its own ancestor"))
				return
			}
			seen[id] = true
			if !yield(s, nil) || s.IsRoot() {
				return
			}
			child, id = id, s.Parent
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Count drains seq and returns the number of values, stopping at the first
// error.
func Count[T any](seq iter.Seq2[T, error]) (int, error) {
	n := 0
	for _, err := range seq {
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
