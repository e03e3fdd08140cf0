package morph

// NoParent marks a root section. Section ids are non-negative.
const NoParent = -1

// Section is one node of the tree: an ordered run of at least two points
// between branch or tip points.
//
// Parent is a weak back-reference by id. Children is the owning, ordered
// list of child ids; the order is significant for traversal.
type Section struct {
	ID       int
	Type     SectionType
	Points   []Point
	Parent   int
	Children []int
}

// IsRoot reports whether s starts a neurite.
func (s *Section) IsRoot() bool { return s.Parent == NoParent }

// IsTip reports whether s has no children.
func (s *Section) IsTip() bool { return len(s.Children) == 0 }

// IsBifurcation reports whether s splits into exactly two children.
func (s *Section) IsBifurcation() bool { return len(s.Children) == 2 }

// FirstPoint returns the first point of s. It panics on an empty section.
func (s *Section) FirstPoint() Point { return s.Points[0] }

// LastPoint returns the last point of s. It panics on an empty section.
func (s *Section) LastPoint() Point { return s.Points[len(s.Points)-1] }

// SegmentCount returns the number of segments in s.
func (s *Section) SegmentCount() int {
	if len(s.Points) < 2 {
		return 0
	}
	return len(s.Points) - 1
}

// Segment returns the i-th segment, between Points[i] and Points[i+1].
func (s *Section) Segment(i int) Segment {
	return Segment{Start: s.Points[i], End: s.Points[i+1]}
}

// Segments derives all segments of s.
func (s *Section) Segments() []Segment {
	n := s.SegmentCount()
	if n == 0 {
		return nil
	}
	out := make([]Segment, n)
	for i := range out {
		out[i] = s.Segment(i)
	}
	return out
}

// Length returns the path length of s.
func (s *Section) Length() float64 {
	var total float64
	for i := 1; i < len(s.Points); i++ {
		total += s.Points[i-1].Distance(s.Points[i])
	}
	return total
}

func (s *Section) clone() *Section {
	c := *s
	c.Points = append([]Point(nil), s.Points...)
	c.Children = append([]int(nil), s.Children...)
	return &c
}
