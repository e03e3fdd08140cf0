package traversal

import (
	"slices"

	"github.com/banshee-data/arbor/morph"
)

// NeuriteFilter selects neurites by their type.
type NeuriteFilter func(morph.SectionType) bool

// SectionFilter selects sections to yield.
type SectionFilter func(*morph.Section) bool

// PointFilter selects the idx-th point of section s.
type PointFilter func(s *morph.Section, idx int) bool

// AllNeurites admits every neurite.
func AllNeurites(morph.SectionType) bool { return true }

// AllSections yields every visited section.
func AllSections(*morph.Section) bool { return true }

// AllPoints keeps every point.
func AllPoints(*morph.Section, int) bool { return true }

// SectionEndpoints keeps the first and last point of each section.
func SectionEndpoints(s *morph.Section, idx int) bool {
	return idx == 0 || idx == len(s.Points)-1
}

// LastPoint keeps only the last point of each section.
func LastPoint(s *morph.Section, idx int) bool { return idx == len(s.Points)-1 }

// Section predicates.
var (
	IsTip         SectionFilter = (*morph.Section).IsTip
	IsRoot        SectionFilter = (*morph.Section).IsRoot
	IsBifurcation SectionFilter = (*morph.Section).IsBifurcation
)

// NeuriteTypeIs admits neurites whose type is one of types.
func NeuriteTypeIs(types ...morph.SectionType) NeuriteFilter {
	types = slices.Clone(types)
	return func(t morph.SectionType) bool { return slices.Contains(types, t) }
}

// SectionTypeIs yields sections whose own type is one of types.
func SectionTypeIs(types ...morph.SectionType) SectionFilter {
	types = slices.Clone(types)
	return func(s *morph.Section) bool { return slices.Contains(types, s.Type) }
}

// And yields a section only when every filter does. No filters means all.
func And(filters ...SectionFilter) SectionFilter {
	filters = slices.Clone(filters)
	return func(s *morph.Section) bool {
		for _, f := range filters {
			if f != nil && !f(s) {
				return false
			}
		}
		return true
	}
}

// Not inverts f.
func Not(f SectionFilter) SectionFilter {
	return func(s *morph.Section) bool { return !f(s) }
}

// Order selects when a section is yielded relative to its children.
type Order int

const (
	PreOrder  Order = iota // parent before children
	PostOrder              // children before parent
)

func (o Order) String() string {
	if o == PostOrder {
		return "post-order"
	}
	return "pre-order"
}

// Filter bundles the walk options. The zero value walks every section in
// pre-order.
type Filter struct {
	Neurite NeuriteFilter
	Section SectionFilter
	Order   Order
}

// Normalize replaces nil predicates with AllNeurites and AllSections.
func (f Filter) Normalize() Filter {
	if f.Neurite == nil {
		f.Neurite = AllNeurites
	}
	if f.Section == nil {
		f.Section = AllSections
	}
	return f
}
