package checks

import (
	"fmt"

	"github.com/banshee-data/arbor/morph"
	"github.com/banshee-data/arbor/traversal"
)

// MaxChildren is the largest child count that is not a multifurcation.
// Trifurcations are allowed.
const MaxChildren = 3

// sectionCheck flags every section for which bad returns an offender.
func sectionCheck(m *morph.Morphology, bad func(s *morph.Section) (Offender, bool)) (CheckResult, error) {
	var offenders []Offender
	for s, err := range traversal.Sections(m, traversal.Filter{}) {
		if err != nil {
			return CheckResult{}, err
		}
		if o, ok := bad(s); ok {
			offenders = append(offenders, o)
		}
	}
	return result(offenders), nil
}

// HasMultifurcation flags sections with more than MaxChildren children.
// Passed is true when none are found. The offender point is the branch
// point.
func HasMultifurcation(m *morph.Morphology) (CheckResult, error) {
	return sectionCheck(m, func(s *morph.Section) (Offender, bool) {
		if len(s.Children) > MaxChildren {
			return offender(s.ID, s.LastPoint()), true
		}
		return Offender{}, false
	})
}

// HasNoSingleChildren flags sections with exactly one child.
func HasNoSingleChildren(m *morph.Morphology) (CheckResult, error) {
	return sectionCheck(m, func(s *morph.Section) (Offender, bool) {
		if len(s.Children) == 1 {
			return offender(s.ID, s.LastPoint()), true
		}
		return Offender{}, false
	})
}

// HasAllNonzeroSectionLengths flags sections whose path length is zero.
func HasAllNonzeroSectionLengths(m *morph.Morphology) (CheckResult, error) {
	return sectionCheck(m, func(s *morph.Section) (Offender, bool) {
		if s.Length() == 0 {
			return offender(s.ID, s.FirstPoint()), true
		}
		return Offender{}, false
	})
}

// HasNeuriteType returns a check that passes when m has at least minCount
// neurites of type t.
func HasNeuriteType(t morph.SectionType, minCount int) Check {
	return func(m *morph.Morphology) (CheckResult, error) {
		if minCount < 0 {
			return CheckResult{}, fmt.Errorf("checks: minimum %s count must not be negative, got %d", t, minCount)
		}
		n := 0
		for _, nr := range m.Neurites {
			if nr.Type == t {
				n++
			}
		}
		return CheckResult{Passed: n >= minCount}, nil
	}
}
