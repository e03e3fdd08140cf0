package checks

import (
	"github.com/banshee-data/arbor/morph"
)

// Offender is one flagged location: a section and the point or point pair
// that triggered the check. Points may be empty for section-level findings.
type Offender struct {
	SectionID int
	Points    []morph.Point
}

// CheckResult is the outcome of one check. Offenders are in traversal
// order.
type CheckResult struct {
	Passed    bool
	Offenders []Offender
}

// SectionIDs returns the offending section ids in order, with repeats.
func (r CheckResult) SectionIDs() []int {
	out := make([]int, len(r.Offenders))
	for i, o := range r.Offenders {
		out[i] = o.SectionID
	}
	return out
}

// Check evaluates one property of a morphology.
type Check func(m *morph.Morphology) (CheckResult, error)

func result(offenders []Offender) CheckResult {
	return CheckResult{Passed: len(offenders) == 0, Offenders: offenders}
}

func offender(id int, pts ...morph.Point) Offender {
	return Offender{SectionID: id, Points: pts}
}
