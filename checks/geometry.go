package checks

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/arbor/morph"
	"github.com/banshee-data/arbor/traversal"
)

// DefaultOverlapEpsilon is the distance below which two points overlap.
const DefaultOverlapEpsilon = 1e-8

// DefaultBackTrackingAngleDeg is the default turn angle, in degrees, above
// which a direction change counts as a reversal.
const DefaultBackTrackingAngleDeg = 90.0

// DefaultNarrowStartFraction is the default fraction for HasNoNarrowStart.
const DefaultNarrowStartFraction = 0.9

// ErrInvalidParams is wrapped by every parameter validation failure.
var ErrInvalidParams = errors.New("invalid check parameters")

// BackTrackingParams configures HasNoBackTracking. Tolerance has no default
// and must be supplied by the caller.
type BackTrackingParams struct {
	Tolerance   float64 // distance to an earlier point that counts as revisiting it
	MaxAngleDeg float64 // turn angle above which a step is a reversal
}

// NewBackTrackingParams returns params with the given tolerance and the
// default angle threshold.
func NewBackTrackingParams(tolerance float64) BackTrackingParams {
	return BackTrackingParams{Tolerance: tolerance, MaxAngleDeg: DefaultBackTrackingAngleDeg}
}

// Validate checks the tolerance and angle ranges.
func (p BackTrackingParams) Validate() error {
	if !(p.Tolerance > 0) || math.IsInf(p.Tolerance, 0) {
		return fmt.Errorf("%w: back-tracking tolerance must be positive, got %g", ErrInvalidParams, p.Tolerance)
	}
	if !(p.MaxAngleDeg > 0 && p.MaxAngleDeg <= 180) {
		return fmt.Errorf("%w: back-tracking angle must be in (0, 180], got %g", ErrInvalidParams, p.MaxAngleDeg)
	}
	return nil
}

// HasNoBackTracking flags point i of a section when the path turns by more
// than MaxAngleDeg at p_{i-1} and p_i lies within Tolerance of an earlier
// point p_j, j < i-1, of the same section. The offender holds p_j and p_i
// for the first such j.
func HasNoBackTracking(m *morph.Morphology, p BackTrackingParams) (CheckResult, error) {
	if err := p.Validate(); err != nil {
		return CheckResult{}, err
	}
	return sectionCheckAll(m, func(s *morph.Section) []Offender {
		if len(s.Points) < 3 {
			return nil
		}
		var out []Offender
		index := NewSpatialIndex(p.Tolerance)
		for i := 2; i < len(s.Points); i++ {
			index.Insert(s.Points[i-2].Vec())

			prev := s.Points[i-1].Vec().Sub(s.Points[i-2].Vec())
			cur := s.Points[i].Vec().Sub(s.Points[i-1].Vec())
			if prev.Norm() == 0 || cur.Norm() == 0 {
				continue
			}
			if cur.Angle(prev).Degrees() <= p.MaxAngleDeg {
				continue
			}
			if near := index.RegionQuery(s.Points[i].Vec(), p.Tolerance); len(near) > 0 {
				out = append(out, offender(s.ID, s.Points[near[0]], s.Points[i]))
			}
		}
		return out
	})
}

// OverlapParams configures HasNoOverlappingPoints.
type OverlapParams struct {
	Epsilon float64 // zero means DefaultOverlapEpsilon
	// SkipJunctions ignores the parent last point / child first point pair,
	// for loaders that duplicate the branch point into each child.
	SkipJunctions bool
}

// HasNoOverlappingPoints flags consecutive points of a section, and the
// last point of a section against the first point of each child, that are
// closer than Epsilon. Junction offenders carry the child section id.
func HasNoOverlappingPoints(m *morph.Morphology, p OverlapParams) (CheckResult, error) {
	eps := p.Epsilon
	if eps == 0 {
		eps = DefaultOverlapEpsilon
	}
	if eps < 0 || math.IsNaN(eps) {
		return CheckResult{}, fmt.Errorf("%w: overlap epsilon must be positive, got %g", ErrInvalidParams, eps)
	}
	return sectionCheckAll(m, func(s *morph.Section) []Offender {
		var out []Offender
		if !p.SkipJunctions && !s.IsRoot() {
			if parent, ok := m.Parent(s); ok && parent.LastPoint().Distance(s.FirstPoint()) < eps {
				out = append(out, offender(s.ID, parent.LastPoint(), s.FirstPoint()))
			}
		}
		for i := 1; i < len(s.Points); i++ {
			if s.Points[i-1].Distance(s.Points[i]) < eps {
				out = append(out, offender(s.ID, s.Points[i-1], s.Points[i]))
			}
		}
		return out
	})
}

// HasNoJumps flags consecutive points of a section farther apart than
// maxDistance. The threshold has no default.
func HasNoJumps(m *morph.Morphology, maxDistance float64) (CheckResult, error) {
	if !(maxDistance > 0) {
		return CheckResult{}, fmt.Errorf("%w: max jump distance must be positive, got %g", ErrInvalidParams, maxDistance)
	}
	return sectionCheckAll(m, func(s *morph.Section) []Offender {
		var out []Offender
		for i := 1; i < len(s.Points); i++ {
			if s.Points[i-1].Distance(s.Points[i]) > maxDistance {
				out = append(out, offender(s.ID, s.Points[i-1], s.Points[i]))
			}
		}
		return out
	})
}

// HasNonzeroSomaRadius returns a check that passes when the soma radius is
// greater than threshold. A missing soma fails.
func HasNonzeroSomaRadius(threshold float64) Check {
	return func(m *morph.Morphology) (CheckResult, error) {
		return CheckResult{Passed: m.Soma != nil && m.SomaRadius() > threshold}, nil
	}
}

// HasNoNarrowStart returns a check flagging neurite roots whose first point
// is narrower than frac times the second point. The offender point is the
// second point.
func HasNoNarrowStart(frac float64) Check {
	return func(m *morph.Morphology) (CheckResult, error) {
		if !(frac > 0) {
			return CheckResult{}, fmt.Errorf("%w: narrow start fraction must be positive, got %g", ErrInvalidParams, frac)
		}
		var offenders []Offender
		for _, n := range m.Neurites {
			s, ok := m.Section(n.RootID)
			if !ok {
				return CheckResult{}, morph.NewStructuralError(n.RootID, "neurite root does not exist")
			}
			if len(s.Points) < 2 {
				continue
			}
			if s.Points[0].R < frac*s.Points[1].R {
				offenders = append(offenders, offender(s.ID, s.Points[1]))
			}
		}
		return result(offenders), nil
	}
}

// sectionCheckAll collects every offender bad reports, section by section
// in traversal order.
func sectionCheckAll(m *morph.Morphology, bad func(s *morph.Section) []Offender) (CheckResult, error) {
	var offenders []Offender
	for s, err := range traversal.Sections(m, traversal.Filter{}) {
		if err != nil {
			return CheckResult{}, err
		}
		offenders = append(offenders, bad(s)...)
	}
	return result(offenders), nil
}
