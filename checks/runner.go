package checks

import (
	"fmt"

	"github.com/banshee-data/arbor/morph"
)

// Check names registered by DefaultRunner.
const (
	NameMultifurcation       = "has_multifurcation"
	NameBackTracking         = "has_no_back_tracking"
	NameOverlappingPoints    = "has_no_overlapping_points"
	NameJumps                = "has_no_jumps"
	NameSingleChildren       = "has_no_single_children"
	NameNonzeroSectionLength = "has_all_nonzero_section_lengths"
	NameNonzeroSomaRadius    = "has_nonzero_soma_radius"
	NameNarrowStart          = "has_no_narrow_start"
)

// Params holds the thresholds for the default suite. BackTracking.Tolerance
// and MaxJumpDistance are required.
type Params struct {
	BackTracking        BackTrackingParams
	Overlap             OverlapParams
	MaxJumpDistance     float64
	MinSomaRadius       float64
	NarrowStartFraction float64
}

// Validate checks the required thresholds.
func (p Params) Validate() error {
	if err := p.BackTracking.Validate(); err != nil {
		return err
	}
	if !(p.MaxJumpDistance > 0) {
		return fmt.Errorf("%w: max jump distance must be positive, got %g", ErrInvalidParams, p.MaxJumpDistance)
	}
	if p.MinSomaRadius < 0 {
		return fmt.Errorf("%w: min soma radius must not be negative, got %g", ErrInvalidParams, p.MinSomaRadius)
	}
	if !(p.NarrowStartFraction > 0) {
		return fmt.Errorf("%w: narrow start fraction must be positive, got %g", ErrInvalidParams, p.NarrowStartFraction)
	}
	return nil
}

// Runner evaluates named checks in registration order.
type Runner struct {
	order  []string
	checks map[string]Check
}

// NewRunner returns an empty runner.
func NewRunner() *Runner {
	return &Runner{checks: make(map[string]Check)}
}

// Register adds a check under name. Names must be unique.
func (r *Runner) Register(name string, c Check) error {
	if name == "" || c == nil {
		return fmt.Errorf("checks: register needs a name and a check")
	}
	if _, dup := r.checks[name]; dup {
		return fmt.Errorf("checks: %q already registered", name)
	}
	r.order = append(r.order, name)
	r.checks[name] = c
	return nil
}

// Names returns the registered names in order.
func (r *Runner) Names() []string { return append([]string(nil), r.order...) }

// DefaultRunner registers the full suite with the thresholds in p.
func DefaultRunner(p Params) (*Runner, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r := NewRunner()
	for _, e := range []struct {
		name  string
		check Check
	}{
		{NameMultifurcation, HasMultifurcation},
		{NameBackTracking, func(m *morph.Morphology) (CheckResult, error) { return HasNoBackTracking(m, p.BackTracking) }},
		{NameOverlappingPoints, func(m *morph.Morphology) (CheckResult, error) { return HasNoOverlappingPoints(m, p.Overlap) }},
		{NameJumps, func(m *morph.Morphology) (CheckResult, error) { return HasNoJumps(m, p.MaxJumpDistance) }},
		{NameSingleChildren, HasNoSingleChildren},
		{NameNonzeroSectionLength, HasAllNonzeroSectionLengths},
		{NameNonzeroSomaRadius, HasNonzeroSomaRadius(p.MinSomaRadius)},
		{NameNarrowStart, HasNoNarrowStart(p.NarrowStartFraction)},
	} {
		if err := r.Register(e.name, e.check); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Report is the outcome of one Runner pass over a morphology.
type Report struct {
	Morphology string
	Passed     bool
	Results    map[string]CheckResult
	Order      []string
}

// Failed returns the names of the failed checks in run order.
func (r Report) Failed() []string {
	var out []string
	for _, name := range r.Order {
		if !r.Results[name].Passed {
			out = append(out, name)
		}
	}
	return out
}

// Run evaluates every check against m. The first check error aborts the
// run.
func (r *Runner) Run(m *morph.Morphology) (Report, error) {
	rep := Report{
		Morphology: m.Name,
		Passed:     true,
		Results:    make(map[string]CheckResult, len(r.order)),
		Order:      append([]string(nil), r.order...),
	}
	for _, name := range r.order {
		res, err := r.checks[name](m)
		if err != nil {
			return Report{}, fmt.Errorf("check %s on %q: %w", name, m.Name, err)
		}
		rep.Results[name] = res
		rep.Passed = rep.Passed && res.Passed
	}
	return rep, nil
}
