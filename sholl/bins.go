package sholl

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/arbor/morph"
	"github.com/banshee-data/arbor/traversal"
)

// ErrInvalidStep is returned when bins must be derived from a step that is
// not a positive finite number, or that is too small for the radial extent.
var ErrInvalidStep = errors.New("sholl: step size must be positive")

// MaxDerivedBins caps the number of radii DeriveBins will produce.
const MaxDerivedBins = 10_000_000

// DeriveBins returns the radii used by Frequency when no bins are given:
// an arithmetic sequence from the smallest soma radius in pop, in steps of
// step, up to but excluding that radius plus the largest distance of any
// admitted point from its own soma centre. It returns an empty slice when
// no member has an admitted section, and ErrInvalidStep when step would
// need more than MaxDerivedBins radii.
func DeriveBins(pop morph.Population, nf traversal.NeuriteFilter, step float64) ([]float64, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w, got %g", ErrInvalidStep, step)
	}

	var maxima []float64
	for _, m := range pop {
		d, ok, err := maxRadialDistance(m, nf)
		if err != nil {
			return nil, err
		}
		if ok {
			maxima = append(maxima, d)
		}
	}
	if len(maxima) == 0 {
		return []float64{}, nil
	}

	radii := make([]float64, len(pop))
	for i, m := range pop {
		radii[i] = m.SomaRadius()
	}
	start := floats.Min(radii)
	return arange(start, start+floats.Max(maxima), step)
}

// maxRadialDistance returns the largest distance from the soma centre of
// any point in the admitted neurites of m. ok is false when no section is
// admitted.
func maxRadialDistance(m *morph.Morphology, nf traversal.NeuriteFilter) (dist float64, ok bool, err error) {
	var center r3.Vector
	for s, walkErr := range traversal.Sections(m, traversal.Filter{Neurite: nf}) {
		if walkErr != nil {
			return 0, false, walkErr
		}
		if !ok {
			if center, err = m.SomaCenter(); err != nil {
				return 0, false, fmt.Errorf("sholl %q: %w", m.Name, err)
			}
			ok = true
		}
		for _, p := range s.Points {
			dist = max(dist, p.Vec().Distance(center))
		}
	}
	return dist, ok, nil
}

// arange returns start, start+step, ... for every value below stop. It
// fails when that would be more than MaxDerivedBins values.
func arange(start, stop, step float64) ([]float64, error) {
	q := math.Ceil((stop - start) / step)
	if math.IsNaN(q) || q > MaxDerivedBins {
		return nil, fmt.Errorf("%w: step %g over [%g, %g) needs more than %d bins",
			ErrInvalidStep, step, start, stop, MaxDerivedBins)
	}
	if q <= 0 {
		return []float64{}, nil
	}
	out := make([]float64, int(q))
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out, nil
}
