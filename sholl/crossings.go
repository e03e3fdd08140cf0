package sholl

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/banshee-data/arbor/morph"
	"github.com/banshee-data/arbor/traversal"
)

// Crossings counts, for each radius in bins, the segments of the admitted
// neurites of m that cross the sphere of that radius around center. The
// result has one count per bin, in bin order.
func Crossings(m *morph.Morphology, nf traversal.NeuriteFilter, center r3.Vector, bins []float64) ([]int, error) {
	counts := make([]int, len(bins))
	for ss, err := range traversal.Segments(m, traversal.Filter{Neurite: nf}) {
		if err != nil {
			return nil, err
		}
		d0 := ss.Segment.Start.Vec().Distance(center)
		d1 := ss.Segment.End.Vec().Distance(center)
		lo, hi := min(d0, d1), max(d0, d1)
		for i, r := range bins {
			if lo <= r && r < hi {
				counts[i]++
			}
		}
	}
	return counts, nil
}

// SomaCrossings is Crossings around the soma centre of m. It returns an
// error wrapping morph.ErrMissingSomaCenter when m has no soma points.
func SomaCrossings(m *morph.Morphology, nf traversal.NeuriteFilter, bins []float64) ([]int, error) {
	center, err := m.SomaCenter()
	if err != nil {
		return nil, fmt.Errorf("sholl %q: %w", m.Name, err)
	}
	return Crossings(m, nf, center, bins)
}
