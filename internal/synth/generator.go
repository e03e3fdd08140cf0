// Package synth generates deterministic synthetic morphologies for tests,
// benchmarks and the command line tools.
package synth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/golang/geo/r3"

	"github.com/banshee-data/arbor/morph"
)

// Generator builds regular branching trees around a single-point soma.
// Every neurite is a full tree: each section below MaxDepth splits into
// BranchFactor children.
type Generator struct {
	// Configuration
	NeuriteCount     int     // neurites per morphology
	MaxDepth         int     // branch levels below the root section
	BranchFactor     int     // children per non-tip section
	PointsPerSection int     // at least 2
	SectionLength    float64 // microns, straight-line length of a section
	SomaRadius       float64 // microns
	Spread           float64 // random direction change per child, 0 keeps children parallel
	Radius           float64 // microns, radius of every neurite point
	// SharedJunctions starts each child section on its parent's last point,
	// as SWC-derived data does. When false a child starts one point spacing
	// past the branch point instead.
	SharedJunctions bool

	seed int64
	rng  *rand.Rand
}

// NewGenerator returns a generator with small default trees. The same seed
// always produces the same morphologies.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		NeuriteCount:     4,
		MaxDepth:         3,
		BranchFactor:     2,
		PointsPerSection: 5,
		SectionLength:    20.0,
		SomaRadius:       5.0,
		Spread:           0.6,
		Radius:           0.5,
		SharedJunctions:  true,
		seed:             seed,
		rng:              rand.New(rand.NewSource(seed)),
	}
}

// Reset rewinds the random source to the generator seed.
func (g *Generator) Reset() {
	g.rng = rand.New(rand.NewSource(g.seed))
}

// SectionsPerNeurite returns the number of sections in each generated neurite.
func (g *Generator) SectionsPerNeurite() int {
	total, level := 0, 1
	for d := 0; d <= g.MaxDepth; d++ {
		total += level
		level *= g.BranchFactor
	}
	return total
}

// SectionCount returns the number of sections in each generated morphology.
func (g *Generator) SectionCount() int {
	return g.NeuriteCount * g.SectionsPerNeurite()
}

// Morphology builds one morphology named name.
func (g *Generator) Morphology(name string) (*morph.Morphology, error) {
	if g.PointsPerSection < 2 {
		return nil, fmt.Errorf("synth: PointsPerSection must be at least 2, got %d", g.PointsPerSection)
	}
	if g.BranchFactor < 1 && g.MaxDepth > 0 {
		return nil, fmt.Errorf("synth: BranchFactor must be positive, got %d", g.BranchFactor)
	}

	b := morph.NewBuilder(name)
	b.SetSoma(morph.SomaSinglePoint, []morph.Point{{R: g.SomaRadius}})

	nextID := 0
	for k := 0; k < g.NeuriteCount; k++ {
		t := morph.NeuriteTypes[k%len(morph.NeuriteTypes)]
		dir := g.rootDirection(k)
		start := dir.Mul(g.SomaRadius)
		if err := g.grow(b, &nextID, morph.NoParent, t, start, dir, 0); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Population builds n morphologies named prefix-0 .. prefix-(n-1).
func (g *Generator) Population(prefix string, n int) (morph.Population, error) {
	pop := make(morph.Population, 0, n)
	for i := 0; i < n; i++ {
		m, err := g.Morphology(fmt.Sprintf("%s-%d", prefix, i))
		if err != nil {
			return nil, err
		}
		pop = append(pop, m)
	}
	return pop, nil
}

// rootDirection spreads the neurites evenly around the z axis with a random
// elevation.
func (g *Generator) rootDirection(k int) r3.Vector {
	azimuth := 2 * math.Pi * float64(k) / float64(max(g.NeuriteCount, 1))
	elevation := (g.rng.Float64() - 0.5) * math.Pi / 3
	return r3.Vector{
		X: math.Cos(elevation) * math.Cos(azimuth),
		Y: math.Cos(elevation) * math.Sin(azimuth),
		Z: math.Sin(elevation),
	}
}

func (g *Generator) grow(b *morph.Builder, nextID *int, parent int, t morph.SectionType, start, dir r3.Vector, depth int) error {
	id := *nextID
	*nextID++

	n := g.PointsPerSection
	pts := make([]morph.Point, n)
	for i := range pts {
		v := start.Add(dir.Mul(g.SectionLength * float64(i) / float64(n-1)))
		pts[i] = morph.Point{R: g.Radius}.WithVec(v)
	}
	if err := b.AddSection(id, parent, t, pts); err != nil {
		return err
	}
	if depth >= g.MaxDepth {
		return nil
	}

	end := pts[n-1].Vec()
	spacing := g.SectionLength / float64(n-1)
	for c := 0; c < g.BranchFactor; c++ {
		childDir := g.perturb(dir)
		childStart := end
		if !g.SharedJunctions {
			childStart = end.Add(childDir.Mul(spacing))
		}
		if err := g.grow(b, nextID, id, t, childStart, childDir, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// perturb tilts dir by a random offset scaled by Spread. The result is
// always a unit vector pointing away from the soma side of dir.
func (g *Generator) perturb(dir r3.Vector) r3.Vector {
	if g.Spread == 0 {
		return dir
	}
	offset := r3.Vector{
		X: g.rng.Float64()*2 - 1,
		Y: g.rng.Float64()*2 - 1,
		Z: g.rng.Float64()*2 - 1,
	}.Mul(g.Spread)
	out := dir.Add(offset)
	if out.Norm() < 1e-9 || out.Dot(dir) <= 0 {
		return dir
	}
	return out.Normalize()
}
