package checks

import (
	"math"
	"slices"

	"github.com/golang/geo/r3"
)

// SpatialIndex buckets points on a regular 3D grid so that neighbour
// queries only scan the 27 cells around the query point.
type SpatialIndex struct {
	CellSize float64
	Grid     map[cellKey][]int // cell → point indices
	points   []r3.Vector
}

type cellKey struct{ X, Y, Z int64 }

// maxCell bounds grid coordinates. Points more than maxCell cells from the
// origin share the edge cells, which only costs extra distance checks.
const maxCell = 1 << 52

// NewSpatialIndex creates an empty index. cellSize must be positive and
// at least the largest radius that will be queried. Any positive size is
// correct; sizes far below the coordinate scale just crowd the edge cells.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[cellKey][]int),
	}
}

// Insert adds v and returns its index.
func (si *SpatialIndex) Insert(v r3.Vector) int {
	idx := len(si.points)
	si.points = append(si.points, v)
	key := si.cell(v)
	si.Grid[key] = append(si.Grid[key], idx)
	return idx
}

// Len returns the number of indexed points.
func (si *SpatialIndex) Len() int { return len(si.points) }

// Point returns the indexed point idx.
func (si *SpatialIndex) Point(idx int) r3.Vector { return si.points[idx] }

func (si *SpatialIndex) cell(v r3.Vector) cellKey {
	return cellKey{
		X: cellCoord(v.X, si.CellSize),
		Y: cellCoord(v.Y, si.CellSize),
		Z: cellCoord(v.Z, si.CellSize),
	}
}

// cellCoord clamps to ±maxCell before converting, since float to int64
// conversion of out-of-range values is implementation-defined. Clamping is
// monotonic, so points within one cell of each other stay in adjacent cells.
func cellCoord(v, size float64) int64 {
	c := math.Floor(v / size)
	switch {
	case math.IsNaN(c):
		return 0
	case c > maxCell:
		return maxCell
	case c < -maxCell:
		return -maxCell
	}
	return int64(c)
}

// RegionQuery returns the indices of all points within eps of v, in
// insertion order. eps must not exceed CellSize.
func (si *SpatialIndex) RegionQuery(v r3.Vector, eps float64) []int {
	var neighbours []int
	eps2 := eps * eps // squared distance avoids the sqrt
	base := si.cell(v)

	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				key := cellKey{X: base.X + dx, Y: base.Y + dy, Z: base.Z + dz}
				for _, idx := range si.Grid[key] {
					d := si.points[idx].Sub(v)
					if d.Dot(d) <= eps2 {
						neighbours = append(neighbours, idx)
					}
				}
			}
		}
	}
	slices.Sort(neighbours)
	return neighbours
}
