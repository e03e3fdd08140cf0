package transform

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/arbor/morph"
)

// CoordFunc maps an N×3 coordinate matrix to a new N×3 matrix. It may
// modify its argument and return it.
type CoordFunc func(coords *mat.Dense) (*mat.Dense, error)

// gather collects every point of m, soma first and then sections in id
// order, and returns them as rows along with pointers for write-back.
func gather(m *morph.Morphology) (*mat.Dense, []*morph.Point) {
	var refs []*morph.Point
	if m.Soma != nil {
		for i := range m.Soma.Points {
			refs = append(refs, &m.Soma.Points[i])
		}
	}
	for _, id := range m.SectionIDs() {
		s := m.Sections[id]
		for i := range s.Points {
			refs = append(refs, &s.Points[i])
		}
	}
	if len(refs) == 0 {
		return nil, nil
	}
	data := make([]float64, 0, 3*len(refs))
	for _, p := range refs {
		data = append(data, p.X, p.Y, p.Z)
	}
	return mat.NewDense(len(refs), 3, data), refs
}

// Apply runs fn over the coordinates of every point of m, in place, and
// returns m. Radii are kept. When fn fails or returns a matrix of the wrong
// shape m is left unchanged.
func Apply(m *morph.Morphology, fn CoordFunc) (*morph.Morphology, error) {
	coords, refs := gather(m)
	if coords == nil {
		return m, nil
	}
	out, err := fn(coords)
	if err != nil {
		return m, fmt.Errorf("apply: %w", err)
	}
	if out == nil {
		return m, &morph.GeometryError{Op: "apply", Reason: "transform returned no coordinates"}
	}
	if r, c := out.Dims(); r != len(refs) || c != 3 {
		return m, &morph.GeometryError{
			Op:     "apply",
			Reason: fmt.Sprintf("transform returned %d×%d coordinates, want %d×3", r, c, len(refs)),
		}
	}
	for i, p := range refs {
		*p = p.WithVec(r3.Vector{X: out.At(i, 0), Y: out.At(i, 1), Z: out.At(i, 2)})
	}
	return m, nil
}

// Applied is the pure form of Apply: it transforms a copy of m.
func Applied(m *morph.Morphology, fn CoordFunc) (*morph.Morphology, error) {
	out, err := Apply(m.Clone(), fn)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Rotate rotates m in place by angle radians about axis through pivot and
// returns m.
func Rotate(m *morph.Morphology, axis r3.Vector, angle float64, pivot r3.Vector) (*morph.Morphology, error) {
	r, err := BuildRotation(axis, angle)
	if err != nil {
		return m, err
	}
	return Apply(m, RotationFunc(r, pivot))
}

// Rotated is the pure form of Rotate.
func Rotated(m *morph.Morphology, axis r3.Vector, angle float64, pivot r3.Vector) (*morph.Morphology, error) {
	r, err := BuildRotation(axis, angle)
	if err != nil {
		return nil, err
	}
	return Applied(m, RotationFunc(r, pivot))
}

// Translate moves every point of m by v, in place, and returns m.
func Translate(m *morph.Morphology, v r3.Vector) *morph.Morphology {
	// TranslationFunc cannot fail.
	out, _ := Apply(m, TranslationFunc(v))
	return out
}

// Translated is the pure form of Translate.
func Translated(m *morph.Morphology, v r3.Vector) *morph.Morphology {
	return Translate(m.Clone(), v)
}

// Scale multiplies the coordinates of m by factors, per axis, in place and
// returns m. With scaleRadius the radii are multiplied by the geometric
// mean of the absolute factors. A zero or non-finite factor is a
// GeometryError.
func Scale(m *morph.Morphology, factors r3.Vector, scaleRadius bool) (*morph.Morphology, error) {
	if err := checkFactors(factors); err != nil {
		return m, err
	}
	if _, err := Apply(m, ScaleFunc(factors)); err != nil {
		return m, err
	}
	if scaleRadius {
		k := math.Cbrt(math.Abs(factors.X * factors.Y * factors.Z))
		scaleRadii(m, k)
	}
	return m, nil
}

// Scaled is the pure form of Scale.
func Scaled(m *morph.Morphology, factors r3.Vector, scaleRadius bool) (*morph.Morphology, error) {
	if err := checkFactors(factors); err != nil {
		return nil, err
	}
	return Scale(m.Clone(), factors, scaleRadius)
}

// Uniform scales m in place by the same factor on every axis.
func Uniform(m *morph.Morphology, factor float64, scaleRadius bool) (*morph.Morphology, error) {
	return Scale(m, r3.Vector{X: factor, Y: factor, Z: factor}, scaleRadius)
}

// Linear applies the 3×3 matrix lin to every point of m, in place, and
// returns m. Singular matrices are rejected.
func Linear(m *morph.Morphology, lin mat.Matrix) (*morph.Morphology, error) {
	if err := checkLinear(lin); err != nil {
		return m, err
	}
	return Apply(m, LinearFunc(lin))
}

func checkFactors(f r3.Vector) error {
	for _, v := range []float64{f.X, f.Y, f.Z} {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return &morph.GeometryError{Op: "scale", Reason: fmt.Sprintf("singular scale factors %v", f)}
		}
	}
	return nil
}

func checkLinear(lin mat.Matrix) error {
	if r, c := lin.Dims(); r != 3 || c != 3 {
		return &morph.GeometryError{Op: "linear", Reason: fmt.Sprintf("matrix is %d×%d, want 3×3", r, c)}
	}
	if d := mat.Det(lin); d == 0 || math.IsNaN(d) {
		return &morph.GeometryError{Op: "linear", Reason: "matrix is singular"}
	}
	return nil
}

func scaleRadii(m *morph.Morphology, k float64) {
	if m.Soma != nil {
		for i := range m.Soma.Points {
			m.Soma.Points[i].R *= k
		}
	}
	for _, s := range m.Sections {
		for i := range s.Points {
			s.Points[i].R *= k
		}
	}
}

// LinearFunc returns a CoordFunc mapping each row p to lin·p.
func LinearFunc(lin mat.Matrix) CoordFunc {
	return func(c *mat.Dense) (*mat.Dense, error) {
		if err := checkLinear(lin); err != nil {
			return nil, err
		}
		var out mat.Dense
		out.Mul(c, lin.T())
		return &out, nil
	}
}

// RotationFunc returns a CoordFunc rotating by r about pivot.
func RotationFunc(r mat.Matrix, pivot r3.Vector) CoordFunc {
	return func(c *mat.Dense) (*mat.Dense, error) {
		if rows, cols := r.Dims(); rows != 3 || cols != 3 {
			return nil, &morph.GeometryError{Op: "rotate", Reason: fmt.Sprintf("matrix is %d×%d, want 3×3", rows, cols)}
		}
		shift(c, pivot.Mul(-1))
		var out mat.Dense
		out.Mul(c, r.T())
		shift(&out, pivot)
		return &out, nil
	}
}

// TranslationFunc returns a CoordFunc adding v to each row.
func TranslationFunc(v r3.Vector) CoordFunc {
	return func(c *mat.Dense) (*mat.Dense, error) {
		shift(c, v)
		return c, nil
	}
}

// ScaleFunc returns a CoordFunc multiplying each column by its factor.
func ScaleFunc(factors r3.Vector) CoordFunc {
	return func(c *mat.Dense) (*mat.Dense, error) {
		if err := checkFactors(factors); err != nil {
			return nil, err
		}
		rows, _ := c.Dims()
		for i := 0; i < rows; i++ {
			c.Set(i, 0, c.At(i, 0)*factors.X)
			c.Set(i, 1, c.At(i, 1)*factors.Y)
			c.Set(i, 2, c.At(i, 2)*factors.Z)
		}
		return c, nil
	}
}

func shift(c *mat.Dense, v r3.Vector) {
	if v == (r3.Vector{}) {
		return
	}
	rows, _ := c.Dims()
	for i := 0; i < rows; i++ {
		c.Set(i, 0, c.At(i, 0)+v.X)
		c.Set(i, 1, c.At(i, 1)+v.Y)
		c.Set(i, 2, c.At(i, 2)+v.Z)
	}
}
