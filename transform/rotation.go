package transform

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/arbor/morph"
)

// MinAxisNorm is the shortest rotation axis BuildRotation accepts.
const MinAxisNorm = 1e-12

// RotationTolerance is the absolute tolerance IsRotation uses by default.
const RotationTolerance = 1e-9

// BuildRotation returns the 3×3 matrix rotating by angle radians about axis,
// using Rodrigues' formula R = I + sinθ·K + (1−cosθ)·K² with K the
// cross-product matrix of the unit axis. The axis need not be normalised.
func BuildRotation(axis r3.Vector, angle float64) (*mat.Dense, error) {
	n := axis.Norm()
	if !(n >= MinAxisNorm) || math.IsInf(n, 0) {
		return nil, &morph.GeometryError{
			Op:     "rotate",
			Reason: fmt.Sprintf("axis %v has norm %g", axis, n),
			Err:    morph.ErrDegenerateAxis,
		}
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return nil, &morph.GeometryError{Op: "rotate", Reason: fmt.Sprintf("angle %g is not finite", angle)}
	}
	u := axis.Mul(1 / n)

	k := mat.NewDense(3, 3, []float64{
		0, -u.Z, u.Y,
		u.Z, 0, -u.X,
		-u.Y, u.X, 0,
	})
	var k2 mat.Dense
	k2.Mul(k, k)

	r := identity()
	var term mat.Dense
	term.Scale(math.Sin(angle), k)
	r.Add(r, &term)
	term.Scale(1-math.Cos(angle), &k2)
	r.Add(r, &term)
	return r, nil
}

// Compose multiplies matrices given in application order: the result of
// Compose(A, B) applies A first and then B, i.e. B·A. No matrices gives the
// identity.
func Compose(ms ...mat.Matrix) *mat.Dense {
	out := identity()
	for _, m := range ms {
		var next mat.Dense
		next.Mul(m, out)
		out = &next
	}
	return out
}

// IsRotation reports whether r is a proper rotation: 3×3, r·rᵀ within tol
// of the identity and det(r) within tol of +1.
func IsRotation(r mat.Matrix, tol float64) bool {
	rows, cols := r.Dims()
	if rows != 3 || cols != 3 {
		return false
	}
	var rrt mat.Dense
	rrt.Mul(r, r.T())
	if !mat.EqualApprox(&rrt, identity(), tol) {
		return false
	}
	return math.Abs(mat.Det(r)-1) <= tol
}

func identity() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}
