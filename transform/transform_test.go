package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/arbor/internal/synth"
	"github.com/banshee-data/arbor/internal/testutil"
	"github.com/banshee-data/arbor/morph"
)

func cell(t *testing.T) *morph.Morphology {
	t.Helper()
	g := synth.NewGenerator(11)
	g.NeuriteCount = 3
	g.MaxDepth = 2
	m, err := g.Morphology("cell")
	require.NoError(t, err)
	m.Soma.Points[0].X = 1.5
	return m
}

func TestRotate_ZeroAngleLeavesCoordinates(t *testing.T) {
	for _, axis := range testAxes {
		m := cell(t)
		orig := m.Clone()
		out, err := Rotate(m, axis, 0, r3.Vector{X: 3, Y: -1})
		require.NoError(t, err)
		assert.Same(t, m, out)
		testutil.AssertSameCoords(t, orig, m, 1e-9)
	}
}

func TestRotate_InverseRestores(t *testing.T) {
	for _, axis := range testAxes {
		for _, angle := range testAngles {
			m := cell(t)
			orig := m.Clone()
			pivot := r3.Vector{X: 2, Y: 2, Z: -4}
			_, err := Rotate(m, axis, angle, pivot)
			require.NoError(t, err)
			_, err = Rotate(m, axis, -angle, pivot)
			require.NoError(t, err)
			testutil.AssertSameCoords(t, orig, m, 1e-9)
		}
	}
}

func TestRotate_PreservesDistanceToPivot(t *testing.T) {
	m := cell(t)
	pivot := r3.Vector{X: 1, Y: 2, Z: 3}
	before := m.Sections[0].LastPoint().Vec().Distance(pivot)
	_, err := Rotate(m, r3.Vector{X: 1, Y: -1}, 1.1, pivot)
	require.NoError(t, err)
	assert.InDelta(t, before, m.Sections[0].LastPoint().Vec().Distance(pivot), 1e-9)
}

func TestRotate_SomaCenterFollows(t *testing.T) {
	m := cell(t)
	_, err := Rotate(m, r3.Vector{Z: 1}, math.Pi, r3.Vector{})
	require.NoError(t, err)
	c, err := m.SomaCenter()
	require.NoError(t, err)
	assert.InDelta(t, -1.5, c.X, 1e-12)
	assert.InDelta(t, 0, c.Y, 1e-12)
}

func TestRotate_DegenerateAxisLeavesInput(t *testing.T) {
	m := cell(t)
	orig := m.Clone()
	_, err := Rotate(m, r3.Vector{}, 1, r3.Vector{})
	assert.ErrorIs(t, err, morph.ErrDegenerateAxis)
	testutil.AssertSameCoords(t, orig, m, 0)
}

func TestPureVariantsLeaveInputUntouched(t *testing.T) {
	m := cell(t)
	orig := m.Clone()

	rot, err := Rotated(m, r3.Vector{Y: 1}, 0.4, r3.Vector{})
	require.NoError(t, err)
	assert.NotSame(t, m, rot)

	tr := Translated(m, r3.Vector{X: 10})
	assert.InDelta(t, orig.Sections[0].FirstPoint().X+10, tr.Sections[0].FirstPoint().X, 1e-12)

	sc, err := Scaled(m, r3.Vector{X: 2, Y: 2, Z: 2}, true)
	require.NoError(t, err)
	assert.InDelta(t, orig.Sections[0].FirstPoint().R*2, sc.Sections[0].FirstPoint().R, 1e-12)

	ap, err := Applied(m, TranslationFunc(r3.Vector{Z: 1}))
	require.NoError(t, err)
	assert.NotSame(t, m, ap)

	testutil.AssertSameCoords(t, orig, m, 0)
}

func TestTranslate(t *testing.T) {
	m := cell(t)
	first := m.Sections[0].FirstPoint()
	out := Translate(m, r3.Vector{X: 1, Y: 2, Z: 3})
	assert.Same(t, m, out)
	got := m.Sections[0].FirstPoint()
	assert.InDelta(t, first.X+1, got.X, 1e-12)
	assert.InDelta(t, first.Y+2, got.Y, 1e-12)
	assert.InDelta(t, first.Z+3, got.Z, 1e-12)
	assert.InDelta(t, 2.5, m.Soma.Points[0].X, 1e-12)
}

func TestScale(t *testing.T) {
	t.Run("coordinates only", func(t *testing.T) {
		m := cell(t)
		p := m.Sections[0].LastPoint()
		_, err := Scale(m, r3.Vector{X: 2, Y: 3, Z: -1}, false)
		require.NoError(t, err)
		q := m.Sections[0].LastPoint()
		assert.InDelta(t, 2*p.X, q.X, 1e-12)
		assert.InDelta(t, 3*p.Y, q.Y, 1e-12)
		assert.InDelta(t, -p.Z, q.Z, 1e-12)
		assert.Equal(t, p.R, q.R)
	})

	t.Run("radius uses geometric mean", func(t *testing.T) {
		m := cell(t)
		r := m.Sections[0].LastPoint().R
		_, err := Scale(m, r3.Vector{X: 1, Y: 8, Z: 1}, true)
		require.NoError(t, err)
		assert.InDelta(t, 2*r, m.Sections[0].LastPoint().R, 1e-12)
	})

	t.Run("uniform", func(t *testing.T) {
		m := cell(t)
		_, err := Uniform(m, 0.5, true)
		require.NoError(t, err)
		assert.InDelta(t, 2.5, m.SomaRadius(), 1e-12)
	})

	t.Run("zero factor", func(t *testing.T) {
		m := cell(t)
		orig := m.Clone()
		_, err := Scale(m, r3.Vector{X: 1, Y: 0, Z: 1}, false)
		assert.ErrorIs(t, err, morph.ErrGeometry)
		testutil.AssertSameCoords(t, orig, m, 0)
		_, err = Scaled(m, r3.Vector{X: math.NaN(), Y: 1, Z: 1}, false)
		assert.ErrorIs(t, err, morph.ErrGeometry)
	})
}

func TestLinear(t *testing.T) {
	m := cell(t)
	swap := mat.NewDense(3, 3, []float64{0, 1, 0, 1, 0, 0, 0, 0, 1})
	p := m.Sections[0].LastPoint()
	_, err := Linear(m, swap)
	require.NoError(t, err)
	q := m.Sections[0].LastPoint()
	assert.InDelta(t, p.Y, q.X, 1e-12)
	assert.InDelta(t, p.X, q.Y, 1e-12)

	_, err = Linear(m, mat.NewDense(3, 3, nil))
	assert.ErrorIs(t, err, morph.ErrGeometry)
	_, err = Linear(m, mat.NewDense(2, 3, nil))
	assert.ErrorIs(t, err, morph.ErrGeometry)
}

func TestApply_RejectsBadShape(t *testing.T) {
	m := cell(t)
	orig := m.Clone()
	_, err := Apply(m, func(c *mat.Dense) (*mat.Dense, error) {
		return mat.NewDense(1, 3, nil), nil
	})
	var ge *morph.GeometryError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "apply", ge.Op)
	testutil.AssertSameCoords(t, orig, m, 0)

	boom := errors.New("boom")
	_, err = Apply(m, func(*mat.Dense) (*mat.Dense, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestApply_EmptyMorphology(t *testing.T) {
	m := morph.New("empty")
	called := false
	out, err := Apply(m, func(c *mat.Dense) (*mat.Dense, error) {
		called = true
		return c, nil
	})
	require.NoError(t, err)
	assert.Same(t, m, out)
	assert.False(t, called)
}

func TestPipeline(t *testing.T) {
	r, err := BuildRotation(r3.Vector{Z: 1}, math.Pi/2)
	require.NoError(t, err)

	m := cell(t)
	seq := m.Clone()
	_, err = Pipeline{
		TranslationFunc(r3.Vector{X: 1}),
		RotationFunc(r, r3.Vector{}),
		ScaleFunc(r3.Vector{X: 2, Y: 2, Z: 2}),
	}.Run(m)
	require.NoError(t, err)

	Translate(seq, r3.Vector{X: 1})
	_, err = Apply(seq, RotationFunc(r, r3.Vector{}))
	require.NoError(t, err)
	_, err = Uniform(seq, 2, false)
	require.NoError(t, err)

	testutil.AssertSameCoords(t, seq, m, 1e-9)
}

func TestPipeline_FailureLeavesInput(t *testing.T) {
	m := cell(t)
	orig := m.Clone()
	p := Pipeline{
		TranslationFunc(r3.Vector{X: 5}),
		ScaleFunc(r3.Vector{X: 0, Y: 1, Z: 1}),
	}
	_, err := p.Run(m)
	assert.ErrorIs(t, err, morph.ErrGeometry)
	testutil.AssertSameCoords(t, orig, m, 0)

	_, err = p.Applied(m)
	assert.Error(t, err)
}
