// Package testutil provides shared test utilities and fixtures.
//
// The fixtures build small hand-written morphologies so that package tests
// state their geometry directly instead of going through the builder.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/arbor/morph"
)

// Sec describes one section passed to Build.
type Sec struct {
	ID     int
	Parent int
	Type   morph.SectionType
	Points []morph.Point
}

// ZPoints returns points on the z axis at the given heights, all with
// radius r.
func ZPoints(r float64, z ...float64) []morph.Point {
	out := make([]morph.Point, len(z))
	for i, v := range z {
		out[i] = morph.Point{Z: v, R: r}
	}
	return out
}

// Build assembles a morphology with a single-point soma at the origin.
// Sections with an undefined type become basal dendrites.
func Build(t testing.TB, name string, somaRadius float64, secs ...Sec) *morph.Morphology {
	t.Helper()
	b := morph.NewBuilder(name)
	b.SetSoma(morph.SomaSinglePoint, []morph.Point{{R: somaRadius}})
	for _, s := range secs {
		typ := s.Type
		if typ == morph.TypeUndefined {
			typ = morph.TypeBasalDendrite
		}
		require.NoError(t, b.AddSection(s.ID, s.Parent, typ, s.Points))
	}
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

// Line returns a single unbranched section of type typ running from the
// soma out along z through the given heights.
func Line(t testing.TB, name string, typ morph.SectionType, z ...float64) *morph.Morphology {
	t.Helper()
	return Build(t, name, 1, Sec{ID: 0, Parent: morph.NoParent, Type: typ, Points: ZPoints(0.5, z...)})
}

// AssertSameCoords checks that got has the point layout of want with every
// point within tol of its counterpart and radii unchanged.
func AssertSameCoords(t testing.TB, want, got *morph.Morphology, tol float64) {
	t.Helper()
	if want.Soma != nil {
		require.NotNil(t, got.Soma, "soma")
		require.Len(t, got.Soma.Points, len(want.Soma.Points), "soma points")
		for i, p := range want.Soma.Points {
			q := got.Soma.Points[i]
			assert.InDelta(t, 0, p.Vec().Distance(q.Vec()), tol, "soma point %d", i)
		}
	}
	require.Equal(t, want.SectionIDs(), got.SectionIDs(), "section ids")
	for _, id := range want.SectionIDs() {
		wp, gp := want.Sections[id].Points, got.Sections[id].Points
		require.Len(t, gp, len(wp), "section %d points", id)
		for i, p := range wp {
			q := gp[i]
			assert.InDelta(t, 0, p.Vec().Distance(q.Vec()), tol, "section %d point %d", id, i)
			assert.Equal(t, p.R, q.R, "section %d point %d radius", id, i)
		}
	}
}
