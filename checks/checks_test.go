package checks

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/arbor/internal/synth"
	"github.com/banshee-data/arbor/internal/testutil"
	"github.com/banshee-data/arbor/morph"
)

func p(x, y, z float64) morph.Point { return morph.Point{X: x, Y: y, Z: z, R: 1} }

type rec struct {
	id, parent int
	points     []morph.Point
}

func build(t *testing.T, recs ...rec) *morph.Morphology {
	t.Helper()
	secs := make([]testutil.Sec, len(recs))
	for i, r := range recs {
		secs[i] = testutil.Sec{ID: r.id, Parent: r.parent, Points: r.points}
	}
	return testutil.Build(t, "test", 3, secs...)
}

// fan returns a root section with n children, each starting on the root's
// last point.
func fan(t *testing.T, n int) *morph.Morphology {
	recs := []rec{{0, morph.NoParent, []morph.Point{p(0, 0, 0), p(0, 0, 10)}}}
	for i := 1; i <= n; i++ {
		recs = append(recs, rec{i, 0, []morph.Point{p(0, 0, 10), p(float64(i), 0, 15)}})
	}
	return build(t, recs...)
}

func TestHasMultifurcation(t *testing.T) {
	tests := []struct {
		children int
		want     CheckResult
	}{
		{2, CheckResult{Passed: true}},
		{3, CheckResult{Passed: true}},
		{4, CheckResult{Passed: false, Offenders: []Offender{{SectionID: 0, Points: []morph.Point{p(0, 0, 10)}}}}},
	}
	for _, tt := range tests {
		got, err := HasMultifurcation(fan(t, tt.children))
		require.NoError(t, err)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%d children: result mismatch (-want +got):\n%s", tt.children, diff)
		}
	}
}

func TestHasNoSingleChildren(t *testing.T) {
	got, err := HasNoSingleChildren(fan(t, 1))
	require.NoError(t, err)
	assert.False(t, got.Passed)
	assert.Equal(t, []int{0}, got.SectionIDs())

	got, err = HasNoSingleChildren(fan(t, 2))
	require.NoError(t, err)
	assert.True(t, got.Passed)
}

func TestHasAllNonzeroSectionLengths(t *testing.T) {
	m := build(t,
		rec{0, morph.NoParent, []morph.Point{p(0, 0, 0), p(0, 0, 5)}},
		rec{1, 0, []morph.Point{p(1, 1, 1), p(1, 1, 1)}},
	)
	got, err := HasAllNonzeroSectionLengths(m)
	require.NoError(t, err)
	assert.False(t, got.Passed)
	assert.Equal(t, []int{1}, got.SectionIDs())
}

func TestHasNoBackTracking(t *testing.T) {
	params := NewBackTrackingParams(1.0)

	tests := []struct {
		name   string
		points []morph.Point
		want   []Offender
	}{
		{
			name:   "straight",
			points: []morph.Point{p(0, 0, 0), p(10, 0, 0), p(20, 0, 0), p(30, 0, 0)},
		},
		{
			name:   "sharp turn far from earlier points",
			points: []morph.Point{p(0, 0, 0), p(10, 0, 0), p(5, 5, 0)},
		},
		{
			name:   "gentle turn near earlier point",
			points: []morph.Point{p(0, 0, 0), p(0.5, 0, 0), p(0.9, 0.3, 0)},
		},
		{
			name:   "folds back",
			points: []morph.Point{p(0, 0, 0), p(10, 0, 0), p(0.5, 0, 0)},
			want:   []Offender{{SectionID: 0, Points: []morph.Point{p(0, 0, 0), p(0.5, 0, 0)}}},
		},
		{
			name:   "folds back onto the middle",
			points: []morph.Point{p(0, 0, 0), p(10, 0, 0), p(20, 0, 0), p(20, 10, 0), p(10, 0.5, 0)},
			want:   []Offender{{SectionID: 0, Points: []morph.Point{p(10, 0, 0), p(10, 0.5, 0)}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HasNoBackTracking(build(t, rec{0, morph.NoParent, tt.points}), params)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want) == 0, got.Passed)
			if diff := cmp.Diff(tt.want, got.Offenders); diff != "" {
				t.Errorf("offenders mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHasNoBackTracking_AngleThreshold(t *testing.T) {
	// A 60° turn whose end lands 1.32 from the first point.
	bent := p(1.25, math.Sqrt(3)/4, 0)
	m := build(t, rec{0, morph.NoParent, []morph.Point{p(0, 0, 0), p(1, 0, 0), bent}})

	tests := []struct {
		maxAngle float64
		want     []Offender
	}{
		{45, []Offender{{SectionID: 0, Points: []morph.Point{p(0, 0, 0), bent}}}},
		{59, []Offender{{SectionID: 0, Points: []morph.Point{p(0, 0, 0), bent}}}},
		{61, nil},
		{DefaultBackTrackingAngleDeg, nil},
	}
	for _, tt := range tests {
		got, err := HasNoBackTracking(m, BackTrackingParams{Tolerance: 2, MaxAngleDeg: tt.maxAngle})
		require.NoError(t, err)
		assert.Equal(t, len(tt.want) == 0, got.Passed, "max angle %g", tt.maxAngle)
		if diff := cmp.Diff(tt.want, got.Offenders); diff != "" {
			t.Errorf("max angle %g: offenders mismatch (-want +got):\n%s", tt.maxAngle, diff)
		}
	}
}

func TestHasNoBackTracking_RequiresTolerance(t *testing.T) {
	m := fan(t, 2)
	for _, bp := range []BackTrackingParams{
		{},
		{Tolerance: 1},
		{Tolerance: 1, MaxAngleDeg: 190},
		{Tolerance: -1, MaxAngleDeg: 90},
	} {
		_, err := HasNoBackTracking(m, bp)
		assert.ErrorIs(t, err, ErrInvalidParams, "%+v", bp)
	}
}

func TestHasNoOverlappingPoints(t *testing.T) {
	m := build(t,
		rec{0, morph.NoParent, []morph.Point{p(0, 0, 0), p(0, 0, 0), p(0, 0, 5)}},
		rec{1, 0, []morph.Point{p(0, 0, 5), p(0, 1, 6)}},
		rec{2, 0, []morph.Point{p(0, 0, 5.5), p(0, -1, 6)}},
	)

	got, err := HasNoOverlappingPoints(m, OverlapParams{})
	require.NoError(t, err)
	assert.False(t, got.Passed)
	assert.Equal(t, []int{0, 1}, got.SectionIDs())
	assert.Equal(t, []morph.Point{p(0, 0, 5), p(0, 0, 5)}, got.Offenders[1].Points)

	got, err = HasNoOverlappingPoints(m, OverlapParams{SkipJunctions: true})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got.SectionIDs())

	got, err = HasNoOverlappingPoints(m, OverlapParams{Epsilon: 1, SkipJunctions: true})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got.SectionIDs())

	_, err = HasNoOverlappingPoints(m, OverlapParams{Epsilon: -1})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestHasNoJumps(t *testing.T) {
	m := build(t, rec{0, morph.NoParent, []morph.Point{p(0, 0, 0), p(1, 0, 0), p(50, 0, 0), p(51, 0, 0)}})

	got, err := HasNoJumps(m, 10)
	require.NoError(t, err)
	want := []Offender{{SectionID: 0, Points: []morph.Point{p(1, 0, 0), p(50, 0, 0)}}}
	if diff := cmp.Diff(want, got.Offenders); diff != "" {
		t.Errorf("offenders mismatch (-want +got):\n%s", diff)
	}

	got, err = HasNoJumps(m, 100)
	require.NoError(t, err)
	assert.True(t, got.Passed)

	_, err = HasNoJumps(m, 0)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestHasNonzeroSomaRadius(t *testing.T) {
	m := fan(t, 2)
	got, _ := HasNonzeroSomaRadius(0)(m)
	assert.True(t, got.Passed)
	got, _ = HasNonzeroSomaRadius(5)(m)
	assert.False(t, got.Passed)
	m.Soma = nil
	got, _ = HasNonzeroSomaRadius(0)(m)
	assert.False(t, got.Passed)
}

func TestHasNoNarrowStart(t *testing.T) {
	narrow := []morph.Point{{R: 0.1}, {Z: 1, R: 1}}
	m := build(t,
		rec{0, morph.NoParent, narrow},
		rec{1, morph.NoParent, []morph.Point{p(0, 0, 0), p(0, 0, 1)}},
	)
	got, err := HasNoNarrowStart(DefaultNarrowStartFraction)(m)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got.SectionIDs())
}

func TestHasNeuriteType(t *testing.T) {
	m := fan(t, 2)
	got, err := HasNeuriteType(morph.TypeBasalDendrite, 1)(m)
	require.NoError(t, err)
	assert.True(t, got.Passed)
	got, err = HasNeuriteType(morph.TypeAxon, 1)(m)
	require.NoError(t, err)
	assert.False(t, got.Passed)
}

func TestChecks_PropagateStructuralErrors(t *testing.T) {
	m := morph.New("corrupt")
	m.Sections[0] = &morph.Section{ID: 0, Parent: morph.NoParent, Points: []morph.Point{p(0, 0, 0), p(1, 0, 0)}, Children: []int{4}}
	m.Neurites = []morph.Neurite{{RootID: 0, Type: morph.TypeAxon}}

	for name, c := range map[string]Check{
		"multifurcation": HasMultifurcation,
		"jumps":          func(m *morph.Morphology) (CheckResult, error) { return HasNoJumps(m, 1) },
		"overlap":        func(m *morph.Morphology) (CheckResult, error) { return HasNoOverlappingPoints(m, OverlapParams{}) },
	} {
		_, err := c(m)
		assert.True(t, errors.Is(err, morph.ErrStructural), "%s: %v", name, err)
	}
}

func defaultParams() Params {
	return Params{
		BackTracking:        NewBackTrackingParams(0.5),
		Overlap:             OverlapParams{SkipJunctions: true},
		MaxJumpDistance:     10,
		NarrowStartFraction: DefaultNarrowStartFraction,
	}
}

func TestDefaultRunner(t *testing.T) {
	r, err := DefaultRunner(defaultParams())
	require.NoError(t, err)
	assert.Len(t, r.Names(), 8)

	g := synth.NewGenerator(3)
	m, err := g.Morphology("synthetic")
	require.NoError(t, err)

	rep, err := r.Run(m)
	require.NoError(t, err)
	assert.True(t, rep.Passed, "failed: %v", rep.Failed())
	assert.Equal(t, "synthetic", rep.Morphology)
	assert.Equal(t, r.Names(), rep.Order)

	rep, err = r.Run(fan(t, 4))
	require.NoError(t, err)
	assert.False(t, rep.Passed)
	assert.Equal(t, []string{NameMultifurcation}, rep.Failed())
}

func TestDefaultRunner_InvalidParams(t *testing.T) {
	p := defaultParams()
	p.MaxJumpDistance = 0
	_, err := DefaultRunner(p)
	assert.ErrorIs(t, err, ErrInvalidParams)

	p = defaultParams()
	p.BackTracking.Tolerance = 0
	_, err = DefaultRunner(p)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestRunner_Register(t *testing.T) {
	r := NewRunner()
	require.NoError(t, r.Register("a", HasMultifurcation))
	assert.Error(t, r.Register("a", HasNoSingleChildren))
	assert.Error(t, r.Register("", HasNoSingleChildren))
	assert.Error(t, r.Register("b", nil))

	boom := errors.New("boom")
	require.NoError(t, r.Register("boom", func(*morph.Morphology) (CheckResult, error) { return CheckResult{}, boom }))
	_, err := r.Run(fan(t, 2))
	assert.ErrorIs(t, err, boom)
}

func TestSpatialIndex_RegionQuery(t *testing.T) {
	si := NewSpatialIndex(1.0)
	for _, v := range []r3.Vector{{X: 0}, {X: 0.9}, {X: 2}, {X: -0.5, Y: -0.5, Z: -0.5}, {Z: 1.1}} {
		si.Insert(v)
	}
	assert.Equal(t, 5, si.Len())
	assert.Equal(t, []int{0, 1, 3}, si.RegionQuery(r3.Vector{}, 0.9))
	assert.Equal(t, []int{1, 2}, si.RegionQuery(r3.Vector{X: 1.5}, 0.7))
	assert.Empty(t, si.RegionQuery(r3.Vector{X: 10}, 1))
}

func TestSpatialIndex_TinyCellsFarFromOrigin(t *testing.T) {
	si := NewSpatialIndex(1e-12)
	for _, v := range []r3.Vector{{X: 1e10}, {X: 1e10}, {X: 1e10, Y: 1}, {X: -1e10}} {
		si.Insert(v)
	}
	assert.Equal(t, []int{0, 1}, si.RegionQuery(r3.Vector{X: 1e10}, 1e-12))
	assert.Equal(t, []int{2}, si.RegionQuery(r3.Vector{X: 1e10, Y: 1}, 1e-12))
	assert.Equal(t, []int{3}, si.RegionQuery(r3.Vector{X: -1e10}, 1e-12))
	assert.Equal(t, int64(maxCell), si.cell(r3.Vector{X: 1e10}).X)
}

func TestCellCoord(t *testing.T) {
	tests := []struct {
		v, size float64
		want    int64
	}{
		{2.5, 1, 2},
		{-0.5, 1, -1},
		{1e300, 1e-300, maxCell},
		{-1e300, 1e-300, -maxCell},
		{math.NaN(), 1, 0},
	}
	for _, tt := range tests {
		if got := cellCoord(tt.v, tt.size); got != tt.want {
			t.Errorf("cellCoord(%g, %g) = %d, want %d", tt.v, tt.size, got, tt.want)
		}
	}
}

func TestHasNoBackTracking_FarFromOrigin(t *testing.T) {
	const x0 = 1e9
	m := build(t, rec{0, morph.NoParent, []morph.Point{p(x0, 0, 0), p(x0+10, 0, 0), p(x0, 0, 0)}})
	got, err := HasNoBackTracking(m, NewBackTrackingParams(1e-9))
	require.NoError(t, err)
	assert.False(t, got.Passed)
	assert.Equal(t, []int{0}, got.SectionIDs())
}
