package reinforce

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chazu/trimbar/pkg/geom"
	"github.com/chazu/trimbar/pkg/rebar"
	"github.com/chazu/trimbar/pkg/units"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	thickness = 0.3
	cover     = 0.04
	eps       = 1e-9
)

var hole = geom.Box{Min: geom.V(1.5, 0, 1), Max: geom.V(2.5, thickness, 2)}

// testParams: 12 mm bars (true diameter 13.2 mm), 40 mm cover, metres.
func testParams() Params {
	return Params{
		Covers:           rebar.Covers{Primary: cover, Secondary: cover, Other: cover},
		Nominal:          0.012,
		True:             0.0132,
		Tolerance:        DefaultTolerance,
		ExtendMargin:     DefaultExtendMargin,
		RayLength:        DefaultRayLength,
		PerimeterSamples: DefaultPerimeterSamples,
	}
}

// wall returns the faces of a 4 x 0.3 x height wall pierced by cut, and the
// candidate for cut. Candidate faces are -X, +X, -Y, +Y, -Z, +Z (IDs 0-5), so
// the ends are faces 2 and 3.
func wall(height float64, cut geom.Box) ([]geom.Face, Candidate) {
	host := geom.BoxAt(geom.V(0, 0, 0), geom.V(4, thickness, height))
	return geom.PiercedBoxFaces(host, []geom.Box{cut}, 0),
		Candidate{ID: "O1", Faces: geom.BoxFaces(cut, 0)}
}

func assertVec(t *testing.T, want, got geom.Vec, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, 1e-9, msgAndArgs...)
	assert.InDelta(t, want.Z, got.Z, 1e-9, msgAndArgs...)
}

// assertPartition checks that cut and ends split faces exactly.
func assertPartition(t *testing.T, faces []geom.Face, cut, ends []geom.FaceID) {
	t.Helper()
	seen := map[geom.FaceID]int{}
	for _, id := range cut {
		seen[id]++
	}
	for _, id := range ends {
		seen[id]++
	}
	require.Len(t, seen, len(faces), "union covers every face")
	for _, f := range faces {
		assert.Equal(t, 1, seen[f.ID], "face %d classified exactly once", f.ID)
	}
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	host, cand := wall(3, hole)
	cls, err := Classify(host, cand.Faces, testParams())
	require.NoError(t, err)

	assert.Equal(t, []geom.FaceID{0, 1, 4, 5}, faceIDs(cls.Cut))
	assert.Equal(t, []geom.FaceID{2, 3}, faceIDs(cls.Ends))
	assertPartition(t, cand.Faces, faceIDs(cls.Cut), faceIDs(cls.Ends))
}

func TestClassifyOpeningDeeperThanHost(t *testing.T) {
	deep := geom.Box{Min: geom.V(1.5, -0.2, 1), Max: geom.V(2.5, 0.5, 2)}
	host, cand := wall(3, deep)
	cls, err := Classify(host, cand.Faces, testParams())
	require.NoError(t, err)
	assert.Equal(t, []geom.FaceID{2, 3}, faceIDs(cls.Ends))
}

func TestClassifyDisambiguatesExtraEnds(t *testing.T) {
	host, cand := wall(3, hole)
	// A stray horizontal face well away from the host.
	stray := geom.NewFace(6,
		geom.V(10, 0, 10), geom.V(11, 0, 10), geom.V(11, 1, 10), geom.V(10, 1, 10))
	faces := append(append([]geom.Face{}, cand.Faces...), stray)

	cls, err := Classify(host, faces, testParams())
	require.NoError(t, err)
	assert.Equal(t, []geom.FaceID{2, 3}, faceIDs(cls.Ends))
	assert.Equal(t, []geom.FaceID{0, 1, 4, 5, 6}, faceIDs(cls.Cut))
	assertPartition(t, faces, faceIDs(cls.Cut), faceIDs(cls.Ends))
}

func TestClassifySingleEnd(t *testing.T) {
	host, cand := wall(3, hole)
	faces := []geom.Face{cand.Faces[0], cand.Faces[1], cand.Faces[2], cand.Faces[4], cand.Faces[5]}

	_, err := Classify(host, faces, testParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrClassification))
}

func TestClassifyNotOnHost(t *testing.T) {
	host, _ := wall(3, hole)
	far := geom.BoxFaces(geom.BoxAt(geom.V(10, 10, 10), geom.V(1, 1, 1)), 0)

	_, err := Classify(host, far, testParams())
	assert.ErrorIs(t, err, ErrClassification)
}

// ---------------------------------------------------------------------------
// Frame
// ---------------------------------------------------------------------------

func TestBuildFrame(t *testing.T) {
	_, cand := wall(3, hole)
	ends := []geom.Face{cand.Faces[2], cand.Faces[3]}

	f, err := BuildFrame(ends, testParams())
	require.NoError(t, err)
	assertVec(t, geom.V(2, 0.15, 1.5), f.Origin)
	assertVec(t, geom.V(0, 1, 0), f.X)
	assertVec(t, geom.V(-1, 0, 0), f.Y)
	assertVec(t, geom.V(0, 0, 1), f.Z)
	assert.True(t, f.Orthonormal(1e-6))

	// End order does not matter.
	g, err := BuildFrame([]geom.Face{ends[1], ends[0]}, testParams())
	require.NoError(t, err)
	assert.Equal(t, f, g)
}

func TestBuildFrameOrthonormalOnSkewedEnds(t *testing.T) {
	// End caps whose centroids are offset along Z: the raw vertical
	// reference is not orthogonal to X.
	a := geom.NewFace(0, geom.V(0, 0, 0), geom.V(0, 0, 1), geom.V(1, 0, 1), geom.V(1, 0, 0))
	b := geom.NewFace(1, geom.V(0, 1, 0.5), geom.V(1, 1, 0.5), geom.V(1, 1, 1.5), geom.V(0, 1, 1.5))

	f, err := BuildFrame([]geom.Face{a, b}, testParams())
	require.NoError(t, err)
	assert.True(t, f.Orthonormal(1e-6))
	assert.InDelta(t, 0, f.X.Dot(f.Z), 1e-6)
}

func TestBuildFrameDegenerate(t *testing.T) {
	a := geom.NewFace(0, geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(1, 0, 1), geom.V(0, 0, 1))
	b := a
	b.ID = 1

	_, err := BuildFrame([]geom.Face{a, b}, testParams())
	assert.ErrorIs(t, err, ErrDegenerateFrame)

	_, err = BuildFrame([]geom.Face{a}, testParams())
	assert.ErrorIs(t, err, ErrDegenerateFrame)
}

// ---------------------------------------------------------------------------
// Pattern
// ---------------------------------------------------------------------------

func standardFrame(t *testing.T) (geom.Frame, Classification, []geom.Face) {
	t.Helper()
	host, cand := wall(3, hole)
	cls, err := Classify(host, cand.Faces, testParams())
	require.NoError(t, err)
	f, err := BuildFrame(cls.Ends, testParams())
	require.NoError(t, err)
	return f, cls, host
}

func TestBuildPattern(t *testing.T) {
	f, cls, _ := standardFrame(t)
	pat, err := BuildPattern(f, cls.Cut, testParams())
	require.NoError(t, err)

	assert.InDelta(t, 1.04, pat.Width, eps)
	assert.InDelta(t, 1.04, pat.Height, eps)
	require.Len(t, pat.Lines, 4)

	roles := []SegmentRole{RoleParallel, RolePerpendicular, RoleParallel, RolePerpendicular}
	for i, l := range pat.Lines {
		assert.Equal(t, roles[i], l.Role, "line %d", i)
		assert.InDelta(t, 1.04+2*0.6, l.Segment.Length(), eps, "line %d", i)
		assertVec(t, l.Segment.Midpoint(), l.Seed, "line %d", i)
	}

	top := pat.Lines[0].Segment
	assertVec(t, geom.V(3.12, 0.15, 2.02), top.Start)
	assertVec(t, geom.V(0.88, 0.15, 2.02), top.End)

	right := pat.Lines[1].Segment
	assertVec(t, geom.V(1.48, 0.15, 2.62), right.Start)
	assertVec(t, geom.V(1.48, 0.15, 0.38), right.End)
}

func TestBuildPatternMissingAxis(t *testing.T) {
	f, cls, _ := standardFrame(t)
	// Only the horizontal walls: nothing along Y.
	var cut []geom.Face
	for _, c := range cls.Cut {
		if c.ID == 4 || c.ID == 5 {
			cut = append(cut, c)
		}
	}
	_, err := BuildPattern(f, cut, testParams())
	assert.ErrorIs(t, err, ErrTrimMiss)
}

// ---------------------------------------------------------------------------
// Trim
// ---------------------------------------------------------------------------

func TestTrimEmptyHost(t *testing.T) {
	f, cls, _ := standardFrame(t)
	pat, err := BuildPattern(f, cls.Cut, testParams())
	require.NoError(t, err)

	var sets [2]BarSet
	require.NotPanics(t, func() {
		sets, err = Trim(f, pat, nil, testParams())
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTrimMiss)
	for _, set := range sets {
		require.Len(t, set.Lines, 4)
		for _, l := range set.Lines {
			assert.ErrorIs(t, l.Err, ErrTrimMiss)
		}
	}
}

func TestTrimOffsetLargerThanHalfThickness(t *testing.T) {
	f, cls, host := standardFrame(t)
	p := testParams()
	p.Covers.Other = 0.2
	pat, err := BuildPattern(f, cls.Cut, p)
	require.NoError(t, err)

	_, err = Trim(f, pat, host, p)
	assert.ErrorIs(t, err, ErrTrimMiss)
}

// ---------------------------------------------------------------------------
// Process
// ---------------------------------------------------------------------------

func TestProcessSquareOpening(t *testing.T) {
	host, cand := wall(3, hole)
	p := testParams()

	res, err := Process(host, []Candidate{cand}, p)
	require.NoError(t, err)
	require.Len(t, res.Openings, 1)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 0, res.Errored)

	op := res.Openings[0]
	require.NoError(t, op.Err)
	assertPartition(t, cand.Faces, op.Cut, op.Ends)
	assert.True(t, op.Frame.Orthonormal(1e-6))

	parallel := 0.04 + 0.012/2     // 0.046
	perpendicular := 0.04 + 0.0198 // 0.0598
	want := map[Side]struct {
		normal geom.Vec
		y      [2]float64 // by role
	}{
		SideBack:  {geom.V(0, 1, 0), [2]float64{parallel, perpendicular}},
		SideFront: {geom.V(0, -1, 0), [2]float64{thickness - parallel, thickness - perpendicular}},
	}

	for _, set := range op.Sides {
		w := want[set.Side]
		assertVec(t, w.normal, set.Normal, "%s normal", set.Side)
		require.Len(t, set.Lines, 4, "%s lines", set.Side)
		for i, l := range set.Lines {
			require.NoError(t, l.Err)
			y := w.y[l.Role]
			assert.InDelta(t, y, l.Segment.Start.Y, eps, "%s line %d start", set.Side, i)
			assert.InDelta(t, y, l.Segment.End.Y, eps, "%s line %d end", set.Side, i)
			// The wall is large enough that nothing is clipped.
			assert.InDelta(t, 2.24, l.Segment.Length(), eps, "%s line %d length", set.Side, i)
		}
	}

	bars := res.Bars()
	assert.Len(t, bars, 8)
	assert.Equal(t, "O1", bars[0].Opening)
	assert.Equal(t, SideBack, bars[0].Side)
	assert.Equal(t, SideFront, bars[7].Side)
}

func TestProcessClipsAtHostEdge(t *testing.T) {
	host, cand := wall(2.3, hole)
	res, err := Process(host, []Candidate{cand}, testParams())
	require.NoError(t, err)

	op := res.Openings[0]
	require.NoError(t, op.Err)

	back := op.Sides[0]
	right := back.Lines[1]
	require.Equal(t, RolePerpendicular, right.Role)
	assertVec(t, geom.V(1.48, 0.0598, 2.26), right.Segment.Start)
	assertVec(t, geom.V(1.48, 0.0598, 0.42), right.Segment.End)

	left := back.Lines[3]
	assertVec(t, geom.V(2.52, 0.0598, 0.42), left.Segment.Start)
	assertVec(t, geom.V(2.52, 0.0598, 2.26), left.Segment.End)

	// Horizontal lines stay inside and keep their full length.
	assert.InDelta(t, 2.24, back.Lines[0].Segment.Length(), eps)
}

func TestProcessSingleEndOpening(t *testing.T) {
	host, cand := wall(3, hole)
	cand.Faces = append([]geom.Face{}, cand.Faces[:3]...)
	cand.Faces = append(cand.Faces, geom.BoxFaces(hole, 0)[4:]...)

	res, err := Process(host, []Candidate{cand}, testParams())
	require.NoError(t, err)
	op := res.Openings[0]
	assert.True(t, op.Failed())
	assert.ErrorIs(t, op.Err, ErrClassification)
	assert.False(t, op.Incomplete())
	assert.Equal(t, geom.Frame{}, op.Frame)
	assert.Zero(t, op.Lines())
	assert.Empty(t, res.Bars())
	assert.Equal(t, 1, res.Errored)
}

func TestProcessRayMissesHost(t *testing.T) {
	host, cand := wall(3, hole)
	walls := host[6:] // hole walls only: classification works, rays hit nothing

	res, err := Process(walls, []Candidate{cand}, testParams())
	require.NoError(t, err)
	op := res.Openings[0]
	assert.True(t, op.Failed())
	assert.True(t, op.Incomplete())
	assert.ErrorIs(t, op.Err, ErrTrimMiss)
	assert.Empty(t, res.Bars())
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 1, res.Errored)
}

func TestProcessIsolatesFailures(t *testing.T) {
	second := geom.Box{Min: geom.V(3, 0, 1), Max: geom.V(3.5, thickness, 1.5)}
	hostBox := geom.BoxAt(geom.V(0, 0, 0), geom.V(4, thickness, 3))
	host := geom.PiercedBoxFaces(hostBox, []geom.Box{hole, second}, 0)

	broken := Candidate{Faces: geom.BoxFaces(hole, 0)[:3]}
	good := Candidate{Faces: geom.BoxFaces(second, 0)}

	res, err := Process(host, []Candidate{broken, good}, testParams())
	require.NoError(t, err)
	require.Len(t, res.Openings, 2)
	assert.Equal(t, "opening0", res.Openings[0].ID)
	assert.Equal(t, "opening1", res.Openings[1].ID)
	assert.True(t, res.Openings[0].Failed())
	assert.False(t, res.Openings[1].Failed())
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Errored)
	assert.Len(t, res.Succeeded(), 1)

	for _, b := range res.Bars() {
		assert.Equal(t, "opening1", b.Opening)
	}
	summary := res.ErrorSummary()
	require.Error(t, summary)
	assert.Contains(t, summary.Error(), "opening0")
}

func TestProcessIdempotent(t *testing.T) {
	host, cand := wall(2.3, hole)
	first, err := Process(host, []Candidate{cand}, testParams())
	require.NoError(t, err)
	second, err := Process(host, []Candidate{cand}, testParams())
	require.NoError(t, err)

	if diff := cmp.Diff(first.Bars(), second.Bars(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("bars differ between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Openings[0].Frame, second.Openings[0].Frame, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("frames differ between runs (-first +second):\n%s", diff)
	}
}

func TestProcessWorkersKeepOrder(t *testing.T) {
	hostBox := geom.BoxAt(geom.V(0, 0, 0), geom.V(12, thickness, 3))
	var cuts []geom.Box
	var cands []Candidate
	for i := 0; i < 6; i++ {
		x := 0.5 + 2*float64(i)
		b := geom.Box{Min: geom.V(x, 0, 1), Max: geom.V(x+1, thickness, 2)}
		cuts = append(cuts, b)
		cands = append(cands, Candidate{Faces: geom.BoxFaces(b, geom.FaceID(100+10*i))})
	}
	cands[3].Faces = cands[3].Faces[:2]
	host := geom.PiercedBoxFaces(hostBox, cuts, 0)

	seq, err := Process(host, cands, testParams())
	require.NoError(t, err)
	par, err := Process(host, cands, testParams(), WithWorkers(4))
	require.NoError(t, err)

	require.Len(t, par.Openings, 6)
	for i, op := range par.Openings {
		assert.Equal(t, seq.Openings[i].ID, op.ID)
	}
	assert.Equal(t, 5, par.Processed)
	assert.Equal(t, 1, par.Errored)
	assert.True(t, par.Openings[3].Failed())
	if diff := cmp.Diff(seq.Bars(), par.Bars(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("parallel bars differ (-seq +par):\n%s", diff)
	}
}

func TestProcessConfigurationError(t *testing.T) {
	host, cand := wall(3, hole)
	p := testParams()
	p.Nominal = 0

	res, err := Process(host, []Candidate{cand}, p)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, rebar.ErrConfiguration)
}

func TestProcessLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	host, cand := wall(3, hole)
	broken := Candidate{ID: "bad", Faces: cand.Faces[:2]}

	_, err := Process(host, []Candidate{cand, broken}, testParams(), WithLogger(zap.New(core)))
	require.NoError(t, err)

	ok := logs.FilterMessage("opening reinforced").All()
	require.Len(t, ok, 1)
	assert.Equal(t, "O1", ok[0].ContextMap()["opening"])

	skipped := logs.FilterMessage("opening skipped").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, zapcore.WarnLevel, skipped[0].Level)
	assert.Equal(t, "bad", skipped[0].ContextMap()["opening"])

	summary := logs.FilterMessage("reinforcement computed").All()
	require.Len(t, summary, 1)
	assert.Equal(t, int64(1), summary[0].ContextMap()["errored"])
}

// ---------------------------------------------------------------------------
// Params
// ---------------------------------------------------------------------------

func TestNewParams(t *testing.T) {
	covers := rebar.Covers{Primary: 40, Secondary: 30, Other: 25}

	p, err := NewParams(rebar.DefaultCatalog(), covers, 12, units.Converter{Model: units.Meter})
	require.NoError(t, err)
	assert.InDelta(t, 0.012, p.Nominal, eps)
	assert.InDelta(t, 0.0132, p.True, eps)
	assert.InDelta(t, 0.04, p.Covers.Primary, eps)
	assert.InDelta(t, 0.025, p.Covers.Other, eps)
	assert.InDelta(t, 0.6, p.ExtendMargin, eps)
	assert.InDelta(t, 100, p.RayLength, eps)

	mm, err := NewParams(rebar.DefaultCatalog(), covers, 16, units.Converter{Model: units.Millimeter})
	require.NoError(t, err)
	assert.InDelta(t, 17.6, mm.True, eps)
	assert.InDelta(t, 600, mm.ExtendMargin, 1e-6)

	_, err = NewParams(rebar.DefaultCatalog(), covers, 14, units.Converter{Model: units.Meter})
	assert.ErrorIs(t, err, rebar.ErrUnknownDiameter)
}

func TestParamsOffset(t *testing.T) {
	p := testParams()
	assert.InDelta(t, 0.046, p.Offset(RoleParallel), eps)
	assert.InDelta(t, 0.0598, p.Offset(RolePerpendicular), eps)
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero nominal", func(p *Params) { p.Nominal = 0 }},
		{"true below nominal", func(p *Params) { p.True = 0.01 }},
		{"negative cover", func(p *Params) { p.Covers.Other = -0.01 }},
		{"zero tolerance", func(p *Params) { p.Tolerance = 0 }},
		{"negative margin", func(p *Params) { p.ExtendMargin = -1 }},
		{"zero ray", func(p *Params) { p.RayLength = 0 }},
		{"no samples", func(p *Params) { p.PerimeterSamples = 0 }},
	}
	require.NoError(t, testParams().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), rebar.ErrConfiguration)
		})
	}
}
