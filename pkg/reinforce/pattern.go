package reinforce

import (
	"fmt"
	"math"

	"github.com/chazu/trimbar/pkg/geom"
)

// PatternLine is one side of the reinforcement rectangle, already extended,
// with the seed point its trim ray is cast from.
type PatternLine struct {
	Role    SegmentRole
	Segment geom.Segment
	Seed    geom.Vec
}

// Pattern is the rectangle laid around an opening in the frame's Y-Z plane.
type Pattern struct {
	Width  float64
	Height float64
	Lines  []PatternLine
}

// BuildPattern sizes the rectangle from the distances between the frame
// origin and the cut faces along Y and Z, inflates it by the primary cover
// and returns its sides in the order top, right, bottom, left, each extended
// by p.ExtendMargin at both ends.
func BuildPattern(f geom.Frame, cut []geom.Face, p Params) (Pattern, error) {
	dy, ok := nearestProjection(f, cut, 1, p.Tolerance)
	if !ok {
		return Pattern{}, fmt.Errorf("%w: no cut face along the frame Y axis", ErrTrimMiss)
	}
	dz, ok := nearestProjection(f, cut, 2, p.Tolerance)
	if !ok {
		return Pattern{}, fmt.Errorf("%w: no cut face along the frame Z axis", ErrTrimMiss)
	}

	w := 2*dy + p.Covers.Primary
	h := 2*dz + p.Covers.Primary
	hw, hh := w/2, h/2

	// Corners in frame (y, z) coordinates, clockwise from top-left.
	corners := [4][2]float64{{-hw, hh}, {hw, hh}, {hw, -hh}, {-hw, -hh}}
	roles := [4]SegmentRole{RoleParallel, RolePerpendicular, RoleParallel, RolePerpendicular}

	pat := Pattern{Width: w, Height: h, Lines: make([]PatternLine, 0, 4)}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%4]
		seg := geom.NewSegment(f.ToWorld(0, a[0], a[1]), f.ToWorld(0, b[0], b[1])).Extend(p.ExtendMargin)
		pat.Lines = append(pat.Lines, PatternLine{
			Role:    roles[i],
			Segment: seg,
			Seed:    seg.Midpoint(),
		})
	}
	return pat, nil
}

// nearestProjection returns the distance from the frame origin to the
// closest cut face met along the frame axis with the given index (1 for Y,
// 2 for Z), in either direction.
func nearestProjection(f geom.Frame, cut []geom.Face, axis int, tol float64) (float64, bool) {
	dir := [3]geom.Vec{f.X, f.Y, f.Z}[axis]
	best := math.Inf(1)
	for _, face := range cut {
		for _, q := range f.ProjectOnto(face, dir, tol) {
			best = math.Min(best, math.Abs(geom.Component(f.ToLocal(q), axis)))
		}
	}
	return best, !math.IsInf(best, 1)
}
