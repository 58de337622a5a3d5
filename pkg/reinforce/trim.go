package reinforce

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/trimbar/pkg/geom"
)

// Trim lays the pattern against both host faces crossed by the frame's X
// axis and clips every line to the host. It returns the back set (-X) and
// the front set (+X), and the joined per-line errors, if any.
//
// For each line and side: a ray through the seed along X locates the host
// face; the line is moved toward it until it sits Offset(role) short of the
// face; the moved line is split where it crosses the host boundary and the
// piece nearest the frame origin is kept, shortened by the other cover at
// both ends. A line that does not cross the boundary is kept as moved.
func Trim(f geom.Frame, pat Pattern, host []geom.Face, p Params) ([2]BarSet, error) {
	sets := [2]BarSet{
		{Side: SideBack, Normal: f.X},
		{Side: SideFront, Normal: f.X.MulScalar(-1)},
	}
	var errs []error
	for s := range sets {
		side := sets[s].Side
		for i, pl := range pat.Lines {
			line := trimLine(f, pl, side, host, p)
			if line.Err != nil {
				errs = append(errs, fmt.Errorf("%s line %d (%s): %w", side, i, pl.Role, line.Err))
			}
			sets[s].Lines = append(sets[s].Lines, line)
		}
	}
	return sets, errors.Join(errs...)
}

func trimLine(f geom.Frame, pl PatternLine, side Side, host []geom.Face, p Params) BarLine {
	out := BarLine{Role: pl.Role}

	hit, ok := castToHost(f.X, pl.Seed, side, host, p)
	if !ok {
		out.Err = fmt.Errorf("%w: ray from seed found no %s host face", ErrTrimMiss, side)
		return out
	}
	v := hit.Sub(pl.Seed)
	offset := p.Offset(pl.Role)
	if v.Length() <= offset {
		out.Err = fmt.Errorf("%w: %s host face %.4g from seed, closer than offset %.4g", ErrTrimMiss, side, v.Length(), offset)
		return out
	}
	moved := pl.Segment.TranslateAlong(v, v.Length()-offset)

	var pts []geom.Vec
	for _, h := range host {
		pts = append(pts, h.IntersectSegment(moved, p.Tolerance)...)
	}
	if len(pts) == 0 {
		out.Segment = moved
		return out
	}

	pieces := moved.SplitByPoints(pts, p.Tolerance)
	kept := pieces[0]
	best := kept.DistanceTo(f.Origin)
	for _, piece := range pieces[1:] {
		if d := piece.DistanceTo(f.Origin); d < best {
			kept, best = piece, d
		}
	}
	if kept.Length() <= 2*p.Covers.Other {
		out.Err = fmt.Errorf("%w: clipped %s line shorter than twice the cover", ErrTrimMiss, side)
		return out
	}
	out.Segment = kept.Shorten(p.Covers.Other)
	return out
}

// castToHost casts a ray of length p.RayLength centred on seed along axis
// and returns the nearest host hit on the given side: behind the seed for
// SideBack, ahead of it for SideFront.
func castToHost(axis, seed geom.Vec, side Side, host []geom.Face, p Params) (geom.Vec, bool) {
	half := axis.MulScalar(p.RayLength / 2)
	ray := geom.NewSegment(seed.Sub(half), seed.Add(half))

	var hit geom.Vec
	best := math.Inf(1)
	for _, h := range host {
		for _, q := range h.IntersectSegment(ray, p.Tolerance) {
			t := q.Sub(seed).Dot(axis)
			if side == SideBack {
				t = -t
			}
			if t > p.Tolerance && t < best {
				hit, best = q, t
			}
		}
	}
	return hit, !math.IsInf(best, 1)
}
