package geom

import (
	"math"
	"sort"
)

// Segment is a straight line segment from Start to End.
type Segment struct {
	Start Vec `json:"start"`
	End   Vec `json:"end"`
}

// NewSegment returns the segment from a to b.
func NewSegment(a, b Vec) Segment {
	return Segment{Start: a, End: b}
}

// Vector returns End - Start.
func (s Segment) Vector() Vec {
	return s.End.Sub(s.Start)
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return s.Vector().Length()
}

// Direction returns the unit direction from Start to End, or the zero vector
// for a degenerate segment.
func (s Segment) Direction() Vec {
	d, _ := Unit(s.Vector())
	return d
}

// At evaluates the segment at parameter t; t=0 is Start and t=1 is End.
func (s Segment) At(t float64) Vec {
	return s.Start.Add(s.Vector().MulScalar(t))
}

// Midpoint returns At(0.5).
func (s Segment) Midpoint() Vec {
	return Midpoint(s.Start, s.End)
}

// Translate moves both endpoints by v.
func (s Segment) Translate(v Vec) Segment {
	return Segment{Start: s.Start.Add(v), End: s.End.Add(v)}
}

// TranslateAlong moves the segment dist units along dir. A zero dir leaves
// the segment in place.
func (s Segment) TranslateAlong(dir Vec, dist float64) Segment {
	u, ok := Unit(dir)
	if !ok {
		return s
	}
	return s.Translate(u.MulScalar(dist))
}

// Extend lengthens the segment by d at both ends.
func (s Segment) Extend(d float64) Segment {
	u := s.Direction()
	return Segment{
		Start: s.Start.Sub(u.MulScalar(d)),
		End:   s.End.Add(u.MulScalar(d)),
	}
}

// Shorten pulls both ends in by d. It is Extend(-d).
func (s Segment) Shorten(d float64) Segment {
	return s.Extend(-d)
}

// Param returns the (unclamped) parameter of the projection of p onto the
// segment's supporting line.
func (s Segment) Param(p Vec) float64 {
	v := s.Vector()
	l2 := v.Dot(v)
	if l2 <= Epsilon*Epsilon {
		return 0
	}
	return p.Sub(s.Start).Dot(v) / l2
}

// ClosestPoint returns the point on the segment nearest to p.
func (s Segment) ClosestPoint(p Vec) Vec {
	t := math.Max(0, math.Min(1, s.Param(p)))
	return s.At(t)
}

// DistanceTo returns the shortest distance from p to the segment.
func (s Segment) DistanceTo(p Vec) float64 {
	return Distance(p, s.ClosestPoint(p))
}

// SplitByPoints cuts the segment at the given points and returns the
// sub-segments ordered from Start to End. Points farther than tol from the
// segment, points within tol of an endpoint and duplicate points are ignored,
// so the result always covers the whole segment.
func (s Segment) SplitByPoints(pts []Vec, tol float64) []Segment {
	length := s.Length()
	if length <= tol {
		return []Segment{s}
	}

	var params []float64
	for _, p := range pts {
		t := s.Param(p)
		if t*length <= tol || (1-t)*length <= tol {
			continue
		}
		if Distance(p, s.At(t)) > tol {
			continue
		}
		params = append(params, t)
	}
	sort.Float64s(params)

	out := make([]Segment, 0, len(params)+1)
	prev := 0.0
	for _, t := range params {
		if (t-prev)*length <= tol {
			continue
		}
		out = append(out, Segment{Start: s.At(prev), End: s.At(t)})
		prev = t
	}
	out = append(out, Segment{Start: s.At(prev), End: s.End})
	return out
}
