package geom

import "math"

// FaceID is a stable identifier for a face within one solid. Membership
// tests compare FaceIDs, never face geometry.
type FaceID int

// Face is a bounded planar face: an outer loop with optional inner loops
// (holes). Loops are closed implicitly, the last vertex connects to the first.
type Face struct {
	ID    FaceID  `json:"id"`
	Outer []Vec   `json:"outer"`
	Holes [][]Vec `json:"holes,omitempty"`
}

// NewFace builds a face without holes.
func NewFace(id FaceID, outer ...Vec) Face {
	return Face{ID: id, Outer: outer}
}

// WithHole returns a copy of f with one more inner loop.
func (f Face) WithHole(loop ...Vec) Face {
	holes := make([][]Vec, 0, len(f.Holes)+1)
	holes = append(holes, f.Holes...)
	holes = append(holes, loop)
	f.Holes = holes
	return f
}

// Normal returns the unit normal of the outer loop using Newell's method.
// The normal follows the right-hand rule over the loop's winding.
func (f Face) Normal() Vec {
	var n Vec
	for i, cur := range f.Outer {
		next := f.Outer[(i+1)%len(f.Outer)]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	u, _ := Unit(n)
	return u
}

// Centroid returns the area centroid of the outer loop. For the convex
// faces of an opening this is the face's parametric midpoint.
func (f Face) Centroid() Vec {
	if len(f.Outer) == 0 {
		return Vec{}
	}
	n := f.Normal()
	o := f.Outer[0]

	var sum Vec
	var area float64
	for i := 1; i+1 < len(f.Outer); i++ {
		a, b := f.Outer[i], f.Outer[i+1]
		w := b.Sub(o).Cross(a.Sub(o)).Dot(n) * -0.5
		sum = sum.Add(o.Add(a).Add(b).MulScalar(w / 3))
		area += w
	}
	if math.Abs(area) <= Epsilon {
		// Degenerate loop: fall back to the vertex average.
		for _, p := range f.Outer {
			sum = sum.Add(p)
		}
		return sum.MulScalar(1 / float64(len(f.Outer)))
	}
	return sum.MulScalar(1 / area)
}

// Edges returns the perimeter as ordered segments: the outer loop first,
// then every hole in order.
func (f Face) Edges() []Segment {
	edges := loopEdges(nil, f.Outer)
	for _, h := range f.Holes {
		edges = loopEdges(edges, h)
	}
	return edges
}

func loopEdges(dst []Segment, loop []Vec) []Segment {
	for i, p := range loop {
		dst = append(dst, Segment{Start: p, End: loop[(i+1)%len(loop)]})
	}
	return dst
}

// PerimeterSamples samples every perimeter edge at n uniform parameter steps,
// t = (k + 1/2) / n. With n = 1 it returns the edge midpoints.
func (f Face) PerimeterSamples(n int) []Vec {
	if n < 1 {
		n = 1
	}
	edges := f.Edges()
	pts := make([]Vec, 0, len(edges)*n)
	for _, e := range edges {
		for k := 0; k < n; k++ {
			pts = append(pts, e.At((float64(k)+0.5)/float64(n)))
		}
	}
	return pts
}

// PlaneDistance returns the signed distance from p to the face's plane.
func (f Face) PlaneDistance(p Vec) float64 {
	if len(f.Outer) == 0 {
		return math.Inf(1)
	}
	return p.Sub(f.Outer[0]).Dot(f.Normal())
}

// Contains reports whether p lies on the face: within tol of its plane,
// inside the outer loop and not strictly inside any hole. Points on a loop
// boundary count as contained.
func (f Face) Contains(p Vec, tol float64) bool {
	if len(f.Outer) < 3 {
		return false
	}
	if math.Abs(f.PlaneDistance(p)) > tol {
		return false
	}

	pl := newPlanar(f)
	if onLoop(f.Outer, p, tol) {
		return true
	}
	if !pl.inside(f.Outer, p) {
		return false
	}
	for _, h := range f.Holes {
		if onLoop(h, p, tol) {
			return true
		}
		if pl.inside(h, p) {
			return false
		}
	}
	return true
}

// Distance returns the shortest distance from p to the bounded face.
func (f Face) Distance(p Vec) float64 {
	if len(f.Outer) < 3 {
		return math.Inf(1)
	}
	d := f.PlaneDistance(p)
	q := p.Sub(f.Normal().MulScalar(d))
	if f.Contains(q, Epsilon) {
		return math.Abs(d)
	}

	best := math.Inf(1)
	for _, e := range f.Edges() {
		best = math.Min(best, e.DistanceTo(p))
	}
	return best
}

// IntersectSegment returns the point where s crosses the face, if any.
// A segment parallel to (or lying in) the face plane has no intersection.
func (f Face) IntersectSegment(s Segment, tol float64) []Vec {
	if len(f.Outer) < 3 {
		return nil
	}
	n := f.Normal()
	v := s.Vector()
	length := v.Length()
	denom := v.Dot(n)
	if length <= Epsilon || math.Abs(denom) <= Epsilon*length {
		return nil
	}

	t := f.Outer[0].Sub(s.Start).Dot(n) / denom
	slack := tol / length
	if t < -slack || t > 1+slack {
		return nil
	}
	p := s.At(math.Max(0, math.Min(1, t)))
	if !f.Contains(p, tol) {
		return nil
	}
	return []Vec{p}
}

// ProjectAlong projects p onto the face along the infinite line through p
// with direction dir. It returns no points when the line misses the face.
func (f Face) ProjectAlong(p, dir Vec, tol float64) []Vec {
	if len(f.Outer) < 3 {
		return nil
	}
	u, ok := Unit(dir)
	if !ok {
		return nil
	}
	n := f.Normal()
	denom := u.Dot(n)
	if math.Abs(denom) <= Epsilon {
		return nil
	}
	t := f.Outer[0].Sub(p).Dot(n) / denom
	q := p.Add(u.MulScalar(t))
	if !f.Contains(q, tol) {
		return nil
	}
	return []Vec{q}
}

// ---------------------------------------------------------------------------
// In-plane helpers
// ---------------------------------------------------------------------------

// planar maps points of a face into 2D coordinates of its plane.
type planar struct {
	origin, u, w Vec
}

func newPlanar(f Face) planar {
	n := f.Normal()
	// Pick the world axis least aligned with n to build the in-plane basis.
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	var ref Vec
	switch {
	case ax <= ay && ax <= az:
		ref = V(1, 0, 0)
	case ay <= az:
		ref = V(0, 1, 0)
	default:
		ref = V(0, 0, 1)
	}
	u, _ := Unit(n.Cross(ref))
	return planar{origin: f.Outer[0], u: u, w: n.Cross(u)}
}

func (pl planar) to2D(p Vec) (float64, float64) {
	d := p.Sub(pl.origin)
	return d.Dot(pl.u), d.Dot(pl.w)
}

// inside is the even-odd crossing test of p against loop.
func (pl planar) inside(loop []Vec, p Vec) bool {
	x, y := pl.to2D(p)
	in := false
	for i, j := 0, len(loop)-1; i < len(loop); j, i = i, i+1 {
		xi, yi := pl.to2D(loop[i])
		xj, yj := pl.to2D(loop[j])
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			in = !in
		}
	}
	return in
}

func onLoop(loop []Vec, p Vec, tol float64) bool {
	for i, a := range loop {
		e := Segment{Start: a, End: loop[(i+1)%len(loop)]}
		if e.DistanceTo(p) <= tol {
			return true
		}
	}
	return false
}
