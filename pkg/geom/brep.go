package geom

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotThrough is returned when a cut box does not pass cleanly through
// its host.
var ErrNotThrough = errors.New("cut does not pass through host")

// BoxFaces returns the six faces of b, outward normals, in the order -X,
// +X, -Y, +Y, -Z, +Z with IDs starting at first.
func BoxFaces(b Box, first FaceID) []Face {
	return PiercedBoxFaces(b, nil, first)
}

// PiercedBoxFaces returns the boundary of host with every cut box removed.
// Each cut must be a through-cut (see Box.ThroughAxis) and cuts must not
// overlap; use CheckCuts first. Cuts are clamped to host.
//
// The outer faces come first, in BoxFaces order. A cut strictly inside host
// on its cross axes shows up as a hole in the two faces it pierces. A cut
// flush with a side of host notches those faces instead, and removes its
// footprint from that side, which may split it into several faces; the
// pieces of one side follow each other. Hole walls follow, normals pointing
// into the hole: min side of the first cross axis, max side, then the same
// for the second. A wall on a side where the cut is flush with host is
// left out.
func PiercedBoxFaces(host Box, cuts []Box, first FaceID) []Face {
	id := first
	next := func() FaceID {
		cur := id
		id++
		return cur
	}

	axes := make([]int, len(cuts))
	clamped := make([]Box, len(cuts))
	for i, c := range cuts {
		axes[i], _ = c.ThroughAxis(host, Epsilon)
		clamped[i] = c.ClampTo(host)
	}

	faces := make([]Face, 0, 6+4*len(cuts))
	for a := 0; a < 3; a++ {
		for _, positive := range []bool{false, true} {
			at := Component(host.Min, a)
			if positive {
				at = Component(host.Max, a)
			}
			var removed []Box
			for _, c := range clamped {
				if Component(c.Min, a) <= at+Epsilon && Component(c.Max, a) >= at-Epsilon {
					removed = append(removed, c)
				}
			}
			for _, r := range planeRegions(a, at, host, removed, positive) {
				f := NewFace(next(), r.outer...)
				for _, h := range r.holes {
					f = f.WithHole(h...)
				}
				faces = append(faces, f)
			}
		}
	}

	for i, c := range clamped {
		a := axes[i]
		for _, b := range []int{(a + 1) % 3, (a + 2) % 3} {
			if Component(c.Min, b) > Component(host.Min, b)+Epsilon {
				faces = append(faces, NewFace(next(), rectLoop(b, Component(c.Min, b), c.Min, c.Max, true)...))
			}
			if Component(c.Max, b) < Component(host.Max, b)-Epsilon {
				faces = append(faces, NewFace(next(), rectLoop(b, Component(c.Max, b), c.Min, c.Max, false)...))
			}
		}
	}
	return faces
}

// CheckCuts verifies that every cut passes through host and that no two
// cuts overlap.
func CheckCuts(host Box, cuts []Box) error {
	for i, c := range cuts {
		if c.Empty() {
			return fmt.Errorf("cut %d: empty box", i)
		}
		if _, ok := c.ThroughAxis(host, Epsilon); !ok {
			return fmt.Errorf("cut %d: %w", i, ErrNotThrough)
		}
		for j := 0; j < i; j++ {
			if c.Overlaps(cuts[j]) {
				return fmt.Errorf("cut %d overlaps cut %d", i, j)
			}
		}
	}
	return nil
}

// rectLoop is the rectangle in the plane Component(p, axis) == at spanning
// lo..hi on the two other axes, wound counter-clockwise around +axis when
// positive and around -axis otherwise.
func rectLoop(axis int, at float64, lo, hi Vec, positive bool) []Vec {
	u, v := (axis+1)%3, (axis+2)%3
	pt := func(pu, pv float64) Vec {
		p := WithComponent(Vec{}, axis, at)
		p = WithComponent(p, u, pu)
		return WithComponent(p, v, pv)
	}
	u0, u1 := Component(lo, u), Component(hi, u)
	v0, v1 := Component(lo, v), Component(hi, v)
	if positive {
		return []Vec{pt(u0, v0), pt(u1, v0), pt(u1, v1), pt(u0, v1)}
	}
	return []Vec{pt(u0, v0), pt(u0, v1), pt(u1, v1), pt(u1, v0)}
}

// ---------------------------------------------------------------------------
// Rectilinear regions
// ---------------------------------------------------------------------------

// region is one connected face: an outer loop and the holes inside it.
type region struct {
	outer []Vec
	holes [][]Vec
}

// gridPoint indexes the breakpoint grid of planeRegions.
type gridPoint struct{ i, j int }

type gridEdge struct{ from, to gridPoint }

// planeRegions returns the side of host in the plane Component(p, axis) ==
// at with the footprints of removed taken out. The plane is cut into a grid
// at every box boundary; the loops are traced along the grid edges between
// kept and removed cells, kept cell on the left, so outer loops run
// counter-clockwise around +axis and holes clockwise. Loops are reversed
// for the negative side.
func planeRegions(axis int, at float64, host Box, removed []Box, positive bool) []region {
	if len(removed) == 0 {
		return []region{{outer: rectLoop(axis, at, host.Min, host.Max, positive)}}
	}
	u, v := (axis+1)%3, (axis+2)%3
	us := breakpoints(u, host, removed)
	vs := breakpoints(v, host, removed)
	nu, nv := len(us)-1, len(vs)-1

	kept := func(i, j int) bool {
		if i < 0 || j < 0 || i >= nu || j >= nv {
			return false
		}
		cu, cv := (us[i]+us[i+1])/2, (vs[j]+vs[j+1])/2
		for _, r := range removed {
			if cu > Component(r.Min, u) && cu < Component(r.Max, u) &&
				cv > Component(r.Min, v) && cv < Component(r.Max, v) {
				return false
			}
		}
		return true
	}

	var edges []gridEdge
	outgoing := make(map[gridPoint][]int)
	add := func(from, to gridPoint) {
		outgoing[from] = append(outgoing[from], len(edges))
		edges = append(edges, gridEdge{from, to})
	}
	for j := 0; j < nv; j++ {
		for i := 0; i < nu; i++ {
			if !kept(i, j) {
				continue
			}
			if !kept(i, j-1) {
				add(gridPoint{i, j}, gridPoint{i + 1, j})
			}
			if !kept(i+1, j) {
				add(gridPoint{i + 1, j}, gridPoint{i + 1, j + 1})
			}
			if !kept(i, j+1) {
				add(gridPoint{i + 1, j + 1}, gridPoint{i, j + 1})
			}
			if !kept(i-1, j) {
				add(gridPoint{i, j + 1}, gridPoint{i, j})
			}
		}
	}

	used := make([]bool, len(edges))
	var outers, holes [][]gridPoint
	for k := range edges {
		if used[k] {
			continue
		}
		var loop []gridPoint
		for e := k; e >= 0; {
			used[e] = true
			loop = append(loop, edges[e].from)
			if edges[e].to == edges[k].from {
				break
			}
			nextEdge := -1
			for _, n := range outgoing[edges[e].to] {
				if !used[n] {
					nextEdge = n
					break
				}
			}
			e = nextEdge
		}
		loop = dropCollinear(loop)
		if gridArea(loop, us, vs) > 0 {
			outers = append(outers, loop)
		} else {
			holes = append(holes, loop)
		}
	}

	to3D := func(loop []gridPoint) []Vec {
		out := make([]Vec, len(loop))
		for n, g := range loop {
			p := WithComponent(Vec{}, axis, at)
			p = WithComponent(p, u, us[g.i])
			out[n] = WithComponent(p, v, vs[g.j])
		}
		if !positive {
			for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
				out[l], out[r] = out[r], out[l]
			}
		}
		return out
	}

	regions := make([]region, len(outers))
	for n, o := range outers {
		regions[n].outer = to3D(o)
	}
	for _, h := range holes {
		// The midpoint of a hole edge lies inside exactly one outer loop.
		a, b := h[0], h[1%len(h)]
		mu, mv := (us[a.i]+us[b.i])/2, (vs[a.j]+vs[b.j])/2
		owner := 0
		for n, o := range outers {
			if gridInside(o, us, vs, mu, mv) {
				owner = n
				break
			}
		}
		if len(regions) > 0 {
			regions[owner].holes = append(regions[owner].holes, to3D(h))
		}
	}
	return regions
}

// breakpoints returns the sorted, distinct boundaries of host and removed
// along axis.
func breakpoints(axis int, host Box, removed []Box) []float64 {
	vals := []float64{Component(host.Min, axis), Component(host.Max, axis)}
	for _, r := range removed {
		vals = append(vals, Component(r.Min, axis), Component(r.Max, axis))
	}
	sort.Float64s(vals)
	out := vals[:1]
	for _, x := range vals[1:] {
		if x-out[len(out)-1] > Epsilon {
			out = append(out, x)
		}
	}
	return out
}

// dropCollinear removes the grid points that do not turn a corner.
func dropCollinear(loop []gridPoint) []gridPoint {
	n := len(loop)
	out := make([]gridPoint, 0, n)
	for k, g := range loop {
		prev, next := loop[(k+n-1)%n], loop[(k+1)%n]
		if (prev.i == g.i && g.i == next.i) || (prev.j == g.j && g.j == next.j) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// gridArea is the signed shoelace area of loop.
func gridArea(loop []gridPoint, us, vs []float64) float64 {
	var a float64
	for k, g := range loop {
		h := loop[(k+1)%len(loop)]
		a += us[g.i]*vs[h.j] - us[h.i]*vs[g.j]
	}
	return a / 2
}

// gridInside is the even-odd crossing test of (pu, pv) against loop.
func gridInside(loop []gridPoint, us, vs []float64, pu, pv float64) bool {
	in := false
	for k, g := range loop {
		h := loop[(k+1)%len(loop)]
		gu, gv, hu, hv := us[g.i], vs[g.j], us[h.i], vs[h.j]
		if (gv > pv) != (hv > pv) && pu < gu+(pv-gv)*(hu-gu)/(hv-gv) {
			in = !in
		}
	}
	return in
}
