package reinforce

import (
	"fmt"
	"sort"

	"github.com/chazu/trimbar/pkg/geom"
)

// BuildFrame derives the local frame of an opening from its two end faces.
//
// The origin is halfway between the end centroids and X runs from the first
// end to the second (ends ordered by FaceID). Z points from the first end's
// centroid to its highest perimeter sample, made orthogonal to X. Y is Z
// turned -90 degrees about X, which makes X, Y, Z right-handed.
func BuildFrame(ends []geom.Face, p Params) (geom.Frame, error) {
	if len(ends) != 2 {
		return geom.Frame{}, fmt.Errorf("%w: need 2 end faces, got %d", ErrDegenerateFrame, len(ends))
	}
	ordered := []geom.Face{ends[0], ends[1]}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	m0, m1 := ordered[0].Centroid(), ordered[1].Centroid()
	x, ok := geom.Unit(m1.Sub(m0))
	if !ok || geom.Distance(m0, m1) <= p.Tolerance {
		return geom.Frame{}, fmt.Errorf("%w: end faces %d and %d share a midpoint", ErrDegenerateFrame, ordered[0].ID, ordered[1].ID)
	}

	samples := ordered[0].PerimeterSamples(p.PerimeterSamples)
	if len(samples) == 0 {
		return geom.Frame{}, fmt.Errorf("%w: end face %d has no perimeter", ErrDegenerateFrame, ordered[0].ID)
	}
	top := samples[0]
	for _, s := range samples[1:] {
		if s.Z > top.Z {
			top = s
		}
	}

	ref := top.Sub(m0)
	ref = ref.Sub(x.MulScalar(ref.Dot(x)))
	z, ok := geom.Unit(ref)
	if !ok {
		return geom.Frame{}, fmt.Errorf("%w: no vertical reference on end face %d", ErrDegenerateFrame, ordered[0].ID)
	}

	return geom.Frame{
		Origin: geom.Midpoint(m0, m1),
		X:      x,
		Y:      geom.Rotate(z, x, -90),
		Z:      z,
	}, nil
}
