// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// Solids keep their SDF for containment queries and meshing, and alongside
// it the box they were built from, their placement and their through-cuts
// in host-local coordinates. Boundary faces are derived from that record
// and mapped to world space with the same matrix the SDF is transformed by.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/trimbar/pkg/geom"
	"github.com/chazu/trimbar/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// placement is a rotation about world Z followed by a translation.
type placement struct {
	origin   geom.Vec
	rotation float64 // degrees
}

func (p placement) matrix() sdf.M44 {
	return sdf.Translate3d(p.origin).Mul(sdf.RotateZ(p.rotation * math.Pi / 180.0))
}

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	local sdf.SDF3   // before placement
	s     sdf.SDF3   // placed
	box   geom.Box   // local, min corner at the origin
	cuts  []geom.Box // local to box
	place placement
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() geom.Box {
	bb := s.s.BoundingBox()
	return geom.Box{Min: bb.Min, Max: bb.Max}
}

// Evaluate returns the signed distance to the surface.
func (s *sdfxSolid) Evaluate(p geom.Vec) float64 {
	return s.s.Evaluate(p)
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	meshCells int
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the marching cubes resolution along the longest axis.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) {
		if n > 0 {
			k.meshCells = n
		}
	}
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{meshCells: defaultMeshCells}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// unwrap extracts the underlying solid from a kernel.Solid.
func unwrap(s kernel.Solid) (*sdfxSolid, error) {
	ss, ok := s.(*sdfxSolid)
	if !ok {
		return nil, fmt.Errorf("%w: solid %T was not built by the sdfx kernel", kernel.ErrUnsupported, s)
	}
	return ss, nil
}

// Box creates a box with the given dimensions. The resulting solid has its
// minimum corner at the origin (0,0,0) so that placement translations work
// intuitively: Place(box, (10, 0, 0), 0) puts the corner at x=10.
// sdf.Box3D centers the box at the origin, so we translate by half-dimensions.
func (k *SdfxKernel) Box(size geom.Vec) (kernel.Solid, error) {
	s, err := sdf.Box3D(size, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Box3D: %w", err)
	}
	// Shift from center-origin to min-corner-origin.
	m := sdf.Translate3d(size.MulScalar(0.5))
	local := sdf.Transform3D(s, m)
	return &sdfxSolid{
		local: local,
		s:     local,
		box:   geom.BoxAt(geom.Vec{}, size),
	}, nil
}

// Place rotates s about Z by rotation degrees and moves it to origin. The
// placement replaces any previous one.
func (k *SdfxKernel) Place(s kernel.Solid, origin geom.Vec, rotation float64) kernel.Solid {
	ss, err := unwrap(s)
	if err != nil {
		return s
	}
	out := *ss
	out.place = placement{origin: origin, rotation: rotation}
	out.s = sdf.Transform3D(ss.local, out.place.matrix())
	return &out
}

// Cut removes the openings from host. Each opening must share the host's
// rotation and pass through the host along one local axis.
func (k *SdfxKernel) Cut(host kernel.Solid, openings ...kernel.Solid) (kernel.Solid, error) {
	h, err := unwrap(host)
	if err != nil {
		return nil, err
	}
	if len(openings) == 0 {
		return h, nil
	}

	out := *h
	out.cuts = append([]geom.Box(nil), h.cuts...)
	holes := make([]sdf.SDF3, 0, len(openings))
	for i, o := range openings {
		op, err := unwrap(o)
		if err != nil {
			return nil, err
		}
		if len(op.cuts) > 0 {
			return nil, fmt.Errorf("%w: opening %d has cuts of its own", kernel.ErrUnsupported, i)
		}
		if math.Abs(op.place.rotation-h.place.rotation) > 1e-9 {
			return nil, fmt.Errorf("%w: opening %d is rotated %g degrees, host %g", kernel.ErrUnsupported, i, op.place.rotation, h.place.rotation)
		}
		// Opening box in host-local coordinates.
		d := geom.Rotate(op.place.origin.Sub(h.place.origin), geom.V(0, 0, 1), -h.place.rotation)
		out.cuts = append(out.cuts, op.box.Translate(d))
		holes = append(holes, sdf.Transform3D(op.local, sdf.Translate3d(d)))
	}
	if err := geom.CheckCuts(h.box, out.cuts); err != nil {
		return nil, fmt.Errorf("sdfx cut: %w", err)
	}
	out.local = sdf.Difference3D(h.local, sdf.Union3D(holes...))
	out.s = sdf.Transform3D(out.local, h.place.matrix())
	return &out, nil
}

// Faces returns the boundary faces of s in world coordinates. The outer
// faces come first in -X, +X, -Y, +Y, -Z, +Z order of local axes; a side
// split by a notch yields one face per piece. The walls of each cut follow,
// one per cut side that lies inside the host.
func (k *SdfxKernel) Faces(s kernel.Solid) ([]geom.Face, error) {
	ss, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	faces := geom.PiercedBoxFaces(ss.box, ss.cuts, 0)
	m := ss.place.matrix()
	for i := range faces {
		faces[i].Outer = transform(m, faces[i].Outer)
		for j := range faces[i].Holes {
			faces[i].Holes[j] = transform(m, faces[i].Holes[j])
		}
	}
	return faces, nil
}

func transform(m sdf.M44, loop []v3.Vec) []v3.Vec {
	out := make([]v3.Vec, len(loop))
	for i, p := range loop {
		out[i] = m.MulPosition(p)
	}
	return out
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	ss, err := unwrap(s)
	if err != nil {
		return nil, err
	}

	renderer := render.NewMarchingCubesUniform(k.meshCells)
	triangles := render.ToTriangles(ss.s, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
