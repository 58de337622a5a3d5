// Package kernel defines the abstract geometry kernel interface.
// Implementations provide box solids, placement, through-cuts, the
// boundary faces of the result and preview meshes. The reinforcement
// pipeline only ever sees the faces, so the backend can be swapped without
// changing the rest of the system.
package kernel

import (
	"errors"

	"github.com/chazu/trimbar/pkg/geom"
)

// ErrUnsupported is returned for solids or operations a backend cannot
// represent.
var ErrUnsupported = errors.New("kernel: unsupported operation")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() geom.Box
	// Evaluate returns the signed distance from p to the surface,
	// negative inside the solid.
	Evaluate(p geom.Vec) float64
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Box creates a box with its minimum corner at the origin.
	Box(size geom.Vec) (Solid, error)

	// Place rotates s about the world Z axis (degrees) and then moves it
	// to origin.
	Place(s Solid, origin geom.Vec, rotation float64) Solid

	// Cut removes every opening from host. Openings must pass through the
	// host; see geom.CheckCuts.
	Cut(host Solid, openings ...Solid) (Solid, error)

	// Faces returns the boundary faces of s in world coordinates with
	// IDs unique within s.
	Faces(s Solid) ([]geom.Face, error)

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
