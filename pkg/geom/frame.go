package geom

import "math"

// Frame is a right-handed coordinate system: an origin and three mutually
// orthogonal unit axes.
type Frame struct {
	Origin Vec `json:"origin"`
	X      Vec `json:"x"`
	Y      Vec `json:"y"`
	Z      Vec `json:"z"`
}

// ToWorld maps local frame coordinates (x, y, z) to a world point.
func (f Frame) ToWorld(x, y, z float64) Vec {
	return f.Origin.
		Add(f.X.MulScalar(x)).
		Add(f.Y.MulScalar(y)).
		Add(f.Z.MulScalar(z))
}

// ToLocal maps a world point to local frame coordinates.
func (f Frame) ToLocal(p Vec) Vec {
	d := p.Sub(f.Origin)
	return V(d.Dot(f.X), d.Dot(f.Y), d.Dot(f.Z))
}

// ProjectOnto projects the frame origin onto face along axis (both
// directions). It returns no points when the line misses the face.
func (f Frame) ProjectOnto(face Face, axis Vec, tol float64) []Vec {
	return face.ProjectAlong(f.Origin, axis, tol)
}

// Orthonormal reports whether the axes are unit length and mutually
// orthogonal within tol, and right-handed.
func (f Frame) Orthonormal(tol float64) bool {
	for _, a := range []Vec{f.X, f.Y, f.Z} {
		if math.Abs(a.Length()-1) > tol {
			return false
		}
	}
	if math.Abs(f.X.Dot(f.Y)) > tol || math.Abs(f.Y.Dot(f.Z)) > tol || math.Abs(f.Z.Dot(f.X)) > tol {
		return false
	}
	return NearlyEqual(f.X.Cross(f.Y), f.Z, tol)
}
