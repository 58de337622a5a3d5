// Package geom provides the points, segments, planar faces and coordinate
// frames used by the reinforcement pipeline. Points and directions are sdfx
// v3.Vec values so that geometry flows unchanged between the kernel and the
// pipeline.
package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vec is a 3D point or direction.
type Vec = v3.Vec

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-9

// V is shorthand for Vec{X: x, Y: y, Z: z}.
func V(x, y, z float64) Vec {
	return Vec{X: x, Y: y, Z: z}
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Vec) Vec {
	return a.Add(b).MulScalar(0.5)
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Vec) float64 {
	return b.Sub(a).Length()
}

// Unit returns v scaled to length one. ok is false when v is (nearly) zero.
func Unit(v Vec) (u Vec, ok bool) {
	l := v.Length()
	if l <= Epsilon {
		return Vec{}, false
	}
	return v.MulScalar(1 / l), true
}

// NearlyEqual reports whether a and b are within tol of each other.
func NearlyEqual(a, b Vec, tol float64) bool {
	return Distance(a, b) <= tol
}

// Rotate rotates v about axis by the given angle in degrees, right-hand rule
// (Rodrigues' formula). The axis need not be normalized.
func Rotate(v, axis Vec, degrees float64) Vec {
	k, ok := Unit(axis)
	if !ok {
		return v
	}
	rad := degrees * math.Pi / 180.0
	cos, sin := math.Cos(rad), math.Sin(rad)

	// v cos + (k x v) sin + k (k.v)(1 - cos)
	return v.MulScalar(cos).
		Add(k.Cross(v).MulScalar(sin)).
		Add(k.MulScalar(k.Dot(v) * (1 - cos)))
}

// Component returns the coordinate of v along axis i (0=X, 1=Y, 2=Z).
func Component(v Vec, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// WithComponent returns v with its i-th coordinate replaced by f.
func WithComponent(v Vec, i int, f float64) Vec {
	switch i {
	case 0:
		v.X = f
	case 1:
		v.Y = f
	default:
		v.Z = f
	}
	return v
}
