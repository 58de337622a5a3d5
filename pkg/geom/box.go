package geom

// Box is an axis-aligned box given by its min and max corners.
type Box struct {
	Min Vec `json:"min"`
	Max Vec `json:"max"`
}

// BoxAt returns the box with the given min corner and size.
func BoxAt(min, size Vec) Box {
	return Box{Min: min, Max: min.Add(size)}
}

// BoxCentered returns the box with the given center and size.
func BoxCentered(center, size Vec) Box {
	half := size.MulScalar(0.5)
	return Box{Min: center.Sub(half), Max: center.Add(half)}
}

// Size returns Max - Min.
func (b Box) Size() Vec {
	return b.Max.Sub(b.Min)
}

// Center returns the box midpoint.
func (b Box) Center() Vec {
	return Midpoint(b.Min, b.Max)
}

// Empty reports whether any extent is not positive.
func (b Box) Empty() bool {
	s := b.Size()
	return s.X <= 0 || s.Y <= 0 || s.Z <= 0
}

// Translate moves the box by v.
func (b Box) Translate(v Vec) Box {
	return Box{Min: b.Min.Add(v), Max: b.Max.Add(v)}
}

// Overlaps reports whether b and o share interior volume.
func (b Box) Overlaps(o Box) bool {
	for i := 0; i < 3; i++ {
		if Component(b.Max, i) <= Component(o.Min, i) || Component(o.Max, i) <= Component(b.Min, i) {
			return false
		}
	}
	return true
}

// ThroughAxis returns the axis along which b passes completely through
// host. On the other two axes b must overlap host without spanning it; it
// may be flush with, or run past, one side of host, which leaves a notch
// instead of a hole. ok is false if b is not a through-cut of host.
func (b Box) ThroughAxis(host Box, tol float64) (axis int, ok bool) {
	found := -1
	for i := 0; i < 3; i++ {
		lo, hi := Component(b.Min, i), Component(b.Max, i)
		hlo, hhi := Component(host.Min, i), Component(host.Max, i)
		switch {
		case lo <= hlo+tol && hi >= hhi-tol:
			if found >= 0 {
				return 0, false
			}
			found = i
		case hi > hlo+tol && lo < hhi-tol:
			// overlaps host on this axis
		default:
			return 0, false
		}
	}
	if found < 0 {
		return 0, false
	}
	return found, true
}

// clampAxis restricts b to the extent of host along axis.
func (b Box) clampAxis(host Box, axis int) Box {
	lo := max(Component(b.Min, axis), Component(host.Min, axis))
	hi := min(Component(b.Max, axis), Component(host.Max, axis))
	return Box{Min: WithComponent(b.Min, axis, lo), Max: WithComponent(b.Max, axis, hi)}
}

// ClampTo restricts b to host on every axis.
func (b Box) ClampTo(host Box) Box {
	for i := 0; i < 3; i++ {
		b = b.clampAxis(host, i)
	}
	return b
}
