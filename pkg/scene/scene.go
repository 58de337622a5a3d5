// Package scene defines the input model: one host element, a box placed in
// the world, and the rectangular openings cut through it. Openings are
// given in host-local coordinates.
package scene

import (
	"github.com/chazu/trimbar/pkg/geom"
	"github.com/chazu/trimbar/pkg/units"
)

// Host is the structural element the openings pass through.
type Host struct {
	Name     string             `json:"name" yaml:"name"`
	Family   string             `json:"family" yaml:"family"`
	Size     geom.Vec           `json:"size" yaml:"size"`
	Origin   geom.Vec           `json:"origin" yaml:"origin"`
	Rotation float64            `json:"rotation" yaml:"rotation"` // degrees about world Z
	Covers   map[string]float64 `json:"covers" yaml:"covers"`     // millimetres, by family role
}

// Box returns the host's extent in its own coordinates.
func (h *Host) Box() geom.Box {
	return geom.BoxAt(geom.Vec{}, h.Size)
}

// Opening is a rectangular void, min and max corner in host-local
// coordinates.
type Opening struct {
	Name string   `json:"name" yaml:"name"`
	Min  geom.Vec `json:"min" yaml:"min"`
	Max  geom.Vec `json:"max" yaml:"max"`
}

// Box returns the opening's extent.
func (o Opening) Box() geom.Box {
	return geom.Box{Min: o.Min, Max: o.Max}
}

// Scene is a host and its openings, lengths in Units.
type Scene struct {
	Units    units.Unit `json:"units" yaml:"units"`
	Host     *Host      `json:"host,omitempty" yaml:"host,omitempty"`
	Openings []Opening  `json:"openings" yaml:"openings"`
}

// New returns an empty scene in metres.
func New() *Scene {
	return &Scene{Units: units.Meter}
}

// AddOpening appends an opening. Names are checked by Validate.
func (s *Scene) AddOpening(o Opening) {
	s.Openings = append(s.Openings, o)
}

// Opening looks an opening up by name.
func (s *Scene) Opening(name string) (Opening, bool) {
	for _, o := range s.Openings {
		if o.Name == name {
			return o, true
		}
	}
	return Opening{}, false
}

// Through splits the openings into those passing through the host and the
// rest. With no host every opening is in the second list.
func (s *Scene) Through() (through, other []Opening) {
	if s.Host == nil {
		return nil, s.Openings
	}
	hb := s.Host.Box()
	for _, o := range s.Openings {
		if _, ok := o.Box().ThroughAxis(hb, geom.Epsilon); ok {
			through = append(through, o)
		} else {
			other = append(other, o)
		}
	}
	return through, other
}
