// Package units converts lengths between the model's unit and the
// millimetres and metres that bar catalogs and margins are given in.
package units

import (
	"fmt"
	"strings"
)

// Unit is a length unit.
type Unit int

const (
	Millimeter Unit = iota
	Centimeter
	Meter
	Foot
	Inch
)

// metres per unit
var scale = [...]float64{
	Millimeter: 0.001,
	Centimeter: 0.01,
	Meter:      1,
	Foot:       0.3048,
	Inch:       0.0254,
}

var names = [...]string{
	Millimeter: "mm",
	Centimeter: "cm",
	Meter:      "m",
	Foot:       "ft",
	Inch:       "in",
}

func (u Unit) String() string {
	if u < 0 || int(u) >= len(names) {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return names[u]
}

// Parse accepts the short names (mm, cm, m, ft, in) and their long forms.
func Parse(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mm", "millimeter", "millimeters", "millimetre", "millimetres":
		return Millimeter, nil
	case "cm", "centimeter", "centimeters", "centimetre", "centimetres":
		return Centimeter, nil
	case "m", "meter", "meters", "metre", "metres":
		return Meter, nil
	case "ft", "foot", "feet":
		return Foot, nil
	case "in", "inch", "inches":
		return Inch, nil
	}
	return 0, fmt.Errorf("unknown length unit %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Convert converts v from one unit to another.
func Convert(v float64, from, to Unit) float64 {
	if from == to {
		return v
	}
	return v * scale[from] / scale[to]
}

// Converter converts into and out of a fixed model unit.
type Converter struct {
	Model Unit
}

// FromMillimeters converts millimetres to model units.
func (c Converter) FromMillimeters(v float64) float64 {
	return Convert(v, Millimeter, c.Model)
}

// FromMeters converts metres to model units.
func (c Converter) FromMeters(v float64) float64 {
	return Convert(v, Meter, c.Model)
}

// ToMillimeters converts model units to millimetres.
func (c Converter) ToMillimeters(v float64) float64 {
	return Convert(v, c.Model, Millimeter)
}
