package reinforce

import (
	"fmt"

	"github.com/chazu/trimbar/pkg/rebar"
	"github.com/chazu/trimbar/pkg/units"
)

// Defaults for the geometric constants, in metres except Tolerance which is
// in model units.
const (
	DefaultTolerance        = 1e-3
	DefaultExtendMargin     = 0.6
	DefaultRayLength        = 100.0
	DefaultPerimeterSamples = 1
)

// Params are the scalar inputs of the pipeline, all lengths in model units.
type Params struct {
	Covers  rebar.Covers
	Nominal float64 // nominal bar diameter
	True    float64 // true (ribbed) bar diameter

	// Tolerance is the distance under which an opening face counts as lying
	// on the host boundary.
	Tolerance float64
	// ExtendMargin lengthens every pattern segment at both ends before
	// trimming.
	ExtendMargin float64
	// RayLength is the full length of the rays cast through a face
	// or along the through-axis; rays are centred on their seed.
	RayLength float64
	// PerimeterSamples is the number of samples per perimeter edge when
	// looking for the vertical reference of the frame.
	PerimeterSamples int
}

// NewParams resolves a nominal bar size against the catalog and converts
// covers (millimetres) and the default constants into model units.
func NewParams(cat *rebar.Catalog, coversMM rebar.Covers, nominal int, conv units.Converter) (Params, error) {
	trueMM, err := cat.TrueDiameter(nominal)
	if err != nil {
		return Params{}, err
	}
	p := Params{
		Covers:           coversMM.Scale(conv.FromMillimeters(1)),
		Nominal:          conv.FromMillimeters(float64(nominal)),
		True:             conv.FromMillimeters(trueMM),
		Tolerance:        DefaultTolerance,
		ExtendMargin:     conv.FromMeters(DefaultExtendMargin),
		RayLength:        conv.FromMeters(DefaultRayLength),
		PerimeterSamples: DefaultPerimeterSamples,
	}
	return p, p.Validate()
}

// Validate checks that every value is usable. Failures wrap
// rebar.ErrConfiguration.
func (p Params) Validate() error {
	switch {
	case p.Nominal <= 0:
		return fmt.Errorf("%w: nominal diameter must be positive, got %g", rebar.ErrConfiguration, p.Nominal)
	case p.True < p.Nominal:
		return fmt.Errorf("%w: true diameter %g below nominal %g", rebar.ErrConfiguration, p.True, p.Nominal)
	case p.Covers.Primary < 0 || p.Covers.Secondary < 0 || p.Covers.Other < 0:
		return fmt.Errorf("%w: negative cover %+v", rebar.ErrConfiguration, p.Covers)
	case p.Tolerance <= 0:
		return fmt.Errorf("%w: tolerance must be positive, got %g", rebar.ErrConfiguration, p.Tolerance)
	case p.ExtendMargin < 0:
		return fmt.Errorf("%w: extend margin must not be negative, got %g", rebar.ErrConfiguration, p.ExtendMargin)
	case p.RayLength <= 0:
		return fmt.Errorf("%w: ray length must be positive, got %g", rebar.ErrConfiguration, p.RayLength)
	case p.PerimeterSamples < 1:
		return fmt.Errorf("%w: perimeter samples must be at least 1, got %d", rebar.ErrConfiguration, p.PerimeterSamples)
	}
	return nil
}

// Offset is the distance between a bar axis of the given role and the host
// face it is laid against. Parallel bars form the outer layer; perpendicular
// bars sit inside them, one and a half true diameters in.
func (p Params) Offset(role SegmentRole) float64 {
	if role == RolePerpendicular {
		return p.Covers.Other + 1.5*p.True
	}
	return p.Covers.Other + p.Nominal/2
}
