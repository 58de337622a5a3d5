package reinforce

import "errors"

// Per-opening errors. They are stored on the Opening and never abort the
// run; configuration problems are reported as rebar.ErrConfiguration.
var (
	// ErrClassification: the opening's faces do not split into cut faces
	// and exactly two end faces.
	ErrClassification = errors.New("classification error")

	// ErrDegenerateFrame: the end faces give no usable through-axis or
	// vertical reference.
	ErrDegenerateFrame = errors.New("degenerate frame")

	// ErrTrimMiss: a ray or clip step found no intersection where one is
	// required.
	ErrTrimMiss = errors.New("trim intersection miss")
)
