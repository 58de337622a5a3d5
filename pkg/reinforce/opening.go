package reinforce

import (
	"errors"

	"github.com/chazu/trimbar/pkg/geom"
)

// Candidate is one opening solid found near the host: an identifier and its
// boundary faces. Face IDs must be unique within a candidate.
type Candidate struct {
	ID    string
	Faces []geom.Face
}

// Side is the host face a bar set is laid against.
type Side int

const (
	// SideBack is the host face reached along -X from the opening.
	SideBack Side = iota
	// SideFront is the host face reached along +X.
	SideFront
)

func (s Side) String() string {
	if s == SideFront {
		return "front"
	}
	return "back"
}

// SegmentRole tells which bar layer a pattern segment belongs to, and so
// which offset it is placed at.
type SegmentRole int

const (
	// RoleParallel segments run along the frame's Y axis (across the
	// opening's width) and form the outer bar layer.
	RoleParallel SegmentRole = iota
	// RolePerpendicular segments run along Z and form the inner layer.
	RolePerpendicular
)

func (r SegmentRole) String() string {
	if r == RolePerpendicular {
		return "perpendicular"
	}
	return "parallel"
}

// BarLine is one trimmed bar axis. Err is set (wrapping ErrTrimMiss) when
// the line could not be resolved; Segment is then meaningless.
type BarLine struct {
	Role    SegmentRole
	Segment geom.Segment
	Err     error
}

// BarSet is the bars of one opening laid against one host face. Normal is
// the orientation vector handed to persistence.
type BarSet struct {
	Side   Side
	Normal geom.Vec
	Lines  []BarLine
}

// Opening is the unit of work of the pipeline.
//
// Once classification succeeds, Cut and Ends partition Faces. When Err is
// nil, Frame and Sides are populated as well. A classification or frame
// failure leaves Frame and Sides at their zero value; a trim failure leaves
// them in place for diagnostics, but the opening is still excluded from
// output.
type Opening struct {
	ID    string
	Faces []geom.Face
	Cut   []geom.FaceID
	Ends  []geom.FaceID
	Frame geom.Frame
	Sides [2]BarSet
	Err   error
}

// Failed reports whether the opening is in error and must not be persisted.
func (o *Opening) Failed() bool {
	return o.Err != nil
}

// Incomplete reports whether the opening got through classification and
// frame building but lost at least one bar line in trimming.
func (o *Opening) Incomplete() bool {
	return errors.Is(o.Err, ErrTrimMiss)
}

// Lines returns the number of bar lines over both sides.
func (o *Opening) Lines() int {
	return len(o.Sides[0].Lines) + len(o.Sides[1].Lines)
}
