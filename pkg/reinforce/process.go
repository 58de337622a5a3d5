// Package reinforce computes reinforcement bar axes around rectangular
// openings through a planar host.
//
// Each opening goes through four stages: its faces are classified against
// the host boundary (Classify), a local frame is built from the two end
// faces (BuildFrame), a rectangle of bar lines is laid around the opening
// (BuildPattern) and the lines are moved onto both host faces and clipped to
// the host (Trim). Process runs the stages for every candidate. A failure in
// one opening is recorded on it and never affects the others.
package reinforce

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/trimbar/pkg/geom"
)

// Option configures Process.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	workers int
}

// WithLogger sets the logger Process reports each opening to.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWorkers processes up to n openings at once. The default is one, a
// strictly sequential run; a larger n only helps hosts with many openings.
// Results, counts and the error summary are the same either way.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// Result is the outcome of one run.
type Result struct {
	Openings  []*Opening
	Processed int // openings that produced bars
	Errored   int // openings in error, including incomplete ones
}

// PlacedBar is one finished bar axis of a successful opening.
type PlacedBar struct {
	Opening string
	Side    Side
	Role    SegmentRole
	Normal  geom.Vec
	Segment geom.Segment
}

// Succeeded returns the openings without error, in input order.
func (r *Result) Succeeded() []*Opening {
	var out []*Opening
	for _, o := range r.Openings {
		if !o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

// Bars lists the bars of every successful opening: opening by opening, back
// side before front, lines in pattern order.
func (r *Result) Bars() []PlacedBar {
	var out []PlacedBar
	for _, o := range r.Succeeded() {
		for _, set := range o.Sides {
			for _, l := range set.Lines {
				out = append(out, PlacedBar{
					Opening: o.ID,
					Side:    set.Side,
					Role:    l.Role,
					Normal:  set.Normal,
					Segment: l.Segment,
				})
			}
		}
	}
	return out
}

// Process runs the pipeline for every candidate against the host faces.
// The returned error is non-nil only when p is unusable; geometric problems
// are reported per opening. Candidates without an ID are named opening0,
// opening1, ... by position.
func Process(host []geom.Face, candidates []Candidate, p Params, opts ...Option) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
		if ids[i] == "" {
			ids[i] = fmt.Sprintf("opening%d", i)
		}
	}

	res := &Result{Openings: make([]*Opening, len(candidates))}
	if o.workers > 1 {
		var g errgroup.Group
		g.SetLimit(o.workers)
		for i, c := range candidates {
			g.Go(func() error {
				res.Openings[i] = processOne(ids[i], host, c.Faces, p)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, c := range candidates {
			res.Openings[i] = processOne(ids[i], host, c.Faces, p)
		}
	}

	for _, op := range res.Openings {
		if op.Failed() {
			res.Errored++
			log.Warn("opening skipped",
				zap.String("opening", op.ID),
				zap.Bool("incomplete", op.Incomplete()),
				zap.Error(op.Err),
			)
			continue
		}
		res.Processed++
		log.Debug("opening reinforced",
			zap.String("opening", op.ID),
			zap.Int("cut", len(op.Cut)),
			zap.Int("lines", op.Lines()),
		)
	}

	log.Info("reinforcement computed",
		zap.Int("openings", len(res.Openings)),
		zap.Int("processed", res.Processed),
		zap.Int("errored", res.Errored),
	)
	return res, nil
}

func processOne(id string, host, faces []geom.Face, p Params) *Opening {
	op := &Opening{ID: id, Faces: faces}

	cls, err := Classify(host, faces, p)
	if err != nil {
		op.Err = err
		return op
	}
	op.Cut, op.Ends = faceIDs(cls.Cut), faceIDs(cls.Ends)

	frame, err := BuildFrame(cls.Ends, p)
	if err != nil {
		op.Err = err
		return op
	}
	op.Frame = frame

	pat, err := BuildPattern(frame, cls.Cut, p)
	if err != nil {
		op.Err = err
		return op
	}
	sides, err := Trim(frame, pat, host, p)
	op.Sides = sides
	if err != nil {
		op.Err = fmt.Errorf("incomplete: %w", err)
	}
	return op
}

func faceIDs(faces []geom.Face) []geom.FaceID {
	ids := make([]geom.FaceID, len(faces))
	for i, f := range faces {
		ids[i] = f.ID
	}
	return ids
}

// ErrorSummary joins the errors of every failed opening, prefixed with the
// opening ID. It returns nil when all openings succeeded.
func (r *Result) ErrorSummary() error {
	var errs []error
	for _, o := range r.Openings {
		if o.Failed() {
			errs = append(errs, fmt.Errorf("%s: %w", o.ID, o.Err))
		}
	}
	return errors.Join(errs...)
}
