// Package persist writes the bars of a run as one all-or-nothing
// transaction. A run either stores every bar or none of them.
package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/trimbar/pkg/geom"
	"github.com/chazu/trimbar/pkg/reinforce"
)

// Hook orientations given to every bar end.
const (
	HookStart = "right"
	HookEnd   = "left"
)

// ErrEmpty is returned when a run has no bars to store.
var ErrEmpty = errors.New("persist: no bars to store")

// Bar is one stored bar: a straight axis from Start to End on one side of
// an opening.
type Bar struct {
	Opening   string   `json:"opening" yaml:"opening"`
	Side      string   `json:"side" yaml:"side"`
	Role      string   `json:"role" yaml:"role"`
	BarType   string   `json:"bar_type" yaml:"bar_type"`
	Start     geom.Vec `json:"start" yaml:"start"`
	End       geom.Vec `json:"end" yaml:"end"`
	Normal    geom.Vec `json:"normal" yaml:"normal"`
	HookStart string   `json:"hook_start" yaml:"hook_start"`
	HookEnd   string   `json:"hook_end" yaml:"hook_end"`
}

// Document is what a committed run looks like on disk.
type Document struct {
	RunID     uuid.UUID `json:"run_id" yaml:"run_id"`
	Host      string    `json:"host" yaml:"host"`
	Units     string    `json:"units" yaml:"units"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Bars      []Bar     `json:"bars" yaml:"bars"`
}

// Sink stores documents.
type Sink interface {
	Begin(ctx context.Context, run uuid.UUID) (Tx, error)
}

// Tx is one open write. Nothing is visible until Commit returns nil.
// Rollback after Commit is a no-op.
type Tx interface {
	Add(b Bar) error
	Commit(doc Document) error
	Rollback() error
}

// FromResult converts the bars of the successful openings of res. Bars of
// failed or incomplete openings are never included.
func FromResult(res *reinforce.Result, barType string) []Bar {
	var bars []Bar
	for _, b := range res.Bars() {
		bars = append(bars, Bar{
			Opening:   b.Opening,
			Side:      b.Side.String(),
			Role:      b.Role.String(),
			BarType:   barType,
			Start:     b.Segment.Start,
			End:       b.Segment.End,
			Normal:    b.Normal,
			HookStart: HookStart,
			HookEnd:   HookEnd,
		})
	}
	return bars
}

// Commit stores bars in one transaction on sink. Any failure, including a
// cancelled ctx, rolls the transaction back and nothing is stored. The
// returned document carries the new run ID.
func Commit(ctx context.Context, sink Sink, host, unit string, bars []Bar) (Document, error) {
	if len(bars) == 0 {
		return Document{}, ErrEmpty
	}
	doc := Document{
		RunID:     uuid.New(),
		Host:      host,
		Units:     unit,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := sink.Begin(ctx, doc.RunID)
	if err != nil {
		return Document{}, fmt.Errorf("persist: begin: %w", err)
	}
	for i, b := range bars {
		if err := ctx.Err(); err != nil {
			return Document{}, rollback(tx, fmt.Errorf("persist: bar %d: %w", i, err))
		}
		if err := tx.Add(b); err != nil {
			return Document{}, rollback(tx, fmt.Errorf("persist: bar %d (%s %s): %w", i, b.Opening, b.Side, err))
		}
	}
	doc.Bars = bars
	if err := tx.Commit(doc); err != nil {
		return Document{}, rollback(tx, fmt.Errorf("persist: commit: %w", err))
	}
	return doc, nil
}

func rollback(tx Tx, cause error) error {
	if err := tx.Rollback(); err != nil {
		return errors.Join(cause, fmt.Errorf("persist: rollback: %w", err))
	}
	return cause
}

// validBar rejects bars no sink should accept.
func validBar(b Bar) error {
	if b.Opening == "" {
		return errors.New("bar has no opening")
	}
	if geom.Distance(b.Start, b.End) <= geom.Epsilon {
		return fmt.Errorf("bar of opening %s has zero length", b.Opening)
	}
	return nil
}
