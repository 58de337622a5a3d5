package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/trimbar/pkg/geom"
	"github.com/chazu/trimbar/pkg/reinforce"
)

func sampleBars() []Bar {
	return []Bar{
		{Opening: "O1", Side: "back", Role: "parallel", BarType: "Ø12",
			Start: geom.V(3.12, 0.046, 2.0), End: geom.V(0.88, 0.046, 2.0), Normal: geom.V(0, 1, 0),
			HookStart: HookStart, HookEnd: HookEnd},
		{Opening: "O1", Side: "front", Role: "perpendicular", BarType: "Ø12",
			Start: geom.V(1.48, 0.2402, 2.62), End: geom.V(1.48, 0.2402, 0.38), Normal: geom.V(0, -1, 0),
			HookStart: HookStart, HookEnd: HookEnd},
	}
}

// failingSink accepts failAt bars, then rejects the next one.
type failingSink struct {
	failAt     int
	rolledBack bool
	committed  bool
}

func (s *failingSink) Begin(ctx context.Context, run uuid.UUID) (Tx, error) {
	return &failingTx{sink: s}, nil
}

type failingTx struct {
	sink *failingSink
	n    int
}

func (tx *failingTx) Add(b Bar) error {
	if tx.n == tx.sink.failAt {
		return errors.New("disk full")
	}
	tx.n++
	return nil
}

func (tx *failingTx) Commit(doc Document) error {
	tx.sink.committed = true
	return nil
}

func (tx *failingTx) Rollback() error {
	tx.sink.rolledBack = true
	return nil
}

func TestFromResult(t *testing.T) {
	res := &reinforce.Result{Openings: []*reinforce.Opening{
		{
			ID: "O1",
			Sides: [2]reinforce.BarSet{
				{Side: reinforce.SideBack, Normal: geom.V(0, 1, 0), Lines: []reinforce.BarLine{
					{Role: reinforce.RoleParallel, Segment: geom.NewSegment(geom.V(0, 0, 0), geom.V(1, 0, 0))},
				}},
				{Side: reinforce.SideFront, Normal: geom.V(0, -1, 0), Lines: []reinforce.BarLine{
					{Role: reinforce.RolePerpendicular, Segment: geom.NewSegment(geom.V(0, 1, 0), geom.V(0, 1, 1))},
				}},
			},
		},
		{ID: "O2", Err: reinforce.ErrClassification},
	}}

	bars := FromResult(res, "Ø12")
	require.Len(t, bars, 2)
	assert.Equal(t, "O1", bars[0].Opening)
	assert.Equal(t, reinforce.SideBack.String(), bars[0].Side)
	assert.Equal(t, reinforce.RoleParallel.String(), bars[0].Role)
	assert.Equal(t, "Ø12", bars[0].BarType)
	assert.Equal(t, "right", bars[0].HookStart)
	assert.Equal(t, "left", bars[0].HookEnd)
	assert.Equal(t, geom.V(0, -1, 0), bars[1].Normal)
}

func TestCommitMemory(t *testing.T) {
	sink := &MemorySink{}
	doc, err := Commit(context.Background(), sink, "W1", "m", sampleBars())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, doc.RunID)

	docs := sink.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, doc.RunID, docs[0].RunID)
	assert.Equal(t, sampleBars(), docs[0].Bars)
	assert.Equal(t, "W1", docs[0].Host)
}

func TestCommitEmpty(t *testing.T) {
	sink := &MemorySink{}
	_, err := Commit(context.Background(), sink, "W1", "m", nil)
	assert.ErrorIs(t, err, ErrEmpty)
	assert.Empty(t, sink.Documents())
}

func TestCommitRollsBackOnFailure(t *testing.T) {
	sink := &failingSink{failAt: 1}
	_, err := Commit(context.Background(), sink, "W1", "m", sampleBars())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, sink.rolledBack)
	assert.False(t, sink.committed)
}

func TestCommitRejectsInvalidBar(t *testing.T) {
	sink := &MemorySink{}
	bars := sampleBars()
	bars[1].End = bars[1].Start

	_, err := Commit(context.Background(), sink, "W1", "m", bars)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero length")
	assert.Empty(t, sink.Documents(), "nothing is stored after a failed bar")
}

func TestCommitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &MemorySink{}
	_, err := Commit(ctx, sink, "W1", "m", sampleBars())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.Documents())
}

func TestFileSinkRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bars."+string(format))
			sink := &FileSink{Path: path, Format: format}

			doc, err := Commit(context.Background(), sink, "W1", "m", sampleBars())
			require.NoError(t, err)

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()
			got, err := format.Decode(f)
			require.NoError(t, err)

			assert.Equal(t, doc.RunID, got.RunID)
			assert.Equal(t, "W1", got.Host)
			assert.True(t, doc.CreatedAt.Equal(got.CreatedAt))
			assert.Equal(t, sampleBars(), got.Bars)

			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "no temporary file is left behind")
		})
	}
}

func TestFileSinkRollbackLeavesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bars.json")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	bars := sampleBars()
	bars[0].Opening = ""
	sink := &FileSink{Path: path, Format: FormatJSON}
	_, err := Commit(context.Background(), sink, "W1", "m", bars)
	require.Error(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file removed on rollback")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, "YAML": FormatYAML, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}
