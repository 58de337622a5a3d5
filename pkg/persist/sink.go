package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Format is an on-disk encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml and yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("persist: unknown format %q", s)
}

// Encode writes doc to w.
func (f Format) Encode(w io.Writer, doc Document) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("persist: unknown format %q", string(f))
}

// Decode reads a document from r.
func (f Format) Decode(r io.Reader) (Document, error) {
	var doc Document
	var err error
	switch f {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	default:
		err = fmt.Errorf("persist: unknown format %q", string(f))
	}
	return doc, err
}

// FileSink writes each committed document to Path. The document is encoded
// to a temporary file next to Path and renamed over it on commit, so a
// reader never sees a partial file.
type FileSink struct {
	Path   string
	Format Format
}

// Begin opens the temporary file.
func (s *FileSink) Begin(ctx context.Context, run uuid.UUID) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Dir(s.Path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+"-"+run.String()+"-*")
	if err != nil {
		return nil, err
	}
	return &fileTx{sink: s, tmp: f}, nil
}

type fileTx struct {
	sink *FileSink
	tmp  *os.File
	n    int
	done bool
}

func (tx *fileTx) Add(b Bar) error {
	if tx.done {
		return errors.New("transaction is closed")
	}
	if err := validBar(b); err != nil {
		return err
	}
	tx.n++
	return nil
}

func (tx *fileTx) Commit(doc Document) error {
	if tx.done {
		return errors.New("transaction is closed")
	}
	if len(doc.Bars) != tx.n {
		return fmt.Errorf("document has %d bars, transaction added %d", len(doc.Bars), tx.n)
	}
	if err := tx.sink.Format.Encode(tx.tmp, doc); err != nil {
		return err
	}
	if err := tx.tmp.Sync(); err != nil {
		return err
	}
	if err := tx.tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tx.tmp.Name(), tx.sink.Path); err != nil {
		return err
	}
	tx.done = true
	return nil
}

func (tx *fileTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.tmp.Close()
	if err := os.Remove(tx.tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemorySink keeps committed documents in memory. It is safe for
// concurrent use.
type MemorySink struct {
	mu   sync.Mutex
	docs []Document
}

// Begin starts an in-memory transaction.
func (s *MemorySink) Begin(ctx context.Context, run uuid.UUID) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memoryTx{sink: s}, nil
}

// Documents returns the committed documents in commit order.
func (s *MemorySink) Documents() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Document, len(s.docs))
	copy(out, s.docs)
	return out
}

type memoryTx struct {
	sink    *MemorySink
	pending []Bar
	done    bool
}

func (tx *memoryTx) Add(b Bar) error {
	if tx.done {
		return errors.New("transaction is closed")
	}
	if err := validBar(b); err != nil {
		return err
	}
	tx.pending = append(tx.pending, b)
	return nil
}

func (tx *memoryTx) Commit(doc Document) error {
	if tx.done {
		return errors.New("transaction is closed")
	}
	doc.Bars = append([]Bar(nil), tx.pending...)
	tx.sink.mu.Lock()
	tx.sink.docs = append(tx.sink.docs, doc)
	tx.sink.mu.Unlock()
	tx.done = true
	return nil
}

func (tx *memoryTx) Rollback() error {
	tx.done = true
	tx.pending = nil
	return nil
}
