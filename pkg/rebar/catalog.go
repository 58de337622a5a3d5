// Package rebar holds the bar size catalog and the cover-distance roles of
// the supported host families.
package rebar

import (
	"errors"
	"fmt"
	"sort"
)

// ErrConfiguration marks input the pipeline cannot run with at all: an
// unknown host family or a bar size missing from the catalog. It is fatal
// to the run, unlike per-opening geometry errors.
var ErrConfiguration = errors.New("configuration error")

var (
	ErrUnknownFamily   = fmt.Errorf("%w: unknown host family", ErrConfiguration)
	ErrUnknownDiameter = fmt.Errorf("%w: unknown bar diameter", ErrConfiguration)
)

// Catalog maps a nominal bar size in millimetres to the true (outer,
// ribbed) diameter in millimetres.
type Catalog struct {
	diameters map[int]float64
}

// defaultDiameters is the stock table of nominal to true bar diameters.
var defaultDiameters = map[int]float64{
	10: 11,
	12: 13.2,
	16: 17.6,
	20: 22,
	25: 27.4,
	32: 35.2,
}

// DefaultCatalog returns the stock bar catalog.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(defaultDiameters)
	return c
}

// NewCatalog builds a catalog from a nominal to true diameter table. Every
// true diameter must be at least its nominal size.
func NewCatalog(table map[int]float64) (*Catalog, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: empty bar catalog", ErrConfiguration)
	}
	m := make(map[int]float64, len(table))
	for nominal, d := range table {
		if nominal <= 0 {
			return nil, fmt.Errorf("%w: bar size %d must be positive", ErrConfiguration, nominal)
		}
		if d < float64(nominal) {
			return nil, fmt.Errorf("%w: true diameter %.1f of %s is below nominal", ErrConfiguration, d, TypeName(nominal))
		}
		m[nominal] = d
	}
	return &Catalog{diameters: m}, nil
}

// TrueDiameter returns the true diameter in millimetres of a nominal size.
func (c *Catalog) TrueDiameter(nominal int) (float64, error) {
	d, ok := c.diameters[nominal]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownDiameter, TypeName(nominal))
	}
	return d, nil
}

// Sizes returns the nominal sizes in ascending order.
func (c *Catalog) Sizes() []int {
	sizes := make([]int, 0, len(c.diameters))
	for n := range c.diameters {
		sizes = append(sizes, n)
	}
	sort.Ints(sizes)
	return sizes
}

// TypeName is the bar type name for a nominal size, e.g. "Ø16".
func TypeName(nominal int) string {
	return fmt.Sprintf("Ø%d", nominal)
}
