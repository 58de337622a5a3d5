package rebar

import (
	"fmt"
	"sort"
	"strings"
)

// Covers are the three clear cover distances of a host. Primary and
// Secondary are the two main faces (exterior/interior for a wall,
// bottom/top for a beam); Other applies to every remaining face.
type Covers struct {
	Primary   float64 `json:"primary" yaml:"primary"`
	Secondary float64 `json:"secondary" yaml:"secondary"`
	Other     float64 `json:"other" yaml:"other"`
}

// Scale returns the covers multiplied by f, used for unit conversion.
func (c Covers) Scale(f float64) Covers {
	return Covers{Primary: c.Primary * f, Secondary: c.Secondary * f, Other: c.Other * f}
}

// Family names the cover roles of a host family.
type Family struct {
	Name      string
	Primary   string
	Secondary string
	Other     string
}

var families = map[string]Family{
	"Basic Wall": {
		Name:      "Basic Wall",
		Primary:   "exterior",
		Secondary: "interior",
		Other:     "other",
	},
	"Concrete-Rectangular-Beam": {
		Name:      "Concrete-Rectangular-Beam",
		Primary:   "bottom",
		Secondary: "top",
		Other:     "other",
	},
}

// LookupFamily returns the cover roles of a host family.
func LookupFamily(name string) (Family, error) {
	f, ok := families[name]
	if !ok {
		return Family{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownFamily, name, strings.Join(FamilyNames(), ", "))
	}
	return f, nil
}

// FamilyNames lists the supported host families in sorted order.
func FamilyNames() []string {
	names := make([]string, 0, len(families))
	for n := range families {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Covers resolves a role-name keyed map (e.g. {"exterior": 40, ...}) into
// Covers. Every role of the family must be present and non-negative.
func (f Family) Covers(values map[string]float64) (Covers, error) {
	get := func(role string) (float64, error) {
		v, ok := values[role]
		if !ok {
			return 0, fmt.Errorf("%w: %s cover %q missing", ErrConfiguration, f.Name, role)
		}
		if v < 0 {
			return 0, fmt.Errorf("%w: %s cover %q is negative", ErrConfiguration, f.Name, role)
		}
		return v, nil
	}

	var c Covers
	var err error
	if c.Primary, err = get(f.Primary); err != nil {
		return Covers{}, err
	}
	if c.Secondary, err = get(f.Secondary); err != nil {
		return Covers{}, err
	}
	if c.Other, err = get(f.Other); err != nil {
		return Covers{}, err
	}
	for role := range values {
		if role != f.Primary && role != f.Secondary && role != f.Other {
			return Covers{}, fmt.Errorf("%w: %s has no cover role %q", ErrConfiguration, f.Name, role)
		}
	}
	return c, nil
}
