package engine

import (
	"fmt"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/trimbar/pkg/geom"
	"github.com/chazu/trimbar/pkg/scene"
	"github.com/chazu/trimbar/pkg/units"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a geom.Vec.
type sexpVec3 struct {
	vec geom.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpCovers carries concrete covers in millimetres, keyed by family role,
// from `covers` to `host`.
type sexpCovers struct {
	values map[string]float64
}

func (c *sexpCovers) SexpString(ps *zygo.PrintState) string {
	var b strings.Builder
	b.WriteString("(covers")
	for _, k := range sortedKeys(c.values) {
		fmt.Fprintf(&b, " :%s %g", k, c.values[k])
	}
	b.WriteString(")")
	return b.String()
}
func (c *sexpCovers) Type() *zygo.RegisteredType { return nil }

// sexpRef names a host or opening already added to the scene.
type sexpRef struct {
	kind string // "host" or "opening"
	name string
}

func (r *sexpRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", r.kind, r.name)
}
func (r *sexpRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_mm) and plain strings ("mm").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec3 extracts a geom.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (geom.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toCovers extracts the cover table from a sexpCovers.
func toCovers(s zygo.Sexp) (map[string]float64, error) {
	if c, ok := s.(*sexpCovers); ok {
		out := make(map[string]float64, len(c.values))
		for k, v := range c.values {
			out[k] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected covers, got %T (%s)", s, s.SexpString(nil))
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene DSL into a zygomys environment. The
// builtins populate s during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *scene.Scene) {

	// -----------------------------------------------------------------------
	// (units :mm)
	// -----------------------------------------------------------------------
	env.AddFunction("units", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("units requires exactly 1 argument, got %d", len(args))
		}
		if s.Host != nil || len(s.Openings) > 0 {
			return zygo.SexpNull, fmt.Errorf("units must come before host and openings")
		}
		u, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("units: %w", err)
		}
		unit, err := units.Parse(u)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("units: %w", err)
		}
		s.Units = unit
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: geom.V(x, y, z)}, nil
	})

	// -----------------------------------------------------------------------
	// (covers :exterior 40 :interior 25 :other 40)
	// -----------------------------------------------------------------------
	env.AddFunction("covers", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("covers takes only keyword arguments")
		}
		values := make(map[string]float64, len(pa.kw))
		for role, v := range pa.kw {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("covers: %s: %w", role, err)
			}
			values[role] = f
		}
		return &sexpCovers{values: values}, nil
	})

	// -----------------------------------------------------------------------
	// (host "W1" :family "Basic Wall" :size (vec3 4 0.3 3)
	//       :at (vec3 0 0 0) :rotate 90 :covers (covers ...))
	// -----------------------------------------------------------------------
	env.AddFunction("host", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("host requires a name argument")
		}
		if s.Host != nil {
			return zygo.SexpNull, fmt.Errorf("host: scene already has host %q", s.Host.Name)
		}

		hostName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("host: name: %w", err)
		}
		h := &scene.Host{Name: hostName}

		if v, ok := pa.kw["family"]; ok {
			f, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("host: family: %w", err)
			}
			h.Family = f
		}
		v, ok := pa.kw["size"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("host: :size is required")
		}
		if h.Size, err = toVec3(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("host: size: %w", err)
		}
		if v, ok := pa.kw["at"]; ok {
			if h.Origin, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("host: at: %w", err)
			}
		}
		if v, ok := pa.kw["rotate"]; ok {
			if h.Rotation, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("host: rotate: %w", err)
			}
		}
		if v, ok := pa.kw["covers"]; ok {
			if h.Covers, err = toCovers(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("host: covers: %w", err)
			}
		}

		s.Host = h
		return &sexpRef{kind: "host", name: hostName}, nil
	})

	// -----------------------------------------------------------------------
	// (opening "O1" :min (vec3 1.5 0 1) :max (vec3 2.5 0.3 2))
	// (opening "O2" :center (vec3 3 0.15 1) :size (vec3 0.6 0.3 0.6))
	// -----------------------------------------------------------------------
	env.AddFunction("opening", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("opening requires a name argument")
		}
		openingName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("opening: name: %w", err)
		}
		if _, dup := s.Opening(openingName); dup {
			return zygo.SexpNull, fmt.Errorf("opening: duplicate name %q", openingName)
		}

		b, err := openingBox(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("opening %s: %w", openingName, err)
		}
		s.AddOpening(scene.Opening{Name: openingName, Min: b.Min, Max: b.Max})
		return &sexpRef{kind: "opening", name: openingName}, nil
	})

	// -----------------------------------------------------------------------
	// (opening-row "W" :count 3 :min (vec3 0.5 0 1) :size (vec3 1 0.3 1.2)
	//              :step (vec3 1.5 0 0))
	//
	// Adds W1, W2, W3. Registered as "opening_row"; the preprocessor converts
	// opening-row to opening_row in the source.
	// -----------------------------------------------------------------------
	env.AddFunction("opening_row", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("opening-row requires a name prefix")
		}
		prefix, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("opening-row: prefix: %w", err)
		}

		var count float64
		var min, size, step geom.Vec
		for _, req := range []struct {
			key string
			set func(zygo.Sexp) error
		}{
			{"count", func(v zygo.Sexp) (err error) { count, err = toFloat64(v); return }},
			{"min", func(v zygo.Sexp) (err error) { min, err = toVec3(v); return }},
			{"size", func(v zygo.Sexp) (err error) { size, err = toVec3(v); return }},
			{"step", func(v zygo.Sexp) (err error) { step, err = toVec3(v); return }},
		} {
			v, ok := pa.kw[req.key]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("opening-row: :%s is required", req.key)
			}
			if err := req.set(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("opening-row: %s: %w", req.key, err)
			}
		}
		n := int(count)
		if float64(n) != count || n < 1 {
			return zygo.SexpNull, fmt.Errorf("opening-row: count must be a positive integer, got %g", count)
		}

		for i := 0; i < n; i++ {
			name := fmt.Sprintf("%s%d", prefix, i+1)
			if _, dup := s.Opening(name); dup {
				return zygo.SexpNull, fmt.Errorf("opening-row: duplicate name %q", name)
			}
			lo := min.Add(step.MulScalar(float64(i)))
			s.AddOpening(scene.Opening{Name: name, Min: lo, Max: lo.Add(size)})
		}
		return &zygo.SexpInt{Val: int64(n)}, nil
	})
}

// openingBox reads either :min/:max or :center/:size. Mixing the two forms
// is an error.
func openingBox(pa kwArgs) (geom.Box, error) {
	_, hasMin := pa.kw["min"]
	_, hasMax := pa.kw["max"]
	_, hasCenter := pa.kw["center"]
	_, hasSize := pa.kw["size"]

	switch {
	case hasMin && hasMax && !hasCenter && !hasSize:
		min, err := toVec3(pa.kw["min"])
		if err != nil {
			return geom.Box{}, fmt.Errorf("min: %w", err)
		}
		max, err := toVec3(pa.kw["max"])
		if err != nil {
			return geom.Box{}, fmt.Errorf("max: %w", err)
		}
		return geom.Box{Min: min, Max: max}, nil
	case hasCenter && hasSize && !hasMin && !hasMax:
		c, err := toVec3(pa.kw["center"])
		if err != nil {
			return geom.Box{}, fmt.Errorf("center: %w", err)
		}
		size, err := toVec3(pa.kw["size"])
		if err != nil {
			return geom.Box{}, fmt.Errorf("size: %w", err)
		}
		return geom.BoxCentered(c, size), nil
	}
	return geom.Box{}, fmt.Errorf("expected either :min and :max or :center and :size")
}
