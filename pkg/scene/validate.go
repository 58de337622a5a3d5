package scene

import (
	"errors"
	"fmt"

	"github.com/chazu/trimbar/pkg/geom"
	"github.com/chazu/trimbar/pkg/rebar"
)

// ValidationSeverity indicates whether a validation finding blocks a run
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks the run
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Subject  string             // host or opening name (empty if scene-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Subject, e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// Err joins the blocking findings, or returns nil when there are none.
func (r ValidationResult) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Validate runs the structural checks: a host exists, names are present and
// unique, the family is known and its covers resolve. It never mutates s.
func Validate(s *Scene) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateHost(s)...)
	errs = append(errs, validateNames(s)...)
	return errs
}

// ValidateAll runs the structural and the geometric checks and returns the
// findings split by severity.
func ValidateAll(s *Scene) ValidationResult {
	var result ValidationResult
	all := append(Validate(s), validateGeometry(s)...)
	for _, e := range all {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	return result
}

func validateHost(s *Scene) []ValidationError {
	h := s.Host
	if h == nil {
		return []ValidationError{{Message: "scene has no host", Severity: SeverityError}}
	}

	var errs []ValidationError
	fail := func(format string, args ...any) {
		errs = append(errs, ValidationError{
			Subject:  h.Name,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	if h.Name == "" {
		fail("host must have a name")
	}
	if h.Size.X <= 0 || h.Size.Y <= 0 || h.Size.Z <= 0 {
		fail("host size %v must be positive on every axis", h.Size)
	}
	fam, err := rebar.LookupFamily(h.Family)
	if err != nil {
		fail("%v", err)
		return errs
	}
	if _, err := fam.Covers(h.Covers); err != nil {
		fail("%v", err)
	}
	return errs
}

func validateNames(s *Scene) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(s.Openings))
	for i, o := range s.Openings {
		if o.Name == "" {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("opening %d must have a name", i),
				Severity: SeverityError,
			})
			continue
		}
		if seen[o.Name] {
			errs = append(errs, ValidationError{
				Subject:  o.Name,
				Message:  "duplicate opening name",
				Severity: SeverityError,
			})
		}
		seen[o.Name] = true
	}
	return errs
}

// validateGeometry checks each opening against the host box. Openings that
// do not pass through the host are kept (the pipeline reports them) but
// flagged; overlapping through-openings cannot be cut and are errors.
func validateGeometry(s *Scene) []ValidationError {
	var errs []ValidationError
	var through []Opening
	for _, o := range s.Openings {
		b := o.Box()
		if b.Empty() {
			errs = append(errs, ValidationError{
				Subject:  o.Name,
				Message:  fmt.Sprintf("opening min %v is not below max %v on every axis", o.Min, o.Max),
				Severity: SeverityError,
			})
			continue
		}
		if s.Host == nil {
			continue
		}
		hb := s.Host.Box()
		switch _, ok := b.ThroughAxis(hb, geom.Epsilon); {
		case ok:
			through = append(through, o)
		case !b.Overlaps(hb):
			errs = append(errs, ValidationError{
				Subject:  o.Name,
				Message:  "opening lies outside the host",
				Severity: SeverityWarning,
			})
		default:
			errs = append(errs, ValidationError{
				Subject:  o.Name,
				Message:  "opening does not pass through the host; it will not be cut",
				Severity: SeverityWarning,
			})
		}
	}

	for i := range through {
		for j := 0; j < i; j++ {
			if through[i].Box().Overlaps(through[j].Box()) {
				errs = append(errs, ValidationError{
					Subject:  through[i].Name,
					Message:  fmt.Sprintf("opening overlaps %s", through[j].Name),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}
