// Package config loads trimbar settings from defaults, an optional YAML
// file and TRIMBAR_ environment variables, in increasing precedence.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/chazu/trimbar/pkg/logging"
	"github.com/chazu/trimbar/pkg/persist"
	"github.com/chazu/trimbar/pkg/rebar"
	"github.com/chazu/trimbar/pkg/reinforce"
)

// EnvPrefix marks the environment variables read by Load.
const EnvPrefix = "TRIMBAR_"

const maxConfigFileSize = 1024 * 1024 // 1MB

// Config is the complete tool configuration.
type Config struct {
	Bar      BarConfig      `koanf:"bar"`
	Bars     BarsConfig     `koanf:"bars"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Output   OutputConfig   `koanf:"output"`
	Log      logging.Config `koanf:"log"`
}

// BarConfig selects the bar placed around every opening.
type BarConfig struct {
	Nominal int `koanf:"nominal"` // mm
}

// BarsConfig overrides or extends the bar catalog.
type BarsConfig struct {
	TrueDiameters map[string]float64 `koanf:"true_diameters"` // nominal mm -> true mm
}

// PipelineConfig tunes the geometric constants.
type PipelineConfig struct {
	Tolerance        float64 `koanf:"tolerance"`         // model units
	ExtendMargin     float64 `koanf:"extend_margin"`     // metres
	RayLength        float64 `koanf:"ray_length"`        // metres
	PerimeterSamples int     `koanf:"perimeter_samples"` // per edge
	Workers          int     `koanf:"workers"`
}

// OutputConfig controls where bars are written.
type OutputConfig struct {
	Path   string `koanf:"path"`
	Format string `koanf:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Bar: BarConfig{Nominal: 12},
		Pipeline: PipelineConfig{
			Tolerance:        reinforce.DefaultTolerance,
			ExtendMargin:     reinforce.DefaultExtendMargin,
			RayLength:        reinforce.DefaultRayLength,
			PerimeterSamples: reinforce.DefaultPerimeterSamples,
			Workers:          1,
		},
		Output: OutputConfig{Path: "bars.json", Format: string(persist.FormatJSON)},
		Log:    logging.DefaultConfig(),
	}
}

// Load reads path (skipped when empty) and the environment on top of the
// defaults, then validates the result.
//
// Environment variables map onto keys by splitting at the first underscore
// after the prefix:
//
//	TRIMBAR_BAR_NOMINAL        -> bar.nominal
//	TRIMBAR_PIPELINE_TOLERANCE -> pipeline.tolerance
//	TRIMBAR_OUTPUT_FORMAT      -> output.format
func Load(path string) (*Config, error) {
	var content []byte
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file %s is larger than %d bytes", path, maxConfigFileSize)
		}
		if content, err = io.ReadAll(f); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return LoadBytes(content)
}

// LoadBytes is Load for YAML already in memory.
func LoadBytes(content []byte) (*Config, error) {
	k := koanf.New(".")

	if len(content) > 0 {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps TRIMBAR_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// Validate checks every value. Failures wrap rebar.ErrConfiguration.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", rebar.ErrConfiguration, fmt.Sprintf(format, args...))
	}
	cat, err := c.Catalog()
	if err != nil {
		return err
	}
	if _, err := cat.TrueDiameter(c.Bar.Nominal); err != nil {
		return err
	}
	p := c.Pipeline
	switch {
	case p.Tolerance <= 0:
		return fail("pipeline.tolerance must be positive, got %g", p.Tolerance)
	case p.ExtendMargin < 0:
		return fail("pipeline.extend_margin must not be negative, got %g", p.ExtendMargin)
	case p.RayLength <= 0:
		return fail("pipeline.ray_length must be positive, got %g", p.RayLength)
	case p.PerimeterSamples < 1:
		return fail("pipeline.perimeter_samples must be at least 1, got %d", p.PerimeterSamples)
	case p.Workers < 0:
		return fail("pipeline.workers must not be negative, got %d", p.Workers)
	}
	if _, err := persist.ParseFormat(c.Output.Format); err != nil {
		return fail("output.format: %v", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fail("%v", err)
	}
	return nil
}

// Catalog returns the default bar catalog with bars.true_diameters applied.
func (c *Config) Catalog() (*rebar.Catalog, error) {
	table := make(map[int]float64)
	def := rebar.DefaultCatalog()
	for _, n := range def.Sizes() {
		table[n], _ = def.TrueDiameter(n)
	}
	for key, d := range c.Bars.TrueDiameters {
		n, err := strconv.Atoi(strings.TrimPrefix(key, "Ø"))
		if err != nil {
			return nil, fmt.Errorf("%w: bars.true_diameters: bad bar size %q", rebar.ErrConfiguration, key)
		}
		table[n] = d
	}
	return rebar.NewCatalog(table)
}
