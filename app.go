package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chazu/trimbar/pkg/config"
	"github.com/chazu/trimbar/pkg/engine"
	"github.com/chazu/trimbar/pkg/extract"
	"github.com/chazu/trimbar/pkg/kernel"
	"github.com/chazu/trimbar/pkg/kernel/sdfx"
	"github.com/chazu/trimbar/pkg/persist"
	"github.com/chazu/trimbar/pkg/rebar"
	"github.com/chazu/trimbar/pkg/reinforce"
	"github.com/chazu/trimbar/pkg/scene"
	"github.com/chazu/trimbar/pkg/units"
)

// colorPalette is a default palette used to assign distinct colors to meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// ErrInvalidScene is returned by the CLI when the scene source does not
// evaluate or validate.
var ErrInvalidScene = errors.New("invalid scene")

// App wires the engine, the kernel and the pipeline together.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	cfg    *config.Config
	log    *zap.Logger
}

// MeshData is the JSON-serializable preview mesh.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable evaluation or validation finding.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// RunOptions control one Run.
type RunOptions struct {
	// Nominal overrides the configured bar size when non-zero.
	Nominal int
	// Sink receives the bars. Nil is a dry run.
	Sink persist.Sink
	// Meshes requests preview meshes of the host and openings.
	Meshes bool
}

// RunResult is everything a run produced.
type RunResult struct {
	Scene    *scene.Scene
	Errors   []EvalErrorData
	Warnings []EvalErrorData
	Result   *reinforce.Result
	Bars     []persist.Bar
	Document *persist.Document // nil unless bars were committed
	Meshes   []MeshData
}

// NewApp creates an App on the sdfx kernel. A nil logger discards logs.
func NewApp(cfg *config.Config, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
		cfg:    cfg,
		log:    log,
	}
}

// Check evaluates and validates source without running the pipeline.
func (a *App) Check(source string) (RunResult, error) {
	var result RunResult
	res, err := a.engine.Check(source)
	if err != nil {
		return result, err
	}
	result.Scene = res.Scene
	for _, e := range res.Errors {
		result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
	}
	for _, w := range res.Warnings {
		msg := w.Message
		if w.Subject != "" {
			msg = w.Subject + ": " + msg
		}
		result.Warnings = append(result.Warnings, EvalErrorData{Message: msg})
	}
	return result, nil
}

// Run evaluates source, computes the bars of every opening and commits
// them to opts.Sink. Scene problems are reported in RunResult.Errors with a
// nil error; the error is reserved for configuration, kernel and I/O
// failures, which abort the run.
func (a *App) Run(ctx context.Context, source string, opts RunOptions) (RunResult, error) {
	// Step 1: Evaluate and validate the scene.
	result, err := a.Check(source)
	if err != nil {
		a.log.Error("evaluation failed", zap.Error(err))
		return result, err
	}
	for _, w := range result.Warnings {
		a.log.Warn("scene warning", zap.String("finding", w.Message))
	}
	if len(result.Errors) > 0 || result.Scene == nil || result.Scene.Host == nil {
		if len(result.Errors) == 0 {
			result.Errors = append(result.Errors, EvalErrorData{Message: "scene has no host"})
		}
		return result, nil
	}
	s := result.Scene

	// Step 2: Resolve the parameters in the scene's units.
	p, nominal, err := a.params(s, opts.Nominal)
	if err != nil {
		return result, err
	}

	// Step 3: Build the solids and extract their faces.
	g, err := extract.Extract(s, a.kernel, extract.Options{Meshes: opts.Meshes})
	if err != nil {
		return result, err
	}

	// Step 4: Run the pipeline.
	res, err := reinforce.Process(g.Host, g.Candidates, p,
		reinforce.WithLogger(a.log.With(zap.String("host", s.Host.Name))),
		reinforce.WithWorkers(a.cfg.Pipeline.Workers),
	)
	if err != nil {
		return result, err
	}
	result.Result = res
	result.Bars = persist.FromResult(res, rebar.TypeName(nominal))

	// Step 5: Commit the bars in one transaction.
	if opts.Sink != nil && len(result.Bars) > 0 {
		doc, err := persist.Commit(ctx, opts.Sink, s.Host.Name, s.Units.String(), result.Bars)
		if err != nil {
			return result, err
		}
		result.Document = &doc
		a.log.Info("bars committed",
			zap.String("run", doc.RunID.String()),
			zap.Int("bars", len(doc.Bars)),
		)
	}

	// Step 6: Convert kernel meshes to MeshData.
	for i, m := range g.Meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Name:     m.Name,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return result, nil
}

// params builds the pipeline parameters for s. Covers come from the host's
// family, the bar from the catalog; lengths are converted to s.Units.
func (a *App) params(s *scene.Scene, nominal int) (reinforce.Params, int, error) {
	if nominal == 0 {
		nominal = a.cfg.Bar.Nominal
	}
	fam, err := rebar.LookupFamily(s.Host.Family)
	if err != nil {
		return reinforce.Params{}, 0, err
	}
	covers, err := fam.Covers(s.Host.Covers)
	if err != nil {
		return reinforce.Params{}, 0, err
	}
	cat, err := a.cfg.Catalog()
	if err != nil {
		return reinforce.Params{}, 0, err
	}

	conv := units.Converter{Model: s.Units}
	p, err := reinforce.NewParams(cat, covers, nominal, conv)
	if err != nil {
		return reinforce.Params{}, 0, fmt.Errorf("bar %s: %w", rebar.TypeName(nominal), err)
	}
	pc := a.cfg.Pipeline
	p.Tolerance = pc.Tolerance
	p.ExtendMargin = conv.FromMeters(pc.ExtendMargin)
	p.RayLength = conv.FromMeters(pc.RayLength)
	p.PerimeterSamples = pc.PerimeterSamples
	return p, nominal, p.Validate()
}
