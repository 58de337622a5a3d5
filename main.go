// Package main implements the trimbar CLI, which lays reinforcement bars
// around the rectangular openings of a wall or beam described in a small
// Lisp scene language.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/trimbar/pkg/config"
	"github.com/chazu/trimbar/pkg/logging"
	"github.com/chazu/trimbar/pkg/persist"
	"github.com/chazu/trimbar/pkg/rebar"
)

var (
	// configPath is the optional YAML config file
	configPath string
	// version information
	version = "dev"

	barSize  int
	outPath  string
	format   string
	dryRun   bool
	meshPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "trimbar",
	Short: "Reinforcement bars around openings",
	Long: `trimbar computes the trimming bars around rectangular openings in a wall
or beam. The host and its openings are described in a small Lisp scene
language; the bars are written as one JSON or YAML document.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")

	runCmd.Flags().IntVar(&barSize, "bar", 0, "nominal bar size in mm (default from config)")
	runCmd.Flags().StringVar(&outPath, "out", "", "output file (default from config)")
	runCmd.Flags().StringVar(&format, "format", "", "output format: json or yaml (default from config)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute bars without writing them")
	runCmd.Flags().StringVar(&meshPath, "mesh", "", "also write preview meshes as JSON to this file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(barsCmd)
}

// runCmd runs the full pipeline on a scene file
var runCmd = &cobra.Command{
	Use:   "run <scene>",
	Short: "Compute and store the bars of a scene",
	Long: `Evaluate a scene, compute the bars around every opening and store them
in one transaction.

Examples:
  # Write bars.json next to the scene
  trimbar run examples/wall.lisp

  # Use 16 mm bars and YAML output
  trimbar run --bar 16 --format yaml --out wall.yaml examples/wall.lisp

  # Only report what would be placed
  trimbar run --dry-run examples/wall.lisp`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

// checkCmd evaluates and validates a scene file
var checkCmd = &cobra.Command{
	Use:   "check <scene>",
	Short: "Evaluate and validate a scene without computing bars",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

// barsCmd lists the bar catalog
var barsCmd = &cobra.Command{
	Use:   "bars",
	Short: "List the bar sizes of the catalog",
	Args:  cobra.NoArgs,
	RunE:  runBars,
}

// setup loads the config and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log, nil)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read scene %s: %w", args[0], err)
	}

	opts := RunOptions{Nominal: barSize, Meshes: meshPath != ""}
	if !dryRun {
		sink, err := fileSink(cfg)
		if err != nil {
			return err
		}
		opts.Sink = sink
	}

	app := NewApp(cfg, log)
	result, err := app.Run(cmd.Context(), string(source), opts)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), result)
	if len(result.Errors) > 0 {
		return ErrInvalidScene
	}

	if meshPath != "" {
		if err := writeMeshes(meshPath, result.Meshes); err != nil {
			return err
		}
	}
	return nil
}

func fileSink(cfg *config.Config) (*persist.FileSink, error) {
	path := cfg.Output.Path
	if outPath != "" {
		path = outPath
	}
	f := cfg.Output.Format
	if format != "" {
		f = format
	}
	pf, err := persist.ParseFormat(f)
	if err != nil {
		return nil, err
	}
	return &persist.FileSink{Path: path, Format: pf}, nil
}

func writeMeshes(path string, meshes []MeshData) error {
	data, err := json.Marshal(meshes)
	if err != nil {
		return fmt.Errorf("failed to marshal meshes: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write meshes: %w", err)
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read scene %s: %w", args[0], err)
	}
	result, err := NewApp(cfg, log).Check(string(source))
	if err != nil {
		return err
	}
	printFindings(cmd.OutOrStdout(), result)
	if len(result.Errors) > 0 {
		return ErrInvalidScene
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d openings\n", args[0], len(result.Scene.Openings))
	return nil
}

func runBars(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, n := range cat.Sizes() {
		d, _ := cat.TrueDiameter(n)
		marker := ""
		if n == cfg.Bar.Nominal {
			marker = " (default)"
		}
		fmt.Fprintf(out, "%-5s %5.1f mm%s\n", rebar.TypeName(n), d, marker)
	}
	return nil
}

func printFindings(w io.Writer, result RunResult) {
	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "error: line %d: %s\n", e.Line, e.Message)
		} else {
			fmt.Fprintf(w, "error: %s\n", e.Message)
		}
	}
	for _, wn := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", wn.Message)
	}
}

// printSummary reports each opening and the processed/errored counts.
func printSummary(w io.Writer, result RunResult) {
	printFindings(w, result)
	res := result.Result
	if res == nil {
		return
	}
	for _, op := range res.Openings {
		switch {
		case op.Incomplete():
			fmt.Fprintf(w, "%-12s incomplete: %v\n", op.ID, op.Err)
		case op.Failed():
			fmt.Fprintf(w, "%-12s error: %v\n", op.ID, op.Err)
		default:
			fmt.Fprintf(w, "%-12s %d bars\n", op.ID, op.Lines())
		}
	}
	fmt.Fprintf(w, "processed %d, errored %d, %d bars", res.Processed, res.Errored, len(result.Bars))
	if result.Document != nil {
		fmt.Fprintf(w, " (run %s)", result.Document.RunID)
	}
	fmt.Fprintln(w)
}
