package codegen

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/okra-platform/apolloctl/internal/ast"
	"github.com/okra-platform/apolloctl/internal/runner"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// ErrOutputNotWritten is returned when apollo exits cleanly without producing its output
var ErrOutputNotWritten = errors.New("apollo did not write codegen output")

// Result describes a completed codegen run
type Result struct {
	// OutputPath is the file or directory apollo wrote
	OutputPath string

	// Output is everything apollo printed while running
	Output string

	// Document is the decoded operation IR. Only set for the experimental
	// engine writing a single file.
	Document *ast.Document

	Duration time.Duration
}

// Generator runs apollo codegen:generate
type Generator struct {
	runner     runner.Runner
	fs         afero.Fs
	workingDir string
	logger     zerolog.Logger
}

// NewGenerator creates a generator that runs apollo from workingDir
func NewGenerator(r runner.Runner, fs afero.Fs, workingDir string, logger zerolog.Logger) *Generator {
	return &Generator{
		runner:     r,
		fs:         fs,
		workingDir: workingDir,
		logger:     logger.With().Str("component", "codegen").Logger(),
	}
}

// Generate runs apollo with opts and checks its output exists
func (g *Generator) Generate(ctx context.Context, opts *Options) (*Result, error) {
	output := opts.Output()

	if !output.IsSingleFile() {
		if err := g.fs.MkdirAll(g.resolve(output.Path()), 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	g.logger.Debug().
		Str("engine", opts.Engine().String()).
		Str("includes", opts.Includes()).
		Str("schema", opts.SchemaPath()).
		Str("output", output.String()).
		Msg("generating code")

	// The previous single-file output is set aside so a run that exits
	// cleanly without rewriting it is detected, and restored if the run fails.
	var previous *previousOutput
	if output.IsSingleFile() {
		var err error
		if previous, err = g.setAside(g.resolve(output.Path())); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	out, err := g.runner.Run(ctx, opts.Arguments(), g.workingDir, opts.Timeout())
	if err != nil {
		g.restore(previous)
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	result := &Result{
		OutputPath: output.Path(),
		Output:     out,
		Duration:   time.Since(start),
	}

	if output.IsSingleFile() {
		path := g.resolve(output.Path())
		data, err := afero.ReadFile(g.fs, path)
		if err != nil || len(data) == 0 {
			g.restore(previous)
			return nil, fmt.Errorf("%w: %s", ErrOutputNotWritten, output.Path())
		}
		g.discard(previous)

		if opts.Engine() == EngineExperimental {
			doc, err := ast.ParseDocument(data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", output.Path(), err)
			}
			result.Document = doc
		}
	}

	logEvent := g.logger.Info().
		Str("output", output.Path()).
		Dur("duration", result.Duration)
	if result.Document != nil {
		logEvent = logEvent.
			Int("operations", len(result.Document.Operations())).
			Int("fragments", len(result.Document.Fragments()))
	}
	logEvent.Msg("code generated")

	return result, nil
}

// resolve makes relative output paths relative to the working directory,
// which is where apollo resolves them
func (g *Generator) resolve(path string) string {
	if filepath.IsAbs(path) || g.workingDir == "" {
		return path
	}
	return filepath.Join(g.workingDir, path)
}

// previousOutput is an earlier output file moved aside for the length of a run
type previousOutput struct {
	path   string
	backup string
}

func (g *Generator) setAside(path string) (*previousOutput, error) {
	exists, err := afero.Exists(g.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to check previous output %s: %w", path, err)
	}
	if !exists {
		return nil, nil
	}

	p := &previousOutput{path: path, backup: path + ".previous"}
	if err := g.fs.Rename(p.path, p.backup); err != nil {
		return nil, fmt.Errorf("failed to set aside previous output %s: %w", path, err)
	}
	return p, nil
}

// restore puts the previous output back, replacing anything partial
func (g *Generator) restore(p *previousOutput) {
	if p == nil {
		return
	}
	if exists, _ := afero.Exists(g.fs, p.path); exists {
		_ = g.fs.Remove(p.path)
	}
	if err := g.fs.Rename(p.backup, p.path); err != nil {
		g.logger.Warn().Err(err).Str("path", p.path).Msg("failed to restore previous output")
	}
}

func (g *Generator) discard(p *previousOutput) {
	if p == nil {
		return
	}
	if err := g.fs.Remove(p.backup); err != nil {
		g.logger.Warn().Err(err).Str("path", p.backup).Msg("failed to remove previous output")
	}
}
