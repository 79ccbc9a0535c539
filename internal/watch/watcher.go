// Package watch regenerates code whenever operation documents or the schema change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/okra-platform/apolloctl/internal/codegen"
)

// DefaultDebounce is how long the tree must be quiet before regenerating
const DefaultDebounce = 200 * time.Millisecond

// Generator is the part of codegen.Generator the watcher drives
type Generator interface {
	Generate(ctx context.Context, opts *codegen.Options) (*codegen.Result, error)
}

// Option configures a Watcher
type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithExclude replaces DefaultExclude
func WithExclude(patterns ...string) Option {
	return func(w *Watcher) { w.exclude = patterns }
}

// OnGenerate is called after every generation, successful or not
func OnGenerate(fn func(*codegen.Result, error)) Option {
	return func(w *Watcher) { w.onGenerate = fn }
}

// Watcher runs codegen once, then again after each burst of changes under root.
// Generations never overlap; changes arriving during one are folded into a
// single follow-up run.
type Watcher struct {
	generator  Generator
	opts       *codegen.Options
	root       string
	debounce   time.Duration
	exclude    []string
	onGenerate func(*codegen.Result, error)
	logger     zerolog.Logger

	changes chan struct{}
}

// New creates a watcher over root
func New(generator Generator, opts *codegen.Options, root string, logger zerolog.Logger, options ...Option) *Watcher {
	w := &Watcher{
		generator: generator,
		opts:      opts,
		root:      root,
		debounce:  DefaultDebounce,
		exclude:   DefaultExclude,
		logger:    logger.With().Str("component", "watch").Logger(),
		changes:   make(chan struct{}, 1),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// Run generates once and then watches until ctx is cancelled. A failing
// initial generation is returned; later failures are logged and reported
// through OnGenerate.
func (w *Watcher) Run(ctx context.Context) error {
	if _, err := w.generate(ctx); err != nil {
		return fmt.Errorf("initial generation failed: %w", err)
	}

	fw, err := NewFileWatcher(w.patterns(), w.excludes(), w.trigger, w.logger)
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.AddDirectory(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	if dir := filepath.Dir(w.opts.SchemaPath()); !within(w.root, dir) {
		if err := fw.AddDirectory(dir); err != nil {
			return fmt.Errorf("failed to watch schema directory %s: %w", dir, err)
		}
	}

	w.logger.Info().Str("root", w.root).Strs("patterns", w.patterns()).Msg("watching for changes")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return fw.Start(gctx) })
	g.Go(func() error { return w.loop(gctx) })

	err = g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// patterns selects operation documents and the schema file
func (w *Watcher) patterns() []string {
	patterns := PatternsFromIncludes(w.opts.Includes())
	return append(patterns, filepath.Base(w.opts.SchemaPath()))
}

// excludes keeps generated output from retriggering generation
func (w *Watcher) excludes() []string {
	exclude := append([]string(nil), w.exclude...)
	return append(exclude, filepath.Base(w.opts.Output().Path()))
}

func (w *Watcher) trigger(path string, op fsnotify.Op) {
	if op == fsnotify.Chmod {
		return
	}
	w.logger.Debug().Str("path", path).Str("op", op.String()).Msg("change detected")

	select {
	case w.changes <- struct{}{}:
	default:
		// A run is already pending
	}
}

func (w *Watcher) loop(ctx context.Context) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.changes:
			timer.Reset(w.debounce)
		case <-timer.C:
			if _, err := w.generate(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("generation failed")
			}
		}
	}
}

func (w *Watcher) generate(ctx context.Context) (*codegen.Result, error) {
	result, err := w.generator.Generate(ctx, w.opts)
	if w.onGenerate != nil {
		w.onGenerate(result, err)
	}
	if err == nil {
		w.logger.Info().Str("output", result.OutputPath).Dur("duration", result.Duration).Msg("generated")
	}
	return result, err
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
