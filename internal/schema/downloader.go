package schema

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okra-platform/apolloctl/internal/runner"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// ErrSchemaNotWritten is returned when apollo exits cleanly without leaving a
// non-empty schema file behind
var ErrSchemaNotWritten = errors.New("apollo did not write a schema file")

// Result describes a completed download
type Result struct {
	// Path is the schema file apollo wrote
	Path string

	// Size of the schema file in bytes
	Size int64

	// Output is everything apollo printed while running
	Output string

	// Duration of the apollo run
	Duration time.Duration
}

// Downloader fetches schemas by running apollo client:download-schema
type Downloader struct {
	runner     runner.Runner
	fs         afero.Fs
	workingDir string
	logger     zerolog.Logger
}

// NewDownloader creates a downloader that runs apollo from workingDir
func NewDownloader(r runner.Runner, fs afero.Fs, workingDir string, logger zerolog.Logger) *Downloader {
	return &Downloader{
		runner:     r,
		fs:         fs,
		workingDir: workingDir,
		logger:     logger.With().Str("component", "schema-downloader").Logger(),
	}
}

// Download runs apollo and checks that it produced a non-empty schema file.
// A stale file at the output path is removed first so a failed run can never
// be mistaken for a successful one, and any partial file is removed on failure.
func (d *Downloader) Download(ctx context.Context, opts *DownloadOptions) (*Result, error) {
	path := d.resolve(opts.OutputPath())

	if err := d.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := d.remove(path); err != nil {
		return nil, fmt.Errorf("failed to remove stale schema %s: %w", path, err)
	}

	d.logger.Debug().
		Str("endpoint", opts.Endpoint().Redacted()).
		Str("path", path).
		Str("format", opts.Format().String()).
		Int("headers", len(opts.Headers())).
		Msg("downloading schema")

	start := time.Now()
	output, err := d.runner.Run(ctx, opts.Arguments(), d.workingDir, opts.Timeout())
	if err != nil {
		if rmErr := d.remove(path); rmErr != nil {
			d.logger.Warn().Err(rmErr).Str("path", path).Msg("failed to remove partial schema")
		}
		return nil, fmt.Errorf("failed to download schema: %w", err)
	}

	info, err := d.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSchemaNotWritten, path)
		}
		return nil, fmt.Errorf("failed to stat schema %s: %w", path, err)
	}
	if info.Size() == 0 {
		_ = d.remove(path)
		return nil, fmt.Errorf("%w: %s is empty", ErrSchemaNotWritten, path)
	}

	result := &Result{
		Path:     path,
		Size:     info.Size(),
		Output:   output,
		Duration: time.Since(start),
	}

	d.logger.Info().
		Str("path", path).
		Int64("size", result.Size).
		Dur("duration", result.Duration).
		Msg("schema downloaded")

	return result, nil
}

// resolve makes relative paths relative to the working directory, which is
// where apollo resolves them
func (d *Downloader) resolve(path string) string {
	if filepath.IsAbs(path) || d.workingDir == "" {
		return path
	}
	return filepath.Join(d.workingDir, path)
}

func (d *Downloader) remove(path string) error {
	exists, err := afero.Exists(d.fs, path)
	if err != nil || !exists {
		return err
	}
	return d.fs.Remove(path)
}
