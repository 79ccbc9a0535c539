// Package schema downloads GraphQL schemas with the apollo CLI and inspects
// the files it writes
package schema

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/okra-platform/apolloctl/internal/runner"
)

// Defaults for download options
const (
	// DefaultFileName is the schema file name without extension
	DefaultFileName = "schema"

	// DefaultTimeout bounds a single apollo client:download-schema run
	DefaultTimeout = 30 * time.Second

	downloadCommand = "client:download-schema"
)

var (
	ErrEndpointRequired        = errors.New("schema endpoint is required")
	ErrOutputDirectoryRequired = errors.New("schema output directory is required")
	ErrUnknownFormat           = errors.New("unknown schema format")
)

// Format is the on-disk representation of a downloaded schema
type Format int

const (
	// FormatJSON is the introspection result as JSON
	FormatJSON Format = iota
	// FormatSDL is the schema definition language
	FormatSDL
)

// Extension returns the file extension the format is written with
func (f Format) Extension() string {
	if f == FormatSDL {
		return ".graphql"
	}
	return ".json"
}

func (f Format) String() string {
	if f == FormatSDL {
		return "sdl"
	}
	return "json"
}

// ParseFormat parses the names used in apolloctl.json
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "sdl", "graphql":
		return FormatSDL, nil
	default:
		return FormatJSON, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// DownloadOptions describes one client:download-schema run. It is immutable
// once constructed.
type DownloadOptions struct {
	endpoint        *url.URL
	outputDirectory string
	fileName        string
	format          Format
	apiKey          string
	headers         []string
	timeout         time.Duration
}

// DownloadOption configures optional download settings
type DownloadOption func(*DownloadOptions)

// WithFileName sets the schema file name without extension
func WithFileName(name string) DownloadOption {
	return func(o *DownloadOptions) {
		o.fileName = name
	}
}

// WithFormat sets the output format, which also decides the file extension
func WithFormat(format Format) DownloadOption {
	return func(o *DownloadOptions) {
		o.format = format
	}
}

// WithAPIKey sets the Apollo Studio API key
func WithAPIKey(key string) DownloadOption {
	return func(o *DownloadOptions) {
		o.apiKey = key
	}
}

// WithHeaders appends "Name: Value" headers, sent in the given order
func WithHeaders(headers ...string) DownloadOption {
	return func(o *DownloadOptions) {
		o.headers = append(o.headers, headers...)
	}
}

// WithTimeout bounds the apollo run
func WithTimeout(timeout time.Duration) DownloadOption {
	return func(o *DownloadOptions) {
		o.timeout = timeout
	}
}

// NewDownloadOptions creates download options for endpoint, writing into outputDirectory
func NewDownloadOptions(endpoint *url.URL, outputDirectory string, opts ...DownloadOption) (*DownloadOptions, error) {
	if endpoint == nil || endpoint.String() == "" {
		return nil, ErrEndpointRequired
	}
	if outputDirectory == "" {
		return nil, ErrOutputDirectoryRequired
	}

	o := &DownloadOptions{
		endpoint:        endpoint,
		outputDirectory: outputDirectory,
		fileName:        DefaultFileName,
		format:          FormatJSON,
		timeout:         DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.fileName == "" {
		o.fileName = DefaultFileName
	}

	return o, nil
}

func (o *DownloadOptions) Endpoint() *url.URL      { return o.endpoint }
func (o *DownloadOptions) OutputDirectory() string { return o.outputDirectory }
func (o *DownloadOptions) FileName() string        { return o.fileName }
func (o *DownloadOptions) Format() Format          { return o.format }
func (o *DownloadOptions) APIKey() string          { return o.apiKey }
func (o *DownloadOptions) Timeout() time.Duration  { return o.timeout }
func (o *DownloadOptions) Headers() []string       { return append([]string(nil), o.headers...) }

// OutputPath is where apollo writes the schema. The extension always follows the format.
func (o *DownloadOptions) OutputPath() string {
	return filepath.Join(o.outputDirectory, o.fileName+o.format.Extension())
}

// Arguments renders the apollo command line. The order is part of the
// contract with apollo's argument parser.
func (o *DownloadOptions) Arguments() []string {
	args := []string{
		downloadCommand,
		"--endpoint=" + o.endpoint.String(),
	}

	if o.apiKey != "" {
		args = append(args, "--key="+o.apiKey)
	}

	args = append(args, runner.Quote(o.OutputPath()))

	for _, header := range o.headers {
		args = append(args, "--header='"+header+"'")
	}

	return args
}
