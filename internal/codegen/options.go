// Package codegen renders apollo codegen:generate command lines and runs them
package codegen

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultIncludes matches every .graphql file below the working directory
	DefaultIncludes = "./**/*.graphql"

	// DefaultTimeout bounds a single apollo codegen:generate run
	DefaultTimeout = 30 * time.Second

	generateCommand = "codegen:generate"
)

var (
	ErrSchemaPathRequired = errors.New("codegen schema path is required")
	ErrOutputRequired     = errors.New("codegen output is required")
	ErrUnknownEngine      = errors.New("unknown codegen engine")
)

// Engine selects which apollo code generator runs
type Engine int

const (
	// EngineTypescript is apollo's TypeScript-based Swift generator
	EngineTypescript Engine = iota
	// EngineExperimental emits the operation IR as JSON for downstream generators
	EngineExperimental
)

// Target is the value passed to --target
func (e Engine) Target() string {
	if e == EngineExperimental {
		return "json"
	}
	return "swift"
}

func (e Engine) String() string {
	if e == EngineExperimental {
		return "experimental"
	}
	return "typescript"
}

// ParseEngine parses the names used in apolloctl.json
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "typescript", "swift":
		return EngineTypescript, nil
	case "experimental", "json":
		return EngineExperimental, nil
	default:
		return EngineTypescript, fmt.Errorf("%w: %q", ErrUnknownEngine, s)
	}
}

// OutputFormat is either a single output file or a directory of files. The
// zero value is neither and is rejected by NewOptions.
type OutputFormat struct {
	path   string
	single bool
}

// SingleFile writes all generated code to one file
func SingleFile(path string) OutputFormat {
	return OutputFormat{path: path, single: true}
}

// MultipleFiles writes one file per operation and fragment into dir
func MultipleFiles(dir string) OutputFormat {
	return OutputFormat{path: dir}
}

// Path is the file or directory apollo writes to
func (o OutputFormat) Path() string { return o.path }

func (o OutputFormat) IsSingleFile() bool { return o.single }

func (o OutputFormat) IsZero() bool { return o.path == "" }

func (o OutputFormat) String() string {
	if o.single {
		return "single file " + o.path
	}
	return "multiple files in " + o.path
}

// Options describes one codegen:generate run. It is immutable once constructed.
type Options struct {
	engine                           Engine
	includes                         string
	mergeInFieldsFromFragmentSpreads bool
	namespace                        string
	omitDeprecatedEnumCases          bool
	only                             string
	operationIDsPath                 string
	output                           OutputFormat
	passthroughCustomScalars         bool
	suppressMultilineStringLiterals  bool
	schemaPath                       string
	timeout                          time.Duration
}

// Option configures optional codegen settings
type Option func(*Options)

func WithEngine(engine Engine) Option {
	return func(o *Options) { o.engine = engine }
}

// WithIncludes sets the glob of operation files apollo reads
func WithIncludes(glob string) Option {
	return func(o *Options) { o.includes = glob }
}

// WithMergeInFieldsFromFragmentSpreads controls whether fragment fields are
// merged into the parent selection. Enabled by default.
func WithMergeInFieldsFromFragmentSpreads(merge bool) Option {
	return func(o *Options) { o.mergeInFieldsFromFragmentSpreads = merge }
}

// WithNamespace wraps generated types in an enum namespace
func WithNamespace(namespace string) Option {
	return func(o *Options) { o.namespace = namespace }
}

func WithOmitDeprecatedEnumCases(omit bool) Option {
	return func(o *Options) { o.omitDeprecatedEnumCases = omit }
}

// WithOnly restricts generation to operations in a single file
func WithOnly(path string) Option {
	return func(o *Options) { o.only = path }
}

// WithOperationIDsPath writes a JSON map of operation IDs for persisted queries
func WithOperationIDsPath(path string) Option {
	return func(o *Options) { o.operationIDsPath = path }
}

func WithPassthroughCustomScalars(passthrough bool) Option {
	return func(o *Options) { o.passthroughCustomScalars = passthrough }
}

func WithSuppressMultilineStringLiterals(suppress bool) Option {
	return func(o *Options) { o.suppressMultilineStringLiterals = suppress }
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) { o.timeout = timeout }
}

// NewOptions creates codegen options for the schema at schemaPath
func NewOptions(schemaPath string, output OutputFormat, opts ...Option) (*Options, error) {
	if schemaPath == "" {
		return nil, ErrSchemaPathRequired
	}
	if output.IsZero() {
		return nil, ErrOutputRequired
	}

	o := &Options{
		engine:                           EngineTypescript,
		includes:                         DefaultIncludes,
		mergeInFieldsFromFragmentSpreads: true,
		output:                           output,
		schemaPath:                       schemaPath,
		timeout:                          DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.includes == "" {
		o.includes = DefaultIncludes
	}

	return o, nil
}

func (o *Options) Engine() Engine           { return o.engine }
func (o *Options) Includes() string         { return o.includes }
func (o *Options) Namespace() string        { return o.namespace }
func (o *Options) Only() string             { return o.only }
func (o *Options) OperationIDsPath() string { return o.operationIDsPath }
func (o *Options) Output() OutputFormat     { return o.output }
func (o *Options) SchemaPath() string       { return o.schemaPath }
func (o *Options) Timeout() time.Duration   { return o.timeout }
func (o *Options) MergeInFieldsFromFragmentSpreads() bool {
	return o.mergeInFieldsFromFragmentSpreads
}
func (o *Options) OmitDeprecatedEnumCases() bool  { return o.omitDeprecatedEnumCases }
func (o *Options) PassthroughCustomScalars() bool { return o.passthroughCustomScalars }
func (o *Options) SuppressMultilineStringLiterals() bool {
	return o.suppressMultilineStringLiterals
}

// Arguments renders the apollo command line. The order is part of the
// contract with apollo's argument parser. Boolean flags are present exactly
// when their option is true, whatever the option's default.
func (o *Options) Arguments() []string {
	args := []string{
		generateCommand,
		"--target=" + o.engine.Target(),
		"--addTypename",
		"--includes=" + o.includes,
		"--localSchemaFile=" + o.schemaPath,
	}

	if o.namespace != "" {
		args = append(args, "--namespace="+o.namespace)
	}
	if o.only != "" {
		args = append(args, "--only="+o.only)
	}
	if o.operationIDsPath != "" {
		args = append(args, "--operationIdsPath="+o.operationIDsPath)
	}
	if o.omitDeprecatedEnumCases {
		args = append(args, "--omitDeprecatedEnumCases")
	}
	if o.passthroughCustomScalars {
		args = append(args, "--passthroughCustomScalars")
	}
	if o.mergeInFieldsFromFragmentSpreads {
		args = append(args, "--mergeInFieldsFromFragmentSpreads")
	}
	if o.suppressMultilineStringLiterals {
		args = append(args, "--suppressSwiftMultilineStringLiterals")
	}

	return append(args, o.output.Path())
}
