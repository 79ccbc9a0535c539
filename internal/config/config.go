package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/afero"

	"github.com/okra-platform/apolloctl/internal/codegen"
	"github.com/okra-platform/apolloctl/internal/schema"
)

const (
	// FileName is the project configuration file looked up from the working directory
	FileName = "apolloctl.json"

	// EnvPrefix prefixes environment overrides, e.g. APOLLOCTL_API_KEY
	EnvPrefix = "APOLLOCTL"

	OutputModeSingle   = "single"
	OutputModeMultiple = "multiple"
)

// Config represents the apolloctl.json configuration file
type Config struct {
	CLI     CLIConfig     `json:"cli"`
	Schema  SchemaConfig  `json:"schema"`
	Codegen CodegenConfig `json:"codegen"`
}

// overrides are read from APOLLOCTL_* variables and win over the file
type overrides struct {
	APIKey     string `envconfig:"API_KEY"`
	Endpoint   string `envconfig:"ENDPOINT"`
	CLIPath    string `envconfig:"CLI_PATH"`
	WorkingDir string `envconfig:"WORKING_DIR"`
	SchemaPath string `envconfig:"SCHEMA_PATH"`
}

// CLIConfig locates the apollo installation
type CLIConfig struct {
	// Path is the directory holding apollo/bin/run or node_modules/.bin/apollo
	Path string `json:"path"`

	// WorkingDirectory is where apollo runs and resolves relative paths
	WorkingDirectory string `json:"workingDirectory"`
}

// SchemaConfig contains client:download-schema settings
type SchemaConfig struct {
	Endpoint        string   `json:"endpoint"`
	APIKey          string   `json:"apiKey,omitempty"`
	Headers         []string `json:"headers,omitempty"`
	OutputDirectory string   `json:"outputDirectory"`
	FileName        string   `json:"fileName"`
	Format          string   `json:"format"`
	TimeoutSeconds  float64  `json:"timeoutSeconds"`
}

// CodegenConfig contains codegen:generate settings
type CodegenConfig struct {
	Engine                           string  `json:"engine"`
	Includes                         string  `json:"includes"`
	MergeInFieldsFromFragmentSpreads *bool   `json:"mergeInFieldsFromFragmentSpreads,omitempty"`
	Namespace                        string  `json:"namespace,omitempty"`
	OmitDeprecatedEnumCases          bool    `json:"omitDeprecatedEnumCases,omitempty"`
	Only                             string  `json:"only,omitempty"`
	OperationIDsPath                 string  `json:"operationIdsPath,omitempty"`
	Output                           string  `json:"output"`
	OutputMode                       string  `json:"outputMode"`
	PassthroughCustomScalars         bool    `json:"passthroughCustomScalars,omitempty"`
	SuppressMultilineStringLiterals  bool    `json:"suppressMultilineStringLiterals,omitempty"`
	SchemaPath                       string  `json:"schemaPath"`
	TimeoutSeconds                   float64 `json:"timeoutSeconds"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads apolloctl.json from the current directory or a parent directory
func LoadConfig() (*Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return Find(afero.NewOsFs(), dir)
}

// LoadConfigFromPath loads apolloctl.json from a specific path. Environment
// overrides are applied before defaults.
func LoadConfigFromPath(path string) (*Config, error) {
	return Read(afero.NewOsFs(), path)
}

// Read loads apolloctl.json from path on fs
func Read(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.applyEnvironment(); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Save writes the configuration as indented JSON
func (c *Config) Save(path string) error {
	return c.Write(afero.NewOsFs(), path)
}

// Write writes the configuration to path on fs
func (c *Config) Write(fs afero.Fs, path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := afero.WriteFile(fs, path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnvironment() error {
	var env overrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if env.APIKey != "" {
		c.Schema.APIKey = env.APIKey
	}
	if env.Endpoint != "" {
		c.Schema.Endpoint = env.Endpoint
	}
	if env.CLIPath != "" {
		c.CLI.Path = env.CLIPath
	}
	if env.WorkingDir != "" {
		c.CLI.WorkingDirectory = env.WorkingDir
	}
	if env.SchemaPath != "" {
		c.Codegen.SchemaPath = env.SchemaPath
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.CLI.Path == "" {
		c.CLI.Path = "."
	}
	if c.CLI.WorkingDirectory == "" {
		c.CLI.WorkingDirectory = "."
	}

	if c.Schema.OutputDirectory == "" {
		c.Schema.OutputDirectory = "."
	}
	if c.Schema.FileName == "" {
		c.Schema.FileName = schema.DefaultFileName
	}
	if c.Schema.Format == "" {
		c.Schema.Format = schema.FormatJSON.String()
	}
	if c.Schema.TimeoutSeconds == 0 {
		c.Schema.TimeoutSeconds = schema.DefaultTimeout.Seconds()
	}

	if c.Codegen.Engine == "" {
		c.Codegen.Engine = codegen.EngineTypescript.String()
	}
	if c.Codegen.Includes == "" {
		c.Codegen.Includes = codegen.DefaultIncludes
	}
	if c.Codegen.MergeInFieldsFromFragmentSpreads == nil {
		merge := true
		c.Codegen.MergeInFieldsFromFragmentSpreads = &merge
	}
	if c.Codegen.OutputMode == "" {
		c.Codegen.OutputMode = OutputModeSingle
	}
	if c.Codegen.Output == "" {
		if c.Codegen.OutputMode == OutputModeMultiple {
			c.Codegen.Output = "Generated"
		} else {
			c.Codegen.Output = "API.swift"
		}
	}
	if c.Codegen.SchemaPath == "" {
		// Generate from whatever download-schema writes
		format, err := schema.ParseFormat(c.Schema.Format)
		if err == nil {
			c.Codegen.SchemaPath = filepath.Join(c.Schema.OutputDirectory, c.Schema.FileName+format.Extension())
		}
	}
	if c.Codegen.TimeoutSeconds == 0 {
		c.Codegen.TimeoutSeconds = codegen.DefaultTimeout.Seconds()
	}
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Schema.Endpoint != "" {
		if _, err := url.ParseRequestURI(c.Schema.Endpoint); err != nil {
			result = multierror.Append(result, fmt.Errorf("schema.endpoint: %w", err))
		}
	}
	if _, err := schema.ParseFormat(c.Schema.Format); err != nil {
		result = multierror.Append(result, fmt.Errorf("schema.format: %w", err))
	}
	if c.Schema.TimeoutSeconds < 0 {
		result = multierror.Append(result, fmt.Errorf("schema.timeoutSeconds must not be negative"))
	}
	if _, err := codegen.ParseEngine(c.Codegen.Engine); err != nil {
		result = multierror.Append(result, fmt.Errorf("codegen.engine: %w", err))
	}
	switch c.Codegen.OutputMode {
	case "", OutputModeSingle, OutputModeMultiple:
	default:
		result = multierror.Append(result, fmt.Errorf("codegen.outputMode must be %q or %q, got %q",
			OutputModeSingle, OutputModeMultiple, c.Codegen.OutputMode))
	}
	if c.Codegen.TimeoutSeconds < 0 {
		result = multierror.Append(result, fmt.Errorf("codegen.timeoutSeconds must not be negative"))
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// CLIPath returns the apollo installation directory, resolved against projectRoot
func (c *Config) CLIPath(projectRoot string) string {
	return resolve(projectRoot, c.CLI.Path)
}

// WorkingDirectory returns where apollo runs, resolved against projectRoot
func (c *Config) WorkingDirectory(projectRoot string) string {
	return resolve(projectRoot, c.CLI.WorkingDirectory)
}

// DownloadOptions converts the schema section, resolving paths against projectRoot
func (c *Config) DownloadOptions(projectRoot string) (*schema.DownloadOptions, error) {
	if c.Schema.Endpoint == "" {
		return nil, schema.ErrEndpointRequired
	}
	endpoint, err := url.ParseRequestURI(c.Schema.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid schema endpoint: %w", err)
	}
	format, err := schema.ParseFormat(c.Schema.Format)
	if err != nil {
		return nil, err
	}

	return schema.NewDownloadOptions(endpoint, resolve(projectRoot, c.Schema.OutputDirectory),
		schema.WithFileName(c.Schema.FileName),
		schema.WithFormat(format),
		schema.WithAPIKey(c.Schema.APIKey),
		schema.WithHeaders(c.Schema.Headers...),
		schema.WithTimeout(seconds(c.Schema.TimeoutSeconds)),
	)
}

// CodegenOptions converts the codegen section, resolving paths against projectRoot
func (c *Config) CodegenOptions(projectRoot string) (*codegen.Options, error) {
	engine, err := codegen.ParseEngine(c.Codegen.Engine)
	if err != nil {
		return nil, err
	}

	output := codegen.SingleFile(resolve(projectRoot, c.Codegen.Output))
	if c.Codegen.OutputMode == OutputModeMultiple {
		output = codegen.MultipleFiles(resolve(projectRoot, c.Codegen.Output))
	}

	merge := true
	if c.Codegen.MergeInFieldsFromFragmentSpreads != nil {
		merge = *c.Codegen.MergeInFieldsFromFragmentSpreads
	}

	opts := []codegen.Option{
		codegen.WithEngine(engine),
		codegen.WithIncludes(c.Codegen.Includes),
		codegen.WithMergeInFieldsFromFragmentSpreads(merge),
		codegen.WithNamespace(c.Codegen.Namespace),
		codegen.WithOmitDeprecatedEnumCases(c.Codegen.OmitDeprecatedEnumCases),
		codegen.WithPassthroughCustomScalars(c.Codegen.PassthroughCustomScalars),
		codegen.WithSuppressMultilineStringLiterals(c.Codegen.SuppressMultilineStringLiterals),
		codegen.WithTimeout(seconds(c.Codegen.TimeoutSeconds)),
	}
	if c.Codegen.Only != "" {
		opts = append(opts, codegen.WithOnly(resolve(projectRoot, c.Codegen.Only)))
	}
	if c.Codegen.OperationIDsPath != "" {
		opts = append(opts, codegen.WithOperationIDsPath(resolve(projectRoot, c.Codegen.OperationIDsPath)))
	}

	var schemaPath string
	if c.Codegen.SchemaPath != "" {
		schemaPath = resolve(projectRoot, c.Codegen.SchemaPath)
	}

	return codegen.NewOptions(schemaPath, output, opts...)
}

// Find searches fs for apolloctl.json in startDir and its parents
func Find(fs afero.Fs, startDir string) (*Config, string, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, FileName)
		if exists, _ := afero.Exists(fs, configPath); exists {
			config, err := Read(fs, configPath)
			if err != nil {
				return nil, "", err
			}
			return config, dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return nil, "", fmt.Errorf("no %s found in %s or any parent directory", FileName, startDir)
}

func resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
