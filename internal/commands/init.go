package commands

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/afero"

	"github.com/okra-platform/apolloctl/internal/codegen"
	"github.com/okra-platform/apolloctl/internal/config"
	"github.com/okra-platform/apolloctl/internal/schema"
)

type InitOptions struct {
	Endpoint string
	Format   string
	Engine   string
	Output   string
}

type InitCommand struct {
	dir        string
	filesystem afero.Fs
	out        io.Writer
	// For testing: if set, skip prompting
	testOptions *InitOptions
}

func NewInitCommand(dir string, fs afero.Fs, out io.Writer) *InitCommand {
	return &InitCommand{
		dir:        dir,
		filesystem: fs,
		out:        out,
	}
}

// Init writes a new apolloctl.json in the current directory
func (c *Controller) Init(ctx context.Context) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	return NewInitCommand(dir, c.deps.FS, c.deps.Out).Run(ctx)
}

func (ic *InitCommand) Run(ctx context.Context) error {
	return ic.RunWithOptions(ctx)
}

func (ic *InitCommand) RunWithOptions(ctx context.Context, opts ...tea.ProgramOption) error {
	path := filepath.Join(ic.dir, config.FileName)
	if exists, _ := afero.Exists(ic.filesystem, path); exists {
		return fmt.Errorf("%s already exists", path)
	}

	var options *InitOptions
	var err error

	// For testing: use provided options instead of prompting
	if ic.testOptions != nil {
		options = ic.testOptions
	} else {
		options, err = ic.promptInitOptions(opts...)
		if err != nil {
			return fmt.Errorf("failed to get init options: %w", err)
		}
	}

	cfg, err := buildConfig(options)
	if err != nil {
		return err
	}
	if err := cfg.Write(ic.filesystem, path); err != nil {
		return err
	}

	fmt.Fprintf(ic.out, "Created %s\n", path)
	fmt.Fprintf(ic.out, "Next: run `apolloctl download-schema`, then `apolloctl generate`\n")
	return nil
}

func buildConfig(options *InitOptions) (*config.Config, error) {
	if err := validateEndpoint(options.Endpoint); err != nil {
		return nil, err
	}
	format, err := schema.ParseFormat(options.Format)
	if err != nil {
		return nil, err
	}
	engine, err := codegen.ParseEngine(options.Engine)
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	cfg.Schema.Endpoint = options.Endpoint
	cfg.Schema.Format = format.String()
	cfg.Codegen.Engine = engine.String()
	cfg.Codegen.SchemaPath = filepath.Join(cfg.Schema.OutputDirectory, cfg.Schema.FileName+format.Extension())
	if options.Output != "" {
		cfg.Codegen.Output = options.Output
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateEndpoint(s string) error {
	if s == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must be an http or https URL")
	}
	return nil
}

func (ic *InitCommand) promptInitOptions(opts ...tea.ProgramOption) (*InitOptions, error) {
	options := &InitOptions{Output: "API.swift"}

	form := ic.createInitForm(options)

	if len(opts) > 0 {
		// For testing: run with provided options
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return nil, err
		}
	} else {
		if err := form.Run(); err != nil {
			return nil, err
		}
	}

	return options, nil
}

func (ic *InitCommand) createInitForm(options *InitOptions) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("GraphQL endpoint").
				Description("URL apollo downloads the schema from").
				Value(&options.Endpoint).
				Validate(validateEndpoint),

			huh.NewSelect[string]().
				Title("Schema format").
				Options(
					huh.NewOption("Introspection JSON", "json"),
					huh.NewOption("SDL", "sdl"),
				).
				Value(&options.Format),

			huh.NewSelect[string]().
				Title("Code generator").
				Options(
					huh.NewOption("Swift", "typescript"),
					huh.NewOption("Experimental JSON", "experimental"),
				).
				Value(&options.Engine),

			huh.NewInput().
				Title("Output").
				Description("Generated file, relative to this directory").
				Value(&options.Output),
		),
	)
}
