// Package commands contains the CLI commands for the application
package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/okra-platform/apolloctl/internal/config"
	"github.com/okra-platform/apolloctl/internal/runner"
)

type Flags struct {
	LogLevel   string
	ConfigPath string
}

// ConfigLoader finds the project configuration and its root directory
type ConfigLoader interface {
	LoadConfig() (*config.Config, string, error)
}

// RunnerFactory builds the process invoker for an apollo installation
type RunnerFactory interface {
	NewRunner(cliPath string, logger zerolog.Logger) runner.Runner
}

type SignalNotifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// Dependencies are the collaborators every command uses
type Dependencies struct {
	ConfigLoader   ConfigLoader
	Runners        RunnerFactory
	FS             afero.Fs
	SignalNotifier SignalNotifier
	Out            io.Writer
}

type Controller struct {
	Flags  *Flags
	deps   Dependencies
	logger zerolog.Logger

	// outMu serializes writes to deps.Out; watch prints from the signal
	// handler and the generation loop concurrently
	outMu sync.Mutex
}

// NewController creates a controller wired to the real filesystem and apollo
func NewController(flags *Flags, logger zerolog.Logger) *Controller {
	if flags == nil {
		flags = &Flags{}
	}
	return &Controller{
		Flags: flags,
		deps: Dependencies{
			ConfigLoader:   &defaultConfigLoader{path: flags.ConfigPath},
			Runners:        defaultRunnerFactory{},
			FS:             afero.NewOsFs(),
			SignalNotifier: defaultSignalNotifier{},
			Out:            os.Stdout,
		},
		logger: logger,
	}
}

// WithDependencies allows injecting custom dependencies for testing
func (c *Controller) WithDependencies(deps Dependencies) *Controller {
	c.deps = deps
	return c
}

func (c *Controller) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.deps.Out, format, args...)
}

func (c *Controller) loadConfig() (*config.Config, string, error) {
	cfg, root, err := c.deps.ConfigLoader.LoadConfig()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load project config: %w", err)
	}
	c.logger.Debug().Str("root", root).Msg("loaded project config")
	return cfg, root, nil
}

// Default implementations

type defaultConfigLoader struct {
	path string
}

func (l *defaultConfigLoader) LoadConfig() (*config.Config, string, error) {
	if l.path == "" {
		return config.LoadConfig()
	}

	path, err := filepath.Abs(l.path)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadConfigFromPath(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(path), nil
}

type defaultRunnerFactory struct{}

func (defaultRunnerFactory) NewRunner(cliPath string, logger zerolog.Logger) runner.Runner {
	return runner.NewCLI(cliPath, logger)
}

type defaultSignalNotifier struct{}

func (defaultSignalNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }

func (defaultSignalNotifier) Stop(c chan<- os.Signal) { signal.Stop(c) }
