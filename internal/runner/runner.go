// Package runner invokes the external apollo CLI and captures its output
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// waitDelay bounds how long Wait blocks on output pipes held open by
// grandchildren after the tool itself has been killed
const waitDelay = 500 * time.Millisecond

// executableCandidates are tried in order relative to the CLI directory
var executableCandidates = []string{
	filepath.Join("apollo", "bin", "run"),
	filepath.Join("node_modules", ".bin", "apollo"),
	"apollo",
}

// Runner runs the apollo CLI with the given arguments
type Runner interface {
	// Run executes the tool in workingDir and returns its combined output
	Run(ctx context.Context, args []string, workingDir string, timeout time.Duration) (string, error)
}

// CLI runs an apollo installation that lives under a fixed directory
type CLI struct {
	dir    string
	shell  string
	logger zerolog.Logger
}

// NewCLI creates a runner for the apollo installation under dir
func NewCLI(dir string, logger zerolog.Logger) *CLI {
	return &CLI{
		dir:    dir,
		shell:  "/bin/bash",
		logger: logger.With().Str("component", "apollo-cli").Logger(),
	}
}

// Run implements Runner using the CLI directory given at construction
func (c *CLI) Run(ctx context.Context, args []string, workingDir string, timeout time.Duration) (string, error) {
	return c.Execute(ctx, c.dir, args, workingDir, timeout)
}

// Execute resolves the apollo executable inside executableDir and runs it
// with args from workingDir. It blocks until the process exits or timeout
// elapses. A timeout of zero or less means no timeout.
func (c *CLI) Execute(ctx context.Context, executableDir string, args []string, workingDir string, timeout time.Duration) (string, error) {
	executable, err := ResolveExecutable(executableDir)
	if err != nil {
		return "", err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	line := "exec " + Quote(executable)
	for _, arg := range args {
		line += " " + shellWord(arg)
	}

	cmd := exec.CommandContext(ctx, c.shell, "-c", line)
	cmd.Dir = workingDir
	cmd.WaitDelay = waitDelay

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	c.logger.Debug().
		Str("executable", executable).
		Strs("args", args).
		Str("dir", workingDir).
		Dur("timeout", timeout).
		Msg("running apollo")

	start := time.Now()
	runErr := cmd.Run()
	out := output.String()

	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn().Dur("timeout", timeout).Msg("apollo timed out")
			return out, &TimeoutError{Output: out}
		}
		if ctx.Err() != nil {
			return out, fmt.Errorf("apollo run cancelled: %w", ctx.Err())
		}

		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			c.logger.Debug().
				Int("exit_code", exitErr.ExitCode()).
				Str("output", out).
				Msg("apollo failed")
			return out, &ExecutionError{ExitCode: exitErr.ExitCode(), Output: out}
		}
		return out, fmt.Errorf("failed to start apollo: %w", runErr)
	}

	c.logger.Info().
		Str("command", firstArg(args)).
		Dur("duration", time.Since(start)).
		Msg("apollo finished")

	return out, nil
}

// ResolveExecutable returns the first apollo executable found under dir
func ResolveExecutable(dir string) (string, error) {
	for _, candidate := range executableCandidates {
		path := filepath.Join(dir, candidate)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		return abs, nil
	}

	return "", fmt.Errorf("%w in %s (looked for %s)", ErrToolNotFound, dir, strings.Join(executableCandidates, ", "))
}

// quotedWord matches a token already quoted for the shell, either whole
// ('path') or as a flag value (--header='Name: Value')
var quotedWord = regexp.MustCompile(`^(--[A-Za-z][A-Za-z0-9-]*=)?'([^']|'\\'')*'$`)

// shellWord returns arg as exactly one shell word. Tokens the argument
// builders quoted pass through; everything else is quoted so spaces, &, ?, *
// and $ reach apollo literally.
func shellWord(arg string) string {
	if quotedWord.MatchString(arg) {
		return arg
	}
	return Quote(arg)
}

// Quote wraps s in single quotes for safe splicing into a shell command line
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
