package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test plan for CLI:
// 1. ResolveExecutable finds each supported layout and fails with ErrToolNotFound
// 2. Execute passes quoted arguments through the shell intact
// 3. Execute runs in the requested working directory
// 4. Non-zero exit surfaces an ExecutionError with exit code and output
// 5. A slow tool surfaces ErrToolTimedOut

func writeFakeApollo(t *testing.T, dir, rel, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake apollo scripts require bash")
	}
	if _, err := os.Stat("/bin/bash"); err != nil {
		t.Skip("/bin/bash not available")
	}

	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/bash\n"+body+"\n"), 0755))
	return path
}

func newTestCLI(dir string) *CLI {
	return NewCLI(dir, zerolog.Nop())
}

func TestResolveExecutable(t *testing.T) {
	tests := []struct {
		name string
		rel  string
	}{
		{name: "extracted cli folder", rel: filepath.Join("apollo", "bin", "run")},
		{name: "node modules", rel: filepath.Join("node_modules", ".bin", "apollo")},
		{name: "bare binary", rel: "apollo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			want := writeFakeApollo(t, dir, tt.rel, "exit 0")

			got, err := ResolveExecutable(dir)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestResolveExecutable_Missing(t *testing.T) {
	dir := t.TempDir()
	// A directory named like the binary must not count
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "apollo"), 0755))

	_, err := ResolveExecutable(dir)
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestCLI_Execute_ToolNotFound(t *testing.T) {
	cli := newTestCLI(t.TempDir())

	_, err := cli.Run(context.Background(), []string{"client:download-schema"}, t.TempDir(), time.Second)
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestCLI_Execute_PassesQuotedArguments(t *testing.T) {
	dir := t.TempDir()
	writeFakeApollo(t, dir, "apollo", `for a in "$@"; do echo "[$a]"; done`)

	cli := newTestCLI(dir)
	out, err := cli.Run(context.Background(), []string{
		"client:download-schema",
		"--endpoint=http://localhost:8080/graphql",
		Quote("/tmp/out dir/schema.json"),
		"--header='Authorization: Bearer abc'",
	}, dir, 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t,
		"[client:download-schema]\n"+
			"[--endpoint=http://localhost:8080/graphql]\n"+
			"[/tmp/out dir/schema.json]\n"+
			"[--header=Authorization: Bearer abc]\n",
		out)
}

func TestCLI_Execute_RawArgumentsReachToolIntact(t *testing.T) {
	dir := t.TempDir()
	writeFakeApollo(t, dir, "apollo", `for a in "$@"; do echo "[$a]"; done`)

	// A file the includes glob would match if the shell expanded it
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Hero.graphql"), []byte("query Hero { hero { name } }"), 0644))

	out, err := newTestCLI(dir).Run(context.Background(), []string{
		"codegen:generate",
		"--endpoint=https://api.example.com/graphql?team=ios&env=prod",
		"--includes=./**/*.graphql",
		"--localSchemaFile=/Users/me/My Project/schema.json",
		"--namespace=$HOME;echo",
		"/Users/me/My Project/API.swift",
	}, dir, 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t,
		"[codegen:generate]\n"+
			"[--endpoint=https://api.example.com/graphql?team=ios&env=prod]\n"+
			"[--includes=./**/*.graphql]\n"+
			"[--localSchemaFile=/Users/me/My Project/schema.json]\n"+
			"[--namespace=$HOME;echo]\n"+
			"[/Users/me/My Project/API.swift]\n",
		out)
}

func TestShellWord(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"plain", "client:download-schema", "'client:download-schema'"},
		{"query string", "--endpoint=http://x/graphql?a=1&b=2", "'--endpoint=http://x/graphql?a=1&b=2'"},
		{"space", "--only=My Queries/Hero.graphql", "'--only=My Queries/Hero.graphql'"},
		{"already quoted path", "'/tmp/out dir/schema.json'", "'/tmp/out dir/schema.json'"},
		{"quoted path with apostrophe", Quote("/tmp/it's/schema.json"), Quote("/tmp/it's/schema.json")},
		{"quoted flag value", "--header='Authorization: Bearer abc'", "--header='Authorization: Bearer abc'"},
		{"two quoted words", "'a' 'b'", `''\''a'\'' '\''b'\'''`},
		{"apostrophe", "--namespace=It's", `'--namespace=It'\''s'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shellWord(tt.arg))
		})
	}
}

func TestCLI_Execute_WorkingDirectory(t *testing.T) {
	cliDir := t.TempDir()
	workDir := t.TempDir()
	writeFakeApollo(t, cliDir, filepath.Join("apollo", "bin", "run"), "pwd")

	out, err := newTestCLI(cliDir).Run(context.Background(), nil, workDir, 5*time.Second)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(workDir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCLI_Execute_NonZeroExit(t *testing.T) {
	dir := t.TempDir()
	writeFakeApollo(t, dir, "apollo", `echo "stdout line"; echo "bad endpoint" >&2; exit 3`)

	out, err := newTestCLI(dir).Run(context.Background(), []string{"client:download-schema"}, dir, 5*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolExecutionFailed)
	assert.NotErrorIs(t, err, ErrToolTimedOut)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Contains(t, execErr.Output, "stdout line")
	assert.Contains(t, execErr.Output, "bad endpoint")
	assert.Equal(t, execErr.Output, out)
}

func TestCLI_Execute_Timeout(t *testing.T) {
	dir := t.TempDir()
	writeFakeApollo(t, dir, "apollo", "echo starting; exec sleep 10")

	start := time.Now()
	_, err := newTestCLI(dir).Run(context.Background(), nil, dir, 200*time.Millisecond)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrToolTimedOut)
	assert.NotErrorIs(t, err, ErrToolExecutionFailed)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCLI_Execute_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFakeApollo(t, dir, "apollo", "exec sleep 10")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := newTestCLI(dir).Run(ctx, nil, dir, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrToolTimedOut)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "'/tmp/schema.json'", Quote("/tmp/schema.json"))
	assert.Equal(t, `'it'\''s'`, Quote("it's"))
}
