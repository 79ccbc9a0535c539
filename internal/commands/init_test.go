package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/apolloctl/internal/codegen"
)

// Test plan:
// 1. Writes apolloctl.json from the chosen options
// 2. Refuses to overwrite an existing apolloctl.json
// 3. Rejects endpoints that are not http(s) URLs
// 4. Form input with tea.WithInput

func readConfig(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestInitCommand_Run_WritesConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	out := &bytes.Buffer{}
	cmd := NewInitCommand("/project", fs, out)
	cmd.testOptions = &InitOptions{
		Endpoint: "https://api.example.com/graphql",
		Format:   "sdl",
		Engine:   "typescript",
		Output:   "Sources/API.swift",
	}

	require.NoError(t, cmd.Run(context.Background()))

	path := filepath.Join("/project", "apolloctl.json")
	content := readConfig(t, fs, path)
	assert.Contains(t, content, `"endpoint": "https://api.example.com/graphql"`)
	assert.Contains(t, content, `"format": "sdl"`)
	assert.Contains(t, content, `"schemaPath": "schema.graphql"`)
	assert.Contains(t, content, `"output": "Sources/API.swift"`)
	assert.Contains(t, content, `"includes": "`+codegen.DefaultIncludes+`"`)
	assert.Contains(t, out.String(), "Created "+path)
}

func TestInitCommand_Run_DefaultOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	cmd := NewInitCommand("/project", fs, &bytes.Buffer{})
	cmd.testOptions = &InitOptions{
		Endpoint: "http://localhost:4000/graphql",
		Engine:   "experimental",
	}

	require.NoError(t, cmd.Run(context.Background()))

	content := readConfig(t, fs, "/project/apolloctl.json")
	assert.Contains(t, content, `"engine": "experimental"`)
	assert.Contains(t, content, `"format": "json"`)
	assert.Contains(t, content, `"output": "API.swift"`)
}

func TestInitCommand_Run_ExistingConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/apolloctl.json", []byte(`{"keep":"me"}`), 0644))

	cmd := NewInitCommand("/project", fs, &bytes.Buffer{})
	cmd.testOptions = &InitOptions{Endpoint: "https://api.example.com/graphql"}

	err := cmd.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.Equal(t, `{"keep":"me"}`, readConfig(t, fs, "/project/apolloctl.json"))
}

func TestInitCommand_Run_InvalidOptions(t *testing.T) {
	tests := []struct {
		name        string
		options     InitOptions
		errContains string
	}{
		{"empty endpoint", InitOptions{}, "endpoint cannot be empty"},
		{"relative endpoint", InitOptions{Endpoint: "api/graphql"}, "invalid endpoint"},
		{"non http endpoint", InitOptions{Endpoint: "ftp://example.com/graphql"}, "http or https"},
		{"unknown format", InitOptions{Endpoint: "https://x.dev", Format: "yaml"}, "unknown schema format"},
		{"unknown engine", InitOptions{Endpoint: "https://x.dev", Engine: "kotlin"}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			cmd := NewInitCommand("/project", fs, &bytes.Buffer{})
			options := tt.options
			cmd.testOptions = &options

			err := cmd.Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)

			exists, _ := afero.Exists(fs, "/project/apolloctl.json")
			assert.False(t, exists)
		})
	}
}

func TestInitCommand_promptInitOptions(t *testing.T) {
	if os.Getenv("INTERACTIVE_TEST") != "true" {
		t.Skip("Skipping interactive test. Set INTERACTIVE_TEST=true to run")
	}

	cmd := NewInitCommand(t.TempDir(), afero.NewMemMapFs(), &bytes.Buffer{})

	// endpoint + enter, arrow down to SDL + enter, enter, enter
	input := strings.NewReader("https://api.example.com/graphql\n\x1b[B\n\n\n")

	options, err := cmd.promptInitOptions(
		tea.WithInput(input),
		tea.WithoutRenderer(),
	)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/graphql", options.Endpoint)
	assert.Equal(t, "sdl", options.Format)
	assert.Equal(t, "typescript", options.Engine)
	assert.Equal(t, "API.swift", options.Output)
}
