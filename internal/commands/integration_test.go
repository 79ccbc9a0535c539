package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/apolloctl/internal/config"
)

// fakeApollo writes a schema for client:download-schema and a stub file for
// codegen:generate, always to the last positional argument.
const fakeApollo = `#!/bin/bash
cmd="$1"; shift
out=""
for a in "$@"; do
  case "$a" in
    --*) ;;
    *) out="$a" ;;
  esac
done
case "$cmd" in
  client:download-schema)
    printf '%s' '{"data":{"__schema":{"types":[{"name":"Query"},{"name":"Hero"},{"name":"Episode"}]}}}' > "$out"
    echo "Saving schema to $out" ;;
  codegen:generate)
    printf '%s' '// generated' > "$out"
    echo "Generating query files" ;;
  *)
    echo "unknown command $cmd" >&2; exit 2 ;;
esac
`

func TestController_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if runtime.GOOS == "windows" {
		t.Skip("fake apollo scripts require bash")
	}
	if _, err := os.Stat("/bin/bash"); err != nil {
		t.Skip("/bin/bash not available")
	}

	root := t.TempDir()
	exe := filepath.Join(root, "node_modules", ".bin", "apollo")
	require.NoError(t, os.MkdirAll(filepath.Dir(exe), 0755))
	require.NoError(t, os.WriteFile(exe, []byte(fakeApollo), 0755))

	cfg := config.Default()
	cfg.Schema.Endpoint = "https://api.example.com/graphql"
	cfg.Schema.OutputDirectory = "graphql"
	cfg.Codegen.SchemaPath = filepath.Join("graphql", "schema.json")

	loader := new(mockConfigLoader)
	loader.On("LoadConfig").Return(cfg, root, nil)

	out := &bytes.Buffer{}
	ctrl := NewController(&Flags{}, zerolog.Nop())
	ctrl.deps.ConfigLoader = loader
	ctrl.deps.FS = afero.NewOsFs()
	ctrl.deps.Out = out

	ctx := context.Background()

	require.NoError(t, ctrl.DownloadSchema(ctx))
	assert.FileExists(t, filepath.Join(root, "graphql", "schema.json"))
	assert.Contains(t, out.String(), "3 types")

	require.NoError(t, ctrl.Generate(ctx))
	generated, err := os.ReadFile(filepath.Join(root, "API.swift"))
	require.NoError(t, err)
	assert.Equal(t, "// generated", string(generated))

	out.Reset()
	require.NoError(t, ctrl.Inspect(ctx, ""))
	assert.Contains(t, out.String(), "json schema")
}
