package schema

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		content   string
		format    Format
		wantTypes int
		wantErr   error
	}{
		{
			name:      "introspection json",
			path:      "/schema.json",
			content:   introspectionJSON,
			format:    FormatJSON,
			wantTypes: 2,
		},
		{
			name:      "introspection wrapped in data",
			path:      "/schema.json",
			content:   `{"data":{"__schema":{"types":[{"name":"Query"}]}}}`,
			format:    FormatJSON,
			wantTypes: 1,
		},
		{
			name:      "introspection without types",
			path:      "/schema.json",
			content:   `{"__schema":{}}`,
			format:    FormatJSON,
			wantTypes: 0,
		},
		{
			name:    "json without __schema",
			path:    "/schema.json",
			content: `{"errors":[{"message":"unauthorized"}]}`,
			format:  FormatJSON,
			wantErr: ErrUnexpectedContent,
		},
		{
			name:    "__schema is not an object",
			path:    "/schema.json",
			content: `{"__schema":"nope"}`,
			format:  FormatJSON,
			wantErr: ErrUnexpectedContent,
		},
		{
			name:      "sdl",
			path:      "/starwars.graphql",
			content:   starWarsSDL,
			format:    FormatSDL,
			wantTypes: 3,
		},
		{
			name:    "sdl that is really json",
			path:    "/schema.graphql",
			content: introspectionJSON,
			format:  FormatSDL,
			wantErr: ErrUnexpectedContent,
		},
		{
			name:    "empty file",
			path:    "/schema.json",
			content: "",
			format:  FormatJSON,
			wantErr: ErrUnexpectedContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, tt.path, []byte(tt.content), 0644))

			summary, err := Inspect(fs, tt.path, tt.format)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.path, summary.Path)
			assert.Equal(t, tt.format, summary.Format)
			assert.Equal(t, int64(len(tt.content)), summary.Size)
			assert.Equal(t, tt.wantTypes, summary.TypeCount)
		})
	}
}

func TestInspect_MissingFile(t *testing.T) {
	_, err := Inspect(afero.NewMemMapFs(), "/missing.json", FormatJSON)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read schema file")
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatSDL, FormatForPath("schemas/api.graphql"))
	assert.Equal(t, FormatJSON, FormatForPath("schemas/schema.json"))
	assert.Equal(t, FormatJSON, FormatForPath("schema"))
}
