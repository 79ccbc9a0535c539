package codegen

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/okra-platform/apolloctl/internal/ast"
	"github.com/okra-platform/apolloctl/internal/runner"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Test plan for Generator:
// 1. The typescript engine runs apollo and checks the single output file exists
// 2. The experimental engine decodes the JSON output into an ast.Document
// 3. Malformed JSON output surfaces ErrMalformedSchemaDocument
// 4. Multiple-file output creates the directory before running
// 5. Runner errors are wrapped, not swallowed

const operationsJSON = `{
  "operations": [
    {
      "operationName": "HeroName",
      "operationType": "query",
      "fields": [{"responseName": "hero", "fieldName": "hero", "type": "Character", "isConditional": false,
        "fields": [{"responseName": "name", "fieldName": "name", "type": "String!", "isConditional": false}]}]
    }
  ],
  "fragments": []
}`

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, args []string, workingDir string, timeout time.Duration) (string, error) {
	called := m.Called(ctx, args, workingDir, timeout)
	return called.String(0), called.Error(1)
}

func writesFile(fs afero.Fs, path, content string) func(mock.Arguments) {
	return func(mock.Arguments) {
		_ = afero.WriteFile(fs, path, []byte(content), 0644)
	}
}

func TestGenerator_Generate_SingleFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts, err := NewOptions("schema.json", SingleFile("API.swift"))
	require.NoError(t, err)

	r := new(mockRunner)
	r.On("Run", mock.Anything, opts.Arguments(), "/project", DefaultTimeout).
		Run(writesFile(fs, filepath.Join("/project", "API.swift"), "// generated")).
		Return("✔ Generating query files", nil)

	result, err := NewGenerator(r, fs, "/project", zerolog.Nop()).Generate(context.Background(), opts)
	require.NoError(t, err)
	r.AssertExpectations(t)

	assert.Equal(t, "API.swift", result.OutputPath)
	assert.Contains(t, result.Output, "Generating")
	assert.Nil(t, result.Document)
}

func TestGenerator_Generate_ExperimentalDecodesDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts, err := NewOptions("/project/schema.json", SingleFile("/project/operations.json"),
		WithEngine(EngineExperimental))
	require.NoError(t, err)

	r := new(mockRunner)
	r.On("Run", mock.Anything, opts.Arguments(), "/project", DefaultTimeout).
		Run(writesFile(fs, "/project/operations.json", operationsJSON)).
		Return("", nil)

	result, err := NewGenerator(r, fs, "/project", zerolog.Nop()).Generate(context.Background(), opts)
	require.NoError(t, err)
	require.NotNil(t, result.Document)

	ops := result.Document.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, "HeroName", ops[0].Name())
	assert.Equal(t, 2, ast.CountFields(ops[0].Fields()))
}

func TestGenerator_Generate_MalformedDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts, err := NewOptions("/project/schema.json", SingleFile("/project/operations.json"),
		WithEngine(EngineExperimental))
	require.NoError(t, err)

	r := new(mockRunner)
	r.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(writesFile(fs, "/project/operations.json", `{"operations":[{"operationName":"A","operationType":"query","fields":[{"responseName":"a","type":"A"}]}]}`)).
		Return("", nil)

	_, err = NewGenerator(r, fs, "/project", zerolog.Nop()).Generate(context.Background(), opts)
	assert.ErrorIs(t, err, ast.ErrMalformedSchemaDocument)
	assert.Contains(t, err.Error(), "fieldName")
}

func TestGenerator_Generate_MissingOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts, err := NewOptions("schema.json", SingleFile("API.swift"))
	require.NoError(t, err)

	r := new(mockRunner)
	r.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", nil)

	_, err = NewGenerator(r, fs, "/project", zerolog.Nop()).Generate(context.Background(), opts)
	assert.ErrorIs(t, err, ErrOutputNotWritten)
}

func TestGenerator_Generate_MultipleFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts, err := NewOptions("schema.json", MultipleFiles("Generated"))
	require.NoError(t, err)

	r := new(mockRunner)
	r.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", nil)

	result, err := NewGenerator(r, fs, "/project", zerolog.Nop()).Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "Generated", result.OutputPath)

	isDir, err := afero.IsDir(fs, "/project/Generated")
	require.NoError(t, err)
	assert.True(t, isDir)
}

func TestGenerator_Generate_RunnerError(t *testing.T) {
	opts, err := NewOptions("schema.json", SingleFile("API.swift"))
	require.NoError(t, err)

	r := new(mockRunner)
	r.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("error: schema.json not found", &runner.ExecutionError{ExitCode: 1, Output: "error: schema.json not found"})

	_, err = NewGenerator(r, afero.NewMemMapFs(), "/project", zerolog.Nop()).Generate(context.Background(), opts)
	assert.ErrorIs(t, err, runner.ErrToolExecutionFailed)
	assert.Contains(t, err.Error(), "schema.json not found")
}

func TestGenerator_Generate_PreviousOutput(t *testing.T) {
	const path = "/project/API.swift"

	tests := []struct {
		name        string
		run         func(fs afero.Fs) func(mock.Arguments)
		runErr      error
		wantErr     error
		wantContent string
	}{
		{
			name:        "rewritten",
			run:         func(fs afero.Fs) func(mock.Arguments) { return writesFile(fs, path, "// fresh") },
			wantContent: "// fresh",
		},
		{
			name:        "clean exit without rewriting",
			run:         func(afero.Fs) func(mock.Arguments) { return func(mock.Arguments) {} },
			wantErr:     ErrOutputNotWritten,
			wantContent: "// stale",
		},
		{
			name:        "clean exit with empty file",
			run:         func(fs afero.Fs) func(mock.Arguments) { return writesFile(fs, path, "") },
			wantErr:     ErrOutputNotWritten,
			wantContent: "// stale",
		},
		{
			name:        "tool failure after partial write",
			run:         func(fs afero.Fs) func(mock.Arguments) { return writesFile(fs, path, "// par") },
			runErr:      &runner.ExecutionError{ExitCode: 1, Output: "boom"},
			wantErr:     runner.ErrToolExecutionFailed,
			wantContent: "// stale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, path, []byte("// stale"), 0644))

			opts, err := NewOptions("schema.json", SingleFile("API.swift"))
			require.NoError(t, err)

			r := new(mockRunner)
			r.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Run(tt.run(fs)).
				Return("", tt.runErr)

			_, err = NewGenerator(r, fs, "/project", zerolog.Nop()).Generate(context.Background(), opts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			data, err := afero.ReadFile(fs, path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, string(data))

			leftover, err := afero.Exists(fs, path+".previous")
			require.NoError(t, err)
			assert.False(t, leftover)
		})
	}
}
