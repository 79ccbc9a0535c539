package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/buger/jsonparser"
	"github.com/spf13/afero"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/ast"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/astparser"
)

// ErrUnexpectedContent is returned when a schema file does not look like its format
var ErrUnexpectedContent = errors.New("unexpected schema file content")

// Summary describes a schema file on disk
type Summary struct {
	Path      string
	Format    Format
	Size      int64
	TypeCount int
}

// FormatForPath infers the format from a schema file extension
func FormatForPath(path string) Format {
	if filepath.Ext(path) == FormatSDL.Extension() {
		return FormatSDL
	}
	return FormatJSON
}

// Inspect reads the schema at path and checks it matches format. Introspection
// JSON must carry a __schema key, either at the top level or under data. SDL
// must not be JSON.
func Inspect(fs afero.Fs, path string, format Format) (*Summary, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrUnexpectedContent, path)
	}

	summary := &Summary{
		Path:   path,
		Format: format,
		Size:   int64(len(data)),
	}

	switch format {
	case FormatSDL:
		summary.TypeCount, err = countSDLTypes(data)
	default:
		summary.TypeCount, err = countIntrospectionTypes(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return summary, nil
}

func countIntrospectionTypes(data []byte) (int, error) {
	schemaValue, dataType, _, err := jsonparser.Get(data, "__schema")
	if err != nil {
		schemaValue, dataType, _, err = jsonparser.Get(data, "data", "__schema")
	}
	if err != nil {
		return 0, fmt.Errorf("%w: no __schema key", ErrUnexpectedContent)
	}
	if dataType != jsonparser.Object {
		return 0, fmt.Errorf("%w: __schema is %s, not an object", ErrUnexpectedContent, dataType)
	}

	count := 0
	_, err = jsonparser.ArrayEach(schemaValue, func(_ []byte, _ jsonparser.ValueType, _ int, _ error) {
		count++
	}, "types")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return 0, fmt.Errorf("%w: __schema.types: %v", ErrUnexpectedContent, err)
	}

	return count, nil
}

func countSDLTypes(data []byte) (int, error) {
	if json.Valid(data) {
		return 0, fmt.Errorf("%w: expected SDL but found JSON", ErrUnexpectedContent)
	}

	doc, report := astparser.ParseGraphqlDocumentBytes(data)
	if report.HasErrors() {
		return 0, fmt.Errorf("%w: %v", ErrUnexpectedContent, report)
	}

	count := 0
	for _, node := range doc.RootNodes {
		switch node.Kind {
		case ast.NodeKindObjectTypeDefinition,
			ast.NodeKindInterfaceTypeDefinition,
			ast.NodeKindUnionTypeDefinition,
			ast.NodeKindEnumTypeDefinition,
			ast.NodeKindInputObjectTypeDefinition,
			ast.NodeKindScalarTypeDefinition:
			count++
		}
	}

	return count, nil
}
