package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/buger/jsonparser"
	"github.com/spf13/afero"

	"github.com/okra-platform/apolloctl/internal/ast"
	"github.com/okra-platform/apolloctl/internal/schema"
)

// Inspect describes a file apollo produced. Operation documents from the
// experimental engine are printed as a selection tree; anything else is
// treated as a schema. An empty path inspects the configured schema.
func (c *Controller) Inspect(ctx context.Context, path string) error {
	if path == "" {
		cfg, root, err := c.loadConfig()
		if err != nil {
			return err
		}
		opts, err := cfg.CodegenOptions(root)
		if err != nil {
			return fmt.Errorf("invalid codegen settings: %w", err)
		}
		path = opts.SchemaPath()
	} else if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	format := schema.FormatForPath(path)
	if format == schema.FormatJSON {
		data, err := afero.ReadFile(c.deps.FS, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if isOperationsDocument(data) {
			doc, err := ast.ParseDocument(data)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", path, err)
			}
			c.printf("%s: %d operations, %d fragments\n\n", path, len(doc.Operations()), len(doc.Fragments()))
			c.outMu.Lock()
			defer c.outMu.Unlock()
			return ast.Print(c.deps.Out, doc)
		}
	}

	summary, err := schema.Inspect(c.deps.FS, path, format)
	if err != nil {
		return err
	}
	c.printf("%s: %s schema, %d bytes, %d types\n", summary.Path, summary.Format, summary.Size, summary.TypeCount)
	return nil
}

func isOperationsDocument(data []byte) bool {
	_, dataType, _, err := jsonparser.Get(data, "operations")
	return err == nil && dataType == jsonparser.Array
}
