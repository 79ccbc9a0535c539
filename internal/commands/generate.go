package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/okra-platform/apolloctl/internal/ast"
	"github.com/okra-platform/apolloctl/internal/codegen"
	"github.com/okra-platform/apolloctl/internal/config"
)

// Generate runs codegen:generate with the project's codegen settings
func (c *Controller) Generate(ctx context.Context) error {
	cfg, root, err := c.loadConfig()
	if err != nil {
		return err
	}

	generator, opts, err := c.newGenerator(cfg, root)
	if err != nil {
		return err
	}

	c.printf("Generating %s code from %s...\n", opts.Engine().Target(), opts.SchemaPath())
	result, err := generator.Generate(ctx, opts)
	if err != nil {
		return err
	}

	c.reportGenerated(result)
	return nil
}

func (c *Controller) newGenerator(cfg *config.Config, root string) (*codegen.Generator, *codegen.Options, error) {
	opts, err := cfg.CodegenOptions(root)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid codegen settings: %w", err)
	}

	r := c.deps.Runners.NewRunner(cfg.CLIPath(root), c.logger)
	return codegen.NewGenerator(r, c.deps.FS, cfg.WorkingDirectory(root), c.logger), opts, nil
}

func (c *Controller) reportGenerated(result *codegen.Result) {
	c.printf("Generated %s in %s\n", result.OutputPath, result.Duration.Round(time.Millisecond))

	if result.Document != nil {
		fields := 0
		for _, op := range result.Document.Operations() {
			fields += ast.CountFields(op.Fields())
		}
		c.printf("  %d operations, %d fragments, %d selected fields\n",
			len(result.Document.Operations()), len(result.Document.Fragments()), fields)
	}
}
