package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/okra-platform/apolloctl/internal/codegen"
	"github.com/okra-platform/apolloctl/internal/watch"
)

// Watch regenerates code whenever operations or the schema change, until
// interrupted.
func (c *Controller) Watch(ctx context.Context) error {
	cfg, root, err := c.loadConfig()
	if err != nil {
		return err
	}

	generator, opts, err := c.newGenerator(cfg, root)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	c.deps.SignalNotifier.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer c.deps.SignalNotifier.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			c.printf("\nStopping watch...\n")
			cancel()
		case <-ctx.Done():
		}
	}()

	w := watch.New(generator, opts, cfg.WorkingDirectory(root), c.logger, watch.OnGenerate(func(result *codegen.Result, err error) {
		if err != nil {
			c.printf("Generation failed: %v\n", err)
			return
		}
		c.reportGenerated(result)
	}))

	c.printf("Watching %s for %s changes. Press Ctrl+C to stop.\n", cfg.WorkingDirectory(root), opts.Includes())
	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
