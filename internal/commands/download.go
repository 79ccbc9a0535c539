package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/okra-platform/apolloctl/internal/schema"
)

// DownloadSchema fetches the schema configured in apolloctl.json and
// summarizes what apollo wrote.
func (c *Controller) DownloadSchema(ctx context.Context) error {
	cfg, root, err := c.loadConfig()
	if err != nil {
		return err
	}

	opts, err := cfg.DownloadOptions(root)
	if err != nil {
		return fmt.Errorf("invalid schema settings: %w", err)
	}

	r := c.deps.Runners.NewRunner(cfg.CLIPath(root), c.logger)
	downloader := schema.NewDownloader(r, c.deps.FS, cfg.WorkingDirectory(root), c.logger)

	c.printf("Downloading schema from %s...\n", opts.Endpoint())
	result, err := downloader.Download(ctx, opts)
	if err != nil {
		return err
	}

	summary, err := schema.Inspect(c.deps.FS, result.Path, opts.Format())
	if err != nil {
		return fmt.Errorf("downloaded schema is not usable: %w", err)
	}

	c.printf("Schema written to %s (%d bytes, %d types) in %s\n",
		result.Path, result.Size, summary.TypeCount, result.Duration.Round(time.Millisecond))
	return nil
}
