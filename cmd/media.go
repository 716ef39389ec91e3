package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sportsdesk/cmx/internal/shared"
)

// MediaResolve resolves a legacy filename to a destination media id,
// uploading the asset on a cache miss.
func (r *Runner) MediaResolve(ctx context.Context, cmd *cli.Command) error {
	if r.media == nil {
		return fmt.Errorf("%w: media cache not initialized, check ledger and api config", shared.ErrServiceUnavailable)
	}

	filename := cmd.StringArg("filename")
	if filename == "" {
		return fmt.Errorf("%w: filename", shared.ErrMissingArgument)
	}

	id, err := r.media.Resolve(ctx, filename, cmd.String("caption"), "", "")
	if err != nil {
		return err
	}

	r.writePlain("%s\n", id)
	return nil
}

// MediaFetch downloads one legacy asset into a local directory.
func (r *Runner) MediaFetch(ctx context.Context, cmd *cli.Command) error {
	filename := cmd.StringArg("filename")
	if filename == "" {
		return fmt.Errorf("%w: filename", shared.ErrMissingArgument)
	}

	path, err := r.fetcher.Download(ctx, filename, cmd.String("dir"))
	if err != nil {
		return err
	}

	r.logger.Info("asset downloaded", "file", filename, "path", path)
	r.writePlain("✓ Saved to %s\n", path)
	return nil
}

// MappingsShow lists cached filename → media id mappings.
func (r *Runner) MappingsShow(ctx context.Context, cmd *cli.Command) error {
	if r.media == nil {
		return fmt.Errorf("%w: media cache not initialized, check ledger and api config", shared.ErrServiceUnavailable)
	}

	mappings, err := r.media.Mappings(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(mappings, true)
	}

	if len(mappings) == 0 {
		r.writePlain("No cached media mappings\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Media Mappings (%d)", len(mappings)))
	for _, m := range mappings {
		r.writePlain("  %s → %s (%s)\n", m.Filename, m.MediaFileID, m.UploadedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
