package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/golemfactory/gumpi/internal/config"
	"github.com/golemfactory/gumpi/internal/hubapi"
	"github.com/golemfactory/gumpi/internal/session"
)

// RetrieveOutput instructs the root peer to tar and upload the configured
// output path, then streams it to job.Output.Target (SPEC_FULL.md §4.H).
func RetrieveOutput(ctx context.Context, view *session.View, job *config.JobConfig) error {
	blob, err := view.AllocateBlob(ctx)
	if err != nil {
		return fmt.Errorf("allocating output blob: %w", err)
	}

	root := view.Root()
	cmds := []hubapi.Command{
		hubapi.UploadFile{URI: blob.URI, FilePath: job.Output.Source, Format: hubapi.FormatTar},
	}
	if _, err := root.Update(ctx, cmds); err != nil {
		return err
	}

	f, err := os.Create(job.Output.Target)
	if err != nil {
		return fmt.Errorf("creating %s: %w", job.Output.Target, err)
	}
	defer f.Close() //nolint:errcheck

	return view.DownloadBlobTo(ctx, blob.URI, f)
}
