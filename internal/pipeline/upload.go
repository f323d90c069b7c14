package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/golemfactory/gumpi/internal/hubapi"
	"github.com/golemfactory/gumpi/internal/session"
	"github.com/golemfactory/gumpi/internal/tarball"
)

// uploadPath uploads localPath as a single blob. A directory is tarred on
// the fly through tarball.Pipe and streamed straight into the blob, never
// buffered on disk; a file is assumed to already be a tarball (or whatever
// raw payload the job config names) and is uploaded as-is.
func uploadPath(ctx context.Context, view *session.View, localPath string) (hubapi.Blob, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return hubapi.Blob{}, fmt.Errorf("stat %s: %w", localPath, err)
	}
	if !info.IsDir() {
		return view.UploadFile(ctx, localPath)
	}

	r := tarball.Pipe(localPath)
	defer r.Close() //nolint:errcheck
	return view.UploadReader(ctx, r)
}
