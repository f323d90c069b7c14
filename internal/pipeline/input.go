package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/golemfactory/gumpi/internal/config"
	"github.com/golemfactory/gumpi/internal/hubapi"
	"github.com/golemfactory/gumpi/internal/session"
	"k8s.io/klog/v2"
)

// DistributeInput uploads the input tarball once, then fans out a download
// of it to every peer. Any single peer's failure fails the whole step: MPI
// requires every rank to see identical input (SPEC_FULL.md §4.F).
func DistributeInput(ctx context.Context, view *session.View, job *config.JobConfig) error {
	inputPath := job.InputPath()
	klog.Infof("Uploading input %s", inputPath)
	blob, err := uploadPath(ctx, view, inputPath)
	if err != nil {
		return fmt.Errorf("uploading input: %w", err)
	}

	cmds := []hubapi.Command{
		hubapi.DownloadFile{URI: blob.URI, FilePath: "/input", Format: hubapi.FormatTar},
	}

	peers := view.Peers()
	errs := make([]error, len(peers))
	var wg sync.WaitGroup
	for i, p := range peers {
		wg.Add(1)
		go func(i int, p *session.PeerSession) {
			defer wg.Done()
			if _, err := p.Update(ctx, cmds); err != nil {
				errs[i] = fmt.Errorf("node %s: %w", p.NodeID(), err)
			}
		}(i, p)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
