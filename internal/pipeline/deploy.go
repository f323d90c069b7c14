// Package pipeline implements the four stages the orchestrator drives in
// sequence over a provisioned session: deployment, input distribution,
// execution, and output retrieval (SPEC_FULL.md §4.E-§4.H).
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/golemfactory/gumpi/internal/config"
	"github.com/golemfactory/gumpi/internal/gerrors"
	"github.com/golemfactory/gumpi/internal/hubapi"
	"github.com/golemfactory/gumpi/internal/session"
	"k8s.io/klog/v2"
)

// CompilationInfo is the per-peer build log captured by a successful deploy.
type CompilationInfo struct {
	Node hubapi.NodeID
	Logs []string
}

// DeploymentInfo is the result of a successful Deploy.
type DeploymentInfo struct {
	Compilations []CompilationInfo
}

// buildCommands renders the command batch for the given build mode, per
// SPEC_FULL.md §4.E step 3.
func buildCommands(tarURI string, mode config.BuildMode) []hubapi.Command {
	download := hubapi.DownloadFile{URI: tarURI, FilePath: "/app", Format: hubapi.FormatTar}
	switch mode {
	case config.ModeCMake:
		return []hubapi.Command{
			download,
			hubapi.Exec{
				Executable: "cmake",
				Args:       []string{".", "-DCMAKE_C_COMPILER=mpicc", "-DCMAKE_CXX_COMPILER=mpicxx", "-DCMAKE_BUILD_TYPE=Release"},
				WorkingDir: "/app",
			},
			hubapi.Exec{Executable: "make", Args: nil, WorkingDir: "/app"},
		}
	default: // config.ModeMake
		return []hubapi.Command{
			download,
			hubapi.Exec{Executable: "make", Args: []string{"-C", "/app"}, WorkingDir: "/app"},
		}
	}
}

// Deploy uploads the source tarball once, then submits the build command
// batch to every peer in parallel (SPEC_FULL.md §4.E).
func Deploy(ctx context.Context, view *session.View, job *config.JobConfig) (*DeploymentInfo, error) {
	srcPath := job.SourcesPath()
	klog.Infof("Uploading sources %s", srcPath)
	blob, err := uploadPath(ctx, view, srcPath)
	if err != nil {
		return nil, fmt.Errorf("uploading sources: %w", err)
	}

	cmds := buildCommands(blob.URI, job.Sources.Mode)

	peers := view.Peers()
	results := make([]CompilationInfo, len(peers))
	errs := make([]error, len(peers))
	var wg sync.WaitGroup
	for i, p := range peers {
		wg.Add(1)
		go func(i int, p *session.PeerSession) {
			defer wg.Done()
			logs, err := p.Update(ctx, cmds)
			if err != nil {
				if pr, ok := err.(*gerrors.ProcessingResult); ok {
					errs[i] = fmt.Errorf("node %s: %w", p.NodeID(), &gerrors.CompilationError{Node: string(p.NodeID()), Logs: pr.Partial})
					return
				}
				errs[i] = fmt.Errorf("node %s: %w", p.NodeID(), err)
				return
			}
			results[i] = CompilationInfo{Node: p.NodeID(), Logs: logs}
		}(i, p)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return &DeploymentInfo{Compilations: results}, nil
}
