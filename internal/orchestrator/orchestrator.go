// Package orchestrator composes the pipeline stages into the single
// top-level Run the CLI entrypoint calls (SPEC_FULL.md §4.I, §2 control flow).
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/golemfactory/gumpi/internal/config"
	"github.com/golemfactory/gumpi/internal/gerrors"
	"github.com/golemfactory/gumpi/internal/hubapi"
	"github.com/golemfactory/gumpi/internal/pipeline"
	"github.com/golemfactory/gumpi/internal/session"
	"k8s.io/klog/v2"
)

// Run loads the job config, provisions a hub session, drives the pipeline
// stages the job config calls for, and unconditionally tears the session
// down on the way out (subject to opts.NoClean).
func Run(ctx context.Context, opts *config.Options) (err error) {
	job, err := config.LoadJobConfig(opts.JobConfigPath)
	if err != nil {
		return err
	}
	if err := opts.Validate(job); err != nil {
		return err
	}

	filter := make(map[hubapi.NodeID]bool, len(opts.Providers))
	for id := range opts.Providers {
		filter[hubapi.NodeID(id)] = true
	}

	hub, err := session.Init(ctx, opts.Hub, filter)
	if err != nil {
		return wrapOrCancel(ctx, "initializing session", err)
	}
	defer func() {
		if opts.NoClean {
			klog.Infof("Leaving session %s behind (--noclean)", opts.Hub)
			return
		}
		if cerr := hub.Close(context.Background()); cerr != nil {
			klog.Warningf("Cleanup failed: %v", cerr)
			if err == nil {
				err = fmt.Errorf("cleaning up: %w", cerr)
			}
		}
	}()

	view := hub.View()

	if avail := view.TotalCores(); avail < opts.NumProc {
		return &gerrors.InsufficientResources{Requested: opts.NumProc, Available: avail}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return &gerrors.CancellationEvent{}
	}

	deployed := job.Sources != nil
	if deployed {
		if _, err := pipeline.Deploy(ctx, view, job); err != nil {
			return wrapOrCancel(ctx, "deploying the sources", err)
		}
	}

	if job.Input != nil {
		if err := pipeline.DistributeInput(ctx, view, job); err != nil {
			return wrapOrCancel(ctx, "distributing input", err)
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return &gerrors.CancellationEvent{}
	}

	if _, err := pipeline.Exec(ctx, view, opts.NumProc, job.Progname, job.Args, job.MPIArgs, deployed); err != nil {
		return wrapOrCancel(ctx, "program execution", err)
	}

	if job.Output != nil {
		if err := pipeline.RetrieveOutput(ctx, view, job); err != nil {
			return wrapOrCancel(ctx, "retrieving output", err)
		}
	}

	return nil
}

// wrapOrCancel prefers reporting a user interrupt over the stage error it
// raced against: when ctx is already done, the cancellation is the more
// useful diagnostic, not whatever half-finished error the aborted call
// happened to return.
func wrapOrCancel(ctx context.Context, stage string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &gerrors.CancellationEvent{}
	}
	return fmt.Errorf("%s: %w", stage, err)
}
