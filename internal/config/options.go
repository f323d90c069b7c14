package config

import (
	"os"

	"github.com/golemfactory/gumpi/internal/gerrors"
)

// Options holds the run's CLI-derived settings (SPEC_FULL.md §4.J). It is
// built once by cmd/gumpi and passed down to the orchestrator unchanged.
type Options struct {
	// NumProc is the requested MPI process count (-n/--numproc).
	NumProc int
	// Hub is the "host:port" of the hub (-h/--hub).
	Hub string
	// JobConfigPath is the path to the TOML job description (-j/--job).
	JobConfigPath string
	// Providers restricts provisioning to this node ID set when non-empty
	// (repeatable --providers flag); empty means "use whatever the hub
	// offers".
	Providers map[string]bool
	// NoClean leaves the hub session and peer containers behind on exit
	// instead of deleting them, for post-mortem debugging (--noclean).
	NoClean bool
}

// Validate checks the option values and the job config's eager local-file
// preconditions, before any network call is made (SPEC_FULL.md §4.I).
func (o *Options) Validate(job *JobConfig) error {
	if o.NumProc <= 0 {
		return &gerrors.ConfigError{Msg: "--numproc must be a positive integer"}
	}
	if o.Hub == "" {
		return &gerrors.ConfigError{Msg: "--hub is required"}
	}
	if job.Sources != nil {
		if err := requireUploadablePath(job.SourcesPath()); err != nil {
			return &gerrors.ConfigError{Msg: "sources.path", Err: err}
		}
	}
	if job.Input != nil {
		if err := requireUploadablePath(job.InputPath()); err != nil {
			return &gerrors.ConfigError{Msg: "input.source", Err: err}
		}
	}
	return nil
}

// requireUploadablePath checks that path exists and is something the
// pipeline can upload: a regular file (assumed to already be a tarball) or
// a directory (tarred on the fly before upload, see internal/pipeline).
func requireUploadablePath(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() && !fi.IsDir() {
		return &os.PathError{Op: "stat", Path: path, Err: os.ErrInvalid}
	}
	return nil
}
