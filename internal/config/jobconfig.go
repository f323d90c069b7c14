// Package config loads the two pieces of static configuration the engine
// needs before it ever talks to the hub: CLI-derived Options, and the
// TOML job description (SPEC_FULL.md §4.K, §6).
package config

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/golemfactory/gumpi/internal/gerrors"
)

// BuildMode selects the build command sequence the deployment pipeline runs
// on every peer (SPEC_FULL.md §4.E).
type BuildMode string

const (
	ModeMake  BuildMode = "Make"
	ModeCMake BuildMode = "CMake"
)

// SourcesConfig describes an optional source archive to build on every peer.
type SourcesConfig struct {
	Path string    `toml:"path"`
	Mode BuildMode `toml:"mode"`
}

// InputConfig describes an optional input archive distributed to every peer.
type InputConfig struct {
	Source string `toml:"source"`
}

// OutputConfig describes an optional output archive retrieved from the root
// peer after the job finishes.
type OutputConfig struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
}

// JobConfig is the immutable job description loaded once from a TOML file.
type JobConfig struct {
	Progname string         `toml:"progname"`
	Args     []string       `toml:"args"`
	MPIArgs  []string       `toml:"mpiargs"`
	Sources  *SourcesConfig `toml:"sources"`
	Input    *InputConfig   `toml:"input"`
	Output   *OutputConfig  `toml:"output"`

	// dir is the directory containing the job-config file; sources.path and
	// input.source are resolved relative to it.
	dir string
}

// LoadJobConfig decodes path as TOML into a JobConfig and validates it.
// Any failure is a *gerrors.ConfigError, raised before any hub session work
// begins (SPEC_FULL.md §4.I).
func LoadJobConfig(path string) (*JobConfig, error) {
	var cfg JobConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, &gerrors.ConfigError{Msg: fmt.Sprintf("loading job config %s", path), Err: err}
	}
	cfg.dir = filepath.Dir(path)

	if cfg.Progname == "" {
		return nil, &gerrors.ConfigError{Msg: "job config: progname is required"}
	}
	if cfg.Sources != nil {
		if cfg.Sources.Path == "" {
			return nil, &gerrors.ConfigError{Msg: "job config: sources.path is required when [sources] is present"}
		}
		if cfg.Sources.Mode != ModeMake && cfg.Sources.Mode != ModeCMake {
			return nil, &gerrors.ConfigError{Msg: fmt.Sprintf("job config: sources.mode must be %q or %q, got %q", ModeMake, ModeCMake, cfg.Sources.Mode)}
		}
	}
	if cfg.Input != nil && cfg.Input.Source == "" {
		return nil, &gerrors.ConfigError{Msg: "job config: input.source is required when [input] is present"}
	}
	if cfg.Output != nil {
		if cfg.Output.Source == "" || cfg.Output.Target == "" {
			return nil, &gerrors.ConfigError{Msg: "job config: output.source and output.target are both required when [output] is present"}
		}
	}
	return &cfg, nil
}

// SourcesPath resolves sources.path relative to the config file's directory.
func (c *JobConfig) SourcesPath() string {
	return filepath.Join(c.dir, c.Sources.Path)
}

// InputPath resolves input.source relative to the config file's directory.
func (c *JobConfig) InputPath() string {
	return filepath.Join(c.dir, c.Input.Source)
}
