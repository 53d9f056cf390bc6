// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package config loads the harness configuration shared by all batches on a
// host: where the test runner lives and which tools it needs.
package config

import (
	"os"
	"os/exec"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/stb-tester/stbt-batch/internal/command"
	"github.com/stb-tester/stbt-batch/internal/errors"
)

// DefaultInfraFailureThreshold is the lowest exit status that the test runner
// uses for failures of the test infrastructure rather than of the test.
const DefaultInfraFailureThreshold = 2

// Config is the harness configuration.
type Config struct {
	// Root is the installation root exported to the runner as stbt_root.
	Root string `yaml:"root"`
	// Runner is the test-execution program.
	Runner string `yaml:"runner"`
	// RunOne is a wrapper script that is passed the runner command line.
	// If empty, Runner is executed directly.
	RunOne string `yaml:"run_one"`
	// RequiredTools must all be found in $PATH before a batch starts.
	RequiredTools []string `yaml:"required_tools"`
	// InfraFailureThreshold is the lowest exit status classified as an
	// infrastructure failure.
	InfraFailureThreshold int `yaml:"infra_failure_threshold"`
	// StateFile, if set, receives the active run state as JSON.
	StateFile string `yaml:"state_file"`
}

// Default returns the configuration for an installation rooted at root.
func Default(root string) *Config {
	return &Config{
		Root:                  root,
		Runner:                filepath.Join(root, "stbt-run"),
		RunOne:                filepath.Join(root, "stbt-batch.d", "run-one"),
		RequiredTools:         []string{"ts"},
		InfraFailureThreshold: DefaultInfraFailureThreshold,
	}
}

// DefaultRoot returns the parent of the directory holding the running
// executable.
func DefaultRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate executable")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(filepath.Dir(exe)), nil
}

// Load reads the YAML file at path over the defaults for root. Keys missing
// from the file keep their defaults; unknown keys are an error. If path is
// empty, the defaults are returned.
func Load(path, root string) (*Config, error) {
	cfg := Default(root)
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	if err := yaml.UnmarshalStrict(b, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	if cfg.Root != root {
		// Paths derived from the default root follow an overridden root.
		def := Default(root)
		over := Default(cfg.Root)
		if cfg.Runner == def.Runner {
			cfg.Runner = over.Runner
		}
		if cfg.RunOne == def.RunOne {
			cfg.RunOne = over.RunOne
		}
	}
	if cfg.InfraFailureThreshold < 1 {
		return nil, errors.Errorf("infra_failure_threshold must be positive, got %d", cfg.InfraFailureThreshold)
	}
	return cfg, nil
}

// Command returns the command line that runs the test runner with args.
func (c *Config) Command(args ...string) []string {
	var cmd []string
	if c.RunOne != "" {
		cmd = append(cmd, c.RunOne)
	}
	return append(append(cmd, c.Runner), args...)
}

// CheckTools verifies that every required tool is installed. The error
// carries exit status 1 and names the package that provides the tool.
func (c *Config) CheckTools() error {
	for _, tool := range c.RequiredTools {
		if _, err := exec.LookPath(tool); err != nil {
			return command.NewStatusErrorf(1, "No '%s' command found; please install %s", tool, toolPackage(tool))
		}
	}
	return nil
}

// toolPackage returns a description of the package that installs tool.
func toolPackage(tool string) string {
	switch tool {
	case "ts":
		return "'moreutils' package"
	default:
		return "it"
	}
}
