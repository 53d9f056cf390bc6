// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package gitinfo reads version information about the git checkout that
// contains the tests being run.
package gitinfo

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/stb-tester/stbt-batch/internal/errors"
)

// Info describes a git checkout.
type Info struct {
	Commit    string // output of "git describe --always --dirty"
	CommitSHA string // full SHA of HEAD
	TopLevel  string // absolute path of the working tree root
}

// Read returns information about the git checkout containing dir.
// It returns nil without error if dir is not in a git checkout or git is not
// installed.
func Read(ctx context.Context, dir string) (*Info, error) {
	if dir == "" {
		dir = "."
	}
	git := func(args ...string) (string, error) {
		cmd := exec.CommandContext(ctx, "git", args...)
		cmd.Dir = dir
		out, err := cmd.Output()
		return string(bytes.TrimSpace(out)), err
	}

	commit, err := git("describe", "--always", "--dirty")
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) || errors.Is(err, exec.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to run git")
	}
	sha, err := git("rev-parse", "HEAD")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read HEAD")
	}
	top, err := git("rev-parse", "--show-toplevel")
	if err != nil {
		return nil, errors.Wrap(err, "failed to find checkout root")
	}
	return &Info{Commit: commit, CommitSHA: sha, TopLevel: top}, nil
}

// TestName returns how the test at path is named in run metadata: relative to
// the checkout root if info is known, otherwise as an absolute path.
func (info *Info) TestName(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", path)
	}
	if info == nil || info.TopLevel == "" {
		return abs, nil
	}
	rel, err := filepath.Rel(info.TopLevel, abs)
	if err != nil {
		return "", errors.Wrapf(err, "failed to make %s relative to %s", abs, info.TopLevel)
	}
	return rel, nil
}

func (info *Info) String() string {
	if info == nil {
		return "<no git info>"
	}
	return strings.Join([]string{info.Commit, info.CommitSHA, info.TopLevel}, " ")
}
