// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package rundir manages the per-run result directories of a batch.
//
// Each run gets a directory named after its local start time plus the batch
// tag, e.g. "2015-03-04_05.06.07-mytag". Two symlinks in the output directory
// follow the runs: "current<tag>" points at the run that was started last and
// "latest<tag>" at the run that finished last. Both are replaced atomically.
package rundir

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/stb-tester/stbt-batch/internal/errors"
	"github.com/stb-tester/stbt-batch/internal/fsutil"
	"github.com/stb-tester/stbt-batch/internal/logging"
	"github.com/stb-tester/stbt-batch/internal/state"
)

const (
	// TimestampFormat is the time layout of run directory names.
	TimestampFormat = "2006-01-02_15.04.05"

	currentLink = "current" // symlink to the run in flight, suffixed by the tag
	latestLink  = "latest"  // symlink to the last finished run, suffixed by the tag

	// collisionDelay is how long Allocate waits before retrying a name that
	// already exists, e.g. because the previous run took less than a second.
	collisionDelay = time.Second
)

// Manager allocates run directories under an output directory.
type Manager struct {
	outDir string
	tag    string
	clk    clock.Clock
	sender state.Sender
}

// NewManager returns a Manager creating run directories in outDir.
// tag is appended verbatim to directory and symlink names; it is either empty
// or starts with "-". sender is told about the directory of the run in flight.
func NewManager(outDir, tag string, clk clock.Clock, sender state.Sender) *Manager {
	if sender == nil {
		sender = state.NewNopSender()
	}
	return &Manager{outDir: outDir, tag: tag, clk: clk, sender: sender}
}

// CurrentLink returns the path of the symlink to the run in flight.
func (m *Manager) CurrentLink() string {
	return filepath.Join(m.outDir, currentLink+m.tag)
}

// LatestLink returns the path of the symlink to the last finished run.
func (m *Manager) LatestLink() string {
	return filepath.Join(m.outDir, latestLink+m.tag)
}

// Allocate creates a new run directory and returns its name relative to the
// output directory.
//
// If the name for the current second is taken, Allocate waits a second and
// tries once more with a new timestamp. A second collision is returned as an
// error.
func (m *Manager) Allocate() (string, error) {
	if err := os.MkdirAll(m.outDir, 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create output directory %s", m.outDir)
	}
	for attempt := 0; ; attempt++ {
		name := m.clk.Now().Format(TimestampFormat) + m.tag
		err := os.Mkdir(filepath.Join(m.outDir, name), 0755)
		if err == nil {
			return name, nil
		}
		if os.IsExist(err) && attempt == 0 {
			m.clk.Sleep(collisionDelay)
			continue
		}
		return "", errors.Wrapf(err, "failed to create run directory %s", name)
	}
}

// Publish points the current symlink at the run directory name.
func (m *Manager) Publish(name string) error {
	return fsutil.ReplaceSymlink(name, m.CurrentLink())
}

// Retire points the latest symlink at the run directory name.
func (m *Manager) Retire(name string) error {
	return fsutil.ReplaceSymlink(name, m.LatestLink())
}

// Run is a run directory acquired by Manager.Acquire.
type Run struct {
	m    *Manager
	name string
	abs  string

	once       sync.Once
	releaseErr error
}

// Name returns the directory name relative to the output directory.
func (r *Run) Name() string { return r.name }

// Dir returns the directory path, joined onto the output directory.
func (r *Run) Dir() string { return filepath.Join(r.m.outDir, r.name) }

// AbsDir returns the absolute directory path.
func (r *Run) AbsDir() string { return r.abs }

// Acquire allocates and publishes a new run directory and tells the state
// sender it is active. The returned Run must be released with Release.
func (m *Manager) Acquire(ctx context.Context) (*Run, error) {
	name, err := m.Allocate()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Join(m.outDir, name))
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve run directory")
	}
	if err := m.Publish(name); err != nil {
		return nil, err
	}
	if err := m.sender.Set(state.ActiveResultsDirectory, abs); err != nil {
		logging.Infof(ctx, "Failed to publish active run directory: %v", err)
	}
	return &Run{m: m, name: name, abs: abs}, nil
}

// Release points the latest symlink at the run and clears the active run
// directory. Calls after the first one return the first result.
func (r *Run) Release(ctx context.Context) error {
	r.once.Do(func() {
		r.releaseErr = r.m.Retire(r.name)
		if err := r.m.sender.Set(state.ActiveResultsDirectory, nil); err != nil {
			logging.Infof(ctx, "Failed to clear active run directory: %v", err)
		}
	})
	return r.releaseErr
}

// WithRun acquires a run directory, calls f with it, and releases it however
// f returns, including by panic. f's error takes precedence over a release
// error.
func (m *Manager) WithRun(ctx context.Context, f func(r *Run) error) (retErr error) {
	r, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Release(ctx); err != nil && retErr == nil {
			retErr = err
		}
	}()
	return f(r)
}
