// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package batch

import (
	"bytes"
	"context"
	"path/filepath"

	"code.cloudfoundry.org/clock"

	"github.com/stb-tester/stbt-batch/internal/fsutil"
	"github.com/stb-tester/stbt-batch/internal/logging"
	"github.com/stb-tester/stbt-batch/internal/rundir"
	"github.com/stb-tester/stbt-batch/internal/supervisor"
	"github.com/stb-tester/stbt-batch/internal/testcase"
	"github.com/stb-tester/stbt-batch/internal/timing"
)

// Files written into each run directory besides the runner's own.
const (
	TimingFile = "timing.json"    // durations of the stages of the run
	LogFile    = "stbt-batch.log" // messages logged while the run was active
)

// RunExecutor is the Executor used by stbt-batch run. Every test case gets a
// fresh run directory holding its metadata, and the runner is started there.
type RunExecutor struct {
	dirs *rundir.Manager
	sup  *supervisor.Supervisor
	opts supervisor.Options
	clk  clock.Clock

	runLog *logging.MultiLogger // holds the log of the run in flight
}

var _ Executor = (*RunExecutor)(nil)

// NewRunExecutor returns a RunExecutor.
func NewRunExecutor(dirs *rundir.Manager, sup *supervisor.Supervisor, opts supervisor.Options, clk clock.Clock) *RunExecutor {
	return &RunExecutor{dirs: dirs, sup: sup, opts: opts, clk: clk, runLog: logging.NewMultiLogger()}
}

// Execute implements Executor.
func (e *RunExecutor) Execute(ctx context.Context, tc testcase.TestCase) (int, error) {
	var status int
	err := e.dirs.WithRun(ctx, func(r *rundir.Run) error {
		ctx := logging.AttachLogger(ctx, e.runLog)
		if sink, err := logging.NewFileSink(filepath.Join(r.Dir(), LogFile)); err != nil {
			logging.Infof(ctx, "Not logging to run directory: %v", err)
		} else {
			defer sink.Close()
			l := logging.NewSinkLogger(logging.LevelDebug, true, sink)
			e.runLog.AddLogger(l)
			defer e.runLog.RemoveLogger(l)
		}

		tl := timing.NewLog(e.clk)
		ctx = timing.NewContext(ctx, tl)
		defer writeTiming(ctx, r.Dir(), tl)

		logging.Infof(ctx, "Results directory: %s", r.AbsDir())
		st := timing.Start(ctx, "write_metadata")
		err := e.sup.WriteMetadata(r.Dir(), tc, e.opts.Tag)
		st.End()
		if err != nil {
			return err
		}

		status, err = e.sup.Execute(ctx, tc, e.opts, r.Dir())
		return err
	})
	return status, err
}

// writeTiming writes tl into dir. Failures are only logged since the run
// itself has already produced its result.
func writeTiming(ctx context.Context, dir string, tl *timing.Log) {
	var b bytes.Buffer
	if err := tl.Write(&b); err != nil {
		logging.Infof(ctx, "Failed to encode timing log: %v", err)
		return
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(dir, TimingFile), b.Bytes(), 0644); err != nil {
		logging.Infof(ctx, "Failed to write timing log: %v", err)
	}
}
