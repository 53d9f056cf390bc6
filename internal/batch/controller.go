// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package batch runs test cases one after another and decides when to stop.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/dustin/go-humanize/english"

	"github.com/stb-tester/stbt-batch/internal/errors"
	"github.com/stb-tester/stbt-batch/internal/logging"
	"github.com/stb-tester/stbt-batch/internal/schedule"
	"github.com/stb-tester/stbt-batch/internal/testcase"
)

// UnrecoverableErrorFile is created in a run directory by the test runner
// when no further test can meaningfully run.
const UnrecoverableErrorFile = "unrecoverable-error"

// Executor runs a single test case and returns the runner's exit status.
type Executor interface {
	Execute(ctx context.Context, tc testcase.TestCase) (int, error)
}

// Controller is the batch loop. It pulls test cases from a Scheduler, hands
// them to an Executor one at a time and applies a Policy to every result.
type Controller struct {
	sched  schedule.Scheduler
	exec   Executor
	policy Policy
	latest string // latest<tag> link in the output directory
	clk    clock.Clock

	state State

	mu       sync.Mutex
	cancel   context.CancelFunc // cancels the context of Run; nil outside Run
	canceled bool               // Interrupt asked for cancellation
}

// NewController returns a Controller. latestLink is the path of the
// symlink to the last completed run directory, checked for
// UnrecoverableErrorFile after every run.
func NewController(sched schedule.Scheduler, exec Executor, policy Policy, latestLink string, clk clock.Clock) *Controller {
	return &Controller{
		sched:  sched,
		exec:   exec,
		policy: policy,
		latest: latestLink,
		clk:    clk,
	}
}

// State returns the batch counters.
func (c *Controller) State() *State {
	return &c.state
}

// Interrupt requests the batch to stop and returns the interrupt level.
// The first request lets the current run finish. Later requests cancel the
// current run. It is safe to call from another goroutine.
func (c *Controller) Interrupt() int {
	lvl := c.state.Interrupt()
	if lvl < 2 {
		return lvl
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.canceled = true
	if c.cancel != nil {
		c.cancel()
	}
	return lvl
}

// Run runs test cases until the scheduler is exhausted, the policy says to
// stop or an interrupt is received. It returns the exit code for the batch
// process, which is 1 after a second interrupt.
//
// An error is returned if a run could not be carried out, including when it
// was canceled by a second interrupt.
func (c *Controller) Run(ctx context.Context) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancel = cancel
	if c.canceled {
		cancel()
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}()

	start := c.clk.Now()
	defer func() { c.logSummary(ctx, c.clk.Since(start)) }()

	for {
		if c.state.InterruptLevel() > 0 {
			logging.Info(ctx, "Interrupted; not starting another test")
			break
		}
		tc, ok := c.sched.Next()
		if !ok {
			break
		}

		logging.Infof(ctx, "Running %s", tc)
		status, err := c.exec.Execute(ctx, tc)
		c.sched.Done()
		if err != nil {
			return 1, errors.Wrapf(err, "failed to run %s", tc)
		}
		c.state.record(status)

		unrecoverable := c.unrecoverable()
		if unrecoverable {
			logging.Infof(ctx, "%s reported an unrecoverable error", tc)
		}
		d := c.policy.Decide(status, unrecoverable)
		logging.Debugf(ctx, "%s exited with status %d; %v", tc, status, d)
		if d == Stop {
			break
		}
	}
	if c.state.InterruptLevel() >= 2 {
		// The run may have finished on its own before the cancellation
		// reached it; the batch was still cut short.
		return 1, nil
	}
	return c.state.ExitCode(), nil
}

// unrecoverable reports whether the last completed run left an
// unrecoverable-error marker.
func (c *Controller) unrecoverable() bool {
	_, err := os.Stat(filepath.Join(c.latest, UnrecoverableErrorFile))
	return err == nil
}

func (c *Controller) logSummary(ctx context.Context, elapsed time.Duration) {
	logging.Infof(ctx, "Completed %s in %v: %s",
		english.Plural(c.state.RunCount, "run", ""),
		elapsed.Round(time.Second),
		english.Plural(c.state.FailureCount, "failure", ""))
}
