// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package batch

import "sync/atomic"

// State holds the counters of one batch.
//
// Only Interrupt and InterruptLevel may be called concurrently with the
// batch loop.
type State struct {
	RunCount       int
	FailureCount   int
	LastExitStatus int

	interrupts int32
}

// Interrupt records an interrupt request and returns the new level.
// Level 1 asks the batch to stop after the current run; level 2 or more
// asks it to stop immediately.
func (s *State) Interrupt() int {
	return int(atomic.AddInt32(&s.interrupts, 1))
}

// InterruptLevel returns the number of interrupts received so far.
func (s *State) InterruptLevel() int {
	return int(atomic.LoadInt32(&s.interrupts))
}

// record updates the counters after a run.
func (s *State) record(status int) {
	s.RunCount++
	s.LastExitStatus = status
	if status != 0 {
		s.FailureCount++
	}
}

// ExitCode returns the exit code of the batch process. A batch of a single
// run passes the run's own status through.
func (s *State) ExitCode() int {
	switch {
	case s.RunCount == 1:
		return s.LastExitStatus
	case s.FailureCount == 0:
		return 0
	default:
		return 1
	}
}
