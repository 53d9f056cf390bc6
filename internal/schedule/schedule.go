// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package schedule decides which test case a batch runs next.
//
// Two policies are provided. Sequential replays test cases in the order they
// were given. Shuffle runs every test case once in random order and then
// draws test cases at random, weighted so that the cumulative wall-clock time
// spent in each test case evens out.
package schedule

import (
	"math/rand"

	"code.cloudfoundry.org/clock"

	"github.com/stb-tester/stbt-batch/internal/testcase"
)

// Scheduler produces the sequence of test cases to run.
//
// The caller calls Next to get a test case, runs it, then calls Done. Next
// returns false once the sequence is exhausted; a repeating scheduler never
// returns false.
type Scheduler interface {
	// Next returns the next test case to run.
	Next() (tc testcase.TestCase, ok bool)
	// Done reports that the test case returned by the last Next call has
	// finished running. Calling Done twice, or before Next, has no effect.
	Done()
}

// Config selects a scheduling policy.
type Config struct {
	// Shuffle selects the load-balanced shuffle policy instead of running test
	// cases in order.
	Shuffle bool
	// Repeat makes the sequence infinite. Otherwise it ends after every test
	// case has been returned once.
	Repeat bool
	// Clock measures run durations for the shuffle policy. Defaults to the
	// real clock.
	Clock clock.Clock
	// Rand drives the shuffle policy. Defaults to a time-seeded source.
	Rand *rand.Rand
}

// New returns a Scheduler over cases using the policy chosen by cfg.
func New(cases []testcase.TestCase, cfg Config) Scheduler {
	if !cfg.Shuffle {
		return NewSequential(cases, cfg.Repeat)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewClock()
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(clk.Now().UnixNano()))
	}
	return NewShuffle(cases, cfg.Repeat, clk, rnd)
}

// Sequential is a Scheduler returning test cases in their original order.
type Sequential struct {
	cases  []testcase.TestCase
	repeat bool
	pos    int // index of the test case returned by the next call to Next
}

var _ Scheduler = (*Sequential)(nil)

// NewSequential returns a Sequential scheduler. If repeat is true the
// sequence wraps around forever.
func NewSequential(cases []testcase.TestCase, repeat bool) *Sequential {
	return &Sequential{cases: append([]testcase.TestCase(nil), cases...), repeat: repeat}
}

// Next implements Scheduler.
func (s *Sequential) Next() (testcase.TestCase, bool) {
	if len(s.cases) == 0 {
		return testcase.TestCase{}, false
	}
	if s.pos == len(s.cases) {
		if !s.repeat {
			return testcase.TestCase{}, false
		}
		s.pos = 0
	}
	tc := s.cases[s.pos]
	s.pos++
	return tc, true
}

// Done implements Scheduler.
func (s *Sequential) Done() {}
