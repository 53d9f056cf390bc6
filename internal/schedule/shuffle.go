// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package schedule

import (
	"fmt"
	"math/rand"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/stb-tester/stbt-batch/internal/testcase"
)

// Shuffle is a Scheduler that balances cumulative run time across test cases.
//
// The first pass returns every test case exactly once in random order, which
// gives each one a timing baseline. After that, if repeating, each draw picks
// test case T with weight runs(T)/total(T): test cases that complete quickly
// are picked more often, so that the total time spent tends to be equal
// across test cases.
type Shuffle struct {
	clk    clock.Clock
	rnd    *rand.Rand
	repeat bool

	order  []testcase.TestCase // test cases in random first-pass order
	pos    int                 // first-pass cursor into order
	timing *TimingTable

	active  *testcase.TestCase // test case returned by Next and not yet Done
	started time.Time          // when active was returned
}

var _ Scheduler = (*Shuffle)(nil)

// NewShuffle returns a Shuffle scheduler over cases.
func NewShuffle(cases []testcase.TestCase, repeat bool, clk clock.Clock, rnd *rand.Rand) *Shuffle {
	order := append([]testcase.TestCase(nil), cases...)
	rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return &Shuffle{
		clk:    clk,
		rnd:    rnd,
		repeat: repeat,
		order:  order,
		timing: NewTimingTable(order),
	}
}

// Next implements Scheduler. If the previous test case was not reported with
// Done, its run is considered to have lasted until now.
func (s *Shuffle) Next() (testcase.TestCase, bool) {
	s.Done()

	var tc testcase.TestCase
	switch {
	case s.pos < len(s.order):
		tc = s.order[s.pos]
		s.pos++
	case !s.repeat || len(s.order) == 0:
		return testcase.TestCase{}, false
	default:
		tc = weightedChoice(s.rnd, s.timing.choices())
	}

	s.active = &tc
	s.started = s.clk.Now()
	return tc, true
}

// Done implements Scheduler. It records the elapsed time of the active test
// case in the timing table.
func (s *Shuffle) Done() {
	if s.active == nil {
		return
	}
	s.timing.Record(*s.active, s.clk.Since(s.started))
	s.active = nil
}

// Timings returns the timing table. It must not be modified by the caller.
func (s *Shuffle) Timings() *TimingTable {
	return s.timing
}

// choice is a candidate for weightedChoice.
type choice struct {
	tc     testcase.TestCase
	weight float64
}

// weightedChoice picks one of choices with probability proportional to its
// weight. Weights must be non-negative with a positive sum.
func weightedChoice(rnd *rand.Rand, choices []choice) testcase.TestCase {
	var total float64
	for _, c := range choices {
		total += c.weight
	}
	r := rnd.Float64() * total
	var upto float64
	for _, c := range choices {
		if upto+c.weight > r {
			return c.tc
		}
		upto += c.weight
	}
	panic(fmt.Sprintf("weighted choice over %d choices with total weight %v selected nothing", len(choices), total))
}
