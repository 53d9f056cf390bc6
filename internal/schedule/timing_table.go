// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package schedule

import (
	"time"

	"github.com/stb-tester/stbt-batch/internal/testcase"
)

// TimingEntry holds the cumulative run time of a test case.
// Runs is zero exactly when Total is zero.
type TimingEntry struct {
	Total time.Duration
	Runs  int
}

// Weight returns the draw weight of the test case: runs per second spent.
func (e TimingEntry) Weight() float64 {
	return float64(e.Runs) / e.Total.Seconds()
}

// TimingTable records TimingEntry values per test case, keeping the order in
// which test cases were added.
type TimingTable struct {
	cases   []testcase.TestCase
	entries map[string]*TimingEntry
}

// NewTimingTable returns a table with an empty entry for each of cases.
func NewTimingTable(cases []testcase.TestCase) *TimingTable {
	t := &TimingTable{entries: make(map[string]*TimingEntry)}
	for _, tc := range cases {
		if _, ok := t.entries[tc.Key()]; ok {
			continue
		}
		t.cases = append(t.cases, tc)
		t.entries[tc.Key()] = &TimingEntry{}
	}
	return t
}

// Record adds one run of tc lasting d. Durations below one nanosecond are
// recorded as one nanosecond so that every recorded entry has a finite weight.
func (t *TimingTable) Record(tc testcase.TestCase, d time.Duration) {
	if d <= 0 {
		d = time.Nanosecond
	}
	e, ok := t.entries[tc.Key()]
	if !ok {
		t.cases = append(t.cases, tc)
		e = &TimingEntry{}
		t.entries[tc.Key()] = e
	}
	e.Total += d
	e.Runs++
}

// Get returns the entry for tc.
func (t *TimingTable) Get(tc testcase.TestCase) TimingEntry {
	if e, ok := t.entries[tc.Key()]; ok {
		return *e
	}
	return TimingEntry{}
}

// Len returns the number of test cases in the table.
func (t *TimingTable) Len() int {
	return len(t.cases)
}

func (t *TimingTable) choices() []choice {
	cs := make([]choice, len(t.cases))
	for i, tc := range t.cases {
		cs[i] = choice{tc, t.entries[tc.Key()].Weight()}
	}
	return cs
}
