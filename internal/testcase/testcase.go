// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package testcase defines the unit of work scheduled by a batch: a test
// script path plus the arguments passed to it.
package testcase

import (
	"strings"

	"github.com/stb-tester/stbt-batch/internal/errors"
)

// Separator splits test cases on the command line.
const Separator = "--"

// TestCase identifies one invocation of the test runner.
// It must not be mutated once constructed.
type TestCase struct {
	Path string
	Args []string
}

// New returns a TestCase for path with a private copy of args.
func New(path string, args ...string) TestCase {
	return TestCase{Path: path, Args: append([]string(nil), args...)}
}

// Key returns a string that is equal for two TestCases exactly when their
// paths and arguments are equal. It is used to key timing tables.
func (tc TestCase) Key() string {
	return strings.Join(append([]string{tc.Path}, tc.Args...), "\x00")
}

// DisplayName returns the path and arguments joined by spaces.
func (tc TestCase) DisplayName() string {
	return strings.Join(append([]string{tc.Path}, tc.Args...), " ")
}

func (tc TestCase) String() string {
	return tc.DisplayName()
}

// Parse converts the positional arguments of "stbt-batch run" into test cases.
//
// Without any Separator every argument is a test path with no arguments:
//
//	a.py b.py            -> (a.py) (b.py)
//
// Once a Separator appears, arguments are grouped by it and the first element
// of each group is the path:
//
//	a.py x y -- b.py z   -> (a.py x y) (b.py z)
//	a.py --              -> (a.py)
//
// Empty groups are dropped.
func Parse(args []string) ([]TestCase, error) {
	var tcs []TestCase
	if !contains(args, Separator) {
		for _, a := range args {
			tcs = append(tcs, New(a))
		}
	} else {
		for _, g := range split(args, Separator) {
			tcs = append(tcs, New(g[0], g[1:]...))
		}
	}
	if len(tcs) == 0 {
		return nil, errors.New("no test cases given")
	}
	return tcs, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// split is like strings.Split for slices, dropping empty groups.
func split(list []string, sep string) [][]string {
	var out [][]string
	var cur []string
	for _, s := range list {
		if s == sep {
			if len(cur) > 0 {
				out = append(out, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, s)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
