// Copyright 2018 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package stack

import (
	"regexp"
	"strings"
	"testing"
)

func nested(depth int) Stack {
	if depth == 0 {
		return New(0)
	}
	return nested(depth - 1)
}

// helper records the stack of its caller.
func helper() Stack {
	return New(1)
}

func TestString(t *testing.T) {
	for _, tc := range []struct {
		name     string
		st       Stack
		first    string // regexp for the first line
		truncate bool
	}{
		{"shallow", New(0), `^\tat internal/errors/stack\.TestString \(stack_test.go:\d+\)$`, false},
		{"skip", helper(), `^\tat internal/errors/stack\.TestString \(stack_test.go:\d+\)$`, false},
		{"deep", nested(maxDepth), `^\tat internal/errors/stack\.nested \(stack_test.go:\d+\)$`, true},
	} {
		lines := strings.Split(tc.st.String(), "\n")
		if !regexp.MustCompile(tc.first).MatchString(lines[0]) {
			t.Errorf("%s: first line %q; should match %q", tc.name, lines[0], tc.first)
		}
		last := lines[len(lines)-1]
		if tc.truncate {
			if len(lines) != maxDepth+1 || last != ellipsis {
				t.Errorf("%s: got %d lines ending in %q; want %d ending in %q", tc.name, len(lines), last, maxDepth+1, ellipsis)
			}
		} else if last == ellipsis {
			t.Errorf("%s: short trace ends with ellipsis", tc.name)
		}
	}
}
