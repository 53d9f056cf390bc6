// Copyright 2018 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package stack provides a utility to capture and format a stack trace.
// This is not intended to be used directly; use the errors package instead.
package stack

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	maxDepth = 8       // frames printed before the trace is cut short
	ellipsis = "\t..." // last line of a trace that was cut short

	// modulePrefix is trimmed from the function names of this module's frames.
	modulePrefix = "github.com/stb-tester/stbt-batch/"
)

// Stack is a captured call stack.
type Stack []uintptr

// New captures the stack of its caller. skip is the number of further frames
// to leave out, so that helpers can record the stack of their own caller.
func New(skip int) Stack {
	// One frame more than is printed, to know whether to print the ellipsis.
	pcs := make([]uintptr, maxDepth+1)
	n := runtime.Callers(skip+2, pcs)
	return Stack(pcs[:n])
}

// String formats the stack with one "\tat function (file:line)" line per
// frame, innermost first.
func (s Stack) String() string {
	var b strings.Builder
	frames := runtime.CallersFrames(s)
	for n := 0; ; n++ {
		f, more := frames.Next()
		if n > 0 {
			b.WriteByte('\n')
		}
		if n == maxDepth {
			b.WriteString(ellipsis)
			break
		}
		fmt.Fprintf(&b, "\tat %s (%s:%d)", strings.TrimPrefix(f.Function, modulePrefix), filepath.Base(f.File), f.Line)
		if !more {
			break
		}
	}
	return b.String()
}
