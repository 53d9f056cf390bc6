// Copyright 2018 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package errors provides basic utilities to construct errors.
//
// To construct new errors or wrap other errors, use this package rather than
// the standard errors package or fmt.Errorf. This package records stack
// traces and chained errors, which are printed when a batch aborts.
//
// To construct a new error, use New or Errorf.
//
//	errors.New("run directory already exists")
//	errors.Errorf("test %q not found", path)
//
// To construct an error by adding context to an existing error, use Wrap or
// Wrapf.
//
//	errors.Wrap(err, "failed to start test runner")
//	errors.Wrapf(err, "failed to create %s", dir)
//
// A stack trace can be printed by formatting an error with the "%+v" verb.
package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/stb-tester/stbt-batch/internal/errors/stack"
)

// chainError is an error message with the stack trace of the place it was
// created, optionally wrapping a cause.
type chainError struct {
	msg   string
	trace stack.Stack
	cause error
}

// newChain is called by the exported constructors only, so that the recorded
// trace starts at their caller.
func newChain(cause error, msg string) *chainError {
	return &chainError{msg: msg, trace: stack.New(2), cause: cause}
}

func (e *chainError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

// Unwrap returns the wrapped cause, or nil.
func (e *chainError) Unwrap() error {
	return e.cause
}

// Format implements fmt.Formatter. The %+v verb prints every error in the
// chain followed by its stack trace. Errors created outside this package
// have no trace and are followed by "at ???".
func (e *chainError) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		io.WriteString(s, e.chainString())
	case verb == 'q':
		fmt.Fprintf(s, "%q", e.Error())
	default:
		io.WriteString(s, e.Error())
	}
}

func (e *chainError) chainString() string {
	var parts []string
	var err error = e
	for err != nil {
		ce, ok := err.(*chainError)
		if !ok {
			parts = append(parts, err.Error()+"\n\tat ???")
			break
		}
		parts = append(parts, ce.msg+"\n"+ce.trace.String())
		err = ce.cause
	}
	return strings.Join(parts, "\n")
}

// New creates a new error with the given message.
func New(msg string) error {
	return newChain(nil, msg)
}

// Errorf creates a new error with a message formatted by fmt.Sprintf.
func Errorf(format string, args ...interface{}) error {
	return newChain(nil, fmt.Sprintf(format, args...))
}

// Wrap creates a new error with the given message, wrapping cause.
// If cause is nil, it behaves like New.
func Wrap(cause error, msg string) error {
	return newChain(cause, msg)
}

// Wrapf is like Wrap with a message formatted by fmt.Sprintf.
func Wrapf(cause error, format string, args ...interface{}) error {
	return newChain(cause, fmt.Sprintf(format, args...))
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}
