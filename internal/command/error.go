// Copyright 2018 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package command contains code shared by the stbt-batch subcommands.
package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/subcommands"

	"github.com/stb-tester/stbt-batch/internal/errors"
)

// StatusError is an error carrying the status a subcommand should exit with.
// Only its message is shown to the user.
type StatusError struct {
	msg    string
	status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (exit status %d)", e.msg, e.status)
}

// Status returns the exit status.
func (e *StatusError) Status() int {
	return e.status
}

// NewStatusErrorf returns a StatusError with a message formatted by
// fmt.Sprintf.
func NewStatusErrorf(status int, format string, args ...interface{}) *StatusError {
	return &StatusError{msg: fmt.Sprintf(format, args...), status: status}
}

// UsageErrorf returns a StatusError for a command line that cannot be acted
// on.
func UsageErrorf(format string, args ...interface{}) *StatusError {
	return NewStatusErrorf(int(subcommands.ExitUsageError), format, args...)
}

// Exit writes err to w as a single message ending in a newline and returns
// the status to exit with: that of the first StatusError in err's chain, or
// subcommands.ExitFailure.
func Exit(w io.Writer, err error) subcommands.ExitStatus {
	msg, status := err.Error(), subcommands.ExitFailure
	var se *StatusError
	if errors.As(err, &se) {
		msg, status = se.msg, subcommands.ExitStatus(se.status)
	}
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	io.WriteString(w, msg)
	return status
}
