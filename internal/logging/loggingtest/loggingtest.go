// Copyright 2021 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package loggingtest provides a logging.Logger for unit tests.
package loggingtest

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stb-tester/stbt-batch/internal/logging"
)

// Logger records messages at or above a level and echoes every message to
// the test log.
type Logger struct {
	t     *testing.T
	level logging.Level

	mu   sync.Mutex
	msgs []string
}

// NewLogger returns a Logger recording messages at level or above.
func NewLogger(t *testing.T, level logging.Level) *Logger {
	return &Logger{t: t, level: level}
}

// Log implements logging.Logger.
func (l *Logger) Log(level logging.Level, ts time.Time, msg string) {
	l.t.Helper()
	l.t.Logf("[%v] %s", level, msg)
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

// Logs returns the recorded messages.
func (l *Logger) Logs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}

// String returns the recorded messages, one per line.
func (l *Logger) String() string {
	return strings.Join(l.Logs(), "\n")
}
