// Copyright 2021 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package logging provides leveled logging through context.Context.
//
// A Logger is attached to a context with AttachLogger, and messages are sent
// with Info, Infof, Debug and Debugf. Messages sent to a context without a
// logger are dropped.
package logging

import (
	"sync"
	"time"
)

// Level is the severity of a message. Higher is more severe.
type Level int

const (
	// LevelDebug is for messages shown with -verbose only.
	LevelDebug Level = iota
	// LevelInfo is for messages always shown to the user.
	LevelInfo
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	}
	return "UNKNOWN"
}

// Logger receives messages sent through a context.
type Logger interface {
	Log(level Level, ts time.Time, msg string)
}

// MultiLogger fans messages out to a changing set of loggers.
type MultiLogger struct {
	mu      sync.Mutex
	loggers []Logger
}

// NewMultiLogger returns a MultiLogger sending to loggers.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log sends the message to every current logger.
func (ml *MultiLogger) Log(level Level, ts time.Time, msg string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	for _, l := range ml.loggers {
		l.Log(level, ts, msg)
	}
}

// AddLogger starts sending messages to logger.
func (ml *MultiLogger) AddLogger(logger Logger) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.loggers = append(ml.loggers, logger)
}

// RemoveLogger stops sending messages to logger.
func (ml *MultiLogger) RemoveLogger(logger Logger) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	kept := ml.loggers[:0]
	for _, l := range ml.loggers {
		if l != logger {
			kept = append(kept, l)
		}
	}
	ml.loggers = kept
}
