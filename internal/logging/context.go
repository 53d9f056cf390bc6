// Copyright 2021 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package logging

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type loggerKey struct{}

// AttachLogger returns a context sending messages to logger as well as to
// any logger already attached to ctx.
func AttachLogger(ctx context.Context, logger Logger) context.Context {
	if parent, ok := fromContext(ctx); ok {
		logger = NewMultiLogger(logger, parent)
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// HasLogger reports whether a logger is attached to ctx.
func HasLogger(ctx context.Context) bool {
	_, ok := fromContext(ctx)
	return ok
}

func fromContext(ctx context.Context) (Logger, bool) {
	l, ok := ctx.Value(loggerKey{}).(Logger)
	return l, ok
}

// Info logs args, formatted as by fmt.Sprint, at LevelInfo.
func Info(ctx context.Context, args ...interface{}) {
	send(ctx, LevelInfo, fmt.Sprint(args...))
}

// Infof logs a message formatted as by fmt.Sprintf at LevelInfo.
func Infof(ctx context.Context, format string, args ...interface{}) {
	send(ctx, LevelInfo, fmt.Sprintf(format, args...))
}

// Debug logs args, formatted as by fmt.Sprint, at LevelDebug.
func Debug(ctx context.Context, args ...interface{}) {
	send(ctx, LevelDebug, fmt.Sprint(args...))
}

// Debugf logs a message formatted as by fmt.Sprintf at LevelDebug.
func Debugf(ctx context.Context, format string, args ...interface{}) {
	send(ctx, LevelDebug, fmt.Sprintf(format, args...))
}

func send(ctx context.Context, level Level, msg string) {
	ts := time.Now()
	if l, ok := fromContext(ctx); ok {
		// Test runners may print arbitrary bytes that end up in messages.
		l.Log(level, ts, strings.ToValidUTF8(msg, "�"))
	}
}
