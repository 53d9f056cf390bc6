// Copyright 2021 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/stb-tester/stbt-batch/internal/errors"
)

// timestampFormat prefixes messages written by a SinkLogger with timestamps.
const timestampFormat = "2006-01-02 15:04:05 "

// Sink is where a SinkLogger writes formatted messages.
type Sink interface {
	Log(msg string)
}

// SinkLogger is a Logger writing messages at or above a level to a Sink.
type SinkLogger struct {
	level     Level
	timestamp bool
	sink      Sink
}

// NewSinkLogger returns a SinkLogger that drops messages below level and,
// if timestamp is true, prefixes the rest with their local time.
func NewSinkLogger(level Level, timestamp bool, sink Sink) *SinkLogger {
	return &SinkLogger{level: level, timestamp: timestamp, sink: sink}
}

// Log implements Logger.
func (l *SinkLogger) Log(level Level, ts time.Time, msg string) {
	if level < l.level {
		return
	}
	if l.timestamp {
		msg = ts.Format(timestampFormat) + msg
	}
	l.sink.Log(msg)
}

// WriterSink writes one line per message to an io.Writer. It is safe for
// concurrent use.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink returns a WriterSink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Log implements Sink.
func (s *WriterSink) Log(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, msg)
}

// FileSink is a WriterSink appending to a file. It must be closed after use.
type FileSink struct {
	*WriterSink
	f *os.File
}

// NewFileSink opens path for appending, creating it if needed.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log file")
	}
	return &FileSink{WriterSink: NewWriterSink(f), f: f}, nil
}

// Close closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
