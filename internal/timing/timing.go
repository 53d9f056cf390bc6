// Copyright 2017 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package timing records how long the stages of a run take.
package timing

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
)

type logKey struct{}

// Log is a tree of timed stages. A stage started while another one is open
// becomes its child.
type Log struct {
	clk clock.Clock

	mu   sync.Mutex // protects the stage tree
	root Stage
}

// NewLog returns an empty Log reading time from clk.
func NewLog(clk clock.Clock) *Log {
	l := &Log{clk: clk}
	l.root.log = l
	return l
}

// NewContext returns a context carrying l.
func NewContext(ctx context.Context, l *Log) context.Context {
	return context.WithValue(ctx, logKey{}, l)
}

// FromContext returns the Log carried by ctx.
func FromContext(ctx context.Context) (*Log, bool) {
	l, ok := ctx.Value(logKey{}).(*Log)
	return l, ok
}

// Start starts a stage in the Log carried by ctx. Without a Log, the stage
// is timed but not recorded anywhere.
func Start(ctx context.Context, name string) *Stage {
	l, ok := FromContext(ctx)
	if !ok {
		l = NewLog(clock.NewClock())
	}
	return l.Start(name)
}

// Start starts a stage nested in the innermost open stage.
func (l *Log) Start(name string) *Stage {
	l.mu.Lock()
	defer l.mu.Unlock()

	parent := &l.root
	for n := len(parent.children); n > 0 && parent.children[n-1].end.IsZero(); n = len(parent.children) {
		parent = parent.children[n-1]
	}
	s := &Stage{log: l, name: name, start: l.clk.Now()}
	parent.children = append(parent.children, s)
	return s
}

// stageJSON is the encoding of a Stage written by Log.Write.
type stageJSON struct {
	Name    string       `json:"name"`
	Start   time.Time    `json:"start"`
	Seconds float64      `json:"seconds"`
	Stages  []*stageJSON `json:"stages,omitempty"`
}

// Write writes the stages to w as indented JSON. Stages that have not ended
// are written with their duration so far.
func (l *Log) Write(w io.Writer) error {
	l.mu.Lock()
	stages := l.root.encode().Stages
	l.mu.Unlock()
	if stages == nil {
		stages = []*stageJSON{}
	}

	b, err := json.MarshalIndent(stages, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// Stage is a named span of time in a Log.
type Stage struct {
	log        *Log
	name       string
	start, end time.Time
	children   []*Stage
}

// Elapsed returns the duration of the stage, or the time since it started if
// it is still open.
func (s *Stage) Elapsed() time.Duration {
	s.log.mu.Lock()
	defer s.log.mu.Unlock()
	return s.elapsed()
}

func (s *Stage) elapsed() time.Duration {
	if s.end.IsZero() {
		return s.log.clk.Since(s.start)
	}
	return s.end.Sub(s.start)
}

// End ends the stage. Calls after the first have no effect.
func (s *Stage) End() {
	s.log.mu.Lock()
	defer s.log.mu.Unlock()
	if s.end.IsZero() {
		s.end = s.log.clk.Now()
	}
}

// encode must be called with s.log.mu held.
func (s *Stage) encode() *stageJSON {
	j := &stageJSON{Name: s.name, Start: s.start, Seconds: s.elapsed().Seconds()}
	for _, c := range s.children {
		j.Stages = append(j.Stages, c.encode())
	}
	return j
}
