// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package state publishes batch state, such as the directory of the run in
// flight, to external observers like live dashboards.
package state

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/stb-tester/stbt-batch/internal/errors"
	"github.com/stb-tester/stbt-batch/internal/fsutil"
)

// ActiveResultsDirectory is the key holding the absolute path of the run
// directory in flight, or nil between runs.
const ActiveResultsDirectory = "active_results_directory"

// Sender publishes key/value state to an observer.
type Sender interface {
	// Set sets key to value. A nil value clears the key.
	Set(key string, value interface{}) error
}

type nopSender struct{}

func (nopSender) Set(string, interface{}) error { return nil }

// NewNopSender returns a Sender that discards all state.
func NewNopSender() Sender {
	return nopSender{}
}

// FileSender is a Sender that keeps the whole state as a JSON object in a
// file. The file is replaced atomically on every Set, so readers always see a
// complete document.
type FileSender struct {
	path string

	mu    sync.Mutex
	state map[string]interface{}
}

var _ Sender = (*FileSender)(nil)

// NewFileSender creates a FileSender writing to path and writes an empty
// state to it.
func NewFileSender(path string) (*FileSender, error) {
	s := &FileSender{path: path, state: make(map[string]interface{})}
	if err := s.write(); err != nil {
		return nil, err
	}
	return s, nil
}

// Set implements Sender.
func (s *FileSender) Set(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = value
	return s.write()
}

func (s *FileSender) write() error {
	b, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal state")
	}
	if err := fsutil.WriteFileAtomic(s.path, append(b, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "failed to write state to %s", s.path)
	}
	return nil
}

// Read reads the state written by a FileSender.
func Read(path string) (map[string]interface{}, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	st := make(map[string]interface{})
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, errors.Wrapf(err, "failed to parse state file %s", path)
	}
	return st, nil
}

// ActiveDirectory returns the run directory in flight according to st.
func ActiveDirectory(st map[string]interface{}) (dir string, ok bool) {
	dir, ok = st[ActiveResultsDirectory].(string)
	return dir, ok && dir != ""
}
