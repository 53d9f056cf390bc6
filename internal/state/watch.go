// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package state

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/stb-tester/stbt-batch/internal/errors"
	"github.com/stb-tester/stbt-batch/internal/logging"
)

// Watcher follows a state file written by FileSender.
//
// The file's directory is watched rather than the file itself because every
// update renames a new file over the old one.
type Watcher struct {
	path string
	w    *fsnotify.Watcher
}

// NewWatcher starts watching the state file at path. The file does not need
// to exist yet, but its directory does.
func NewWatcher(path string) (*Watcher, error) {
	path = filepath.Clean(path)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create watcher")
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(path))
	}
	return &Watcher{path: path, w: w}, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.w.Close()
}

// Run calls fn with the current state, then again every time the state file
// changes, until ctx is done or watching fails.
func (w *Watcher) Run(ctx context.Context, fn func(st map[string]interface{})) error {
	w.emit(ctx, fn)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) {
				continue
			}
			w.emit(ctx, fn)
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			return errors.Wrap(err, "watch failed")
		}
	}
}

func (w *Watcher) emit(ctx context.Context, fn func(st map[string]interface{})) {
	st, err := Read(w.path)
	if os.IsNotExist(err) {
		return
	} else if err != nil {
		logging.Debugf(ctx, "Ignoring unreadable state: %v", err)
		return
	}
	fn(st)
}
