// Copyright 2018 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package fsutil implements atomic file and symlink replacement.
package fsutil

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/stb-tester/stbt-batch/internal/errors"
)

// rename is os.Rename, replaced in unit tests to inject failures.
var rename = os.Rename

// WriteFileAtomic writes data to path with the given mode.
// path is atomically replaced if it already exists, so concurrent readers see
// either the old or the new contents.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".")
	if err != nil {
		return errors.Wrap(err, "failed to create tmp file")
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return errors.Wrap(err, "failed to write tmp file")
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return errors.Wrap(err, "failed to close tmp file")
	}
	if err := os.Chmod(f.Name(), mode); err != nil {
		os.Remove(f.Name())
		return errors.Wrap(err, "failed to change permissions of tmp file")
	}
	if err := rename(f.Name(), path); err != nil {
		os.Remove(f.Name())
		return errors.Wrap(err, "failed to rename tmp file")
	}
	return nil
}

// ReplaceSymlink atomically points the symlink at link to target.
//
// A uniquely-named temporary symlink is created next to link and renamed over
// it, so link always resolves to either its old or its new target. target is
// stored verbatim; pass a path relative to link's directory to keep the link
// valid when the tree is moved.
func ReplaceSymlink(target, link string) error {
	tmp := link + "-" + uuid.NewString() + "~"
	if err := os.Symlink(target, tmp); err != nil {
		return errors.Wrapf(err, "failed to create tmp symlink %s", tmp)
	}
	if err := rename(tmp, link); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "failed to rename %s to %s", tmp, link)
	}
	return nil
}
