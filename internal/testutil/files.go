// Copyright 2017 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package testutil provides support code for unit tests.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TempDir returns a new temporary directory named after the test, which is
// removed when the test finishes.
func TempDir(t *testing.T) string {
	t.Helper()
	prefix := "stbt_batch_unittest_" + strings.ReplaceAll(t.Name(), "/", "_") + "."
	td, err := os.MkdirTemp("", prefix)
	if err != nil {
		t.Fatal("Failed to create temporary directory: ", err)
	}
	t.Cleanup(func() { os.RemoveAll(td) })
	return td
}

// WriteFiles writes files under dir, creating parent directories as needed.
// Keys of files are slash-separated relative paths. Files whose contents
// start with "#!" are made executable.
func WriteFiles(dir string, files map[string]string) error {
	for name, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		var mode os.FileMode = 0644
		if strings.HasPrefix(data, "#!") {
			mode = 0755
		}
		if err := os.WriteFile(path, []byte(data), mode); err != nil {
			return err
		}
	}
	return nil
}

// ReadFiles returns the contents of the regular files under dir, keyed by
// slash-separated relative path. Symlinks are not followed.
func ReadFiles(dir string) (map[string]string, error) {
	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	return files, err
}
