// Copyright 2018 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stb-tester/stbt-batch/internal/errors"
	"github.com/stb-tester/stbt-batch/internal/testutil"
)

func TestWriteFileAtomic(t *testing.T) {
	td := testutil.TempDir(t)
	p := filepath.Join(td, "state.json")

	for _, data := range []string{"first", "second"} {
		if err := WriteFileAtomic(p, []byte(data), 0644); err != nil {
			t.Fatalf("WriteFileAtomic(%q) failed: %v", data, err)
		}
		b, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != data {
			t.Errorf("%s contains %q; want %q", p, b, data)
		}
	}

	files, err := testutil.ReadFiles(td)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(files, map[string]string{"state.json": "second"}); diff != "" {
		t.Errorf("Files mismatch after writes (-got +want):\n%s", diff)
	}
}

func TestReplaceSymlink(t *testing.T) {
	td := testutil.TempDir(t)
	for _, d := range []string{"a", "b"} {
		if err := os.Mkdir(filepath.Join(td, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	link := filepath.Join(td, "current")

	for _, target := range []string{"a", "b"} {
		if err := ReplaceSymlink(target, link); err != nil {
			t.Fatalf("ReplaceSymlink(%q) failed: %v", target, err)
		}
		if got, err := os.Readlink(link); err != nil {
			t.Fatal(err)
		} else if got != target {
			t.Errorf("Readlink(%s) = %q; want %q", link, got, target)
		}
		if fi, err := os.Stat(link); err != nil || !fi.IsDir() {
			t.Errorf("%s does not resolve to a directory: %v", link, err)
		}
	}

	ents, err := os.ReadDir(td)
	if err != nil {
		t.Fatal(err)
	}
	if len(ents) != 3 {
		t.Errorf("Found %d entries in %s; want 3 (no leftover tmp links)", len(ents), td)
	}
}

func TestReplaceSymlinkRenameFailure(t *testing.T) {
	td := testutil.TempDir(t)
	for _, d := range []string{"old", "new"} {
		if err := os.Mkdir(filepath.Join(td, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	link := filepath.Join(td, "latest")
	if err := ReplaceSymlink("old", link); err != nil {
		t.Fatal(err)
	}

	// Fail between creating the tmp link and renaming it into place.
	var tmpSeen string
	rename = func(oldpath, newpath string) error {
		tmpSeen = oldpath
		if _, err := os.Lstat(oldpath); err != nil {
			t.Errorf("tmp link %s missing before rename: %v", oldpath, err)
		}
		if got, _ := os.Readlink(link); got != "old" {
			t.Errorf("Before rename %s points to %q; want %q", link, got, "old")
		}
		return errors.New("injected failure")
	}
	defer func() { rename = os.Rename }()

	if err := ReplaceSymlink("new", link); err == nil {
		t.Fatal("ReplaceSymlink succeeded with failing rename")
	}
	if got, err := os.Readlink(link); err != nil || got != "old" {
		t.Errorf("After failure Readlink(%s) = (%q, %v); want %q", link, got, err, "old")
	}
	if fi, err := os.Stat(link); err != nil || !fi.IsDir() {
		t.Errorf("After failure %s does not resolve to a directory: %v", link, err)
	}
	if _, err := os.Lstat(tmpSeen); !os.IsNotExist(err) {
		t.Errorf("tmp link %s was left behind: %v", tmpSeen, err)
	}
}
