// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"code.cloudfoundry.org/clock"

	"github.com/stb-tester/stbt-batch/internal/config"
	"github.com/stb-tester/stbt-batch/internal/rundir"
	"github.com/stb-tester/stbt-batch/internal/state"
	"github.com/stb-tester/stbt-batch/internal/supervisor"
	"github.com/stb-tester/stbt-batch/internal/testcase"
	"github.com/stb-tester/stbt-batch/internal/testutil"
)

func TestRunExecutor(t *testing.T) {
	td := testutil.TempDir(t)
	if err := testutil.WriteFiles(td, map[string]string{
		"stbt-run": "#!/bin/sh\necho ok > ran\nexit 5\n",
		"test.py":  "",
	}); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(td, "results")
	stateFile := filepath.Join(td, "state.json")
	snd, err := state.NewFileSender(stateFile)
	if err != nil {
		t.Fatal(err)
	}

	clk := clock.NewClock()
	cfg := &config.Config{Root: td, Runner: filepath.Join(td, "stbt-run")}
	sup := supervisor.New(cfg, nil, clk)
	sup.Stdout = nil
	sup.Stderr = nil
	dirs := rundir.NewManager(outDir, "-nightly", clk, snd)
	e := NewRunExecutor(dirs, sup, supervisor.Options{Tag: "nightly"}, clk)

	status, err := e.Execute(context.Background(), testcase.New(filepath.Join(td, "test.py"), "x"))
	if err != nil {
		t.Fatal("Execute failed: ", err)
	}
	if status != 5 {
		t.Errorf("Execute = %d; want 5", status)
	}

	latest := dirs.LatestLink()
	target, err := os.Readlink(latest)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(target, "-nightly") || filepath.IsAbs(target) {
		t.Errorf("%s points at %q; want a relative name ending in -nightly", latest, target)
	}

	files, err := testutil.ReadFiles(filepath.Join(outDir, target))
	if err != nil {
		t.Fatal(err)
	}
	for _, fn := range []string{"ran", supervisor.TestNameFile, supervisor.TestArgsFile, supervisor.ExtraColumnsFile, TimingFile, LogFile} {
		if _, ok := files[fn]; !ok {
			t.Errorf("%s missing from run directory", fn)
		}
	}
	if got := files[supervisor.ExtraColumnsFile]; got != "Tag\tnightly\n" {
		t.Errorf("%s = %q; want %q", supervisor.ExtraColumnsFile, got, "Tag\tnightly\n")
	}
	if !strings.Contains(files[LogFile], "Results directory: ") {
		t.Errorf("%s = %q; want it to name the results directory", LogFile, files[LogFile])
	}
	for _, stage := range []string{`"write_metadata"`, `"run_test"`} {
		if !strings.Contains(files[TimingFile], stage) {
			t.Errorf("%s = %q; missing %s", TimingFile, files[TimingFile], stage)
		}
	}

	st, err := state.Read(stateFile)
	if err != nil {
		t.Fatal(err)
	}
	if dir, ok := state.ActiveDirectory(st); ok {
		t.Errorf("Active directory is %q after the run; want none", dir)
	}
}

func TestRunExecutorSeparateLogs(t *testing.T) {
	td := testutil.TempDir(t)
	if err := testutil.WriteFiles(td, map[string]string{
		"stbt-run": "#!/bin/sh\nexit 0\n",
		"a.py":     "",
		"b.py":     "",
	}); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(td, "results")

	clk := clock.NewClock()
	cfg := &config.Config{Root: td, Runner: filepath.Join(td, "stbt-run")}
	sup := supervisor.New(cfg, nil, clk)
	sup.Stdout = nil
	sup.Stderr = nil
	dirs := rundir.NewManager(outDir, "", clk, nil)
	e := NewRunExecutor(dirs, sup, supervisor.Options{}, clk)

	// Each run directory only gets the messages of its own run.
	logs := make(map[string]string)
	for _, name := range []string{"a.py", "b.py"} {
		if _, err := e.Execute(context.Background(), testcase.New(filepath.Join(td, name))); err != nil {
			t.Fatalf("Execute(%s) failed: %v", name, err)
		}
		target, err := os.Readlink(dirs.LatestLink())
		if err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(filepath.Join(outDir, target, LogFile))
		if err != nil {
			t.Fatal(err)
		}
		logs[target] = string(b)
	}
	if len(logs) != 2 {
		t.Fatalf("Got logs for %d run directories; want 2", len(logs))
	}
	for dir, log := range logs {
		if n := strings.Count(log, "Results directory: "); n != 1 {
			t.Errorf("%s/%s names %d results directories; want 1:\n%s", dir, LogFile, n, log)
		}
		if !strings.Contains(log, dir) {
			t.Errorf("%s/%s does not mention its own directory:\n%s", dir, LogFile, log)
		}
	}
}
