// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package supervisor runs the test runner for a single test case inside a run
// directory and reports its exit status.
package supervisor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/stb-tester/stbt-batch/internal/config"
	"github.com/stb-tester/stbt-batch/internal/errors"
	"github.com/stb-tester/stbt-batch/internal/gitinfo"
	"github.com/stb-tester/stbt-batch/internal/logging"
	"github.com/stb-tester/stbt-batch/internal/shutil"
	"github.com/stb-tester/stbt-batch/internal/testcase"
	"github.com/stb-tester/stbt-batch/internal/timing"
)

const (
	defaultKillGrace  = 10 * time.Second       // time between SIGTERM and SIGKILL for the process group
	groupPollInterval = 100 * time.Millisecond // interval of checks for remaining group members

	videoFile = "video.webm" // recording written by the runner inside the run directory
)

// Files written into each run directory before the runner starts.
const (
	TestNameFile     = "test-name"
	TestArgsFile     = "test-args"
	GitCommitFile    = "git-commit"
	GitCommitSHAFile = "git-commit-sha"
	ExtraColumnsFile = "extra-columns"
)

// Options holds the per-batch settings that affect how the runner is invoked.
type Options struct {
	Verbose    int    // number of -v flags given to the batch
	Debug      bool   // dump intermediate images
	SaveVideo  bool   // record a video of each run
	HTMLReport bool   // let the runner regenerate the HTML report
	Tag        string // batch tag as given by the user, without the leading "-"
}

// Supervisor starts the test runner and waits for it.
type Supervisor struct {
	cfg *config.Config
	git *gitinfo.Info
	clk clock.Clock

	// Stdout and Stderr receive the runner's output. Nil discards it.
	Stdout, Stderr io.Writer
	// KillGrace is how long a terminated process group may take to exit
	// before it is killed.
	KillGrace time.Duration
}

// New returns a Supervisor using cfg to locate the runner. git may be nil.
func New(cfg *config.Config, git *gitinfo.Info, clk clock.Clock) *Supervisor {
	return &Supervisor{
		cfg:       cfg,
		git:       git,
		clk:       clk,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		KillGrace: defaultKillGrace,
	}
}

// WriteMetadata writes the files describing tc into dir.
func (s *Supervisor) WriteMetadata(dir string, tc testcase.TestCase, tag string) error {
	name, err := s.git.TestName(tc.Path)
	if err != nil {
		return err
	}
	files := []struct{ name, data string }{
		{TestNameFile, name},
		{TestArgsFile, strings.Join(tc.Args, "\n")},
	}
	if s.git != nil {
		files = append(files,
			struct{ name, data string }{GitCommitFile, s.git.Commit},
			struct{ name, data string }{GitCommitSHAFile, s.git.CommitSHA})
	}
	if tag != "" {
		files = append(files, struct{ name, data string }{ExtraColumnsFile, "Tag\t" + tag + "\n"})
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.name), []byte(f.data), 0644); err != nil {
			return errors.Wrapf(err, "failed to write %s", f.name)
		}
	}
	return nil
}

// Command returns the command line that runs tc.
func (s *Supervisor) Command(tc testcase.TestCase, opts Options) ([]string, error) {
	abs, err := filepath.Abs(tc.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", tc.Path)
	}
	args := []string{"--save-thumbnail=always"}
	if opts.SaveVideo {
		args = append(args, "--save-video="+videoFile)
	}
	if opts.Debug {
		args = append(args, "-vv")
	} else {
		args = append(args, "-v")
	}
	args = append(args, abs, testcase.Separator)
	args = append(args, tc.Args...)
	return s.cfg.Command(args...), nil
}

// Env returns the variables added to the runner's environment for tc.
func (s *Supervisor) Env(tc testcase.TestCase, opts Options) []string {
	return []string{
		"PYTHONUNBUFFERED=x",
		"do_html_report=" + strconv.FormatBool(opts.HTMLReport),
		"stbt_root=" + s.cfg.Root,
		"test_displayname=" + tc.DisplayName(),
		"verbose=" + strconv.Itoa(opts.Verbose),
	}
}

// Execute runs tc with dir as the working directory and returns the runner's
// exit status. A runner killed by signal N reports -N.
//
// The runner is started in its own process group. If ctx is canceled before
// the runner exits, the whole group is sent SIGTERM, then SIGKILL if it is
// still alive after KillGrace, and Execute returns once every member of the
// group has exited, with an error wrapping ctx.Err().
func (s *Supervisor) Execute(ctx context.Context, tc testcase.TestCase, opts Options, dir string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(err, "not starting test runner")
	}
	args, err := s.Command(tc, opts)
	if err != nil {
		return 0, err
	}
	env := s.Env(tc, opts)

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	// A nil Stdin reads from the null device, so the runner never waits on
	// the terminal.
	cmd.Stdin = nil
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	logging.Debugf(ctx, "Running in %s: %s", dir, shutil.EscapeEnv(env, args))
	st := timing.Start(ctx, "run_test")
	defer st.End()

	if err := cmd.Start(); err != nil {
		return 0, errors.Wrapf(err, "failed to start %s", args[0])
	}
	pgid := cmd.Process.Pid

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return exitStatus(cmd, err)
	case <-ctx.Done():
	}

	tst := timing.Start(ctx, "terminate_group")
	logging.Infof(ctx, "Terminating test runner process group %d", pgid)
	waitErr := s.terminateGroup(ctx, pgid, done)
	tst.End()

	status, err := exitStatus(cmd, waitErr)
	if err != nil {
		return status, err
	}
	return status, errors.Wrap(ctx.Err(), "test run interrupted")
}

// terminateGroup signals process group pgid to exit and waits until the
// group leader has been reaped and no other member is left. done receives
// the leader's Wait result, which is returned.
func (s *Supervisor) terminateGroup(ctx context.Context, pgid int, done <-chan error) error {
	signalGroup(ctx, pgid, syscall.SIGTERM)

	grace := s.clk.NewTimer(s.KillGrace)
	defer grace.Stop()

	var waitErr error
	reaped := false
	for {
		if reaped && !groupAlive(pgid) {
			return waitErr
		}
		select {
		case <-grace.C():
			logging.Infof(ctx, "Process group %d still running after %v; killing it", pgid, s.KillGrace)
			signalGroup(ctx, pgid, syscall.SIGKILL)
		case waitErr = <-doneOrNil(done, reaped):
			reaped = true
		case <-s.clk.After(groupPollInterval):
		}
	}
}

// doneOrNil returns done until the leader is reaped, and nil (which blocks
// forever in a select) afterwards.
func doneOrNil(done <-chan error, reaped bool) <-chan error {
	if reaped {
		return nil
	}
	return done
}

// exitStatus converts the result of cmd.Wait to an exit status.
func exitStatus(cmd *exec.Cmd, err error) (int, error) {
	ps := cmd.ProcessState
	if ps == nil {
		return 0, errors.Wrap(err, "failed to wait for test runner")
	}
	var ee *exec.ExitError
	if err != nil && !errors.As(err, &ee) {
		return ps.ExitCode(), errors.Wrap(err, "test runner output was lost")
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -int(ws.Signal()), nil
	}
	return ps.ExitCode(), nil
}
