// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"code.cloudfoundry.org/clock"
	"github.com/google/subcommands"

	"github.com/stb-tester/stbt-batch/internal/batch"
	"github.com/stb-tester/stbt-batch/internal/command"
	"github.com/stb-tester/stbt-batch/internal/config"
	"github.com/stb-tester/stbt-batch/internal/errors"
	"github.com/stb-tester/stbt-batch/internal/gitinfo"
	"github.com/stb-tester/stbt-batch/internal/logging"
	"github.com/stb-tester/stbt-batch/internal/rundir"
	"github.com/stb-tester/stbt-batch/internal/schedule"
	"github.com/stb-tester/stbt-batch/internal/state"
	"github.com/stb-tester/stbt-batch/internal/supervisor"
	"github.com/stb-tester/stbt-batch/internal/testcase"
)

const signalChannelSize = 3 // capacity of channel used to intercept signals

// runCmd implements subcommands.Command to run a batch of test cases.
type runCmd struct {
	stderr io.Writer // receives interrupt notices and fatal errors

	runOnce      bool
	keepGoing    int
	debug        bool
	verbose      int
	output       string
	tag          string
	shuffle      bool
	noHTMLReport bool
	noSaveVideo  bool
	configPath   string
	stateFile    string

	root   string                           // installation root; DefaultRoot if empty
	clk    clock.Clock                      // can be replaced by tests
	notify func(c chan<- os.Signal)         // registers c for interrupt signals
	setup  func(sup *supervisor.Supervisor) // can be set by tests to adjust the supervisor
}

var _ = subcommands.Command(&runCmd{})

func newRunCmd(stderr io.Writer) *runCmd {
	return &runCmd{
		stderr: stderr,
		clk:    clock.NewClock(),
		notify: func(c chan<- os.Signal) { signal.Notify(c, syscall.SIGINT, syscall.SIGTERM) },
	}
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run test cases repeatedly" }
func (*runCmd) Usage() string {
	return `Usage: run [flag]... <test>...
       run [flag]... <test> [arg]... -- <test> [arg]... [-- ...]

Description:
    Runs the given tests, one at a time, until a run fails or the batch is
    interrupted. Each run's results are written to a new directory named
    after the time the run started, in the output directory. The "current"
    symlink points at the run in progress and "latest" at the last finished
    run.

    Without "--", every argument is a test. With "--", each group of
    arguments between separators is a test followed by its arguments.

    Exits with the test's own exit status if only one run happened.
    Otherwise exits with 0 if every run passed and 1 if any run failed.

    Interrupt once to stop after the current run; interrupt again to kill
    the current run and exit.

    Single-letter flags cannot be combined: "-kk" and "-vv" are accepted as
    separate flags, but other combinations such as "-kv" must be written
    "-k -v".

Flag:
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	for _, name := range []string{"1", "run_once"} {
		f.BoolVar(&r.runOnce, name, false, "run each test once rather than repeating until failure")
	}
	for _, name := range []string{"k", "keep_going"} {
		f.Var(command.NewCountFlag(&r.keepGoing), name,
			"continue after infrastructure failures (exit status >= 2); give twice to continue after any failure")
	}
	f.Var(command.NewRepeatedCountFlag(&r.keepGoing, 2), "kk", "same as -k -k")
	for _, name := range []string{"d", "debug"} {
		f.BoolVar(&r.debug, name, false, "dump intermediate images; this is slow")
	}
	f.Var(command.NewCountFlag(&r.verbose), "v", "verbose output from the test runner; may be repeated")
	f.Var(command.NewRepeatedCountFlag(&r.verbose, 2), "vv", "same as -v -v")
	for _, name := range []string{"o", "output"} {
		f.StringVar(&r.output, name, ".", "output directory for test results")
	}
	for _, name := range []string{"t", "tag"} {
		f.StringVar(&r.tag, name, "", "tag added to the name of every results directory")
	}
	f.BoolVar(&r.shuffle, "shuffle", false, "run tests in random order, balancing the total time spent on each")
	f.BoolVar(&r.noHTMLReport, "no_html_report", false, "don't generate an HTML report after each run")
	f.BoolVar(&r.noSaveVideo, "no_save_video", false, "don't record a video of each run")
	f.StringVar(&r.configPath, "config", "", "YAML configuration file")
	f.StringVar(&r.stateFile, "state_file", "", "file that receives the active results directory as JSON")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	status, err := r.run(ctx, f.Args())
	if err != nil {
		logging.Debugf(ctx, "Batch failed: %+v", err)
		return command.Exit(r.stderr, err)
	}
	return subcommands.ExitStatus(status)
}

// run runs the batch described by the flags and args and returns the exit
// status of the process.
func (r *runCmd) run(ctx context.Context, args []string) (int, error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return 0, err
	}
	if err := cfg.CheckTools(); err != nil {
		return 0, err
	}

	cases, err := testcase.Parse(args)
	if err != nil {
		return 0, command.UsageErrorf("%v\n\n%s", err, r.Usage())
	}

	if err := os.MkdirAll(r.output, 0755); err != nil {
		return 0, errors.Wrap(err, "failed to create output directory")
	}

	sender, err := r.newSender(cfg)
	if err != nil {
		return 0, err
	}

	// All test cases are assumed to live in the same git checkout.
	git, err := gitinfo.Read(ctx, filepath.Dir(cases[0].Path))
	if err != nil {
		logging.Infof(ctx, "Failed to read git information: %v", err)
	}
	logging.Debugf(ctx, "Git information: %v", git)

	var tag string
	if r.tag != "" {
		tag = "-" + r.tag
	}
	sched := schedule.New(cases, schedule.Config{Shuffle: r.shuffle, Repeat: !r.runOnce, Clock: r.clk})
	dirs := rundir.NewManager(r.output, tag, r.clk, sender)
	sup := supervisor.New(cfg, git, r.clk)
	if r.setup != nil {
		r.setup(sup)
	}
	opts := supervisor.Options{
		Verbose:    r.verbose,
		Debug:      r.debug,
		SaveVideo:  !r.noSaveVideo,
		HTMLReport: !r.noHTMLReport,
		Tag:        r.tag,
	}
	policy := batch.Policy{KeepGoing: r.keepGoing, InfraThreshold: cfg.InfraFailureThreshold}
	ctrl := batch.NewController(sched, batch.NewRunExecutor(dirs, sup, opts, r.clk), policy, dirs.LatestLink(), r.clk)

	logging.Infof(ctx, "Command line: %s", strings.Join(os.Args, " "))
	logging.Infof(ctx, "Writing results to %s", r.output)

	stop := r.handleSignals(ctrl)
	defer stop()

	status, err := ctrl.Run(ctx)
	if ctrl.State().InterruptLevel() >= 2 {
		if err != nil {
			logging.Debugf(ctx, "Batch interrupted: %v", err)
		}
		return 1, nil
	}
	return status, err
}

func (r *runCmd) loadConfig() (*config.Config, error) {
	root := r.root
	if root == "" {
		var err error
		if root, err = config.DefaultRoot(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(r.configPath, root)
	if err != nil {
		return nil, command.UsageErrorf("%v", err)
	}
	return cfg, nil
}

// newSender returns the sender of active run state. The -state_file flag
// takes precedence over the configuration file.
func (r *runCmd) newSender(cfg *config.Config) (state.Sender, error) {
	path := r.stateFile
	if path == "" {
		path = cfg.StateFile
	}
	if path == "" {
		return state.NewNopSender(), nil
	}
	return state.NewFileSender(path)
}

// handleSignals forwards interrupt signals to ctrl until the returned
// function is called. Nothing but the interrupt bookkeeping and a notice
// happens on receipt of a signal.
func (r *runCmd) handleSignals(ctrl *batch.Controller) (stop func()) {
	sc := make(chan os.Signal, signalChannelSize)
	r.notify(sc)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sc:
				if ctrl.Interrupt() == 1 {
					fmt.Fprint(r.stderr, "\nReceived interrupt; waiting for current test to complete.\n")
				} else {
					fmt.Fprint(r.stderr, "Received interrupt; exiting.\n")
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(sc)
		close(done)
	}
}
