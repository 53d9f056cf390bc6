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
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
	"golang.org/x/term"

	"github.com/stb-tester/stbt-batch/internal/command"
	"github.com/stb-tester/stbt-batch/internal/config"
	"github.com/stb-tester/stbt-batch/internal/errors"
	"github.com/stb-tester/stbt-batch/internal/logging"
	"github.com/stb-tester/stbt-batch/internal/state"
)

// watchCmd implements subcommands.Command to follow the run in flight of
// another stbt-batch process.
type watchCmd struct {
	stdout     io.Writer
	stateFile  string
	configPath string
	root       string // installation root; DefaultRoot if empty

	shown bool   // whether anything was reported yet
	last  string // last reported active directory; "" if none
}

var _ = subcommands.Command(&watchCmd{})

func newWatchCmd(stdout io.Writer) *watchCmd {
	return &watchCmd{stdout: stdout}
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "show which results directory is active" }
func (*watchCmd) Usage() string {
	return `Usage: watch [flag]...

Description:
    Prints the results directory of the run in flight every time it changes,
    as published by "run" in its state file.

Flag:
`
}

func (w *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&w.stateFile, "state_file", "", "state file written by run")
	f.StringVar(&w.configPath, "config", "", "YAML configuration file naming the state file")
}

func (w *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return command.Exit(os.Stderr, err)
	}
	return subcommands.ExitSuccess
}

func (w *watchCmd) watch(ctx context.Context) error {
	path, err := w.statePath()
	if err != nil {
		return err
	}
	sw, err := state.NewWatcher(path)
	if err != nil {
		return err
	}
	defer sw.Close()

	logging.Debugf(ctx, "Watching %s", path)
	return sw.Run(ctx, w.report)
}

func (w *watchCmd) statePath() (string, error) {
	if w.stateFile != "" {
		return w.stateFile, nil
	}
	root := w.root
	if root == "" {
		var err error
		if root, err = config.DefaultRoot(); err != nil {
			return "", err
		}
	}
	cfg, err := config.Load(w.configPath, root)
	if err != nil {
		return "", err
	}
	if cfg.StateFile == "" {
		return "", command.UsageErrorf("No state file; pass -state_file or set state_file in the configuration")
	}
	return cfg.StateFile, nil
}

// report prints the active directory in st if it differs from the last one.
// On a terminal the line is rewritten in place.
func (w *watchCmd) report(st map[string]interface{}) {
	dir, _ := state.ActiveDirectory(st)
	if w.shown && dir == w.last {
		return
	}
	w.shown = true
	w.last = dir

	msg := "No test running"
	if dir != "" {
		msg = "Running in " + dir
		if fi, err := os.Stat(dir); err == nil {
			msg += fmt.Sprintf(" (started %s)", humanize.Time(fi.ModTime()))
		}
	}
	if isTerminal(w.stdout) {
		fmt.Fprintf(w.stdout, "\r\033[K%s", msg)
	} else {
		fmt.Fprintln(w.stdout, msg)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
