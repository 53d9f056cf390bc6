// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package main implements the stbt-batch executable, used to run test cases
// repeatedly and record the results of every run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"golang.org/x/term"

	"github.com/stb-tester/stbt-batch/internal/logging"
)

// Version is set with -ldflags "-X main.Version=..." by release builds.
var Version = "<unknown>"

// newLogger returns the logger for messages of stbt-batch itself. Test
// runners write directly to stdout and stderr.
func newLogger(verbose, logTime bool) logging.Logger {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	return logging.NewSinkLogger(level, logTime, logging.NewWriterSink(os.Stderr))
}

// saveTerminal records the state of the terminal on stdin, if any, and
// returns a function restoring it. Test runners may leave the terminal in a
// modified state when they are killed.
func saveTerminal(ctx context.Context) (restore func()) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}
	st, err := term.GetState(fd)
	if err != nil {
		logging.Debug(ctx, "Failed to get terminal state: ", err)
		return func() {}
	}
	return func() { term.Restore(fd, st) }
}

// doMain returns the exit status instead of exiting so that the terminal is
// restored first.
func doMain() int {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(newRunCmd(os.Stderr), "")
	subcommands.Register(newWatchCmd(os.Stdout), "")

	version := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("verbose", false, "use verbose logging")
	logTime := flag.Bool("logtime", true, "include date/time headers in logs")
	flag.Parse()

	if *version {
		fmt.Printf("stbt-batch version %s\n", Version)
		return 0
	}

	ctx := logging.AttachLogger(context.Background(), newLogger(*verbose, *logTime))
	restore := saveTerminal(ctx)
	defer restore()

	return int(subcommands.Execute(ctx))
}

func main() {
	os.Exit(doMain())
}
