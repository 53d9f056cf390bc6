// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package supervisor

import (
	"context"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"

	"github.com/stb-tester/stbt-batch/internal/logging"
)

// signalGroup sends sig to every process in process group pgid.
// A group that has already exited is not an error.
func signalGroup(ctx context.Context, pgid int, sig syscall.Signal) {
	if err := unix.Kill(-pgid, sig); err != nil && err != unix.ESRCH {
		logging.Infof(ctx, "Failed to send %v to process group %d: %v", sig, pgid, err)
	}
}

// groupAlive reports whether any running process is in process group pgid.
// Zombies are not counted since they have already exited.
func groupAlive(pgid int) bool {
	pids, err := process.Pids()
	if err != nil {
		return false
	}
	for _, pid := range pids {
		if g, err := unix.Getpgid(int(pid)); err != nil || g != pgid {
			continue
		}
		if alive(pid) {
			return true
		}
	}
	return false
}

// alive reports whether pid exists and has not exited.
func alive(pid int32) bool {
	p, err := process.NewProcess(pid)
	if err != nil {
		return false
	}
	st, err := p.Status()
	if err != nil {
		return false
	}
	for _, s := range st {
		if s == process.Zombie {
			return false
		}
	}
	return true
}
