// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package batch

// Decision is the outcome of a run as seen by the batch loop.
type Decision int

const (
	// Continue means the next test case should be run.
	Continue Decision = iota
	// Stop means the batch should end.
	Stop
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// DefaultInfraThreshold is the lowest exit status treated as an
// infrastructure failure.
const DefaultInfraThreshold = 2

// Policy decides whether the batch goes on after a run.
type Policy struct {
	// KeepGoing is the number of times -k was given. At 1, infrastructure
	// failures are tolerated. At 2 or more, every failure is tolerated.
	KeepGoing int
	// InfraThreshold is the lowest exit status classified as an
	// infrastructure failure. Zero means DefaultInfraThreshold.
	InfraThreshold int
}

// Infra reports whether status is an infrastructure failure.
func (p Policy) Infra(status int) bool {
	th := p.InfraThreshold
	if th <= 0 {
		th = DefaultInfraThreshold
	}
	return status >= th
}

// Decide returns what to do after a run that exited with status.
// unrecoverable is true if the run left an unrecoverable-error marker,
// which stops the batch whatever the status.
func (p Policy) Decide(status int, unrecoverable bool) Decision {
	switch {
	case unrecoverable:
		return Stop
	case status == 0:
		return Continue
	case p.Infra(status) && p.KeepGoing >= 1:
		return Continue
	case p.KeepGoing >= 2:
		return Continue
	default:
		return Stop
	}
}
