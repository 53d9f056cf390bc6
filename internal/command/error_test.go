// Copyright 2018 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package command

import (
	"bytes"
	"testing"

	"github.com/google/subcommands"

	"github.com/stb-tester/stbt-batch/internal/errors"
)

func TestExit(t *testing.T) {
	for _, tc := range []struct {
		err        error
		wantMsg    string
		wantStatus subcommands.ExitStatus
	}{
		{errors.New("plain"), "plain\n", subcommands.ExitFailure},
		{NewStatusErrorf(3, "missing %s", "ts"), "missing ts\n", 3},
		{errors.Wrap(NewStatusErrorf(4, "inner\n"), "outer"), "inner\n", 4},
		{UsageErrorf("no tests"), "no tests\n", subcommands.ExitUsageError},
	} {
		var b bytes.Buffer
		if status := Exit(&b, tc.err); status != tc.wantStatus {
			t.Errorf("Exit(%q) = %d; want %d", tc.err, status, tc.wantStatus)
		}
		if b.String() != tc.wantMsg {
			t.Errorf("Exit(%q) wrote %q; want %q", tc.err, b.String(), tc.wantMsg)
		}
	}
}
