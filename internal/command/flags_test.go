// Copyright 2018 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package command

import (
	"flag"
	"io"
	"testing"
)

func TestCountFlag(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want int
	}{
		{nil, 0},
		{[]string{"-k"}, 1},
		{[]string{"-k", "-k"}, 2},
		{[]string{"-k", "-k", "-k"}, 3},
		{[]string{"-k=2"}, 2},
		{[]string{"-k", "-k=false"}, 0},
	} {
		var level int
		fs := flag.NewFlagSet("", flag.ContinueOnError)
		fs.Var(NewCountFlag(&level), "k", "keep going")
		if err := fs.Parse(tc.args); err != nil {
			t.Errorf("Parse(%q) failed: %v", tc.args, err)
			continue
		}
		if level != tc.want {
			t.Errorf("Parse(%q) set level %d; want %d", tc.args, level, tc.want)
		}
	}
}

func TestRepeatedCountFlag(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want int
	}{
		{[]string{"-kk"}, 2},
		{[]string{"-k", "-kk"}, 3},
		{[]string{"-kk", "-kk"}, 4},
		{[]string{"-kk=1"}, 1},
	} {
		var level int
		fs := flag.NewFlagSet("", flag.ContinueOnError)
		fs.Var(NewCountFlag(&level), "k", "keep going")
		fs.Var(NewRepeatedCountFlag(&level, 2), "kk", "keep going harder")
		if err := fs.Parse(tc.args); err != nil {
			t.Errorf("Parse(%q) failed: %v", tc.args, err)
			continue
		}
		if level != tc.want {
			t.Errorf("Parse(%q) set level %d; want %d", tc.args, level, tc.want)
		}
	}
}

func TestCountFlagInvalid(t *testing.T) {
	var level int
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Var(NewCountFlag(&level), "k", "keep going")
	if err := fs.Parse([]string{"-k=lots"}); err == nil {
		t.Error("Parse(-k=lots) succeeded; want error")
	}
}
