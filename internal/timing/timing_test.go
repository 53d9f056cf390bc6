// Copyright 2017 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package timing

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/google/go-cmp/cmp"
)

func TestContext(t *testing.T) {
	if cl, ok := FromContext(context.Background()); ok || cl != nil {
		t.Errorf("FromContext(Background) = (%v, %v); want (nil, false)", cl, ok)
	}

	l := NewLog(fakeclock.NewFakeClock(time.Unix(0, 0)))
	ctx := NewContext(context.Background(), l)
	if cl, ok := FromContext(ctx); !ok || cl != l {
		t.Errorf("FromContext(ctx) = (%v, %v); want (%v, true)", cl, ok, l)
	}
}

// summary is stageJSON without start times.
type summary struct {
	Name    string
	Seconds float64
	Stages  []summary
}

func summarize(stages []*stageJSON) []summary {
	var out []summary
	for _, s := range stages {
		out = append(out, summary{s.Name, s.Seconds, summarize(s.Stages)})
	}
	return out
}

func TestWrite(t *testing.T) {
	start := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	fc := fakeclock.NewFakeClock(start)
	l := NewLog(fc)

	st := l.Start("write_metadata")
	fc.Increment(time.Second)
	st.End()

	run := l.Start("run_test")
	fc.Increment(3 * time.Second)
	term := l.Start("terminate_group")
	fc.Increment(time.Second)
	term.End()
	run.End()
	fc.Increment(time.Hour)
	run.End()

	var b bytes.Buffer
	if err := l.Write(&b); err != nil {
		t.Fatal("Write failed: ", err)
	}
	var got []*stageJSON
	if err := json.Unmarshal(b.Bytes(), &got); err != nil {
		t.Fatalf("Write produced invalid JSON %q: %v", b.String(), err)
	}
	want := []summary{
		{"write_metadata", 1, nil},
		{"run_test", 4, []summary{{"terminate_group", 1, nil}}},
	}
	if diff := cmp.Diff(summarize(got), want); diff != "" {
		t.Errorf("Write() mismatch (-got +want):\n%s", diff)
	}
	if len(got) == 2 && !got[1].Start.Equal(start.Add(time.Second)) {
		t.Errorf("run_test started at %v; want %v", got[1].Start, start.Add(time.Second))
	}
}

func TestWriteEmpty(t *testing.T) {
	var b bytes.Buffer
	if err := NewLog(fakeclock.NewFakeClock(time.Unix(0, 0))).Write(&b); err != nil {
		t.Fatal(err)
	}
	if got := b.String(); got != "[]\n" {
		t.Errorf("Write() = %q; want %q", got, "[]\n")
	}
}

func TestStartWithoutLog(t *testing.T) {
	st := Start(context.Background(), "orphan")
	st.End()
	if st.Elapsed() < 0 {
		t.Errorf("Elapsed() = %v; want non-negative", st.Elapsed())
	}
}
