// Copyright 2018 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package command

import (
	"flag"
	"strconv"

	"github.com/stb-tester/stbt-batch/internal/errors"
)

// CountFlag implements flag.Value for flags that may be repeated to raise a
// level, e.g. "-k -k" or "-v -v". An explicit value such as "-k=2" sets the
// level directly.
type CountFlag struct {
	dst  *int
	step int
}

var _ flag.Value = (*CountFlag)(nil)

// NewCountFlag returns a CountFlag that stores its level in dst.
func NewCountFlag(dst *int) *CountFlag {
	return &CountFlag{dst, 1}
}

// NewRepeatedCountFlag returns a CountFlag that raises the level in dst by n
// each time it is given. It backs spellings such as "-kk" for "-k -k".
func NewRepeatedCountFlag(dst *int, n int) *CountFlag {
	return &CountFlag{dst, n}
}

// IsBoolFlag makes the flag package accept the flag without a value.
func (f *CountFlag) IsBoolFlag() bool { return true }

func (f *CountFlag) String() string {
	if f == nil || f.dst == nil {
		return "0"
	}
	return strconv.Itoa(*f.dst)
}

func (f *CountFlag) Set(v string) error {
	switch v {
	case "true":
		*f.dst += f.step
		return nil
	case "false":
		*f.dst = 0
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return errors.Errorf("must be a non-negative integer, got %q", v)
	}
	*f.dst = n
	return nil
}
