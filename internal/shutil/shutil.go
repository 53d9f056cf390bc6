// Copyright 2021 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package shutil quotes command lines for display as shell input.
package shutil

import (
	"strings"
)

// safe reports whether c can appear unquoted in a shell word. '=' is only
// safe after the first character since a leading '=' expands in zsh.
func safe(c rune, first bool) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case strings.ContainsRune("-_@%+:,./", c):
		return true
	case c == '=':
		return !first
	}
	return false
}

// Escape quotes s as a single shell word. s is returned as is if it needs no
// quoting.
func Escape(s string) string {
	quote := s == ""
	for i, c := range s {
		if !safe(c, i == 0) {
			quote = true
			break
		}
	}
	if !quote {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// EscapeSlice quotes each of args with Escape and joins them with spaces.
func EscapeSlice(args []string) string {
	words := make([]string, len(args))
	for i, a := range args {
		words[i] = Escape(a)
	}
	return strings.Join(words, " ")
}

// EscapeEnv formats "KEY=value" assignments followed by a command line, as a
// line that reproduces the invocation when pasted into a shell. Malformed
// assignments are skipped.
func EscapeEnv(env, args []string) string {
	words := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			words = append(words, k+"="+Escape(v))
		}
	}
	return strings.Join(append(words, EscapeSlice(args)), " ")
}
