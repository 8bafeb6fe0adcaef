// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package shutil

import (
	"errors"
	"fmt"
	"strings"
)

var errUnterminated = errors.New("unterminated quote or escape")

// Split splits a compiler command line written in POSIX shell syntax.
// Single quotes, double quotes and backslash escapes are honored.
// It returns error for shell metachars outside of quotes,
// since such command line needs to be run via sh.
func Split(cmdline string) ([]string, error) {
	var args []string
	var sb strings.Builder
	inArg := false
	flush := func() {
		if inArg {
			args = append(args, sb.String())
		}
		sb.Reset()
		inArg = false
	}
	rs := []rune(cmdline)
	for i := 0; i < len(rs); i++ {
		ch := rs[i]
		switch ch {
		case ' ', '\t', '\n':
			flush()
		case '\\':
			i++
			if i >= len(rs) {
				return nil, fmt.Errorf("failed to split %q: %w", cmdline, errUnterminated)
			}
			sb.WriteRune(rs[i])
			inArg = true
		case '\'':
			end := indexRune(rs, i+1, '\'')
			if end < 0 {
				return nil, fmt.Errorf("failed to split %q: %w", cmdline, errUnterminated)
			}
			sb.WriteString(string(rs[i+1 : end]))
			inArg = true
			i = end
		case '"':
			j, err := readDoubleQuoted(&sb, rs, i+1)
			if err != nil {
				return nil, fmt.Errorf("failed to split %q: %w", cmdline, err)
			}
			inArg = true
			i = j
		case ';', '&', '|', '<', '>', '$', '#', '`', '(', ')':
			return nil, fmt.Errorf("failed to split: cmdline contains shell metachar %c", ch)
		default:
			sb.WriteRune(ch)
			inArg = true
		}
	}
	flush()
	if len(args) >= 1 && strings.Contains(args[0], "=") {
		// env overrides need sh.
		return nil, fmt.Errorf("argv[0] is env set %q", args[0])
	}
	return args, nil
}

// readDoubleQuoted reads double quoted string starting at rs[i] into sb,
// and returns the index of the closing quote.
func readDoubleQuoted(sb *strings.Builder, rs []rune, i int) (int, error) {
	for ; i < len(rs); i++ {
		switch rs[i] {
		case '"':
			return i, nil
		case '\\':
			if i+1 >= len(rs) {
				return 0, errUnterminated
			}
			switch rs[i+1] {
			case '"', '\\', '$', '`':
				i++
				sb.WriteRune(rs[i])
			default:
				sb.WriteRune('\\')
			}
		default:
			sb.WriteRune(rs[i])
		}
	}
	return 0, errUnterminated
}

func indexRune(rs []rune, start int, r rune) int {
	for i := start; i < len(rs); i++ {
		if rs[i] == r {
			return i
		}
	}
	return -1
}
