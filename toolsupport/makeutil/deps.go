// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package makeutil provides utilities for make.
package makeutil

import (
	"bytes"
	"context"
	"io/fs"
	"strings"

	"go.chromium.org/infra/build/modscan/o11y/clog"
)

// ParseDepsFile parses *.d file in fname on fsys.
func ParseDepsFile(ctx context.Context, fsys fs.FS, fname string) ([]string, error) {
	if fname == "" {
		return nil, nil
	}
	b, err := fs.ReadFile(fsys, fname)
	if err != nil {
		return nil, err
	}
	deps := ParseDeps(b)
	if clog.V(ctx) {
		clog.Debugf(ctx, "deps %s => %s", fname, deps)
	}
	return deps, nil
}

// ParseDeps parses deps and returns a list of inputs of the first rule.
// Other rules, e.g. phony targets generated by -MP, are ignored.
func ParseDeps(b []byte) []string {
	_, inputs := ParseRule(b)
	return inputs
}

// ParseRule parses the first rule in deps and returns its targets and inputs.
func ParseRule(b []byte) (targets, inputs []string) {
	// deps contents
	// <output>: <input> ...
	// <input> is space separated
	// '\'+newline is space
	// '\'+space is escaped space (not separator)
	// '$$' is '$'
	i := ruleSeparator(b)
	if i < 0 {
		return nil, nil
	}
	for s := b[:i]; len(s) > 0; {
		var token string
		token, s, _ = nextToken(s)
		if token != "" {
			targets = append(targets, token)
		}
	}
	for s := b[i+1:]; len(s) > 0; {
		token, rest, eol := nextToken(s)
		if token != "" {
			inputs = append(inputs, token)
		}
		if eol {
			break
		}
		s = rest
	}
	return targets, inputs
}

// ruleSeparator returns index of ':' that separates targets and inputs.
// ':' in windows drive letter (e.g. `C:\`) is not a separator.
func ruleSeparator(b []byte) int {
	for i := 0; i < len(b); i++ {
		if b[i] != ':' {
			continue
		}
		if i+1 == len(b) {
			return i
		}
		switch b[i+1] {
		case ' ', '\t', '\r', '\n':
			return i
		}
	}
	return -1
}

// nextToken returns next token in s, and rest of s.
// eol is true if the token is terminated by unescaped newline,
// i.e. end of the rule.
func nextToken(s []byte) (token string, rest []byte, eol bool) {
	var sb strings.Builder
	// skip spaces
	i := 0
skipSpaces:
	for ; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s) && s[i+1] == '\n':
			i++
		case s[i] == '\\' && i+2 < len(s) && s[i+1] == '\r' && s[i+2] == '\n':
			i += 2
		case s[i] == ' ', s[i] == '\t', s[i] == '\r':
		case s[i] == '\n':
			return "", s[i+1:], true
		default:
			break skipSpaces
		}
	}
	s = s[i:]
	// extract next space not escaped
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case ' ':
				sb.WriteByte(s[i])
			case '\n':
				// '\'+newline is space
				return sb.String(), s[i+1:], false
			case '\r':
				if i+1 < len(s) && s[i+1] == '\n' {
					i++
				}
				return sb.String(), s[i+1:], false
			default:
				sb.WriteByte('\\')
				sb.WriteByte(s[i])
			}
			continue
		}
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '$' {
			i++
			sb.WriteByte('$')
			continue
		}
		switch s[i] {
		case ' ', '\t', '\r':
			return sb.String(), s[i+1:], false
		case '\n':
			return sb.String(), s[i+1:], true
		}
		sb.WriteByte(s[i])
	}
	return sb.String(), nil, false
}

// FormatDeps formats a rule of target and inputs in deps format.
func FormatDeps(target string, inputs []string) []byte {
	var buf bytes.Buffer
	buf.WriteString(escape(target))
	buf.WriteByte(':')
	for _, in := range inputs {
		buf.WriteString(" \\\n  ")
		buf.WriteString(escape(in))
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "$", "$$")
	return strings.ReplaceAll(s, " ", `\ `)
}
