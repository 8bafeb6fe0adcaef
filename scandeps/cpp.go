// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"bytes"
	"context"
	"strings"
	"time"

	"go.chromium.org/infra/build/modscan/o11y/clog"
)

// ModuleInfo is module declarations found in a source.
type ModuleInfo struct {
	// Name is a module name declared by `module` declaration.
	// e.g. "foo" or "foo:part". Empty if the source is not a module unit.
	Name string

	// Exported is true if the declaration is `export module`.
	Exported bool

	// Imports are imported names in source order.
	// Name is as spelled in the source, e.g. `foo`, `:part`, `"foo.h"` or `<foo.h>`.
	Imports []string
}

// Primary returns primary module name of the module unit.
// i.e. "foo" for "foo:part".
func (mi *ModuleInfo) Primary() string {
	name, _, _ := strings.Cut(mi.Name, ":")
	return name
}

// IsPartition reports whether the unit is a module partition.
func (mi *ModuleInfo) IsPartition() bool {
	return strings.Contains(mi.Name, ":")
}

// StripComments removes // and /* */ comments from buf.
// It doesn't care about string or character literals.
func StripComments(buf []byte) []byte {
	var out []byte
	for len(buf) > 0 {
		i := bytes.IndexByte(buf, '/')
		if i < 0 || i+1 >= len(buf) {
			out = append(out, buf...)
			break
		}
		out = append(out, buf[:i]...)
		buf = buf[i:]
		switch buf[1] {
		case '/':
			// line comment. keep newline.
			j := bytes.IndexByte(buf, '\n')
			if j < 0 {
				buf = nil
				continue
			}
			buf = buf[j:]
		case '*':
			j := bytes.Index(buf[2:], []byte("*/"))
			if j < 0 {
				// unclosed comment.
				buf = nil
				continue
			}
			// keep newlines so line structure doesn't change.
			out = append(out, bytes.Repeat([]byte{'\n'}, bytes.Count(buf[:j+2], []byte{'\n'}))...)
			out = append(out, ' ')
			buf = buf[j+4:]
		default:
			out = append(out, '/')
			buf = buf[1:]
		}
	}
	return out
}

// ModuleScan scans module declarations and imports in buf.
func ModuleScan(ctx context.Context, fname string, buf []byte) *ModuleInfo {
	started := time.Now()
	mi := &ModuleInfo{}
	seen := make(map[string]bool)
	buf = StripComments(buf)
	for len(buf) > 0 {
		var line []byte
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			line = buf
			buf = nil
		} else {
			line = buf[:i]
			buf = buf[i+1:]
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		for len(line) > 0 {
			i := bytes.IndexByte(line, ';')
			if i < 0 {
				// no terminated declaration.
				if clog.V(ctx) {
					logLine := line
					clog.Debugf(ctx, "skip %q", logLine)
				}
				break
			}
			decl := bytes.TrimSpace(line[:i])
			line = bytes.TrimSpace(line[i+1:])
			scanDecl(ctx, mi, seen, decl)
		}
	}
	dur := time.Since(started)
	if dur > time.Second {
		clog.Infof(ctx, "slow module scan %s %s", fname, dur)
	}
	return mi
}

func scanDecl(ctx context.Context, mi *ModuleInfo, seen map[string]bool, decl []byte) {
	exported := false
	if rest, ok := cutKeyword(decl, "export"); ok {
		exported = true
		decl = rest
	}
	if rest, ok := cutKeyword(decl, "module"); ok {
		name := string(rest)
		switch {
		case name == "":
			// global module fragment `module;`
			return
		case name == ":private":
			// private module fragment
			return
		case !isModuleName(name):
			if clog.V(ctx) {
				clog.Debugf(ctx, "not module name %q", name)
			}
			return
		}
		if mi.Name != "" {
			if clog.V(ctx) {
				clog.Debugf(ctx, "ignore module %q: already declared %q", name, mi.Name)
			}
			return
		}
		mi.Name = strings.Clone(name)
		mi.Exported = exported
		return
	}
	if rest, ok := cutKeyword(decl, "import"); ok {
		name := string(rest)
		if !isImportName(name) {
			if clog.V(ctx) {
				clog.Debugf(ctx, "not import name %q", name)
			}
			return
		}
		if seen[name] {
			return
		}
		seen[name] = true
		mi.Imports = append(mi.Imports, strings.Clone(name))
	}
}

// cutKeyword returns rest of decl after keyword kw.
func cutKeyword(decl []byte, kw string) ([]byte, bool) {
	if !bytes.HasPrefix(decl, []byte(kw)) {
		return nil, false
	}
	rest := decl[len(kw):]
	if len(rest) == 0 {
		return rest, true
	}
	switch rest[0] {
	case ' ', '\t', '\r', '\v', '\f', ':', '<', '"':
		return bytes.TrimSpace(rest), true
	}
	// identifier that starts with kw. e.g. modules, exported.
	return nil, false
}

func isModuleName(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == ':' {
		return isIdentPath(s[1:])
	}
	name, part, ok := strings.Cut(s, ":")
	if !isIdentPath(name) {
		return false
	}
	if ok {
		return isIdentPath(part)
	}
	return true
}

func isImportName(s string) bool {
	if len(s) < 2 {
		return isModuleName(s)
	}
	switch s[0] {
	case '<':
		return len(s) > 2 && s[len(s)-1] == '>'
	case '"':
		return len(s) > 2 && s[len(s)-1] == '"'
	}
	return isModuleName(s)
}

// isIdentPath reports whether s is dot separated identifiers.
func isIdentPath(s string) bool {
	if s == "" {
		return false
	}
	for _, id := range strings.Split(s, ".") {
		if id == "" {
			return false
		}
		for i, c := range id {
			switch {
			case c == '_':
			case 'a' <= c && c <= 'z':
			case 'A' <= c && c <= 'Z':
			case '0' <= c && c <= '9' && i > 0:
			default:
				return false
			}
		}
	}
	return true
}
