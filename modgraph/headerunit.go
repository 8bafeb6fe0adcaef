// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package modgraph

import (
	"path"
	"strings"

	"go.chromium.org/infra/build/modscan/toolsupport/p1689util"
)

// HeaderUnitType is a type of header unit.
type HeaderUnitType string

const (
	// Angle is a header unit imported as `import <foo.h>;`.
	Angle HeaderUnitType = "angle"
	// Quote is a header unit imported as `import "foo.h";`.
	Quote HeaderUnitType = "quote"
)

// HeaderUnit is a header file to be compiled as a header unit.
type HeaderUnit struct {
	Name string
	Path string
	Type HeaderUnitType
}

// HeaderUnits returns header units required by units in batch.
// std is header units of C++ standard library, and user is
// the other header units. Standard library header units should be
// built before user header units, because user header units may
// import them.
// Each list is de-duplicated by name (first occurrence wins),
// and nil if there is no header unit.
func HeaderUnits(g *Graph, batch []string) (std, user []HeaderUnit) {
	seenStd := make(map[string]bool)
	seenUser := make(map[string]bool)
	for _, out := range batch {
		u, ok := g.Unit(out)
		if !ok {
			continue
		}
		for _, req := range u.Requires {
			var typ HeaderUnitType
			switch req.Method {
			case p1689util.IncludeAngle:
				typ = Angle
			case p1689util.IncludeQuote:
				typ = Quote
			default:
				continue
			}
			hu := HeaderUnit{
				Name: req.LogicalName,
				Path: req.Path,
				Type: typ,
			}
			if IsStdHeader(req.LogicalName) {
				if seenStd[hu.Name] {
					continue
				}
				seenStd[hu.Name] = true
				std = append(std, hu)
				continue
			}
			if seenUser[hu.Name] {
				continue
			}
			seenUser[hu.Name] = true
			user = append(user, hu)
		}
	}
	return std, user
}

// IsStdHeader reports whether name is a C++ standard library header.
// name may be enclosed in <> or "", or may be a path in the standard
// library include dir (e.g. /usr/include/c++/13/vector).
func IsStdHeader(name string) bool {
	name = strings.TrimPrefix(strings.TrimSuffix(name, ">"), "<")
	name = strings.TrimPrefix(strings.TrimSuffix(name, `"`), `"`)
	if stdHeaders[name] {
		return true
	}
	name = strings.ReplaceAll(name, `\`, "/")
	if !strings.Contains(name, "/") {
		return false
	}
	base := path.Base(name)
	if !stdHeaders[base] {
		return false
	}
	dir := path.Dir(name)
	for _, marker := range stdIncludeDirMarkers {
		if strings.Contains(dir, marker) {
			return true
		}
	}
	return false
}

// stdIncludeDirMarkers are parts of standard library include dir paths.
var stdIncludeDirMarkers = []string{
	"/c++",
	"/libcxx",
	"/MSVC/",
}

// stdHeaders is C++ standard library headers, including C compatibility
// headers.
var stdHeaders = map[string]bool{
	// C++ library headers
	"algorithm":          true,
	"any":                true,
	"array":              true,
	"atomic":             true,
	"barrier":            true,
	"bit":                true,
	"bitset":             true,
	"charconv":           true,
	"chrono":             true,
	"codecvt":            true,
	"compare":            true,
	"complex":            true,
	"concepts":           true,
	"condition_variable": true,
	"coroutine":          true,
	"deque":              true,
	"exception":          true,
	"execution":          true,
	"expected":           true,
	"filesystem":         true,
	"flat_map":           true,
	"flat_set":           true,
	"format":             true,
	"forward_list":       true,
	"fstream":            true,
	"functional":         true,
	"future":             true,
	"generator":          true,
	"initializer_list":   true,
	"iomanip":            true,
	"ios":                true,
	"iosfwd":             true,
	"iostream":           true,
	"istream":            true,
	"iterator":           true,
	"latch":              true,
	"limits":             true,
	"list":               true,
	"locale":             true,
	"map":                true,
	"mdspan":             true,
	"memory":             true,
	"memory_resource":    true,
	"mutex":              true,
	"new":                true,
	"numbers":            true,
	"numeric":            true,
	"optional":           true,
	"ostream":            true,
	"print":              true,
	"queue":              true,
	"random":             true,
	"ranges":             true,
	"ratio":              true,
	"regex":              true,
	"scoped_allocator":   true,
	"semaphore":          true,
	"set":                true,
	"shared_mutex":       true,
	"source_location":    true,
	"span":               true,
	"spanstream":         true,
	"sstream":            true,
	"stack":              true,
	"stacktrace":         true,
	"stdexcept":          true,
	"stdfloat":           true,
	"stop_token":         true,
	"streambuf":          true,
	"string":             true,
	"string_view":        true,
	"strstream":          true,
	"syncstream":         true,
	"system_error":       true,
	"thread":             true,
	"tuple":              true,
	"type_traits":        true,
	"typeindex":          true,
	"typeinfo":           true,
	"unordered_map":      true,
	"unordered_set":      true,
	"utility":            true,
	"valarray":           true,
	"variant":            true,
	"vector":             true,
	"version":            true,

	// C compatibility headers
	"cassert":    true,
	"cctype":     true,
	"cerrno":     true,
	"cfenv":      true,
	"cfloat":     true,
	"cinttypes":  true,
	"climits":    true,
	"clocale":    true,
	"cmath":      true,
	"csetjmp":    true,
	"csignal":    true,
	"cstdarg":    true,
	"cstddef":    true,
	"cstdint":    true,
	"cstdio":     true,
	"cstdlib":    true,
	"cstring":    true,
	"ctime":      true,
	"cuchar":     true,
	"cwchar":     true,
	"cwctype":    true,
	"assert.h":   true,
	"ctype.h":    true,
	"errno.h":    true,
	"fenv.h":     true,
	"float.h":    true,
	"inttypes.h": true,
	"limits.h":   true,
	"locale.h":   true,
	"math.h":     true,
	"setjmp.h":   true,
	"signal.h":   true,
	"stdarg.h":   true,
	"stddef.h":   true,
	"stdint.h":   true,
	"stdio.h":    true,
	"stdlib.h":   true,
	"string.h":   true,
	"time.h":     true,
	"uchar.h":    true,
	"wchar.h":    true,
	"wctype.h":   true,
}
