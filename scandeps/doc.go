// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scandeps provides forged C++ module dependency scanner.
// It is used when the compiler has no dependency scanner for modules
// (e.g. -fdeps-format=p1689r5 or clang-scan-deps), and produces the
// same P1689 dependency info as the compiler's scanner.
//
// It only checks the following forms of module declarations
//
//	export module foo;
//	export module foo:part;
//	module foo;
//	module foo:part;
//	import foo;
//	import :part;
//	import "foo.h";
//	import <foo.h>;
//	export import ...;
//
// Comments are removed textually before scanning. It doesn't
// process string or character literals, so comment-like sequences
// or module keywords in literals may confuse the scanner.
// It doesn't run the preprocessor, so declarations in `#if` are
// always used, and macros in module names are not expanded.
// A declaration must end with `;` on the same line.
package scandeps
