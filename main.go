// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// modscan resolves compile order and artifact locations of C++20
// module units.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"go.chromium.org/infra/build/modscan/o11y/clog"
	"go.chromium.org/infra/build/modscan/subcmd/digraph"
	"go.chromium.org/infra/build/modscan/subcmd/help"
	"go.chromium.org/infra/build/modscan/subcmd/order"
	"go.chromium.org/infra/build/modscan/subcmd/scan"
	"go.chromium.org/infra/build/modscan/subcmd/version"
)

const modscanVersion = "v0.1.0"

func main() {
	os.Exit(modscanMain(os.Args[1:], os.Stderr))
}

func modscanMain(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("modscan", flag.ContinueOnError)
	flags.SetOutput(stderr)
	verbose := flags.Bool("v", false, "verbose logging")
	logJSON := flags.Bool("log_json", false, "log in json format")
	flags.Usage = func() {
		out := flags.Output()
		fmt.Fprintf(out, "Usage of modscan:\n")
		fmt.Fprintf(out, "global flags:\n")
		flags.PrintDefaults()
	}
	err := flags.Parse(args)
	if err != nil {
		return 2
	}

	logger := log.NewWithOptions(stderr, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportCaller(true)
	}
	if *logJSON {
		logger.SetFormatter(log.JSONFormatter)
	}
	log.SetDefault(logger)

	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Fatalf("panic: %v\n%s", r, buf)
		}
	}()

	invocationID := uuid.NewString()
	buildinfo, ok := debug.ReadBuildInfo()
	if ok {
		log.Debugf("main module: %s %s", moduleInfo(&buildinfo.Main), vcsInfo(buildinfo))
	}
	return subcommands.Run(getApplication(flags, invocationID, logger), flags.Args())
}

func getApplication(flags *flag.FlagSet, invocationID string, logger *log.Logger) *cli.Application {
	return &cli.Application{
		Name:  "modscan",
		Title: "C++20 module build order resolver",
		Context: func(ctx context.Context) context.Context {
			ctx, cancel := context.WithCancel(ctx)
			signals.HandleInterrupt(cancel)
			ctx = clog.NewContext(ctx, logger)
			return clog.With(ctx, "invocation", invocationID)
		},
		Commands: []*subcommands.Command{
			order.Cmd(),
			digraph.Cmd(),
			scan.Cmd(),
			version.Cmd(modscanVersion),
			help.Cmd(flags),
		},
	}
}

func moduleInfo(m *debug.Module) string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("path:%s version:%s sum:%s replace:%s", m.Path, m.Version, m.Sum, moduleInfo(m.Replace))
}

func vcsInfo(buildinfo *debug.BuildInfo) string {
	m := make(map[string]string)
	for _, bs := range buildinfo.Settings {
		if strings.HasPrefix(bs.Key, "vcs.") {
			m[bs.Key] = bs.Value
		}
	}
	return fmt.Sprintf("vcs[revision=%s time=%s modified=%s]", m["vcs.revision"], m["vcs.time"], m["vcs.modified"])
}
