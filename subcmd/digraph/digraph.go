// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package digraph is digraph subcommand to show digraph of module units
// for https://pkg.go.dev/golang.org/x/tools/cmd/digraph
package digraph

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/modscan/build"
	"go.chromium.org/infra/build/modscan/build/buildconfig"
	"go.chromium.org/infra/build/modscan/modgraph"
	"go.chromium.org/infra/build/modscan/o11y/clog"
)

const usage = `show digraph

 $ modscan digraph [-c <config>] <scopes>

prints directed graph of module units for <scopes>.
If <scopes> is not given, it will print directed graph for all scopes.
Each line contains one or more units, and the first unit depends on
the rest of the units on the same line, i.e. it imports modules
provided by them.

This output can be passed to digraph command, installed by
 $ go install golang.org/x/tools/cmd/digraph@latest

See https://pkg.go.dev/golang.org/x/tools/cmd/digraph
for digraph command.
`

// Cmd returns the Command for the `digraph` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "digraph [-c <config>] [<scopes>...]",
		ShortDesc: "show digraph",
		LongDesc:  usage,
		Advanced:  true,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	fname string
}

func (c *run) init() {
	c.Flags.StringVar(&c.fname, "c", buildconfig.DefaultFilename, "config filename")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, args []string) error {
	cfg, err := buildconfig.Load(c.fname)
	if err != nil {
		return err
	}
	scopes, err := cfg.Select(args)
	if err != nil {
		return fmt.Errorf("%w: %w", err, flag.ErrHelp)
	}
	p, err := build.Open(cfg.CacheDir())
	if err != nil {
		return err
	}
	defer func() {
		err := p.Close(ctx)
		if err != nil {
			clog.Warningf(ctx, "failed to save cache: %v", err)
		}
	}()
	for _, scope := range scopes {
		g, err := p.Generate(ctx, scope)
		if err != nil {
			return err
		}
		printDigraph(os.Stdout, g, build.Batch(scope))
	}
	return nil
}

func printDigraph(w io.Writer, g *modgraph.Graph, batch []string) {
	for _, out := range batch {
		if _, ok := g.Unit(out); !ok {
			continue
		}
		fmt.Fprintln(w, strings.Join(append([]string{out}, g.Deps(out)...), " "))
	}
}
