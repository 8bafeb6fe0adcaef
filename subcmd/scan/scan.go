// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scan is scan subcommand for debugging the fallback scanner.
package scan

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/modscan/scandeps"
	"go.chromium.org/infra/build/modscan/toolsupport/p1689util"
)

const usage = `run the fallback scanner

 $ modscan scan [-C <dir>] [-I <dir>]... [-isystem <dir>]... [-obj <obj>] [-o <ddi>] <source>

scans module declaration and imports of <source> textually,
and prints dependency info in p1689 format.
If -o is given, it writes dependency info in the file instead.
`

// Cmd returns the Command for the `scan` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "scan <args>...",
		ShortDesc: "run the fallback scanner",
		LongDesc:  usage,
		Advanced:  true,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type dirsFlag []string

func (f *dirsFlag) String() string { return strings.Join(*f, ",") }

func (f *dirsFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

type run struct {
	subcommands.CommandRunBase

	dir        string
	dirs       dirsFlag
	systemDirs dirsFlag
	obj        string
	output     string
}

func (c *run) init() {
	c.Flags.StringVar(&c.dir, "C", ".", "directory to run in")
	c.Flags.Var(&c.dirs, "I", "include dir for `import <...>`. can be repeated")
	c.Flags.Var(&c.systemDirs, "isystem", "system include dir searched after -I dirs. can be repeated")
	c.Flags.StringVar(&c.obj, "obj", "", "object file of the source. <source>.o if empty")
	c.Flags.StringVar(&c.output, "o", "", "dependency info output filename")
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
	if len(args) != 1 {
		return fmt.Errorf("want one source, got %q: %w", args, flag.ErrHelp)
	}
	err := os.Chdir(c.dir)
	if err != nil {
		return err
	}
	src := args[0]
	obj := c.obj
	if obj == "" {
		obj = src + ".o"
	}
	s := scandeps.New()
	rule, err := s.Scan(ctx, scandeps.Request{
		Source:     src,
		Output:     obj,
		Dirs:       c.dirs,
		SystemDirs: c.systemDirs,
	})
	if err != nil {
		return err
	}
	if c.output != "" {
		return scandeps.WriteFile(c.output, rule)
	}
	buf, err := p1689util.Marshal(scandeps.Document(rule))
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", buf)
	return nil
}
