// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package order provides order subcommand.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/modscan/build"
	"go.chromium.org/infra/build/modscan/build/buildconfig"
	"go.chromium.org/infra/build/modscan/modgraph"
	"go.chromium.org/infra/build/modscan/o11y/clog"
)

const usage = `show compile order of module units

 $ modscan order [-c modscan.toml] [-json] [<scopes>...]

scans module dependencies of sources in <scopes>, and prints
compile order, header units and BMI paths of each scope.
If <scopes> is not given, it prints all scopes in the config.

A failure in one scope doesn't stop other scopes, but exit code
will be non-zero.
`

// Cmd returns the Command for the `order` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "order [-c <config>] [<scopes>...]",
		ShortDesc: "show compile order of module units",
		LongDesc:  usage,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	fname  string
	asJSON bool
}

func (c *run) init() {
	c.Flags.StringVar(&c.fname, "c", buildconfig.DefaultFilename, "config filename")
	c.Flags.BoolVar(&c.asJSON, "json", false, "print plans in json")
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
	var plans []*build.BatchPlan
	var errs []error
	for _, scope := range scopes {
		plan, err := p.Plan(ctx, scope)
		if err != nil {
			clog.Errorf(ctx, "%v", err)
			errs = append(errs, err)
			continue
		}
		plans = append(plans, plan)
	}
	if c.asJSON {
		buf, err := json.MarshalIndent(plans, "", " ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", buf)
	} else {
		for _, plan := range plans {
			printPlan(os.Stdout, plan)
		}
	}
	return errors.Join(errs...)
}

func printPlan(w io.Writer, plan *build.BatchPlan) {
	fmt.Fprintf(w, "scope %s (%s)\n", plan.Scope, plan.BMIExtension)
	for _, hu := range plan.StdHeaderUnits {
		fmt.Fprintf(w, " header-unit %s %s\n", quote(hu), hu.Path)
	}
	for _, hu := range plan.UserHeaderUnits {
		fmt.Fprintf(w, " header-unit %s %s\n", quote(hu), hu.Path)
	}
	level := make(map[string]int)
	for i, outs := range plan.Levels {
		for _, out := range outs {
			level[out] = i
		}
	}
	for _, out := range plan.Order {
		var provides []string
		artifacts := plan.Artifacts[out]
		for _, name := range slices.Sorted(maps.Keys(artifacts)) {
			provides = append(provides, name+"="+artifacts[name])
		}
		fmt.Fprintln(w, strings.Join(append([]string{"", strconv.Itoa(level[out]), out}, provides...), " "))
	}
}

func quote(hu modgraph.HeaderUnit) string {
	if hu.Type == modgraph.Angle {
		return "<" + hu.Name + ">"
	}
	return `"` + hu.Name + `"`
}
