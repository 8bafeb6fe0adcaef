// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package help provides help subcommand.
package help

import (
	"flag"
	"fmt"

	"github.com/maruel/subcommands"
)

// Cmd returns the Command for the `help` subcommand.
// globalFlags are flags given before the subcommand name, e.g. -v, -log_json.
func Cmd(globalFlags *flag.FlagSet) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "help [<command>|-advanced]",
		ShortDesc: "prints help about a command",
		LongDesc: `Prints commands and global flags, or help about a specific command.
Use -advanced to also list debugging commands, e.g. scan.

Scopes are read from modscan.toml (or -c <file>); see "help order".`,
		CommandRun: func() subcommands.CommandRun {
			r := &run{globalFlags: globalFlags}
			r.Flags.BoolVar(&r.advanced, "advanced", false, "show advanced commands")
			return r
		},
	}
}

type run struct {
	subcommands.CommandRunBase
	advanced    bool
	globalFlags *flag.FlagSet
}

func (r *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if len(args) > 0 {
		return subcommands.CmdHelp.CommandRun().Run(a, args, env)
	}
	w := a.GetOut()
	subcommands.Usage(w, a, r.advanced)
	if r.globalFlags == nil {
		return 0
	}
	fmt.Fprintln(w, "Global flags, given before the command:")
	r.globalFlags.SetOutput(w)
	r.globalFlags.PrintDefaults()
	return 0
}
