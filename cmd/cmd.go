// Package cmd wires Covenant's CLI verbs (spec.md §6) onto
// github.com/urfave/cli/v3, the same framework and Command/subcommand
// shape the teacher's cmd/cmd.go uses.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// Execute runs the Covenant CLI with the given version string. Every
// invocation runs against pipeline.DefaultModules' fixed host module set
// (core, math, str, time, json) — there is no module registry to
// populate via blank import.
func Execute(version string) {
	cmd := &cli.Command{
		Name:                   "covenant",
		Usage:                  "Lex, verify, compile, and run Covenant contracts",
		Version:                version,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Run all static verification passes over FILE",
				ArgsUsage: "<file.cov>",
				Action:    checkAction,
			},
			{
				Name:      "run",
				Usage:     "Compile FILE in-memory and execute a contract",
				ArgsUsage: "<file.cov>",
				Flags:     invokeFlags(),
				Action:    runAction,
			},
			{
				Name:      "build",
				Usage:     "Compile FILE to a .covc bytecode file",
				ArgsUsage: "<file.cov>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output .covc path",
					},
				},
				Action: buildAction,
			},
			{
				Name:      "exec",
				Usage:     "Run a precompiled .covc bytecode file",
				ArgsUsage: "<file.covc>",
				Flags:     invokeFlags(),
				Action:    execAction,
			},
			{
				Name:      "parse",
				Usage:     "Dump the parsed AST of FILE",
				ArgsUsage: "<file.cov>",
				Action:    parseAction,
			},
			{
				Name:      "tokenize",
				Usage:     "Dump the token stream of FILE",
				ArgsUsage: "<file.cov>",
				Action:    tokenizeAction,
			},
			{
				Name:      "disasm",
				Usage:     "Disassemble the compiled bytecode of FILE",
				ArgsUsage: "<file.cov>",
				Action:    disasmAction,
			},
			{
				Name:      "fingerprint",
				Usage:     "Print the behavioral fingerprint and intent hash of each contract in FILE",
				ArgsUsage: "<file.cov>",
				Action:    fingerprintAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func invokeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "contract",
			Aliases: []string{"c"},
			Usage:   "Contract to invoke (required if FILE declares more than one)",
		},
		&cli.StringSliceFlag{
			Name:  "arg",
			Usage: "k=v argument, auto-detected as int/float/bool/null/JSON/string",
		},
	}
}
