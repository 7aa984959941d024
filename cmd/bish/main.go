// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.

// Command bish is the interpreter entry point: read a source file, compile
// it, run it, and map the result onto the exit-code table in SPEC_FULL.md
// §6. Everything beyond that contract — disassembly tracing, globals dumps,
// config files, source backups — is an optional convenience layered on top
// by cmd/bish itself; none of it changes the bytes written to stdout by a
// successful or failing run.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/cespare/cp"
	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/google/uuid"
	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/rameshpdl/bish/lang/bytecode"
	"github.com/rameshpdl/bish/lang/compiler"
	"github.com/rameshpdl/bish/lang/config"
	"github.com/rameshpdl/bish/lang/diag"
	"github.com/rameshpdl/bish/lang/lexer"
	"github.com/rameshpdl/bish/lang/vm"
)

// Exit codes, stable per SPEC_FULL.md §6. main.go is the only place that
// chooses one; lang/compiler and lang/vm never call os.Exit themselves.
const (
	exitOK                   = 0
	exitCompileOrIOError     = 1
	exitBadLogicalOperand    = 3
	exitBadComparisonOperand = 7
	exitBadNegateOperand     = 8
	exitBadNotOperand        = 9
	exitUnprintable          = 10
	exitMissingSourceArg     = 12
	exitFileOpenError        = 15
	exitUndefinedGlobal      = 18
)

var (
	traceFlag = cli.BoolFlag{
		Name:  "trace",
		Usage: "print a disassembly of the compiled chunk to stderr after a successful run",
	}
	noColorFlag = cli.BoolFlag{
		Name:  "no-color",
		Usage: "disable ANSI color in --trace output even on a TTY",
	}
	dumpGlobalsFlag = cli.BoolFlag{
		Name:  "dump-globals",
		Usage: "pretty-print the final globals map to stderr after the run",
	}
	configFlag = cli.StringFlag{
		Name:   "config",
		Usage:  "optional TOML configuration file",
		EnvVar: "BISH_CONFIG",
	}
	backupFlag = cli.StringFlag{
		Name:  "backup",
		Usage: "copy the source file to this path before running",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "bish"
	app.Usage = "interpreter for the bish scripting language"
	app.Version = "0.1.0"
	app.ArgsUsage = "<source-file>"
	app.Flags = []cli.Flag{traceFlag, noColorFlag, dumpGlobalsFlag, configFlag, backupFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCompileOrIOError)
	}
}

// run is the cli.v1 Action. It never returns a non-nil error for an
// interpreter-level failure — those are mapped to a specific exit code and
// leave through os.Exit directly, the way the teacher's utils.Fatalf does.
func run(ctx *cli.Context) error {
	defer recoverInternalPanic()

	if ctx.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: bish [flags] <source-file>")
		os.Exit(exitMissingSourceArg)
	}
	path := ctx.Args().First()

	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bish: config error: %v\n", err)
		os.Exit(exitCompileOrIOError)
	}

	if backup := ctx.String(backupFlag.Name); backup != "" {
		if err := cp.CopyFile(backup, path); err != nil {
			fmt.Fprintf(os.Stderr, "bish: backup failed: %v\n", err)
			os.Exit(exitCompileOrIOError)
		}
	}

	source, err := readSource(path)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) && pathErr.Op == "open" {
			fmt.Fprintf(os.Stderr, "bish: tapaile diyeko file lai padhna sakiyena: %v\n", err)
			os.Exit(exitFileOpenError)
		}
		fmt.Fprintf(os.Stderr, "bish: read error: %v\n", err)
		os.Exit(exitCompileOrIOError)
	}

	runID := uuid.New()

	toks := lexer.New(path, string(source)).Tokenize()

	var diagBuf, warnBuf bytes.Buffer
	chunk, ok := compiler.New(&diagBuf, &warnBuf, path, toks).Compile()
	if warnBuf.Len() > 0 {
		_, _ = io.Copy(os.Stderr, &warnBuf)
	}
	if !ok {
		fmt.Print(diagBuf.String())
		os.Exit(exitCompileOrIOError)
	}

	machine := vm.New(chunk, os.Stdout)
	runErr := machine.Run()

	if ctx.Bool(dumpGlobalsFlag.Name) {
		fmt.Fprintln(os.Stderr, spew.Sdump(machine.Globals))
	}
	if runErr == nil && ctx.Bool(traceFlag.Name) {
		printTrace(runID, path, chunk, cfg, ctx.Bool(noColorFlag.Name))
	}

	if runErr != nil {
		code, category, message := classifyRuntimeError(runErr)
		fmt.Printf("%s: %s\n", category, message)
		os.Exit(code)
	}
	return nil
}

func readSource(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// classifyRuntimeError maps one of lang/vm's sentinel errors to its exit
// code and diagnostic category. Any error that doesn't match a known
// sentinel (e.g. a *bytecode.Chunk/stack fault with no dedicated exit code
// of its own) falls back to the generic compile/IO bucket.
func classifyRuntimeError(err error) (code int, category diag.Category, message string) {
	switch {
	case errors.Is(err, vm.ErrBadLogicalOperand):
		return exitBadLogicalOperand, diag.TypeError, err.Error()
	case errors.Is(err, vm.ErrBadComparisonOperand), errors.Is(err, vm.ErrBadOperand):
		return exitBadComparisonOperand, diag.TypeError, err.Error()
	case errors.Is(err, vm.ErrBadNegateOperand):
		return exitBadNegateOperand, diag.TypeError, err.Error()
	case errors.Is(err, vm.ErrBadNotOperand):
		return exitBadNotOperand, diag.TypeError, err.Error()
	case errors.Is(err, vm.ErrUnprintable):
		return exitUnprintable, diag.RuntimeError, err.Error()
	case errors.Is(err, vm.ErrUndefinedGlobal):
		return exitUndefinedGlobal, diag.RuntimeError, err.Error()
	default:
		return exitCompileOrIOError, diag.RuntimeError, err.Error()
	}
}

// printTrace renders the compiled chunk's disassembly to stderr, tagged
// with runID so repeated invocations under a test harness can be told
// apart. Color follows cfg.Trace.Color unless overridden by --no-color or
// the output isn't a terminal, mirroring the teacher's go-isatty/
// go-colorable/fatih-color detection chain.
func printTrace(runID uuid.UUID, path string, chunk *bytecode.Chunk, cfg config.Config, noColor bool) {
	out := colorable.NewColorableStderr()
	useColor := cfg.Trace.Color && !noColor && isatty.IsTerminal(os.Stderr.Fd())

	header := fmt.Sprintf("-- run %s --\n", runID)
	if useColor {
		header = color.New(color.FgCyan).Sprint(header)
	}
	fmt.Fprint(out, header)
	fmt.Fprint(out, bytecode.Disassemble(path, chunk))
}

// recoverInternalPanic turns an unexpected Go panic inside the compiler or
// VM into a plain diagnostic plus exit(1) instead of a raw stack trace on
// stderr, the way the teacher's own dispatch loop guards itself against
// defects that should never occur in a correct implementation.
func recoverInternalPanic() {
	if r := recover(); r != nil {
		trace := stack.Trace().TrimRuntime()
		fmt.Fprintf(os.Stderr, "bish: internal error: %v\n%+v\n", r, trace)
		os.Exit(exitCompileOrIOError)
	}
}
