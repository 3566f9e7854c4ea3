// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v3"

	"github.com/gemologic/kyanite/internal/config"
	"github.com/gemologic/kyanite/internal/ctxlog"
	"github.com/gemologic/kyanite/internal/progress"
	"github.com/gemologic/kyanite/internal/runstream"
	"github.com/gemologic/kyanite/internal/signalbroker"
	"github.com/gemologic/kyanite/internal/template"
)

const (
	templateArg = "template"

	jobsFlag           = "jobs"
	keepOrderFlag      = "keep-order"
	dryRunFlag         = "dry-run"
	verboseFlag        = "verbose"
	maxJobsFlag        = "max-jobs"
	inputFlag          = "input"
	fieldSeparatorFlag = "field-separator"
	configFlag         = "config"
)

const (
	// ExitCodeFailure is returned when at least one job exited non-zero or
	// failed to spawn.
	ExitCodeFailure = 1
	// ExitCodeUsage is returned for argument and template compile errors.
	ExitCodeUsage = 2
)

// DrainContextKey carries the shared drain flag from main into the action.
type DrainContextKey struct{}

// New builds the root command. A fresh command is built per invocation so
// tests can run commands independently.
func New() *cli.Command {
	return &cli.Command{
		Name:      "kyanite",
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Usage:     "execute commands in parallel for each input line",
		Description: `Kyanite reads newline-delimited records from stdin and spawns one child
process per record, with the argument vector derived from a template.
Placeholder expressions select the whole record, numeric fields, open-ended
field ranges, sed-style substitutions and regex captures.`,
		UsageText: "kyanite [OPTIONS] TEMPLATE",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      templateArg,
				UsageText: "TEMPLATE",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    jobsFlag,
				Aliases: []string{"j"},
				Usage:   "number of parallel workers",
				Value:   runtime.NumCPU(),
			},
			&cli.BoolFlag{
				Name:    keepOrderFlag,
				Aliases: []string{"k"},
				Usage:   "emit completions in input order",
			},
			&cli.BoolFlag{
				Name:    dryRunFlag,
				Aliases: []string{"n"},
				Usage:   "print the resolved argv per record instead of spawning",
			},
			&cli.BoolFlag{
				Name:    verboseFlag,
				Aliases: []string{"v"},
				Usage:   "emit progress diagnostics on stderr",
			},
			&cli.IntFlag{
				Name:  maxJobsFlag,
				Usage: "total record cap, 0 = unlimited",
			},
			&cli.StringFlag{
				Name:    inputFlag,
				Aliases: []string{"I"},
				Usage:   "placeholder token for template expressions",
				Value:   template.DefaultPlaceholder,
			},
			&cli.StringFlag{
				Name:  fieldSeparatorFlag,
				Usage: "field separator, defaults to whitespace runs",
			},
			&cli.StringFlag{
				Name:  configFlag,
				Usage: "YAML defaults file, defaults to " + config.DefaultFileName,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	run, err := resolveConfig(cmd)
	if err != nil {
		return cli.Exit(err.Error(), ExitCodeUsage)
	}

	tmpl, err := template.Compile(run.Template, run.Placeholder)
	if err != nil {
		return cli.Exit(err.Error(), ExitCodeUsage)
	}

	drain, _ := ctx.Value(DrainContextKey{}).(*signalbroker.Drain)

	var reporter progress.Reporter = progress.Nop{}
	if run.Verbose {
		reporter = progress.NewWriter(cmd.ErrWriter, "kyanite:")
	}

	engine := &runstream.Engine{
		Template:  tmpl,
		Splitter:  template.NewSplitter(run.FieldSeparator),
		Runner:    &runstream.Runner{DryRun: run.DryRun},
		Sink:      runstream.NewSink(cmd.Writer, cmd.ErrWriter),
		Reporter:  reporter,
		Drain:     drain,
		Jobs:      run.Jobs,
		MaxJobs:   run.MaxJobs,
		KeepOrder: run.KeepOrder,
		Verbose:   run.Verbose,
		Input:     cmd.Reader,
	}

	summary := engine.Run(ctx)

	if err := engine.Sink.Err(); err != nil {
		ctxlog.Logger(ctx).Warn("output write errors", "error", err)
	}

	if summary.Failures > 0 {
		return cli.Exit("", ExitCodeFailure)
	}

	return nil
}

// resolveConfig merges built-in defaults, the YAML defaults file and the
// command-line flags, in that order.
func resolveConfig(cmd *cli.Command) (config.Run, error) {
	run := config.Default()

	path := cmd.String(configFlag)
	explicit := path != ""

	if !explicit {
		path = config.DefaultFileName
	}

	file, err := config.LoadFile(path, explicit)
	if err != nil {
		return run, err
	}

	file.ApplyTo(&run)

	if cmd.IsSet(jobsFlag) {
		run.Jobs = int(cmd.Int(jobsFlag))
	}

	if cmd.IsSet(keepOrderFlag) {
		run.KeepOrder = cmd.Bool(keepOrderFlag)
	}

	if cmd.IsSet(dryRunFlag) {
		run.DryRun = cmd.Bool(dryRunFlag)
	}

	if cmd.IsSet(verboseFlag) {
		run.Verbose = cmd.Bool(verboseFlag)
	}

	if cmd.IsSet(maxJobsFlag) {
		run.MaxJobs = int(cmd.Int(maxJobsFlag))
	}

	if cmd.IsSet(inputFlag) {
		run.Placeholder = cmd.String(inputFlag)
	}

	if cmd.IsSet(fieldSeparatorFlag) {
		run.FieldSeparator = cmd.String(fieldSeparatorFlag)
	}

	run.Template = cmd.StringArg(templateArg)

	if err := run.Validate(); err != nil {
		return run, fmt.Errorf("%w (see kyanite --help)", err)
	}

	return run, nil
}
