// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main is the entry point for the kyanite command-line application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gemologic/kyanite"
	"github.com/gemologic/kyanite/cmd"
	"github.com/gemologic/kyanite/internal/ctxlog"
	"github.com/gemologic/kyanite/internal/signalbroker"
)

func main() {
	ctx := ctxlog.New(context.Background(), ctxlog.DefaultLogger)

	drain := &signalbroker.Drain{}
	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, drain)

	ctx = context.WithValue(ctx, cmd.DrainContextKey{}, drain)

	rootCmd := cmd.New()
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", kyanite.Version, kyanite.Commit)
	rootCmd.Reader = os.Stdin

	err := rootCmd.Run(ctx, os.Args)
	if err != nil {
		var coder cli.ExitCoder
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}

		ctxlog.Logger(ctx).Error("command failed", "error", err)
		os.Exit(1)
	}
}
