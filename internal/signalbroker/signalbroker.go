// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker provides a way to listen for OS signals and handle them gracefully.
// By default it listens for os.Interrupt, syscall.SIGINT, and syscall.SIGTERM signals.
//
// It also contains a watch function that flips a shared drain flag on the first
// signal and forcefully terminates the process on the second.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/gemologic/kyanite/internal/ctxlog"
)

// ExitCodeInterrupted is the status the process exits with on a second signal.
const ExitCodeInterrupted = 130

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	os.Interrupt,
}

// Exit is the function used to terminate the process on a second signal.
// It is a variable so tests can substitute it.
var Exit = os.Exit

// Drain is the shared flag that moves the producer into drain mode.
// The signal watch loop is its sole mutator; everything else only reads it.
type Drain struct {
	flag atomic.Bool
}

// Begin puts the run into drain mode. No new jobs are created once set.
func (d *Drain) Begin() {
	d.flag.Store(true)
}

// Active reports whether drain mode has been entered.
func (d *Drain) Active() bool {
	return d.flag.Load()
}

// New creates a new signal broker that listens for OS signals that should terminate the process.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 2)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "signalbroker", "detail", "creating signal broker", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}
