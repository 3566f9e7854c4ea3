// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/gemologic/kyanite/internal/ctxlog"
)

// Watch monitors the signal channel and handles signals.
// The first signal begins draining: intake stops and in-flight jobs finish.
// The second signal terminates the process with ExitCodeInterrupted.
// Watch returns when the channel is closed.
func Watch(ctx context.Context, sigCh chan os.Signal, drain *Drain) {
	for sig := range sigCh {
		if drain.Active() {
			ctxlog.Logger(ctx).Info("watchdog", "detail", "received second signal, forcefully terminating", "signal", sig.String())
			Exit(ExitCodeInterrupted)

			return
		}

		ctxlog.Logger(ctx).Info("watchdog", "detail", "received first signal, draining", "signal", sig.String())
		drain.Begin()
	}
}
