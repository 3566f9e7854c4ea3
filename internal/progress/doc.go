// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress provides lifecycle event reporting for the execution
// engine. The orchestrator emits an event when a job is queued, claimed and
// finished; reporters render them for verbose mode or hand them to tests.
package progress
