// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runstream contains the parallel execution engine: the job and
// completion model, the process runner, the bounded worker pool, the
// reorder buffer for ordered output, and the orchestrator that wires the
// input stream to the pool and the output sink.
package runstream
