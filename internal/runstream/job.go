// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runstream

import "strings"

// Job is one unit of work: the sequence number of the record it came from,
// the argument vector to execute, and the record itself for diagnostics.
// Jobs are immutable once created.
type Job struct {
	Seq    uint64
	Argv   []string // Argv[0] is the program; the rest are its arguments.
	Record string
}

// Label returns the space-joined argv for diagnostics and dry-run output.
func (j Job) Label() string {
	return strings.Join(j.Argv, " ")
}

// Completion is the outcome of running a job.
type Completion struct {
	Seq      uint64
	Record   string // The origin record, kept for failure diagnostics.
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Err      error // Spawn or capture failure. Nil for a clean run, whatever the exit code.
}

// Failed reports whether the job counts against the overall exit status.
func (c Completion) Failed() bool {
	return c.Err != nil || c.ExitCode != 0
}
