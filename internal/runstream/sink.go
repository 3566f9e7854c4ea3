// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runstream

import (
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Sink writes each completion's captured streams to the tool's own stdout
// and stderr. A single mutex serializes writes so per-completion output is
// atomic from a reader's perspective.
//
// Write failures are reported on stderr and aggregated, but never stop the
// run.
type Sink struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
	errs   *multierror.Error
}

// NewSink creates a sink over the given output streams.
func NewSink(stdout, stderr io.Writer) *Sink {
	return &Sink{
		stdout: stdout,
		stderr: stderr,
	}
}

// Emit writes one completion's captured output. No framing is added.
func (s *Sink) Emit(c Completion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(c.Stdout) > 0 {
		if _, err := s.stdout.Write(c.Stdout); err != nil {
			s.errs = multierror.Append(s.errs, err)
			fmt.Fprintf(s.stderr, "kyanite: write error on stdout for job %d: %v\n", c.Seq, err) //nolint:errcheck
		}
	}

	if len(c.Stderr) > 0 {
		if _, err := s.stderr.Write(c.Stderr); err != nil {
			s.errs = multierror.Append(s.errs, err)
		}
	}
}

// Diagf writes a prefixed diagnostic line to stderr under the sink's lock so
// it cannot interleave with child output.
func (s *Sink) Diagf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.stderr, "kyanite: "+format+"\n", args...) //nolint:errcheck
}

// Err returns the aggregated write errors, or nil if every write succeeded.
func (s *Sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.errs.ErrorOrNil()
}
