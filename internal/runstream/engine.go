// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runstream

import (
	"bufio"
	"context"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gemologic/kyanite/internal/ctxlog"
	"github.com/gemologic/kyanite/internal/progress"
	"github.com/gemologic/kyanite/internal/signalbroker"
	"github.com/gemologic/kyanite/internal/template"
)

const (
	// maxLineSize bounds a single input record.
	maxLineSize = 1024 * 1024

	initialLineBuffer = 64 * 1024
)

// Engine wires the input stream through the template expander into a
// bounded worker pool and on to the output sink. One Engine serves one run.
type Engine struct {
	Template *template.Template
	Splitter *template.Splitter
	Runner   *Runner
	Sink     *Sink
	Reporter progress.Reporter
	Drain    *signalbroker.Drain

	Jobs      int  // worker count and job channel capacity
	MaxJobs   int  // total record cap, 0 = unlimited
	KeepOrder bool // emit completions in input order
	Verbose   bool // emit a final count summary

	Input io.Reader
}

// Summary is the aggregate outcome of a run.
type Summary struct {
	Records  uint64 // records consumed from the input
	Failures uint64 // completions with a non-zero exit or a spawn failure
}

// Run drives the engine to completion: it reads records until end of input,
// the record cap, or a drain signal; then closes the job channel, waits for
// the workers to quiesce, and flushes the collector.
//
// The producer runs on the calling goroutine. Backpressure comes from the
// bounded job channel: at most Jobs queued plus Jobs claimed records are
// outstanding at any moment.
func (e *Engine) Run(ctx context.Context) Summary {
	logger := ctxlog.Logger(ctx)

	reporter := e.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}

	drain := e.Drain
	if drain == nil {
		drain = &signalbroker.Drain{}
	}

	jobsCh := make(chan Job, e.Jobs)
	completions := make(chan Completion, e.Jobs)

	var workers errgroup.Group

	for range e.Jobs {
		workers.Go(func() error {
			for job := range jobsCh {
				reporter.Report(progress.Event{
					Type:      progress.EventStarted,
					Seq:       job.Seq,
					Label:     job.Label(),
					Timestamp: time.Now(),
				})

				completions <- e.Runner.Run(ctx, job)
			}

			return nil
		})
	}

	var summary Summary

	collectorDone := make(chan struct{})

	go func() {
		defer close(collectorDone)
		e.collect(ctx, completions, reporter, &summary)
	}()

	seq := e.produce(ctx, jobsCh, reporter, drain)

	close(jobsCh)

	_ = workers.Wait()

	close(completions)

	<-collectorDone

	summary.Records = seq

	if e.Verbose {
		e.Sink.Diagf("processed %d jobs, %d failed", seq, summary.Failures)
	}

	logger.Debug("run finished", "records", seq, "failures", summary.Failures)

	return summary
}

// produce reads records, expands them into jobs and pushes them onto the
// channel. It returns the number of records consumed. Sequence numbers are
// gapless, assigned in input order by this single reader.
func (e *Engine) produce(ctx context.Context, jobsCh chan<- Job, reporter progress.Reporter, drain *signalbroker.Drain) uint64 {
	logger := ctxlog.Logger(ctx)

	scanner := bufio.NewScanner(e.Input)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineSize)

	var seq uint64

	for {
		if drain.Active() {
			logger.Info("drain requested, intake stopped", "records", seq)

			break
		}

		if e.MaxJobs > 0 && seq >= uint64(e.MaxJobs) {
			logger.Debug("record cap reached", "maxJobs", e.MaxJobs)

			break
		}

		if !scanner.Scan() {
			break
		}

		record := scanner.Text()
		job := Job{
			Seq:    seq,
			Argv:   e.Template.Expand(record, e.Splitter),
			Record: record,
		}

		reporter.Report(progress.Event{
			Type:      progress.EventQueued,
			Seq:       job.Seq,
			Label:     job.Label(),
			Timestamp: time.Now(),
		})

		jobsCh <- job
		seq++
	}

	// A read error on stdin is treated as end of input.
	if err := scanner.Err(); err != nil {
		logger.Warn("error reading input, treating as end of input", "error", err)
	}

	return seq
}

// collect consumes completions until the channel closes, routing them
// through the reorder buffer when keep-order is on and accounting failures.
func (e *Engine) collect(ctx context.Context, completions <-chan Completion, reporter progress.Reporter, summary *Summary) {
	emit := e.Sink.Emit

	var buf *ReorderBuffer

	if e.KeepOrder {
		buf = NewReorderBuffer(e.Sink.Emit)
		emit = buf.Push
	}

	for c := range completions {
		if c.Failed() {
			summary.Failures++

			if c.Err != nil {
				e.Sink.Diagf("job %d (%q): %v", c.Seq, c.Record, c.Err)
			}

			reporter.Report(progress.Event{
				Type:      progress.EventFailed,
				Seq:       c.Seq,
				ExitCode:  c.ExitCode,
				Err:       c.Err,
				Timestamp: time.Now(),
			})
		} else {
			reporter.Report(progress.Event{
				Type:      progress.EventCompleted,
				Seq:       c.Seq,
				Timestamp: time.Now(),
			})
		}

		emit(c)
	}

	if buf != nil && buf.Len() > 0 {
		ctxlog.Logger(ctx).Error("reorder buffer not empty at shutdown",
			"pending", buf.Len(),
			"nextExpected", buf.NextExpected(),
		)
	}
}
