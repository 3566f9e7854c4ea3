// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/gemologic/kyanite/internal/ctxlog"
)

const (
	maxBufferSize = 8 * 1024 * 1024 // 8MB per captured stream

	// ExitCodeSpawnFailure is the exit code recorded when the child could
	// not be started at all.
	ExitCodeSpawnFailure = 127

	// signalExitBase is added to the signal number when a child is killed
	// by a signal.
	signalExitBase = 128
)

var (
	// ErrBufferOverflow is returned when the output exceeds the max size.
	ErrBufferOverflow = fmt.Errorf("output exceeds max size of %d bytes", maxBufferSize)
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrEmptyArgv is returned when a job's argument vector is empty.
	ErrEmptyArgv = errors.New("empty argument vector")
	// ErrFailedToReadBuffer is returned when the buffer from the operating system pipe could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
)

// Runner spawns one child process per job and captures its output streams.
// The child inherits the caller's environment and working directory; its
// stdin reads from the null device.
type Runner struct {
	// DryRun skips spawning. The completion carries exit 0 and the joined
	// argv plus a newline as stdout.
	DryRun bool
}

// Run executes one job to completion. A failure to spawn never returns an
// error to the pool: it is folded into the Completion so one bad record
// cannot stop the run.
func (r *Runner) Run(ctx context.Context, job Job) Completion {
	logger := ctxlog.Logger(ctx).
		With("seq", job.Seq)

	if r.DryRun {
		return Completion{
			Seq:    job.Seq,
			Record: job.Record,
			Stdout: []byte(job.Label() + "\n"),
		}
	}

	if len(job.Argv) == 0 {
		return spawnFailure(job, ErrEmptyArgv)
	}

	path, err := exec.LookPath(job.Argv[0])
	if err != nil {
		return spawnFailure(job, errors.Join(ErrCouldNotStartProcess, err))
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return spawnFailure(job, errors.Join(ErrFailedToCreatePipe, err))
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		closeAll(rOut, wOut)

		return spawnFailure(job, errors.Join(ErrFailedToCreatePipe, err))
	}

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		closeAll(rOut, wOut, rErr, wErr)

		return spawnFailure(job, errors.Join(ErrCouldNotStartProcess, err))
	}

	logger.Debug("starting process", "path", path, "args", job.Argv)

	ps, err := os.StartProcess(path, job.Argv, &os.ProcAttr{
		Files: []*os.File{devNull, wOut, wErr},
	})

	_ = devNull.Close()

	if err != nil {
		closeAll(rOut, wOut, rErr, wErr)

		return spawnFailure(job, errors.Join(ErrCouldNotStartProcess, err))
	}

	logger.Debug("process started", "pid", ps.Pid)

	// Drain both pipes while the child runs. Waiting first would deadlock
	// once the child fills the pipe buffer.
	type capture struct {
		data []byte
		err  error
	}

	outCh := make(chan capture, 1)
	errCh := make(chan capture, 1)

	go func() {
		data, err := readAllUpToMax(ctx, rOut, maxBufferSize)
		if errors.Is(err, ErrBufferOverflow) {
			_, _ = io.Copy(io.Discard, rOut) // keep the child from blocking on a full pipe
		}

		outCh <- capture{data: data, err: err}
	}()

	go func() {
		data, err := readAllUpToMax(ctx, rErr, maxBufferSize)
		if errors.Is(err, ErrBufferOverflow) {
			_, _ = io.Copy(io.Discard, rErr)
		}

		errCh <- capture{data: data, err: err}
	}()

	state, psErr := ps.Wait()

	// Closing the write ends lets the capture goroutines observe EOF.
	_ = wOut.Close()
	_ = wErr.Close()

	stdout := <-outCh
	stderr := <-errCh

	_ = rOut.Close()
	_ = rErr.Close()

	res := Completion{
		Seq:      job.Seq,
		Record:   job.Record,
		ExitCode: exitStatus(state),
		Stdout:   stdout.data,
		Stderr:   stderr.data,
		Err:      errors.Join(psErr, stdout.err, stderr.err),
	}

	logger.Debug("process finished", "exitCode", res.ExitCode)

	return res
}

func spawnFailure(job Job, err error) Completion {
	return Completion{
		Seq:      job.Seq,
		Record:   job.Record,
		ExitCode: ExitCodeSpawnFailure,
		Err:      err,
	}
}

// exitStatus maps a process state to the reported exit code. A child killed
// by a signal reports 128 plus the signal number.
func exitStatus(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return signalExitBase + int(ws.Signal())
	}

	return state.ExitCode()
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func readAllUpToMax(ctx context.Context, r io.Reader, maxBufferSize int64) ([]byte, error) {
	var buf bytes.Buffer

	n, err := io.CopyN(&buf, r, maxBufferSize+1)
	if err != nil && err != io.EOF {
		return nil, errors.Join(ErrFailedToReadBuffer, err)
	}

	if n > maxBufferSize {
		ctxlog.Logger(ctx).Debug(
			"buffer overflow in readAllUpToMax",
			"bytesRead", n,
			"maxBytes", maxBufferSize,
		)

		return buf.Bytes()[:maxBufferSize], ErrBufferOverflow
	}

	return buf.Bytes(), nil
}
