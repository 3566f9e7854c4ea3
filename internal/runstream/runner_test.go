// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runstream

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemologic/kyanite/internal/ctxlog"
)

func testCtx() context.Context {
	return ctxlog.New(context.Background(), ctxlog.DefaultLogger)
}

func TestRunnerRun_Success(t *testing.T) {
	r := &Runner{}
	c := r.Run(testCtx(), Job{Seq: 0, Argv: []string{"echo", "hello"}, Record: "hello"})

	assert.Equal(t, 0, c.ExitCode, "expected exit code 0")
	require.NoError(t, c.Err, "unexpected error")
	assert.Equal(t, "hello\n", string(c.Stdout))
	assert.Empty(t, c.Stderr)
	assert.False(t, c.Failed())
}

func TestRunnerRun_NonZeroExit(t *testing.T) {
	r := &Runner{}
	c := r.Run(testCtx(), Job{Seq: 1, Argv: []string{"sh", "-c", "exit 3"}})

	assert.Equal(t, 3, c.ExitCode)
	require.NoError(t, c.Err, "a non-zero exit is not a runner error")
	assert.True(t, c.Failed())
}

func TestRunnerRun_CapturesStderr(t *testing.T) {
	r := &Runner{}
	c := r.Run(testCtx(), Job{Seq: 2, Argv: []string{"sh", "-c", "echo oops 1>&2"}})

	assert.Equal(t, 0, c.ExitCode)
	assert.Empty(t, c.Stdout)
	assert.Equal(t, "oops\n", string(c.Stderr))
}

func TestRunnerRun_NotFound(t *testing.T) {
	r := &Runner{}
	c := r.Run(testCtx(), Job{Seq: 3, Argv: []string{"not-a-real-command-xyz"}, Record: "x"})

	assert.Equal(t, ExitCodeSpawnFailure, c.ExitCode)
	require.Error(t, c.Err)
	assert.ErrorIs(t, c.Err, ErrCouldNotStartProcess)
	assert.True(t, c.Failed())
	assert.Equal(t, "x", c.Record, "spawn failures keep the origin record for diagnostics")
}

func TestRunnerRun_EmptyArgv(t *testing.T) {
	r := &Runner{}
	c := r.Run(testCtx(), Job{Seq: 4, Argv: nil, Record: ""})

	assert.Equal(t, ExitCodeSpawnFailure, c.ExitCode)
	assert.ErrorIs(t, c.Err, ErrEmptyArgv)
}

func TestRunnerRun_SignalTerminated(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping signal test on windows")
	}

	r := &Runner{}
	c := r.Run(testCtx(), Job{Seq: 5, Argv: []string{"sh", "-c", "kill -TERM $$"}})

	assert.Equal(t, signalExitBase+15, c.ExitCode, "SIGTERM maps to 128+15")
	assert.True(t, c.Failed())
}

func TestRunnerRun_StdinIsEmpty(t *testing.T) {
	r := &Runner{}
	c := r.Run(testCtx(), Job{Seq: 6, Argv: []string{"cat"}})

	assert.Equal(t, 0, c.ExitCode, "cat over the null device exits immediately")
	assert.Empty(t, c.Stdout)
}

func TestRunnerRun_DryRun(t *testing.T) {
	r := &Runner{DryRun: true}
	c := r.Run(testCtx(), Job{Seq: 7, Argv: []string{"cmd", "x", "y"}, Record: "x y"})

	assert.Equal(t, 0, c.ExitCode)
	require.NoError(t, c.Err)
	assert.Equal(t, "cmd x y\n", string(c.Stdout))
	assert.Empty(t, c.Stderr)
}

func TestJobLabel(t *testing.T) {
	j := Job{Argv: []string{"echo", "a b", "c"}}
	assert.Equal(t, "echo a b c", j.Label())
}
