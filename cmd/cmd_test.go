// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/gemologic/kyanite/internal/config"
)

// testRun executes the root command with the given arguments and input,
// returning the captured stdout, stderr and the run error. The process
// exiter is stubbed so exit-coded errors come back to the test.
func testRun(t *testing.T, args []string, input string, files map[string]string) (*bytes.Buffer, *bytes.Buffer, error) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	stubs := gostub.Stub(&config.FsFactory, func() afero.Fs { return fs })
	stubs.Stub(&cli.OsExiter, func(int) {})
	t.Cleanup(stubs.Reset)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	root := New()
	root.Reader = strings.NewReader(input)
	root.Writer = stdout
	root.ErrWriter = stderr

	err := root.Run(context.Background(), append([]string{"kyanite"}, args...))

	return stdout, stderr, err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	var coder cli.ExitCoder

	require.ErrorAs(t, err, &coder)

	return coder.ExitCode()
}

func TestRun_DryRunScenario(t *testing.T) {
	stdout, _, err := testRun(t, []string{"-n", "-k", "cmd {1} {2}"}, "x y\n", nil)

	require.NoError(t, err)
	assert.Equal(t, "cmd x y\n", stdout.String())
}

func TestRun_CustomPlaceholder(t *testing.T) {
	stdout, _, err := testRun(t, []string{"-n", "-I", "@", "echo @1@"}, "hi\n", nil)

	require.NoError(t, err)
	assert.Equal(t, "echo hi\n", stdout.String())
}

func TestRun_MissingTemplateIsUsageError(t *testing.T) {
	_, _, err := testRun(t, nil, "", nil)

	require.Error(t, err)
	assert.Equal(t, ExitCodeUsage, exitCode(t, err))
}

func TestRun_EmptyPlaceholderIsUsageError(t *testing.T) {
	_, _, err := testRun(t, []string{"-I", "", "echo {}"}, "", nil)

	require.Error(t, err)
	assert.Equal(t, ExitCodeUsage, exitCode(t, err))
}

func TestRun_BadTemplateIsUsageError(t *testing.T) {
	_, _, err := testRun(t, []string{"echo {0}"}, "", nil)

	require.Error(t, err)
	assert.Equal(t, ExitCodeUsage, exitCode(t, err))
}

func TestRun_ZeroJobsIsUsageError(t *testing.T) {
	_, _, err := testRun(t, []string{"-j", "0", "echo {}"}, "", nil)

	require.Error(t, err)
	assert.Equal(t, ExitCodeUsage, exitCode(t, err))
}

func TestRun_NegativeMaxJobsIsUsageError(t *testing.T) {
	_, _, err := testRun(t, []string{"--max-jobs=-1", "echo {}"}, "", nil)

	require.Error(t, err)
	assert.Equal(t, ExitCodeUsage, exitCode(t, err))
}

func TestRun_SpawnFailureExitsOne(t *testing.T) {
	_, stderr, err := testRun(t, []string{"{1}"}, "definitely-not-a-command-zzz\n", nil)

	require.Error(t, err)
	assert.Equal(t, ExitCodeFailure, exitCode(t, err))
	assert.Contains(t, stderr.String(), "definitely-not-a-command-zzz")
}

func TestRun_MaxJobsFlag(t *testing.T) {
	stdout, _, err := testRun(t, []string{"-n", "-k", "--max-jobs", "2", "run {}"}, "a\nb\nc\n", nil)

	require.NoError(t, err)
	assert.Equal(t, "run a\nrun b\n", stdout.String())
}

func TestRun_FieldSeparatorFlag(t *testing.T) {
	stdout, _, err := testRun(t, []string{"-n", "--field-separator", ",", "echo {2}"}, "a,b,c\n", nil)

	require.NoError(t, err)
	assert.Equal(t, "echo b\n", stdout.String())
}

func TestRun_DefaultsFileApplies(t *testing.T) {
	files := map[string]string{
		config.DefaultFileName: "dry-run: true\nkeep-order: true\n",
	}

	stdout, _, err := testRun(t, []string{"echo {}"}, "alpha\n", files)

	require.NoError(t, err)
	assert.Equal(t, "echo alpha\n", stdout.String(), "dry-run from the defaults file is honored")
}

func TestRun_FlagOverridesDefaultsFile(t *testing.T) {
	files := map[string]string{
		config.DefaultFileName: "input: \"@\"\n",
	}

	stdout, _, err := testRun(t, []string{"-n", "-I", "{}", "echo {}"}, "x\n", files)

	require.NoError(t, err)
	assert.Equal(t, "echo x\n", stdout.String())
}

func TestRun_ExplicitMissingConfigIsUsageError(t *testing.T) {
	_, _, err := testRun(t, []string{"--config", "absent.yaml", "-n", "echo {}"}, "", nil)

	require.Error(t, err)
	assert.Equal(t, ExitCodeUsage, exitCode(t, err))
}

func TestRun_VerboseDiagnostics(t *testing.T) {
	_, stderr, err := testRun(t, []string{"-n", "-v", "echo {}"}, "a\n", nil)

	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "kyanite: job 0 queued")
	assert.Contains(t, stderr.String(), "kyanite: processed 1 jobs, 0 failed")
}
