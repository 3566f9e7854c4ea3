// Copyright (c) gemologic 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrettyLogger(buf *bytes.Buffer) *slog.Logger {
	lv := &slog.LevelVar{}
	lv.Set(slog.LevelDebug)

	return slog.New(NewPrettyHandler(&slog.HandlerOptions{Level: lv},
		WithDestinationWriter(buf),
	))
}

func TestPrettyHandlerWritesMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newTestPrettyLogger(buf)

	logger.Info("hello", "answer", 42)

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "INFO:")
	assert.Contains(t, out, "answer")
	assert.Contains(t, out, "42")
}

func TestPrettyHandlerNoAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newTestPrettyLogger(buf)

	logger.Warn("bare warning")

	out := buf.String()
	assert.Contains(t, out, "bare warning")
	assert.Contains(t, out, "WARN:")
	assert.NotContains(t, out, "{", "no attribute payload expected")
}

func TestPrettyHandlerWithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newTestPrettyLogger(buf).With("seq", 7)

	logger.Debug("claimed")

	out := buf.String()
	assert.Contains(t, out, "claimed")
	assert.Contains(t, out, "seq")
}

func TestPrettyHandlerEnabled(t *testing.T) {
	lv := &slog.LevelVar{}
	lv.Set(slog.LevelWarn)

	h := NewPrettyHandler(&slog.HandlerOptions{Level: lv}, WithDestinationWriter(&bytes.Buffer{}))
	require.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	require.True(t, h.Enabled(context.Background(), slog.LevelError))
}
