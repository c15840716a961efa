// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{" warning ", LevelWarn},
		{"warn", LevelWarn},
		{"Error", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrUnknownLevel)
}

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Service: "monosub", Output: &buf})
	defer logger.Close()

	logger.Slog().Debug("hidden")
	logger.Slog().Info("search started", "handle", "abc")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "search started")
	assert.Contains(t, out, "handle=abc")
	assert.Contains(t, out, "service=monosub")
	assert.NotContains(t, out, "\x1b[", "non-terminal output must not be colorized")
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, JSON: true, Output: &buf})

	logger.Slog().Debug("tick", "iterations", 1000)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "tick", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.EqualValues(t, 1000, rec["iterations"])
}

func TestNew_Quiet(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Quiet: true, Output: &buf})
	logger.Slog().Error("nobody hears this")
	assert.Empty(t, buf.String())
	assert.Empty(t, logger.Path())
}

func TestNew_LogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, LogDir: dir, Service: "crack", Output: &buf})

	path := logger.Path()
	require.NotEmpty(t, path)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "crack_"))

	logger.Slog().Warn("stop timed out", "grace", "1s")
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())
	assert.Empty(t, logger.Path())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "stop timed out", rec["msg"])
	assert.Equal(t, "crack", rec["service"])
	assert.Contains(t, buf.String(), "stop timed out")
}

func TestNew_LogDirDefaultService(t *testing.T) {
	logger := New(Config{LogDir: t.TempDir(), Quiet: true})
	defer logger.Close()
	assert.True(t, strings.HasPrefix(filepath.Base(logger.Path()), "monosub_"))
}

func TestNew_LogDirUnwritable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	var buf bytes.Buffer
	logger := New(Config{LogDir: filepath.Join(blocker, "logs"), Output: &buf})
	assert.Empty(t, logger.Path())
	logger.Slog().Info("still logging")
	assert.Contains(t, buf.String(), "still logging")
}

func TestMultiHandler(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}
	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	logger := slog.New(h).With("k", "v").WithGroup("g")
	logger.Info("info only", "x", 1)
	logger.Warn("both")

	assert.Contains(t, a.String(), "info only")
	assert.Contains(t, a.String(), `"k":"v"`)
	assert.Contains(t, a.String(), `"g":{"x":1}`)
	assert.NotContains(t, b.String(), "info only")
	assert.Contains(t, b.String(), "both")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".monosub/logs"), expandPath("~/.monosub/logs"))
	assert.Equal(t, "/var/log", expandPath("/var/log"))
}
