// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/monosub/services/cipher/anneal"
	"github.com/AleutianAI/monosub/services/cipher/key"
)

func update(t *testing.T, m ProgressModel, msg tea.Msg) (ProgressModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(ProgressModel)
	require.True(t, ok)
	return pm, cmd
}

func TestProgressModel_Snapshots(t *testing.T) {
	snaps := make(chan anneal.Snapshot, 2)
	m := NewProgressModel("uryyb", 1000, snaps, nil)
	assert.NotNil(t, m.Init())

	m, cmd := update(t, m, SnapshotMsg{Iterations: 250, BestScore: 3, State: anneal.StateRunning, BestKey: key.Identity()})
	require.NotNil(t, cmd)
	assert.False(t, m.Done())
	assert.InDelta(t, 0.25, m.Fraction(), 1e-9)
	view := m.View()
	assert.Contains(t, view, "250/1000")
	assert.Contains(t, view, "uryyb")
	assert.Contains(t, view, "q to stop")

	snaps <- anneal.Snapshot{Iterations: 300, State: anneal.StateConverged}
	msg := cmd()
	m, cmd = update(t, m, msg)
	assert.True(t, m.Done())
	assert.Equal(t, 300, m.Last().Iterations)
	assert.Equal(t, 1.0, m.Fraction())
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), "converged")
}

func TestProgressModel_StreamClosed(t *testing.T) {
	snaps := make(chan anneal.Snapshot)
	close(snaps)
	m := NewProgressModel("abc", 0, snaps, nil)

	msg := waitForSnapshot(snaps)()
	assert.IsType(t, streamClosedMsg{}, msg)
	m, cmd := update(t, m, msg)
	assert.True(t, m.Done())
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestProgressModel_StopOnce(t *testing.T) {
	calls := 0
	m := NewProgressModel("abc", 100, make(chan anneal.Snapshot), func() { calls++ })

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, 1, calls)
	assert.True(t, m.Stopping())
	assert.Contains(t, m.View(), "stopping")

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, calls)
	assert.False(t, m.Done())
}

func TestProgressModel_WindowSize(t *testing.T) {
	m := NewProgressModel("abc", 100, nil, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 40})
	assert.Equal(t, 80, m.bar.Width)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 5, Height: 40})
	assert.Equal(t, 10, m.bar.Width)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n  b"))
	long := strings.Repeat("x", 100)
	got := preview(long)
	assert.Len(t, got, previewWidth)
	assert.True(t, strings.HasSuffix(got, "..."))
}
