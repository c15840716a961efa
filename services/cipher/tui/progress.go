// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui provides the live progress view for a running search.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/monosub/services/cipher/anneal"
)

const previewWidth = 72

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2C4A54"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7")).Bold(true)
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#20B9B4"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F"))
)

// SnapshotMsg carries one progress snapshot into the model.
type SnapshotMsg anneal.Snapshot

// streamClosedMsg signals that the snapshot channel was closed.
type streamClosedMsg struct{}

// ProgressModel renders search progress until the search is terminal.
//
// ctrl+c, esc or q call the stop function once; the model keeps running
// until the terminal snapshot arrives.
type ProgressModel struct {
	ciphertext string
	budget     int
	snaps      <-chan anneal.Snapshot
	stop       func()

	bar  progress.Model
	spin spinner.Model

	last     anneal.Snapshot
	stopping bool
	done     bool
}

// NewProgressModel creates a model fed by snaps. budget is the iteration
// budget used for the bar; stop is invoked when the user interrupts.
func NewProgressModel(ciphertext string, budget int, snaps <-chan anneal.Snapshot, stop func()) ProgressModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = valueStyle
	if budget <= 0 {
		budget = 1
	}
	return ProgressModel{
		ciphertext: ciphertext,
		budget:     budget,
		snaps:      snaps,
		stop:       stop,
		bar:        progress.New(progress.WithGradient("#16858E", "#2CD7C7"), progress.WithWidth(40)),
		spin:       spin,
		last:       anneal.Snapshot{State: anneal.StateRunning},
	}
}

// Last returns the most recent snapshot received.
func (m ProgressModel) Last() anneal.Snapshot {
	return m.last
}

// Stopping reports whether the user asked to stop.
func (m ProgressModel) Stopping() bool {
	return m.stopping
}

// Done reports whether a terminal snapshot or channel close was observed.
func (m ProgressModel) Done() bool {
	return m.done
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, waitForSnapshot(m.snaps))
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.last = anneal.Snapshot(msg)
		if m.last.State.IsTerminal() {
			m.done = true
			return m, tea.Quit
		}
		return m, waitForSnapshot(m.snaps)

	case streamClosedMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			if m.stopping {
				return m, nil
			}
			m.stopping = true
			stop := m.stop
			return m, func() tea.Msg {
				if stop != nil {
					stop()
				}
				return nil
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-20, 10), 80)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		updated, cmd := m.bar.Update(msg)
		if bar, ok := updated.(progress.Model); ok {
			m.bar = bar
		}
		return m, cmd
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var b strings.Builder

	status := "annealing"
	if m.stopping && !m.done {
		status = warnStyle.Render("stopping")
	}
	if m.done {
		status = m.last.State.String()
	}
	fmt.Fprintf(&b, "%s %s\n", m.spin.View(), status)
	b.WriteString(m.bar.ViewAs(m.Fraction()) + "\n")
	fmt.Fprintf(&b, "%s %s  %s %s  %s %s  %s %s\n",
		labelStyle.Render("iter"), valueStyle.Render(fmt.Sprintf("%d/%d", m.last.Iterations, m.budget)),
		labelStyle.Render("best"), valueStyle.Render(fmt.Sprint(m.last.BestScore)),
		labelStyle.Render("current"), valueStyle.Render(fmt.Sprint(m.last.CurrentScore)),
		labelStyle.Render("temp"), valueStyle.Render(fmt.Sprintf("%.3f", m.last.Temperature)),
	)
	if m.last.BestKey.Valid() {
		b.WriteString(previewStyle.Render(preview(m.last.BestKey.Decrypt(m.ciphertext))) + "\n")
	}
	if !m.done && !m.stopping {
		b.WriteString(labelStyle.Render("q to stop") + "\n")
	}
	return b.String()
}

// Fraction returns the share of the iteration budget used, in [0, 1].
func (m ProgressModel) Fraction() float64 {
	if m.done {
		return 1
	}
	return min(1, float64(m.last.Iterations)/float64(m.budget))
}

func waitForSnapshot(snaps <-chan anneal.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-snaps
		if !ok {
			return streamClosedMsg{}
		}
		return SnapshotMsg(snap)
	}
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > previewWidth {
		return text[:previewWidth-3] + "..."
	}
	return text
}
