// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux renders monosub's terminal output with lipgloss.
//
// Output adapts to the active Personality: full and minimal levels use
// colors and icons, the machine level prints stable plain text suitable for
// piping into other tools.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles is the shared style sheet.
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Cipher    lipgloss.Style
	Plain     lipgloss.Style

	Box        lipgloss.Style
	WarningBox lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
	Cipher:    lipgloss.NewStyle().Foreground(ColorWarning),
	Plain:     lipgloss.NewStyle().Foreground(ColorTealBright),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Padding(0, 1),
}

// Icon is a status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
	IconKey     Icon = "⚿"
)

// Render returns the icon in its semantic color.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

var (
	outMu  sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects printing and returns a function restoring the
// previous writers.
func SetOutput(out, errOut io.Writer) (restore func()) {
	outMu.Lock()
	defer outMu.Unlock()
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	return func() {
		outMu.Lock()
		defer outMu.Unlock()
		stdout, stderr = prevOut, prevErr
	}
}

func printOut(format string, args ...any) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(stdout, format, args...)
}

func printErr(format string, args ...any) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(stderr, format, args...)
}

// Title prints a heading. Silent in machine mode.
func Title(text string) {
	if GetPersonality().Level == PersonalityMachine {
		return
	}
	printOut("%s\n", Styles.Title.Render(text))
}

// Success prints a success line.
func Success(text string) {
	switch GetPersonality().Level {
	case PersonalityMachine:
		printOut("OK: %s\n", text)
	case PersonalityMinimal:
		printOut("%s %s\n", IconSuccess.Render(), text)
	default:
		printOut("%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning. Machine mode writes to stderr.
func Warning(text string) {
	switch GetPersonality().Level {
	case PersonalityMachine:
		printErr("WARN: %s\n", text)
	case PersonalityMinimal:
		printOut("%s %s\n", IconWarning.Render(), text)
	default:
		printOut("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error to stderr.
func Error(text string) {
	switch GetPersonality().Level {
	case PersonalityMachine:
		printErr("ERROR: %s\n", text)
	default:
		printErr("%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Info prints an informational line.
func Info(text string) {
	if GetPersonality().Level == PersonalityMachine {
		printOut("%s\n", text)
		return
	}
	printOut("%s %s\n", Styles.Muted.Render("│"), text)
}

// Tip prints a hint when tips are enabled.
func Tip(text string) {
	p := GetPersonality()
	if !p.ShowTips || p.Level == PersonalityMachine {
		return
	}
	printOut("%s\n", Styles.Muted.Render("tip: "+text))
}

// Box prints content framed with a title.
func Box(title, content string) {
	if GetPersonality().Level == PersonalityMachine {
		printOut("%s: %s\n", title, content)
		return
	}
	printOut("%s\n", Styles.Box.Render(Styles.Title.Render(title)+"\n"+content))
}

// ProgressBar renders a width-cell bar for current/total.
func ProgressBar(current, total, width int) string {
	if total <= 0 {
		total = 1
	}
	pct := float64(current) / float64(total)
	pct = max(0, min(1, pct))
	if GetPersonality().Level == PersonalityMachine {
		return fmt.Sprintf("%d/%d", current, total)
	}
	filled := int(pct * float64(width))
	bar := Styles.Success.Render(strings.Repeat("█", filled)) +
		Styles.Muted.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3.0f%%", bar, pct*100)
}
