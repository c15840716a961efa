// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// PersonalityLevel controls how much styling the CLI applies.
type PersonalityLevel string

const (
	// PersonalityFull renders colors, boxes and tips.
	PersonalityFull PersonalityLevel = "full"

	// PersonalityMinimal renders icons but no decorations.
	PersonalityMinimal PersonalityLevel = "minimal"

	// PersonalityMachine renders plain, tab-separated text for scripts.
	PersonalityMachine PersonalityLevel = "machine"
)

// Personality is the active output configuration.
type Personality struct {
	Level    PersonalityLevel
	ShowTips bool
}

var (
	currentPersonality = DefaultPersonality()
	personalityMu      sync.RWMutex
)

// DefaultPersonality returns the full personality with tips.
func DefaultPersonality() Personality {
	return Personality{Level: PersonalityFull, ShowTips: true}
}

// GetPersonality returns the active personality.
func GetPersonality() Personality {
	personalityMu.RLock()
	defer personalityMu.RUnlock()
	return currentPersonality
}

// SetPersonality replaces the active personality.
func SetPersonality(p Personality) {
	personalityMu.Lock()
	defer personalityMu.Unlock()
	currentPersonality = p
}

// SetPersonalityLevel changes only the level.
func SetPersonalityLevel(level PersonalityLevel) {
	personalityMu.Lock()
	defer personalityMu.Unlock()
	currentPersonality.Level = level
}

// ParsePersonalityLevel maps user input to a level. Unknown input yields
// PersonalityFull.
func ParsePersonalityLevel(s string) PersonalityLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal", "min", "m":
		return PersonalityMinimal
	case "machine", "quiet", "q":
		return PersonalityMachine
	default:
		return PersonalityFull
	}
}

// InitPersonality picks a level from MONOSUB_PERSONALITY, falling back to
// machine output when stdout is not a terminal.
func InitPersonality() {
	if env := os.Getenv("MONOSUB_PERSONALITY"); env != "" {
		SetPersonalityLevel(ParsePersonalityLevel(env))
		return
	}
	if !IsTerminal(os.Stdout) {
		SetPersonalityLevel(PersonalityMachine)
		return
	}
	SetPersonalityLevel(PersonalityFull)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsInteractive reports whether prompts and live progress may be shown.
func IsInteractive() bool {
	return GetPersonality().Level != PersonalityMachine && IsTerminal(os.Stdin) && IsTerminal(os.Stdout)
}
