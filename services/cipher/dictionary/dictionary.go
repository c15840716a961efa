// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dictionary loads word lists for the dictionary scorer.
//
// Load distinguishes a missing source from a malformed one so callers can
// report each precisely. Default returns the embedded English word list, and
// Watcher reloads a dictionary file when it changes on disk.
package dictionary

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/AleutianAI/monosub/services/cipher/score"
)

//go:embed words.txt
var defaultWordsData []byte

var (
	// ErrSourceNotFound indicates the dictionary source does not exist.
	ErrSourceNotFound = errors.New("dictionary source not found")

	// ErrMalformed indicates the dictionary source is not a text word list.
	ErrMalformed = errors.New("dictionary source malformed")
)

// ResourceError reports a dictionary source that could not be used.
type ResourceError struct {
	Source string
	Err    error
}

// Error implements error.
func (e *ResourceError) Error() string {
	return fmt.Sprintf("dictionary %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Stats describes what a load accepted and rejected.
type Stats struct {
	Words   int
	Skipped int
}

// Load reads a newline separated word list from path.
//
// # Description
//
// Lines are trimmed and lowercased. Blank lines and lines starting with "#"
// are ignored. Lines that are not made only of ASCII letters are skipped and
// counted in Stats.Skipped rather than failing the load.
//
// # Inputs
//
//   - path: File to read.
//
// # Outputs
//
//   - *score.Dictionary: The word set.
//   - Stats: Accepted and skipped line counts.
//   - error: *ResourceError wrapping ErrSourceNotFound when path is absent,
//     ErrMalformed when the content is binary or not UTF-8, or the read error.
func Load(path string) (*score.Dictionary, Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Stats{}, &ResourceError{Source: path, Err: fmt.Errorf("%w: %w", ErrSourceNotFound, err)}
		}
		return nil, Stats{}, &ResourceError{Source: path, Err: err}
	}
	d, stats, err := Parse(data)
	if err != nil {
		return nil, Stats{}, &ResourceError{Source: path, Err: err}
	}
	return d, stats, nil
}

// Parse builds a dictionary from word list content.
func Parse(data []byte) (*score.Dictionary, Stats, error) {
	if !utf8.Valid(data) {
		return nil, Stats{}, fmt.Errorf("%w: invalid UTF-8", ErrMalformed)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, Stats{}, fmt.Errorf("%w: contains NUL bytes", ErrMalformed)
	}

	var (
		words []string
		stats Stats
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !isWord(line) {
			stats.Skipped++
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	d := score.NewDictionary(words)
	stats.Words = d.Len()
	return d, stats, nil
}

// Default returns the embedded common English word list.
func Default() *score.Dictionary {
	d, _, err := Parse(defaultWordsData)
	if err != nil {
		panic(fmt.Sprintf("dictionary: embedded word list: %v", err))
	}
	return d
}

// LoadOrDefault loads path, or returns Default when path is empty.
func LoadOrDefault(path string) (*score.Dictionary, error) {
	if path == "" {
		return Default(), nil
	}
	d, _, err := Load(path)
	return d, err
}

func isWord(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}
