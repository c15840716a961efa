// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package keyfile reads and writes keys as flat JSON objects:
//
//	{"a": "q", "b": "w", ...}
//
// A loaded key must have exactly 26 entries and 26 distinct values. Keys
// failing either check are rejected with a *key.ConstraintError; they are
// never repaired.
package keyfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/AleutianAI/monosub/services/cipher/key"
)

var (
	// ErrNotFound indicates the key file does not exist.
	ErrNotFound = errors.New("key file not found")

	// ErrMalformed indicates the content is not a flat JSON object of strings.
	ErrMalformed = errors.New("key file malformed")
)

// FileError reports a key file that could not be read or written.
type FileError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *FileError) Error() string {
	return fmt.Sprintf("key file %s: %v", e.Path, e.Err)
}

// Unwrap returns the cause.
func (e *FileError) Unwrap() error {
	return e.Err
}

// Decode reads one key from r.
//
// Outputs:
//   - key.Key: The validated key.
//   - error: ErrMalformed for bad JSON, *key.ConstraintError of kind
//     incomplete, invalid_symbol or not_bijective for a bad mapping.
func Decode(r io.Reader) (key.Key, error) {
	var raw map[string]string
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return key.Key{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return FromStrings(raw)
}

// FromStrings validates a decoded string mapping and builds a key.
func FromStrings(raw map[string]string) (key.Key, error) {
	if len(raw) != key.Size {
		return key.Key{}, &key.ConstraintError{
			Kind:   key.KindIncomplete,
			Detail: fmt.Sprintf("expected %d entries, found %d", key.Size, len(raw)),
		}
	}

	pairs := make(map[byte]byte, len(raw))
	values := make(map[string]struct{}, len(raw))
	for from, to := range raw {
		if len(from) != 1 || len(to) != 1 {
			return key.Key{}, &key.ConstraintError{
				Kind:   key.KindInvalidSymbol,
				Detail: fmt.Sprintf("%q-%q is not a single letter pair", from, to),
			}
		}
		values[to] = struct{}{}
		pairs[from[0]] = to[0]
	}
	if len(values) != key.Size {
		return key.Key{}, &key.ConstraintError{
			Kind:   key.KindNotBijective,
			Detail: fmt.Sprintf("expected %d distinct values, found %d", key.Size, len(values)),
		}
	}
	return key.FromMap(pairs)
}

// Encode writes k to w as indented JSON.
func Encode(w io.Writer, k key.Key) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(k)
}

// Load reads and validates the key stored at path.
func Load(path string) (key.Key, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return key.Key{}, &FileError{Path: path, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
		}
		return key.Key{}, &FileError{Path: path, Err: err}
	}
	defer f.Close()

	k, err := Decode(f)
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			return key.Key{}, &FileError{Path: path, Err: err}
		}
		return key.Key{}, err
	}
	return k, nil
}

// Save writes k to path, replacing any existing file atomically.
func Save(path string, k key.Key) error {
	if !k.Valid() {
		return &key.ConstraintError{Kind: key.KindIncomplete, Detail: "refusing to save an invalid key"}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".key-*.json")
	if err != nil {
		return &FileError{Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, k); err != nil {
		tmp.Close()
		return &FileError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &FileError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &FileError{Path: path, Err: err}
	}
	return nil
}
