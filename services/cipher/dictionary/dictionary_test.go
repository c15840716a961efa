// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dictionary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/monosub/services/cipher/score"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Words(t *testing.T) {
	path := writeFile(t, t.TempDir(), "words.txt", "# comment\nThe\n  quick \n\nbrown\nfox\nfox\ndon't\n42\n")

	d, stats, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, d.Len())
	for _, w := range []string{"brown", "fox", "quick", "the"} {
		assert.True(t, d.Contains(w), w)
	}
	assert.False(t, d.Contains("don't"))
	assert.Equal(t, 4, stats.Words)
	assert.Equal(t, 2, stats.Skipped)
}

func TestLoad_NotFound(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)

	var re *ResourceError
	require.True(t, errors.As(err, &re))
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.NotErrorIs(t, err, ErrMalformed)
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()

	binary := writeFile(t, dir, "bin.dat", "the\x00fox")
	_, _, err := Load(binary)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.NotErrorIs(t, err, ErrSourceNotFound)

	invalid := writeFile(t, dir, "latin1.txt", "caf\xe9\n")
	_, _, err = Load(invalid)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDefault(t *testing.T) {
	d := Default()
	assert.Greater(t, d.Len(), 300)
	for _, w := range []string{"the", "quick", "brown", "fox", "three"} {
		assert.True(t, d.Contains(w), w)
	}
}

func TestLoadOrDefault(t *testing.T) {
	d, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default().Len(), d.Len())

	_, err = LoadOrDefault(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestWatcher_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "words.txt", "alpha\n")

	var latest atomic.Pointer[score.Dictionary]
	w, err := NewWatcher(path, func(d *score.Dictionary) { latest.Store(d) }, nil)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta\n"), 0o644))

	require.Eventually(t, func() bool {
		d := latest.Load()
		return d != nil && d.Contains("beta")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
