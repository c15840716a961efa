// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TestOpenInMemory verifies JSON round trips on an in-memory store.
func TestOpenInMemory(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.PutJSON([]byte("k"), item{Name: "a", Count: 1}))

	var got item
	require.NoError(t, db.GetJSON([]byte("k"), &got))
	assert.Equal(t, item{Name: "a", Count: 1}, got)

	assert.ErrorIs(t, db.GetJSON([]byte("missing"), &got), ErrNotFound)

	require.NoError(t, db.Delete([]byte("k")))
	assert.ErrorIs(t, db.GetJSON([]byte("k"), &got), ErrNotFound)
}

// TestOpen_Persistent verifies data survives a reopen.
func TestOpen_Persistent(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.GCInterval = time.Hour

	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.PutJSON([]byte("persistent"), item{Name: "p"}))
	require.NoError(t, db.Close())
	require.NoError(t, db.Close(), "close is idempotent")

	db2, err := Open(cfg)
	require.NoError(t, err)
	defer db2.Close()

	var got item
	require.NoError(t, db2.GetJSON([]byte("persistent"), &got))
	assert.Equal(t, "p", got.Name)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

// TestScan verifies prefix iteration order and limits.
func TestScan(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, db.PutJSON([]byte(fmt.Sprintf("rec/%02d", i)), item{Count: i}))
	}
	require.NoError(t, db.PutJSON([]byte("other/99"), item{Count: 99}))

	collect := func(reverse bool, limit int) []string {
		var keys []string
		require.NoError(t, db.Scan([]byte("rec/"), reverse, limit, func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		}))
		return keys
	}

	assert.Equal(t, []string{"rec/00", "rec/01", "rec/02", "rec/03", "rec/04"}, collect(false, 0))
	assert.Equal(t, []string{"rec/04", "rec/03"}, collect(true, 2))
}
