// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package keyfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/monosub/services/cipher/key"
)

func randomKey(t *testing.T) key.Key {
	t.Helper()
	k, err := key.BuildRandomKey(nil, rand.New(rand.NewPCG(4, 5)))
	require.NoError(t, err)
	return k
}

func TestSaveLoad(t *testing.T) {
	k := randomKey(t)
	path := filepath.Join(t.TempDir(), "key.json")

	require.NoError(t, Save(path, k))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, k, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, key.Size)
}

func TestSave_InvalidKey(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "key.json"), key.Key{})
	assert.ErrorIs(t, err, key.ErrConstraint)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	var fe *FileError
	require.True(t, errors.As(err, &fe))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(strings.NewReader(`["a","b"]`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_Incomplete(t *testing.T) {
	raw := map[string]string{}
	for i := 0; i < 25; i++ {
		raw[string(key.Alphabet[i])] = string(key.Alphabet[i])
	}
	_, err := FromStrings(raw)
	var ce *key.ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, key.KindIncomplete, ce.Kind)
}

func TestDecode_NotBijective(t *testing.T) {
	raw := map[string]string{}
	for i := 0; i < key.Size; i++ {
		raw[string(key.Alphabet[i])] = string(key.Alphabet[i])
	}
	raw["b"] = "a"
	_, err := FromStrings(raw)
	var ce *key.ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, key.KindNotBijective, ce.Kind)
}

func TestDecode_InvalidSymbol(t *testing.T) {
	raw := map[string]string{}
	for i := 0; i < key.Size; i++ {
		raw[string(key.Alphabet[i])] = string(key.Alphabet[i])
	}
	raw["a"] = "ab"
	_, err := FromStrings(raw)
	var ce *key.ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, key.KindInvalidSymbol, ce.Kind)
}

func TestLoad_ConstraintNotWrapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":"b"}`), 0o600))
	_, err := Load(path)
	assert.ErrorIs(t, err, key.ErrConstraint)
	var fe *FileError
	assert.False(t, errors.As(err, &fe))
}

func TestEncodeDecode(t *testing.T) {
	k := randomKey(t)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, k))
	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, k, got)
}
