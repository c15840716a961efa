// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/monosub/pkg/ux"
	"github.com/AleutianAI/monosub/services/cipher/key"
	"github.com/AleutianAI/monosub/services/cipher/keyfile"
)

const rot13Pairs = "a-n, b-o, c-p, d-q, e-r, f-s, g-t, h-u, i-v, j-w, k-x, l-y, m-z, " +
	"n-a, o-b, p-c, q-d, r-e, s-f, t-g, u-h, v-i, w-j, x-k, y-l, z-m"

type harness struct {
	dir    string
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`history:
  enabled: true
  path: %s
logging:
  level: error
  dir: ""
search:
  anneal:
    max_iterations: 2000
`, filepath.Join(dir, "history"))
	path := filepath.Join(dir, "monosub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0600))

	orig := ux.GetPersonality()
	t.Cleanup(func() { ux.SetPersonality(orig) })
	return &harness{dir: dir, config: path}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	restore := ux.SetOutput(&out, &errOut)
	defer restore()

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", h.config, "--personality", "machine"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestEncryptDecrypt(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "encrypt", "--pairs", rot13Pairs, "Attack", "At", "Dawn!")
	require.NoError(t, err)
	assert.Equal(t, "Nggnpx Ng Qnja!\n", out)

	out, err = h.run(t, "Nggnpx Ng Qnja!\n", "decrypt", "--pairs", rot13Pairs)
	require.NoError(t, err)
	assert.Equal(t, "Attack At Dawn!\n", out)
}

func TestKeyFlags_Errors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "encrypt", "abc")
	assert.ErrorIs(t, err, errNoKey)

	_, err = h.run(t, "", "encrypt", "--pairs", rot13Pairs, "--key", "k.json", "abc")
	assert.ErrorIs(t, err, errTwoKeys)

	_, err = h.run(t, "", "encrypt", "--pairs", "a-b", "abc")
	assert.ErrorIs(t, err, key.ErrConstraint)

	_, err = h.run(t, "", "decrypt", "--key", filepath.Join(h.dir, "missing.json"), "abc")
	assert.ErrorIs(t, err, keyfile.ErrNotFound)

	_, err = h.run(t, "", "decrypt", "--pairs", rot13Pairs)
	assert.ErrorIs(t, err, errNoInput)
}

func TestKeygenAndInvert(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "keygen", "--fixed", "e-x, t-q", "--seed", "11")
	require.NoError(t, err)
	k, err := keyfile.Decode(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, byte('x'), k.Map('e'))
	assert.Equal(t, byte('q'), k.Map('t'))

	again, err := h.run(t, "", "keygen", "--fixed", "e-x, t-q", "--seed", "11")
	require.NoError(t, err)
	assert.Equal(t, out, again)

	keyPath := filepath.Join(h.dir, "key.json")
	_, err = h.run(t, "", "keygen", "--seed", "5", "--out", keyPath)
	require.NoError(t, err)
	saved, err := keyfile.Load(keyPath)
	require.NoError(t, err)

	out, err = h.run(t, "", "invert", "--key", keyPath)
	require.NoError(t, err)
	inv, err := keyfile.Decode(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, saved.Inverse(), inv)

	_, err = h.run(t, "", "keygen", "--fixed", "e-x, t-x")
	assert.ErrorIs(t, err, key.ErrConstraint)
}

func TestAdviseAndAnalyze(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "advise", "--pairs", rot13Pairs, "gur", "dhrra")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "the queen\n"), out)

	textPath := filepath.Join(h.dir, "text.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("the man and the day\n"), 0600))
	out, err = h.run(t, "", "analyze", "--in", textPath)
	require.NoError(t, err)
	assert.Contains(t, out, "a\t3\t")
	assert.Contains(t, out, "the\t2\n")
	assert.Contains(t, out, "matched\t5\t5\n")
	assert.Contains(t, out, "most\ta\t3\t")
	assert.Contains(t, out, "least\t")

	out, err = h.run(t, "", "analyze", "--in", textPath, "--letters", "0")
	require.NoError(t, err)
	assert.NotContains(t, out, "most\t")
	assert.Contains(t, out, "a\t3\t")

	out, err = h.run(t, "", "analyze", "--pairs", rot13Pairs, "gur", "zna")
	require.NoError(t, err)
	assert.Contains(t, out, "matched\t2\t2\n")
}

func TestCrackAndHistory(t *testing.T) {
	h := newHarness(t)
	plaintext := "the quick brown fox jumps over the lazy dog and the man said that it was a good day"
	k, err := key.ParseKey(rot13Pairs)
	require.NoError(t, err)
	ciphertext := k.Encrypt(plaintext)

	keyPath := filepath.Join(h.dir, "best.json")
	out, err := h.run(t, ciphertext, "crack", "--iterations", "1000", "--seed", "3", "--fixed", "t-g", "--out", keyPath)
	require.NoError(t, err)
	assert.Contains(t, out, "reason\t")
	assert.Contains(t, out, "iterations\t")
	assert.Contains(t, out, "seed\t3\n")

	best, err := keyfile.Load(keyPath)
	require.NoError(t, err)
	assert.Equal(t, byte('g'), best.Map('t'))

	out, err = h.run(t, "", "history", "--limit", "5")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	fields := strings.Split(lines[0], "\t")
	require.Len(t, fields, 7)
	assert.Equal(t, "dictionary", fields[5])
}

func TestCrack_BadBudget(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "crack", "--iterations", "10", "abc")
	assert.ErrorIs(t, err, errBadRange)
}

func TestParseIterations(t *testing.T) {
	n, err := parseIterations(" 250,000 ")
	require.NoError(t, err)
	assert.Equal(t, 250000, n)

	for _, bad := range []string{"999", "1000001", "lots", ""} {
		_, err := parseIterations(bad)
		assert.Error(t, err, bad)
	}
}

func TestInvalidConfig(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.config, []byte("logging:\n  level: loud\n"), 0600))
	_, err := h.run(t, "", "encrypt", "--pairs", rot13Pairs, "abc")
	assert.Error(t, err)
}
