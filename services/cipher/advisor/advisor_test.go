// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/monosub/services/cipher/key"
)

func identityInput(decrypted string) Input {
	return Input{Ciphertext: decrypted, Decrypted: decrypted, Key: key.Identity(), SearchActive: true}
}

func swapKey(t *testing.T, a, b byte) key.Key {
	t.Helper()
	pairs := key.Identity().Pairs()
	pairs[a], pairs[b] = b, a
	k, err := key.FromMap(pairs)
	require.NoError(t, err)
	return k
}

func TestFrequencyRule(t *testing.T) {
	msg, ok := frequencyRule(identityInput("eeeee tttt aa"))
	require.True(t, ok)
	assert.Contains(t, msg, "'e' 45.45%")
	assert.Contains(t, msg, "'t' 36.36%")
	assert.Contains(t, msg, "'a' 18.18%")

	_, ok = frequencyRule(identityInput("1234 !!"))
	assert.False(t, ok)
}

func TestQURule(t *testing.T) {
	_, ok := quRule(identityInput("the queen"))
	assert.False(t, ok)

	in := identityInput("the queen")
	in.Key = swapKey(t, 'u', 'v')
	msg, ok := quRule(in)
	require.True(t, ok)
	assert.Contains(t, msg, "'u' maps to 'v'")

	in = identityInput("no such letter")
	in.Key = swapKey(t, 'u', 'v')
	_, ok = quRule(in)
	assert.False(t, ok)
}

func TestXPrecedingRule(t *testing.T) {
	_, ok := xPrecedingRule(identityInput("six box tax"))
	assert.False(t, ok, "ties resolve to the first preceding letter, i")

	msg, ok := xPrecedingRule(identityInput("ox ox ix"))
	require.True(t, ok)
	assert.Contains(t, msg, "'o', which maps to 'o'")

	_, ok = xPrecedingRule(identityInput("x marks"))
	assert.False(t, ok)
}

func TestEEInfixRule(t *testing.T) {
	_, ok := eeInfixRule(identityInput("there here"))
	assert.False(t, ok)

	msg, ok := eeInfixRule(identityInput("these"))
	require.True(t, ok)
	assert.Contains(t, msg, "'s', which maps to 's'")

	_, ok = eeInfixRule(identityInput("e e"))
	assert.False(t, ok)
}

func TestBigramRule(t *testing.T) {
	msg, ok := bigramRule(identityInput("the the zq"))
	require.True(t, ok)
	assert.Contains(t, msg, "'th' x2 (common)")
	assert.Contains(t, msg, "'he' x2 (common)")
	assert.Contains(t, msg, "'zq' x1 (uncommon)")

	_, ok = bigramRule(identityInput("a b c"))
	assert.False(t, ok)
}

func TestSingleLetterRule(t *testing.T) {
	_, ok := singleLetterRule(identityInput("i am a man a"))
	assert.False(t, ok)

	msg, ok := singleLetterRule(identityInput("a b b"))
	require.True(t, ok)
	assert.Contains(t, msg, "'b'")
}

func TestAffixRules(t *testing.T) {
	in := identityInput("unhappy undo redo reading walked talked")
	msg, ok := prefixRule(in)
	require.True(t, ok)
	assert.Contains(t, msg, "'un'")

	msg, ok = suffixRule(in)
	require.True(t, ok)
	assert.Contains(t, msg, "'ed'")

	_, ok = prefixRule(identityInput("cat"))
	assert.False(t, ok)
}

func TestAutoSearchRule(t *testing.T) {
	_, ok := autoSearchRule(Input{SearchActive: true})
	assert.False(t, ok)
	_, ok = autoSearchRule(Input{})
	assert.True(t, ok)
}

func TestEvaluate_OrderAndPurity(t *testing.T) {
	k := swapKey(t, 'u', 'v')
	plain := "the queen saw six boxes there"
	cipher := k.Encrypt(plain)

	in := Input{Ciphertext: cipher, Decrypted: k.Decrypt(cipher), Key: k}
	notes := Evaluate(in)

	var rules []string
	for _, n := range notes {
		rules = append(rules, n.Rule)
	}
	assert.Equal(t, []string{"frequency", "q_u", "bigrams", "suffix", "auto_search"}, rules)
	assert.Equal(t, notes, Evaluate(in))

	msgs := ForKey(cipher, k, false)
	require.Len(t, msgs, len(notes))
	for i := range notes {
		assert.Equal(t, notes[i].Message, msgs[i])
	}
}
