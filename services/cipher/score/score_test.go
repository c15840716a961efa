// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/monosub/services/cipher/key"
)

func rot13(t *testing.T) key.Key {
	t.Helper()
	m := make(map[byte]byte, key.Size)
	for i := 0; i < key.Size; i++ {
		m[key.Alphabet[i]] = key.Alphabet[(i+13)%key.Size]
	}
	k, err := key.FromMap(m)
	require.NoError(t, err)
	return k
}

func TestScoreByDictionary_QuickBrownFox(t *testing.T) {
	dict := NewDictionary([]string{"the", "quick", "brown", "fox"})
	k := rot13(t)
	cipher := k.Encrypt("The quick brown fox")
	require.Equal(t, "Gur dhvpx oebja sbk", cipher)

	assert.Equal(t, 4, ScoreByDictionary(k, cipher, dict))
	assert.Equal(t, 0, ScoreByDictionary(key.Identity(), cipher, dict))
}

func TestScoreByDictionary_Deterministic(t *testing.T) {
	dict := NewDictionary([]string{"the", "and", "of"})
	k := rot13(t)
	cipher := k.Encrypt("the cat and the hat, of course")
	first := ScoreByDictionary(k, cipher, dict)
	assert.Equal(t, first, ScoreByDictionary(k, cipher, dict))
	assert.Equal(t, 4, first)
}

func TestScoreByDictionary_EmptyInputs(t *testing.T) {
	k := key.Identity()
	assert.Equal(t, 0, ScoreByDictionary(k, "the fox", nil))
	assert.Equal(t, 0, ScoreByDictionary(k, "the fox", NewDictionary(nil)))
	assert.Equal(t, 0, ScoreByDictionary(k, "123 !? 456", NewDictionary([]string{"the"})))
}

func TestScoreByFrequencyOrder(t *testing.T) {
	k := key.Identity()
	assert.Equal(t, 50, ScoreByFrequencyOrder(k, "eeeeee tttt aaa oo i"))
	assert.Equal(t, 0, ScoreByFrequencyOrder(k, ""))

	// z at rank 0 sits 25 places from its English position.
	assert.Equal(t, 0, ScoreByFrequencyOrder(k, "zzz"))
	// e at rank 1 is one place off.
	assert.Equal(t, 9, ScoreByFrequencyOrder(k, "zzze"))
}

func TestScorer_Substitutable(t *testing.T) {
	dict := NewDictionary([]string{"the"})

	s, err := ByName("dictionary", dict)
	require.NoError(t, err)
	assert.Equal(t, NameDictionary, s.Name())
	assert.Equal(t, 1, s.Score(key.Identity(), "the"))

	s, err = ByName("FREQUENCY", nil)
	require.NoError(t, err)
	assert.Equal(t, NameFrequency, s.Name())

	_, err = ByName("bigram", nil)
	assert.ErrorIs(t, err, ErrUnknownScorer)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"it", "s", "a", "dog", "s", "life"}, Tokenize("It's a DOG's life!"))
	assert.Equal(t, []string{"caf", "x"}, Tokenize("café x"))
	assert.Nil(t, Tokenize(" 42 "))
}

func TestLetterStats(t *testing.T) {
	s := CountLetters("Banana!")
	assert.Equal(t, 6, s.Total)
	assert.InDelta(t, 50.0, s.Percent('a'), 1e-9)

	ranked := s.Ranked()
	require.Len(t, ranked, 3)
	assert.Equal(t, byte('a'), ranked[0].Letter)
	assert.Equal(t, byte('n'), ranked[1].Letter)
	assert.Equal(t, byte('b'), ranked[2].Letter)

	least := s.LeastFrequent(1)
	require.Len(t, least, 1)
	assert.Equal(t, byte('b'), least[0].Letter)
	assert.Len(t, s.MostFrequent(10), 3)
}

func TestMatch(t *testing.T) {
	dict := NewDictionary([]string{"the", "fox"})
	rep := Match("The fox saw the other fox and the dog", dict)
	assert.Equal(t, 9, rep.Total)
	assert.Equal(t, 5, rep.Matched)
	assert.Equal(t, []WordCount{{Word: "the", Count: 3}, {Word: "fox", Count: 2}}, rep.Matches)
	assert.InDelta(t, 5.0/9.0, rep.Ratio(), 1e-9)
	assert.Zero(t, MatchReport{}.Ratio())
}

func TestClosestEnglishLetter(t *testing.T) {
	assert.Equal(t, byte('e'), ClosestEnglishLetter(13))
	assert.Equal(t, byte('t'), ClosestEnglishLetter(9))
	assert.Equal(t, byte('z'), ClosestEnglishLetter(0.08))
}

func TestClosestEnglishLetter_Ties(t *testing.T) {
	// j and x share 0.15%.
	assert.Equal(t, byte('j'), ClosestEnglishLetter(0.15))
	assert.Len(t, closestLetterOrder, 26)
	for c := byte('a'); c <= 'z'; c++ {
		assert.Contains(t, closestLetterOrder, string(c))
	}
}

func TestDictionary(t *testing.T) {
	d := NewDictionary([]string{" The ", "the", "", "Fox"})
	assert.Equal(t, 2, d.Len())
	assert.True(t, d.Contains("the"))
	assert.True(t, d.Contains("fox"))
	assert.False(t, d.Contains(""))

	var nilDict *Dictionary
	assert.False(t, nilDict.Contains("the"))
	assert.Zero(t, nilDict.Len())
}
