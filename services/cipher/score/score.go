// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package score implements the fitness functions that rank candidate keys.
//
// A Scorer decrypts the ciphertext under a candidate key and returns an
// integer fitness; higher is more English-like. Scorers are pure and
// deterministic so a seeded search is reproducible.
//
// Two scorers are provided:
//
//   - DictionaryScorer counts decrypted tokens found in a Dictionary.
//   - FrequencyScorer compares the decrypted letter frequency ranking against
//     the canonical English order.
//
// The package also carries the English reference tables and the letter and
// word statistics used by the advisor and the analyze report.
package score

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/monosub/services/cipher/key"
)

// Scorer estimates how English-like a decryption is.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Scorer interface {
	// Name returns the registry name of the scorer.
	Name() string

	// Score decrypts ciphertext under k and returns its fitness.
	Score(k key.Key, ciphertext string) int
}

const (
	// NameDictionary is the registry name of DictionaryScorer.
	NameDictionary = "dictionary"

	// NameFrequency is the registry name of FrequencyScorer.
	NameFrequency = "frequency"
)

// ErrUnknownScorer is returned by ByName for an unregistered name.
var ErrUnknownScorer = errors.New("unknown scorer")

// ByName returns the scorer registered under name.
//
// The dictionary is only used by the dictionary scorer and may be nil.
func ByName(name string, dict *Dictionary) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameDictionary:
		return DictionaryScorer{Dict: dict}, nil
	case NameFrequency:
		return FrequencyScorer{}, nil
	default:
		return nil, fmt.Errorf("%w %q (want %s or %s)", ErrUnknownScorer, name, NameDictionary, NameFrequency)
	}
}

// -----------------------------------------------------------------------------
// Dictionary scorer
// -----------------------------------------------------------------------------

// DictionaryScorer counts decrypted tokens present in Dict.
type DictionaryScorer struct {
	Dict *Dictionary
}

// Name implements Scorer.
func (DictionaryScorer) Name() string { return NameDictionary }

// Score implements Scorer.
func (s DictionaryScorer) Score(k key.Key, ciphertext string) int {
	return ScoreByDictionary(k, ciphertext, s.Dict)
}

// ScoreByDictionary decrypts ciphertext under k and counts tokens in dict.
//
// Description:
//
//	The decryption is split into maximal runs of ASCII letters, each
//	case-folded. Every run found in dict adds one, so repeated words count
//	repeatedly. An empty or nil dictionary scores 0.
//
// Inputs:
//   - k: Candidate key. Must be a valid bijection.
//   - ciphertext: Text to decrypt.
//   - dict: Word set. May be nil.
//
// Outputs:
//   - int: Number of dictionary hits.
func ScoreByDictionary(k key.Key, ciphertext string, dict *Dictionary) int {
	if dict.Len() == 0 {
		return 0
	}
	hits := 0
	for _, tok := range Tokenize(k.Decrypt(ciphertext)) {
		if dict.Contains(tok) {
			hits++
		}
	}
	return hits
}

// -----------------------------------------------------------------------------
// Frequency-order scorer
// -----------------------------------------------------------------------------

// rankWindow is the number of top-ranked letters compared against English.
const rankWindow = 10

// FrequencyScorer rewards decryptions whose letter ranking follows English.
type FrequencyScorer struct{}

// Name implements Scorer.
func (FrequencyScorer) Name() string { return NameFrequency }

// Score implements Scorer.
func (FrequencyScorer) Score(k key.Key, ciphertext string) int {
	return ScoreByFrequencyOrder(k, ciphertext)
}

// ScoreByFrequencyOrder decrypts ciphertext under k and scores its ranking.
//
// Description:
//
//	Decrypted letters are ranked by count, most frequent first, ties broken
//	by letter order. For each of the top ten letters at rank i whose
//	position in EnglishFrequencyOrder is p, max(0, 10-|i-p|) is added.
//	A text with no letters scores 0.
func ScoreByFrequencyOrder(k key.Key, ciphertext string) int {
	ranked := CountLetters(k.Decrypt(ciphertext)).Ranked()
	total := 0
	for i, lc := range ranked {
		if i >= rankWindow {
			break
		}
		p := strings.IndexByte(EnglishFrequencyOrder, lc.Letter)
		if p < 0 {
			continue
		}
		if d := rankWindow - abs(i-p); d > 0 {
			total += d
		}
	}
	return total
}

// -----------------------------------------------------------------------------
// Tokenizer
// -----------------------------------------------------------------------------

// Tokenize splits text into maximal runs of ASCII letters, lowercased.
func Tokenize(text string) []string {
	var (
		tokens []string
		b      strings.Builder
	)
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'a' && c <= 'z':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c - 'A' + 'a')
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
