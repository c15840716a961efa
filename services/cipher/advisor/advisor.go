// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package advisor inspects a candidate decryption and flags mappings that
// look implausible for English.
//
// Each rule is an independent pure function over the ciphertext, the
// decrypted text and the active key that yields at most one note. Advise
// runs every rule in order and concatenates the notes. Nothing here feeds
// back into the search.
package advisor

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/monosub/services/cipher/key"
	"github.com/AleutianAI/monosub/services/cipher/score"
)

// Input is the material a rule inspects.
type Input struct {
	Ciphertext   string
	Decrypted    string
	Key          key.Key
	SearchActive bool
}

// Note is a single diagnostic produced by a rule.
type Note struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Rule is one named heuristic.
type Rule struct {
	Name  string
	Check func(in Input) (string, bool)
}

// Rules is the ordered rule set used by Advise.
var Rules = []Rule{
	{Name: "frequency", Check: frequencyRule},
	{Name: "q_u", Check: quRule},
	{Name: "x_preceding", Check: xPrecedingRule},
	{Name: "ee_infix_r", Check: eeInfixRule},
	{Name: "bigrams", Check: bigramRule},
	{Name: "single_letter_words", Check: singleLetterRule},
	{Name: "prefix", Check: prefixRule},
	{Name: "suffix", Check: suffixRule},
	{Name: "auto_search", Check: autoSearchRule},
}

// Evaluate runs every rule in order and returns the notes produced.
func Evaluate(in Input) []Note {
	notes := make([]Note, 0, len(Rules))
	for _, r := range Rules {
		if msg, ok := r.Check(in); ok {
			notes = append(notes, Note{Rule: r.Name, Message: msg})
		}
	}
	return notes
}

// Advise returns the messages of Evaluate.
func Advise(in Input) []string {
	notes := Evaluate(in)
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Message
	}
	return out
}

// ForKey decrypts ciphertext under k and advises on the result.
func ForKey(ciphertext string, k key.Key, searchActive bool) []string {
	return Advise(Input{
		Ciphertext:   ciphertext,
		Decrypted:    k.Decrypt(ciphertext),
		Key:          k,
		SearchActive: searchActive,
	})
}

// -----------------------------------------------------------------------------
// Rules
// -----------------------------------------------------------------------------

func frequencyRule(in Input) (string, bool) {
	letters := newTally()
	total := 0
	forEachLetter(in.Decrypted, func(_ int, c byte) {
		letters.add(string(c))
		total++
	})
	if total == 0 {
		return "", false
	}

	parts := make([]string, 0, 5)
	for _, e := range letters.top(5) {
		pct := float64(e.count) * 100 / float64(total)
		parts = append(parts, fmt.Sprintf("'%s' %.2f%% ~ '%c'", e.item, pct, score.ClosestEnglishLetter(pct)))
	}
	return "Frequency: most frequent decrypted letters and their closest English match: " +
		strings.Join(parts, ", "), true
}

func quRule(in Input) (string, bool) {
	if !containsLetter(in.Decrypted, 'q') {
		return "", false
	}
	u := in.Key.Map('u')
	if u == 'u' {
		return "", false
	}
	return fmt.Sprintf("Q-U: 'q' is almost always followed by 'u' in English; 'q' maps to '%c' and 'u' maps to '%c', check these mappings",
		in.Key.Map('q'), u), true
}

func xPrecedingRule(in Input) (string, bool) {
	preceding := newTally()
	forEachLetter(in.Decrypted, func(i int, c byte) {
		if c != 'x' || i == 0 {
			return
		}
		if p, ok := foldLetter(in.Decrypted[i-1]); ok {
			preceding.add(string(p))
		}
	})
	best, ok := preceding.first()
	if !ok {
		return "", false
	}
	mapped := in.Key.Map(best[0])
	if mapped == 'i' || mapped == 'e' {
		return "", false
	}
	return fmt.Sprintf("X: 'x' is usually preceded by 'i' or 'e' in English; the most common letter before 'x' is '%s', which maps to '%c'",
		best, mapped), true
}

func eeInfixRule(in Input) (string, bool) {
	var positions []int
	forEachLetter(in.Decrypted, func(i int, c byte) {
		if c == 'e' {
			positions = append(positions, i)
		}
	})

	middle := newTally()
	for i := 0; i+1 < len(positions); i++ {
		if positions[i+1]-positions[i] != 2 {
			continue
		}
		if m, ok := foldLetter(in.Decrypted[positions[i]+1]); ok {
			middle.add(string(m))
		}
	}
	best, ok := middle.first()
	if !ok {
		return "", false
	}
	mapped := in.Key.Map(best[0])
	if mapped == 'r' {
		return "", false
	}
	return fmt.Sprintf("EE: 'r' often sits between two 'e's in English (tree, three); the most common letter in 'e?e' is '%s', which maps to '%c'",
		best, mapped), true
}

func bigramRule(in Input) (string, bool) {
	bigrams := newTally()
	for i := 0; i+1 < len(in.Decrypted); i++ {
		a, okA := foldLetter(in.Decrypted[i])
		b, okB := foldLetter(in.Decrypted[i+1])
		if okA && okB {
			bigrams.add(string([]byte{a, b}))
		}
	}
	top := bigrams.top(5)
	if len(top) == 0 {
		return "", false
	}

	parts := make([]string, 0, len(top))
	for _, e := range top {
		verdict := "uncommon"
		if isCommonBigram(e.item) {
			verdict = "common"
		}
		parts = append(parts, fmt.Sprintf("'%s' x%d (%s)", e.item, e.count, verdict))
	}
	return fmt.Sprintf("Bigrams: top decrypted bigrams against English %s: %s",
		strings.Join(score.CommonBigrams, "/"), strings.Join(parts, ", ")), true
}

func singleLetterRule(in Input) (string, bool) {
	singles := newTally()
	for _, tok := range score.Tokenize(in.Decrypted) {
		if len(tok) == 1 {
			singles.add(tok)
		}
	}
	best, ok := singles.first()
	if !ok || best == "a" || best == "i" {
		return "", false
	}
	return fmt.Sprintf("Single letters: the most common one-letter word in English is 'a' or 'i', but here it is '%s'", best), true
}

func prefixRule(in Input) (string, bool) {
	matches := newTally()
	for _, tok := range score.Tokenize(in.Decrypted) {
		for _, p := range score.CommonPrefixes {
			if strings.HasPrefix(tok, p) {
				matches.add(p)
			}
		}
	}
	best, ok := matches.first()
	if !ok {
		return "", false
	}
	return fmt.Sprintf("Prefix: the most common prefix is '%s', check the mappings of its letters", best), true
}

func suffixRule(in Input) (string, bool) {
	matches := newTally()
	for _, tok := range score.Tokenize(in.Decrypted) {
		for _, s := range score.CommonSuffixes {
			if strings.HasSuffix(tok, s) {
				matches.add(s)
			}
		}
	}
	best, ok := matches.first()
	if !ok {
		return "", false
	}
	return fmt.Sprintf("Suffix: the most common suffix is '%s', check the mappings of its letters", best), true
}

func autoSearchRule(in Input) (string, bool) {
	if in.SearchActive {
		return "", false
	}
	return "Search: no search is running; an automatic search combining simulated annealing with dictionary scoring may find a better key", true
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func isCommonBigram(b string) bool {
	for _, c := range score.CommonBigrams {
		if c == b {
			return true
		}
	}
	return false
}

func foldLetter(c byte) (byte, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return c, true
	case c >= 'A' && c <= 'Z':
		return c - 'A' + 'a', true
	}
	return 0, false
}

// forEachLetter calls fn with the byte offset and case-folded value of every
// ASCII letter in text.
func forEachLetter(text string, fn func(i int, c byte)) {
	for i := 0; i < len(text); i++ {
		if c, ok := foldLetter(text[i]); ok {
			fn(i, c)
		}
	}
}

func containsLetter(text string, want byte) bool {
	found := false
	forEachLetter(text, func(_ int, c byte) {
		if c == want {
			found = true
		}
	})
	return found
}
