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

import "sort"

// LetterCount pairs a letter with its occurrence count.
type LetterCount struct {
	Letter  byte    `json:"letter"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// LetterStats holds case-folded letter counts for a text.
type LetterStats struct {
	Counts [26]int
	Total  int
}

// CountLetters counts ASCII letters in text, case-folded.
func CountLetters(text string) LetterStats {
	var s LetterStats
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'a' && c <= 'z':
			s.Counts[c-'a']++
		case c >= 'A' && c <= 'Z':
			s.Counts[c-'A']++
		default:
			continue
		}
		s.Total++
	}
	return s
}

// Percent returns the share of letter c in percent. 0 for an empty text.
func (s LetterStats) Percent(c byte) float64 {
	if s.Total == 0 || c < 'a' || c > 'z' {
		return 0
	}
	return float64(s.Counts[c-'a']) * 100 / float64(s.Total)
}

// Ranked returns the letters that occur, most frequent first, ties broken by
// letter order.
func (s LetterStats) Ranked() []LetterCount {
	out := make([]LetterCount, 0, 26)
	for i, n := range s.Counts {
		if n == 0 {
			continue
		}
		c := byte('a' + i)
		out = append(out, LetterCount{Letter: c, Count: n, Percent: s.Percent(c)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// MostFrequent returns up to n letters from the top of Ranked.
func (s LetterStats) MostFrequent(n int) []LetterCount {
	r := s.Ranked()
	if n < len(r) {
		r = r[:n]
	}
	return r
}

// LeastFrequent returns up to n occurring letters, least frequent first.
func (s LetterStats) LeastFrequent(n int) []LetterCount {
	r := s.Ranked()
	sort.SliceStable(r, func(i, j int) bool { return r[i].Count < r[j].Count })
	if n < len(r) {
		r = r[:n]
	}
	return r
}

// -----------------------------------------------------------------------------
// Dictionary match report
// -----------------------------------------------------------------------------

// WordCount pairs a word with its occurrence count.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// MatchReport summarizes which tokens of a text appear in a dictionary.
type MatchReport struct {
	Matches []WordCount `json:"matches"`
	Matched int         `json:"matched"`
	Total   int         `json:"total"`
}

// Ratio returns Matched/Total, or 0 when the text has no tokens.
func (r MatchReport) Ratio() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.Total)
}

// Match tokenizes plaintext and reports dictionary hits, most frequent first
// with ties in alphabetical order.
func Match(plaintext string, dict *Dictionary) MatchReport {
	tokens := Tokenize(plaintext)
	rep := MatchReport{Total: len(tokens)}
	counts := make(map[string]int)
	for _, tok := range tokens {
		if dict.Contains(tok) {
			counts[tok]++
			rep.Matched++
		}
	}
	rep.Matches = make([]WordCount, 0, len(counts))
	for w, n := range counts {
		rep.Matches = append(rep.Matches, WordCount{Word: w, Count: n})
	}
	sort.Slice(rep.Matches, func(i, j int) bool {
		a, b := rep.Matches[i], rep.Matches[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Word < b.Word
	})
	return rep
}
