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

import "strings"

// Dictionary is an immutable set of lowercase words.
//
// A nil *Dictionary behaves as an empty set.
type Dictionary struct {
	words map[string]struct{}
}

// NewDictionary builds a dictionary from words, lowercasing and trimming
// each entry. Blank entries are ignored and duplicates collapse.
func NewDictionary(words []string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		d.words[w] = struct{}{}
	}
	return d
}

// Contains reports whether word is in the set. word must already be lowercase.
func (d *Dictionary) Contains(word string) bool {
	if d == nil {
		return false
	}
	_, ok := d.words[word]
	return ok
}

// Len returns the number of distinct words.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.words)
}
