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

import "sort"

type entry struct {
	item  string
	count int
}

// tally counts items and breaks count ties by first occurrence.
type tally struct {
	index   map[string]int
	entries []entry
}

func newTally() *tally {
	return &tally{index: make(map[string]int)}
}

func (t *tally) add(item string) {
	if i, ok := t.index[item]; ok {
		t.entries[i].count++
		return
	}
	t.index[item] = len(t.entries)
	t.entries = append(t.entries, entry{item: item, count: 1})
}

// top returns up to n entries, most frequent first.
func (t *tally) top(n int) []entry {
	out := make([]entry, len(t.entries))
	copy(out, t.entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// first returns the most frequent item.
func (t *tally) first() (string, bool) {
	top := t.top(1)
	if len(top) == 0 {
		return "", false
	}
	return top[0].item, true
}
