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

// EnglishFrequencyOrder is the canonical English letter order, most frequent first.
const EnglishFrequencyOrder = "etaoinsrhdlucmfywgpbvkxqjz"

// EnglishLetterFrequency is the relative frequency of each letter in English
// text, in percent, indexed by letter ordinal.
var EnglishLetterFrequency = [26]float64{
	8.17,  // a
	1.29,  // b
	2.78,  // c
	4.25,  // d
	12.70, // e
	2.23,  // f
	2.02,  // g
	6.09,  // h
	6.97,  // i
	0.15,  // j
	0.77,  // k
	4.03,  // l
	2.41,  // m
	6.75,  // n
	7.51,  // o
	1.93,  // p
	0.10,  // q
	5.99,  // r
	6.33,  // s
	9.06,  // t
	2.76,  // u
	0.98,  // v
	2.36,  // w
	0.15,  // x
	1.97,  // y
	0.07,  // z
}

// CommonBigrams are the most frequent English letter pairs.
var CommonBigrams = []string{"th", "he", "in", "er", "an"}

// CommonPrefixes are English prefixes checked by the affix hint, in order.
var CommonPrefixes = []string{"un", "re", "in", "im", "dis", "pre", "post", "anti", "pro"}

// CommonSuffixes are English suffixes checked by the affix hint, in order.
var CommonSuffixes = []string{"ing", "ed", "es", "s", "er", "est", "ly", "tion", "ation", "ment"}

// closestLetterOrder is the order in which ClosestEnglishLetter breaks ties:
// the reference table sorted by share, equal shares in table order (j before x).
const closestLetterOrder = "etaoinshrdlcumwfgypbvkjxqz"

// ClosestEnglishLetter returns the letter whose English frequency is nearest
// to percent. Ties resolve to the letter listed first in closestLetterOrder.
func ClosestEnglishLetter(percent float64) byte {
	best := closestLetterOrder[0]
	bestDiff := -1.0
	for i := 0; i < len(closestLetterOrder); i++ {
		c := closestLetterOrder[i]
		diff := EnglishLetterFrequency[c-'a'] - percent
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = c, diff
		}
	}
	return best
}
