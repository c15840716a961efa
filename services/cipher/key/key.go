// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package key

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Size is the number of letters in the alphabet.
const Size = 26

// Alphabet is the ordered plaintext alphabet.
const Alphabet = "abcdefghijklmnopqrstuvwxyz"

// -----------------------------------------------------------------------------
// Key
// -----------------------------------------------------------------------------

// Key is a bijective substitution table from plaintext to ciphertext letters.
//
// The zero value is not a valid key; construct keys with Identity, FromMap,
// ParseKey, BuildRandomKey or Mutator.Mutate.
type Key struct {
	to [Size]byte
}

// Identity returns the key that maps every letter to itself.
func Identity() Key {
	var k Key
	for i := 0; i < Size; i++ {
		k.to[i] = Alphabet[i]
	}
	return k
}

// FromMap builds a key from a complete plain->cipher mapping.
//
// Description:
//
//	Letters are case-folded. The mapping must contain exactly 26 entries
//	covering a..z and its 26 values must be pairwise distinct.
//
// Inputs:
//   - m: Plain letter to cipher letter.
//
// Outputs:
//   - Key: The key. Zero value on error.
//   - error: *ConstraintError of kind invalid_symbol, incomplete or not_bijective.
func FromMap(m map[byte]byte) (Key, error) {
	var k Key
	seen := make(map[byte]byte, Size)
	for from, to := range m {
		f, t := lower(from), lower(to)
		if !isLetter(f) || !isLetter(t) {
			return Key{}, constraintf(KindInvalidSymbol, "%q-%q is not a letter pair", from, to)
		}
		if k.to[f-'a'] != 0 {
			return Key{}, constraintf(KindIncomplete, "letter %q mapped twice", f)
		}
		if other, dup := seen[t]; dup {
			return Key{}, constraintf(KindNotBijective, "%q and %q both map to %q", other, f, t)
		}
		seen[t] = f
		k.to[f-'a'] = t
	}
	if len(seen) != Size {
		return Key{}, constraintf(KindIncomplete, "missing mappings for %s", missingLetters(k))
	}
	return k, nil
}

// ParseKey parses a complete key in "a-q, b-w, ..." form.
func ParseKey(s string) (Key, error) {
	pairs, err := ParsePairs(s)
	if err != nil {
		return Key{}, err
	}
	return FromMap(pairs)
}

// Valid reports whether k is a complete bijection.
func (k Key) Valid() bool {
	var used [Size]bool
	for _, t := range k.to {
		if !isLetter(t) || used[t-'a'] {
			return false
		}
		used[t-'a'] = true
	}
	return true
}

// Map returns the cipher letter for plain letter p (lowercase a..z).
func (k Key) Map(p byte) byte {
	return k.to[lower(p)-'a']
}

// Inverse returns the key mapping cipher letters back to plain letters.
func (k Key) Inverse() Key {
	var inv Key
	for i, t := range k.to {
		if !isLetter(t) {
			panic(fmt.Sprintf("key: invalid target %q at %q", t, Alphabet[i]))
		}
		if inv.to[t-'a'] != 0 {
			panic(fmt.Sprintf("key: %q and %q both map to %q", inv.to[t-'a'], Alphabet[i], t))
		}
		inv.to[t-'a'] = Alphabet[i]
	}
	return inv
}

// Encrypt substitutes every letter of plaintext through k.
func (k Key) Encrypt(plaintext string) string {
	return k.apply(plaintext)
}

// Decrypt substitutes every letter of ciphertext through the inverse of k.
func (k Key) Decrypt(ciphertext string) string {
	return k.Inverse().apply(ciphertext)
}

// apply maps ASCII letters through the table. Multi-byte UTF-8 sequences never
// contain ASCII bytes, so byte-wise substitution leaves them intact.
func (k Key) apply(text string) string {
	out := []byte(text)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z':
			out[i] = k.to[c-'a']
		case c >= 'A' && c <= 'Z':
			out[i] = k.to[c-'A'] - 'a' + 'A'
		}
	}
	return string(out)
}

// Pairs returns the key as a plain->cipher map.
func (k Key) Pairs() map[byte]byte {
	m := make(map[byte]byte, Size)
	for i, t := range k.to {
		m[Alphabet[i]] = t
	}
	return m
}

// String formats the key as "a-q, b-w, ...".
func (k Key) String() string {
	return FormatPairs(k.Pairs())
}

// MarshalJSON encodes the key as a flat {"a":"q",...} object. The zero Key
// encodes as null.
func (k Key) MarshalJSON() ([]byte, error) {
	if k == (Key{}) {
		return []byte("null"), nil
	}
	m := make(map[string]string, Size)
	for i, t := range k.to {
		m[string(Alphabet[i])] = string(t)
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a flat {"a":"q",...} object and validates it.
func (k *Key) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode key: %w", err)
	}
	m := make(map[byte]byte, len(raw))
	for from, to := range raw {
		if len(from) != 1 || len(to) != 1 {
			return constraintf(KindInvalidSymbol, "%q-%q is not a letter pair", from, to)
		}
		m[from[0]] = to[0]
	}
	parsed, err := FromMap(m)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// -----------------------------------------------------------------------------
// Fixed Pairs
// -----------------------------------------------------------------------------

// FixedPairs pins plain->cipher entries that a search must never alter.
type FixedPairs map[byte]byte

// ParseFixed parses fixed pairs in "e-x, t-q" form and validates them.
func ParseFixed(s string) (FixedPairs, error) {
	pairs, err := ParsePairs(s)
	if err != nil {
		return nil, err
	}
	fixed := FixedPairs(pairs)
	if err := fixed.Validate(); err != nil {
		return nil, err
	}
	return fixed, nil
}

// Validate checks that every pair is a letter pair and targets are distinct.
func (f FixedPairs) Validate() error {
	seen := make(map[byte]byte, len(f))
	for from, to := range f {
		if !isLetter(from) || !isLetter(to) {
			return constraintf(KindInvalidSymbol, "%q-%q is not a lowercase letter pair", from, to)
		}
		if other, dup := seen[to]; dup {
			a, b := sortedBytes(other, from)
			return constraintf(KindDuplicateFixed, "%q and %q both fixed to %q", a, b, to)
		}
		seen[to] = from
	}
	return nil
}

// Holds reports whether k honors every fixed pair.
func (f FixedPairs) Holds(k Key) bool {
	for from, to := range f {
		if k.Map(from) != to {
			return false
		}
	}
	return true
}

// String formats the fixed pairs as "e-x, t-q".
func (f FixedPairs) String() string {
	return FormatPairs(f)
}

// -----------------------------------------------------------------------------
// Pair Text Format
// -----------------------------------------------------------------------------

// ParsePairs parses comma separated "x-y" letter pairs.
//
// Description:
//
//	Whitespace around pairs is ignored and letters are case-folded. Empty
//	input yields an empty map. A source letter listed twice is rejected.
//
// Outputs:
//   - map[byte]byte: Plain letter to cipher letter.
//   - error: *ConstraintError of kind invalid_symbol on malformed pairs.
func ParsePairs(s string) (map[byte]byte, error) {
	pairs := make(map[byte]byte)
	for _, raw := range strings.Split(s, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		from, to, ok := strings.Cut(raw, "-")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !ok || len(from) != 1 || len(to) != 1 {
			return nil, constraintf(KindInvalidSymbol, "malformed pair %q", raw)
		}
		f, t := lower(from[0]), lower(to[0])
		if !isLetter(f) || !isLetter(t) {
			return nil, constraintf(KindInvalidSymbol, "malformed pair %q", raw)
		}
		if _, dup := pairs[f]; dup {
			return nil, constraintf(KindInvalidSymbol, "letter %q listed twice", f)
		}
		pairs[f] = t
	}
	return pairs, nil
}

// FormatPairs formats a mapping as "a-q, b-w", sorted by source letter.
func FormatPairs(m map[byte]byte) string {
	from := make([]byte, 0, len(m))
	for f := range m {
		from = append(from, f)
	}
	sort.Slice(from, func(i, j int) bool { return from[i] < from[j] })

	var b strings.Builder
	for i, f := range from {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte(f)
		b.WriteByte('-')
		b.WriteByte(m[f])
	}
	return b.String()
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z'
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}

func sortedBytes(a, b byte) (byte, byte) {
	if a > b {
		return b, a
	}
	return a, b
}

func missingLetters(k Key) string {
	var missing []string
	for i, t := range k.to {
		if t == 0 {
			missing = append(missing, string(Alphabet[i]))
		}
	}
	return strings.Join(missing, ", ")
}
