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

// Rand is the subset of *math/rand/v2.Rand used for key generation.
//
// Searches pass a seeded source so a run can be replayed.
type Rand interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// BuildRandomKey returns a uniformly random key honoring fixed.
//
// Description:
//
//	Fixed sources keep their fixed targets. The remaining sources receive a
//	random permutation of the targets no fixed pair claims.
//
// Inputs:
//   - fixed: Validated fixed pairs. May be nil.
//   - rng: Randomness source.
//
// Outputs:
//   - Key: A complete bijection satisfying fixed.
//   - error: *ConstraintError if fixed is invalid.
func BuildRandomKey(fixed FixedPairs, rng Rand) (Key, error) {
	if err := fixed.Validate(); err != nil {
		return Key{}, err
	}

	var used [Size]bool
	for _, to := range fixed {
		used[to-'a'] = true
	}
	free := make([]byte, 0, Size)
	for i := 0; i < Size; i++ {
		if !used[i] {
			free = append(free, Alphabet[i])
		}
	}
	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	var k Key
	next := 0
	for i := 0; i < Size; i++ {
		if to, ok := fixed[Alphabet[i]]; ok {
			k.to[i] = to
			continue
		}
		k.to[i] = free[next]
		next++
	}
	return k, nil
}

// Mutator produces neighbor keys by swapping two non-fixed targets.
//
// Thread Safety: Safe for concurrent use; Mutate never modifies the receiver.
type Mutator struct {
	free []int
}

// NewMutator precomputes the sources that fixed leaves free to move.
func NewMutator(fixed FixedPairs) *Mutator {
	m := &Mutator{free: make([]int, 0, Size)}
	for i := 0; i < Size; i++ {
		if _, ok := fixed[Alphabet[i]]; !ok {
			m.free = append(m.free, i)
		}
	}
	return m
}

// Free returns the number of sources the mutator may move.
func (m *Mutator) Free() int {
	return len(m.free)
}

// Mutate returns a copy of k with the targets of two distinct free sources
// exchanged. With fewer than two free sources k is returned unchanged.
func (m *Mutator) Mutate(k Key, rng Rand) Key {
	n := len(m.free)
	if n < 2 {
		return k
	}
	i := rng.IntN(n)
	j := rng.IntN(n - 1)
	if j >= i {
		j++
	}
	a, b := m.free[i], m.free[j]
	k.to[a], k.to[b] = k.to[b], k.to[a]
	return k
}

// Mutate is a convenience wrapper around NewMutator(fixed).Mutate.
func Mutate(k Key, fixed FixedPairs, rng Rand) Key {
	return NewMutator(fixed).Mutate(k, rng)
}
