// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package key models substitution keys over the 26-letter alphabet.
//
// # Overview
//
// A Key is a bijection from plaintext letters to ciphertext letters. Encryption
// maps each letter through the key; decryption maps it through the inverse.
// Case is preserved: uppercase input is mapped through the lowercase table and
// the result is uppercased. Anything outside a..z/A..Z passes through unchanged.
//
// FixedPairs pin part of the mapping. BuildRandomKey and Mutate never alter a
// fixed pair, and both always return a valid bijection:
//
//	fixed, err := key.ParseFixed("e-x, t-q")
//	if err != nil {
//	    return err
//	}
//	k, err := key.BuildRandomKey(fixed, rng)
//	if err != nil {
//	    return err
//	}
//	neighbor := key.NewMutator(fixed).Mutate(k, rng)
//
// # Text Format
//
// Keys and fixed pairs are written as comma separated "plain-cipher" pairs,
// e.g. "a-q, b-w, c-e". ParsePairs and FormatPairs convert between the text
// form and maps.
//
// # Thread Safety
//
// Key is an immutable value type and is safe to share. Mutator is read-only
// after construction. The Rand passed to BuildRandomKey and Mutate is not
// shared by this package; callers own its synchronization.
package key
