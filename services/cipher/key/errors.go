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
	"errors"
	"fmt"
)

// ErrConstraint is the sentinel matched by every ConstraintError.
//
// Use errors.Is(err, key.ErrConstraint) to detect a constraint violation
// regardless of its kind.
var ErrConstraint = errors.New("key constraint violated")

// ConstraintKind classifies a constraint violation.
type ConstraintKind string

const (
	// KindIncomplete means the mapping does not cover all 26 letters.
	KindIncomplete ConstraintKind = "incomplete"

	// KindNotBijective means two letters map to the same target.
	KindNotBijective ConstraintKind = "not_bijective"

	// KindInvalidSymbol means an entry is not a single ASCII letter.
	KindInvalidSymbol ConstraintKind = "invalid_symbol"

	// KindDuplicateFixed means two fixed pairs share a target letter.
	KindDuplicateFixed ConstraintKind = "duplicate_fixed"
)

// ConstraintError reports a key or fixed-pair set that breaks the bijection
// rules. It is always surfaced to the caller and never repaired.
type ConstraintError struct {
	Kind   ConstraintKind
	Detail string
}

// Error implements error.
func (e *ConstraintError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("key constraint %s", e.Kind)
	}
	return fmt.Sprintf("key constraint %s: %s", e.Kind, e.Detail)
}

// Is reports whether target is ErrConstraint.
func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraint
}

func constraintf(kind ConstraintKind, format string, args ...any) error {
	return &ConstraintError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
