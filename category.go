// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package mixprec

// Category tells how an operation behaves under reduced floating point
// precision, and therefore what the pass does with its node.
type Category int

const (
	// CategoryNone is the zero value and not a valid classification.
	CategoryNone Category = iota

	// CategoryAlways marks operations that benefit from running in the mixed
	// dtype whenever their inputs allow it: compute-bound operations backed by
	// specialized reduced precision hardware, like matrix multiplication and
	// convolution.
	CategoryAlways

	// CategoryFollow marks precision-neutral operations: they run in the mixed
	// dtype if all their floating point arguments already are, and in the base
	// dtype otherwise. They never force a conversion to the mixed dtype on
	// their own.
	CategoryFollow

	// CategoryNever marks numerically sensitive operations that must keep
	// running in the base dtype: exponentials, logarithms and other
	// range-expanding functions, and wide reductions.
	CategoryNever
)

// String returns the name of the category.
func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "None"
	case CategoryAlways:
		return "Always"
	case CategoryFollow:
		return "Follow"
	case CategoryNever:
		return "Never"
	default:
		return "unknown"
	}
}
