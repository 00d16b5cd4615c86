// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package mixprec

import "github.com/pkg/errors"

// Errors reported by the pass. They abort the rewrite: the input graph is
// never returned partially converted.
//
// Errors are wrapped with the context of the rule or node that triggered them,
// use errors.Is to match.
var (
	// ErrInvalidRule indicates a malformed rule registration: a nil evaluator
	// or an unknown operation type.
	ErrInvalidRule = errors.New("invalid mixed precision rule")

	// ErrClassification indicates a rule evaluator failed, or that it returned
	// an invalid category or dtypes outside the base/mixed pair of the pass.
	ErrClassification = errors.New("mixed precision classification failed")

	// ErrCastInsertion indicates a dtype conversion required by the rewrite
	// could not be materialized, e.g. a cast of a non floating point value.
	ErrCastInsertion = errors.New("cast insertion failed")

	// ErrUnresolvedType indicates an operand without a resolved dtype was
	// reached during the rewrite.
	ErrUnresolvedType = errors.New("unresolved operand dtype")

	// ErrAttributeReconstruction indicates a node could not be rebuilt with
	// the accumulator/output dtypes required by its classification.
	ErrAttributeReconstruction = errors.New("attribute reconstruction failed")
)
