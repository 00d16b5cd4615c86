// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package mixprec

import (
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/gomlx/mixprec/ir"
	"github.com/gomlx/mixprec/optypes"
)

// defaultAlwaysOps are moved to the mixed dtype whenever their inputs allow
// it: these are the compute-bound operations reduced precision hardware
// accelerates. They accumulate in the base dtype and output the mixed dtype.
var defaultAlwaysOps = []optypes.OpType{
	optypes.DotGeneral,
	optypes.ConvGeneral,
}

// defaultNeverOps are kept in the base dtype: range-expanding functions that
// overflow or lose most of their resolution in half precision dtypes, and
// reductions that accumulate many terms.
var defaultNeverOps = []optypes.OpType{
	optypes.Exp,
	optypes.Expm1,
	optypes.Log,
	optypes.Log1p,
	optypes.Logistic,
	optypes.Erf,
	optypes.Pow,
	optypes.Rsqrt,
	optypes.ReduceSum,
	optypes.ReduceProduct,
}

func alwaysRule(node *ir.Node, target dtypes.DType) (Classification, error) {
	// AccumulatorDType and OutputDType are left to the pass defaults: the base
	// dtype and the mixed dtype respectively.
	return Classification{Category: CategoryAlways}, nil
}

func neverRule(node *ir.Node, target dtypes.DType) (Classification, error) {
	return Classification{Category: CategoryNever}, nil
}

// DefaultRegistry returns a registry loaded with the standard classification
// table, registered at priority 0:
//
//   - DotGeneral and ConvGeneral run in the mixed dtype, accumulating in the
//     base dtype.
//   - Exp, Expm1, Log, Log1p, Logistic, Erf, Pow, Rsqrt, ReduceSum and
//     ReduceProduct stay in the base dtype.
//   - Everything else follows its inputs.
//
// Clone the result to layer model-specific rules on top.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, opType := range defaultAlwaysOps {
		if err := r.Register(opType, 0, alwaysRule); err != nil {
			panic(err)
		}
	}
	for _, opType := range defaultNeverOps {
		if err := r.Register(opType, 0, neverRule); err != nil {
			panic(err)
		}
	}
	return r
}
