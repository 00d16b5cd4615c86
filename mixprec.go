// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package mixprec rewrites typed computation graphs for automatic mixed
// precision: compute-bound operations are moved to a reduced floating point
// dtype, numerically sensitive ones keep the full precision (base) dtype, and
// everything else follows its inputs.
//
// The pass takes an ir.Graph and builds a rewritten copy, never modifying the
// original:
//
//	rewritten, err := mixprec.Rewrite(g, mixprec.Config{MixedDType: dtypes.Float16})
//
// Operations are classified by rules held in a Registry (see DefaultRegistry
// for the standard table) into three categories:
//
//   - CategoryAlways: cast the floating point arguments to the mixed dtype and
//     run the operation there, accumulating in the base dtype when the
//     operation supports it (DotGeneral, ConvGeneral).
//   - CategoryNever: cast the floating point arguments back to the base dtype.
//   - CategoryFollow: run in the mixed dtype only if every floating point
//     argument already is; otherwise fall back to the base dtype. Follow
//     operations never force conversions to the mixed dtype on their own.
//
// Conversions are deduplicated: consumers needing the same value at the same
// dtype share a single ConvertDType node. The graph signature is preserved:
// parameters keep their declared dtypes, and outputs are cast back to their
// original dtypes when the rewrite moved them.
//
// The pass only converts between Config.BaseDType and Config.MixedDType;
// values of any other floating point dtype, and all non floating point values,
// pass through untouched.
package mixprec

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/gomlx/mixprec/ir"
)

// Config of one Rewrite call.
type Config struct {
	// MixedDType is the reduced precision dtype the pass moves eligible
	// operations to, typically dtypes.Float16 or dtypes.BFloat16.
	// It must be set to a floating point dtype.
	MixedDType dtypes.DType

	// BaseDType is the full precision dtype the graph is assumed to compute
	// in, and that numerically sensitive operations keep.
	// It defaults to dtypes.Float32.
	BaseDType dtypes.DType

	// Registry with the classification rules, only read during the pass.
	// It defaults to DefaultRegistry().
	Registry *Registry
}

// check validates the configuration, after the defaults are applied.
func (c Config) check() error {
	if !c.MixedDType.IsFloat() {
		return errors.Errorf("Config.MixedDType must be a floating point dtype, got %s", c.MixedDType)
	}
	if !c.BaseDType.IsFloat() {
		return errors.Errorf("Config.BaseDType must be a floating point dtype, got %s", c.BaseDType)
	}
	if c.MixedDType == c.BaseDType {
		return errors.Errorf("Config.MixedDType and Config.BaseDType are both %s, there is nothing to rewrite", c.MixedDType)
	}
	return nil
}

// Stats reports what one Rewrite call did.
type Stats struct {
	// NodesVisited is the number of input graph nodes processed, parameters
	// included. Nodes that don't contribute to the outputs are not visited.
	NodesVisited int

	// PassThrough counts the structural nodes rebuilt as is: parameters,
	// constants, tuples, calls and pre-existing casts.
	PassThrough int

	// Always, Follow and Never count the classified operations per category.
	Always int
	Follow int
	Never  int

	// FollowMixed is how many of the Follow operations ran in the mixed dtype
	// because all their floating point arguments already were.
	FollowMixed int

	// NodesMixed is the number of operations moved to the mixed dtype.
	NodesMixed int

	// CastsInserted is the number of ConvertDType nodes added by the pass,
	// after deduplication.
	CastsInserted int

	// OutputsRestored is the number of graph outputs cast back to their
	// original dtype at the end of the pass.
	OutputsRestored int
}

// Rewrite returns a mixed precision version of the graph, built according to
// the config. The input graph is never modified.
//
// The rewritten graph has the same external signature: parameters keep their
// order, names and dtypes, and each output keeps its dtype, dimensions and
// position. On error the pass aborts, there is no partially rewritten output.
func Rewrite(g *ir.Graph, config Config) (*ir.Graph, error) {
	rewritten, _, err := RewriteWithStats(g, config)
	return rewritten, err
}

// RewriteWithStats is like Rewrite, also returning counters of what the pass did.
func RewriteWithStats(g *ir.Graph, config Config) (rewritten *ir.Graph, stats Stats, err error) {
	if g == nil {
		return nil, Stats{}, errors.Errorf("cannot rewrite a nil graph")
	}
	if config.BaseDType == dtypes.InvalidDType {
		config.BaseDType = dtypes.Float32
	}
	if config.Registry == nil {
		config.Registry = DefaultRegistry()
	}
	if err = config.check(); err != nil {
		return nil, Stats{}, err
	}
	rw := newRewriter(g, config)
	err = exceptions.TryCatch[error](func() { rewritten = rw.run() })
	if err != nil {
		return nil, Stats{}, err
	}
	return rewritten, rw.stats, nil
}
