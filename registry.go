// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package mixprec

import (
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/gomlx/mixprec/ir"
	"github.com/gomlx/mixprec/optypes"
)

// RuleFunc decides the classification of one node, given the mixed (target)
// dtype of the pass. Rules must be deterministic and must not modify the node.
//
// Most rules only look at the operation type and return a fixed
// classification, but the node is available for finer decisions, e.g.
// classifying small reductions differently from large ones.
type RuleFunc func(node *ir.Node, target dtypes.DType) (Classification, error)

// Classification is the decision of a rule for one node.
type Classification struct {
	// Category of the node. See CategoryAlways, CategoryFollow and
	// CategoryNever; CategoryNone is invalid.
	Category Category

	// AccumulatorDType is the dtype in which the operation should accumulate
	// partial results when it runs in the mixed dtype. The zero value
	// (dtypes.InvalidDType) selects the pass default, the base dtype.
	//
	// Only operations with an accumulator dtype attribute (DotGeneral,
	// ConvGeneral) can honor an explicit value other than the mixed dtype:
	// elsewhere it fails the pass with ErrAttributeReconstruction.
	AccumulatorDType dtypes.DType

	// OutputDType is the dtype the operation should produce when it runs in
	// the mixed dtype. The zero value (dtypes.InvalidDType) selects the pass
	// default, the mixed dtype itself.
	//
	// The same restriction as AccumulatorDType applies to operations without
	// dtype attributes.
	OutputDType dtypes.DType
}

// ruleEntry is one registered rule for an operation type.
type ruleEntry struct {
	priority int
	fn       RuleFunc
}

// Registry maps operation types to classification rules.
//
// Multiple rules can be registered for the same operation with different
// priorities: Resolve consults only the winning one. Operations without any
// rule default to CategoryFollow.
//
// A Registry is typically built by cloning DefaultRegistry and layering
// model-specific rules on top.
type Registry struct {
	// rules per operation type, in registration order.
	rules map[optypes.OpType][]ruleEntry
}

// NewRegistry returns an empty registry: every operation defaults to
// CategoryFollow. See DefaultRegistry for one loaded with the standard rules.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[optypes.OpType][]ruleEntry)}
}

// Register adds a classification rule for the given operation type.
// The rule with the highest priority wins; on equal priority the rule
// registered last wins, so cloning DefaultRegistry and re-registering an
// operation at the same priority overrides the default.
//
// Rules registered for structural operations (Parameter, Constant, Identity,
// Tuple, GetTupleElement, Call, ConvertDType) are never consulted: those nodes
// are not classified.
func (r *Registry) Register(opType optypes.OpType, priority int, fn RuleFunc) error {
	if fn == nil {
		return errors.Wrapf(ErrInvalidRule, "nil evaluator registered for %s", opType)
	}
	if opType <= optypes.Invalid || opType >= optypes.Last {
		return errors.Wrapf(ErrInvalidRule, "unknown operation type %d", int(opType))
	}
	r.rules[opType] = append(r.rules[opType], ruleEntry{priority: priority, fn: fn})
	return nil
}

// NumRules returns the total number of registered rules, counting shadowed
// ones.
func (r *Registry) NumRules() int {
	total := 0
	for _, entries := range r.rules {
		total += len(entries)
	}
	return total
}

// Clone returns a copy of the registry: rules registered on the clone don't
// affect the original.
func (r *Registry) Clone() *Registry {
	clone := &Registry{rules: make(map[optypes.OpType][]ruleEntry, len(r.rules))}
	for opType, entries := range r.rules {
		clone.rules[opType] = slices.Clone(entries)
	}
	return clone
}

// Resolve returns the classification of the node for the given mixed (target)
// dtype, evaluating the winning rule for its operation type. Nodes of
// operations without rules are classified CategoryFollow, with both dtypes set
// to target.
//
// Resolve never modifies the registry: the same node and target always resolve
// to the same classification.
func (r *Registry) Resolve(node *ir.Node, target dtypes.DType) (Classification, error) {
	opType := node.OpType()
	entries := r.rules[opType]
	if len(entries) == 0 {
		return Classification{Category: CategoryFollow, AccumulatorDType: target, OutputDType: target}, nil
	}
	best := entries[0]
	for _, entry := range entries[1:] {
		// Entries are in registration order, so >= implements both the
		// priority order and the last-registered tie-break.
		if entry.priority >= best.priority {
			best = entry
		}
	}
	classification, err := best.fn(node, target)
	if err != nil {
		return Classification{}, errors.Wrapf(ErrClassification, "rule (priority %d) for %s: %v",
			best.priority, opType, err)
	}
	switch classification.Category {
	case CategoryAlways, CategoryFollow, CategoryNever:
		// Valid.
	default:
		return Classification{}, errors.Wrapf(ErrClassification, "rule (priority %d) for %s returned invalid category %d",
			best.priority, opType, int(classification.Category))
	}
	return classification, nil
}
