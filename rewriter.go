// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package mixprec

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/mixprec/internal/sets"
	"github.com/gomlx/mixprec/ir"
	"github.com/gomlx/mixprec/optypes"
	"github.com/gomlx/mixprec/shapes"
)

// passThroughOps are never classified: they are rebuilt as is and their output
// dtype follows from their rewritten inputs. ConvertDType nodes already
// present in the graph are precision plumbing put there by whoever built it,
// not compute, so the pass preserves them (the rebuild collapses the ones that
// become no-ops).
var passThroughOps = sets.MakeWith(
	optypes.Parameter,
	optypes.Constant,
	optypes.Identity,
	optypes.Tuple,
	optypes.GetTupleElement,
	optypes.Call,
	optypes.ConvertDType,
)

// rewriter holds the state of one Rewrite call. It is single use: a fresh one
// is created per pass.
type rewriter struct {
	config Config
	src    *ir.Graph
	dst    *ir.Graph

	// replacements maps nodes of src to their rewritten version in dst.
	replacements map[*ir.Node]*ir.Node

	// casts dedupes the ConvertDType nodes inserted in dst.
	casts *castCache

	stats Stats
}

func newRewriter(src *ir.Graph, config Config) *rewriter {
	return &rewriter{
		config:       config,
		src:          src,
		dst:          ir.New(src.Name()),
		replacements: make(map[*ir.Node]*ir.Node, src.NumNodes()),
		casts:        newCastCache(),
	}
}

// run rewrites the whole graph. It panics with an error on failure, converted
// back by RewriteWithStats.
func (rw *rewriter) run() *ir.Graph {
	srcOutputs := rw.src.Outputs()
	if len(srcOutputs) == 0 {
		panic(errors.Errorf("graph %q has no outputs set, there is nothing to rewrite", rw.src.Name()))
	}

	// Nodes that don't contribute to the outputs are dropped, except
	// parameters: they are always rebuilt so the graph keeps its input
	// signature.
	reachable := rw.markReachable(srcOutputs)
	for _, node := range rw.src.Nodes() {
		if node.OpType() != optypes.Parameter && !reachable.Has(node.Id()) {
			continue
		}
		rw.rewriteNode(node)
		rw.stats.NodesVisited++
	}

	// The outputs keep their original dtypes, whatever happened inside.
	newOutputs := make([]*ir.Node, len(srcOutputs))
	for ii, output := range srcOutputs {
		replacement := rw.replacements[output]
		newOutputs[ii] = rw.restoreToShape(replacement, output.Shape())
		if newOutputs[ii] != replacement {
			rw.stats.OutputsRestored++
		}
	}
	rw.dst.SetOutputs(newOutputs...)

	rw.stats.CastsInserted = rw.casts.numCasts()
	klog.V(1).Infof("mixprec: graph %q rewritten for %s: %d nodes visited (%d always, %d follow, %d never, %d pass-through), %d moved to %s, %d casts inserted, %d outputs restored",
		rw.src.Name(), rw.config.MixedDType, rw.stats.NodesVisited, rw.stats.Always, rw.stats.Follow,
		rw.stats.Never, rw.stats.PassThrough, rw.stats.NodesMixed, rw.config.MixedDType,
		rw.stats.CastsInserted, rw.stats.OutputsRestored)
	return rw.dst
}

// markReachable returns the ids of the nodes that contribute to the outputs.
func (rw *rewriter) markReachable(outputs []*ir.Node) sets.Set[ir.NodeId] {
	reachable := sets.Make[ir.NodeId](rw.src.NumNodes())
	var mark func(node *ir.Node)
	mark = func(node *ir.Node) {
		if reachable.Has(node.Id()) {
			return
		}
		reachable.Insert(node.Id())
		for _, input := range node.Inputs() {
			mark(input)
		}
	}
	for _, output := range outputs {
		mark(output)
	}
	return reachable
}

// rewriteNode rewrites one node into dst and records the replacement.
// Nodes are visited in dependency order, so the inputs are always rewritten
// before their consumers.
func (rw *rewriter) rewriteNode(node *ir.Node) {
	var rewritten *ir.Node
	if passThroughOps.Has(node.OpType()) {
		rewritten = rw.dst.RebuildNode(node, rw.rewrittenInputs(node), node.Data())
		rw.stats.PassThrough++
	} else {
		rewritten = rw.rewriteClassified(node)
	}
	rw.replacements[node] = rewritten
}

// rewrittenInputs returns the dst replacements of the node inputs.
func (rw *rewriter) rewrittenInputs(node *ir.Node) []*ir.Node {
	inputs := node.Inputs()
	if len(inputs) == 0 {
		return nil
	}
	newInputs := make([]*ir.Node, len(inputs))
	for ii, input := range inputs {
		newInput, found := rw.replacements[input]
		if !found {
			panic(errors.Errorf("graph %q: node #%d (%s) consumes #%d (%s) before it was rewritten, nodes are not in dependency order",
				rw.src.Name(), node.Id(), node.OpType(), input.Id(), input.OpType()))
		}
		newInputs[ii] = newInput
	}
	return newInputs
}

// isConvertible returns whether the dtype takes part in the rewrite: the pass
// only ever converts between the base and the mixed dtypes. Values of any
// other floating point dtype pass through untouched.
func (rw *rewriter) isConvertible(dtype dtypes.DType) bool {
	return dtype == rw.config.BaseDType || dtype == rw.config.MixedDType
}

// rewriteClassified rewrites a compute node: it resolves the node
// classification, casts the floating point arguments to the required dtype and
// rebuilds the node, overriding its dtype attributes when it lands in the
// mixed dtype.
func (rw *rewriter) rewriteClassified(node *ir.Node) *ir.Node {
	classification, err := rw.config.Registry.Resolve(node, rw.config.MixedDType)
	if err != nil {
		panic(errors.Wrapf(err, "classifying node #%d (%s)", node.Id(), node.OpType()))
	}
	rw.checkClassificationDTypes(node, classification)

	newInputs := rw.rewrittenInputs(node)
	convertibleFloat, atMixed := 0, 0
	for idx, input := range newInputs {
		if !input.Shape().IsTuple() && input.DType() == dtypes.InvalidDType {
			panic(errors.Wrapf(ErrUnresolvedType, "node #%d (%s): input #%d has no resolved dtype",
				node.Id(), node.OpType(), idx))
		}
		if !input.DType().IsFloat() || !rw.isConvertible(input.DType()) {
			continue
		}
		convertibleFloat++
		if input.DType() == rw.config.MixedDType {
			atMixed++
		}
	}

	var required dtypes.DType
	switch classification.Category {
	case CategoryAlways:
		rw.stats.Always++
		required = rw.config.MixedDType
	case CategoryNever:
		rw.stats.Never++
		required = rw.config.BaseDType
	default: // CategoryFollow: mixed only if every floating point argument already is.
		rw.stats.Follow++
		if convertibleFloat > 0 && atMixed == convertibleFloat {
			required = rw.config.MixedDType
		} else {
			required = rw.config.BaseDType
		}
	}
	// A node with no floating point arguments has nothing to convert and never
	// counts as mixed, whatever its category.
	isMixed := required == rw.config.MixedDType && convertibleFloat > 0
	if isMixed && classification.Category == CategoryFollow {
		rw.stats.FollowMixed++
	}

	for ii, input := range newInputs {
		if !input.DType().IsFloat() || !rw.isConvertible(input.DType()) || input.DType() == required {
			continue
		}
		newInputs[ii] = rw.castTo(node, ii, input, required)
	}

	data := node.Data()
	if isMixed {
		data = rw.mixedData(node, classification)
		rw.stats.NodesMixed++
	}
	klog.V(2).Infof("mixprec: node #%d %s classified %s, arguments at %s, mixed=%v",
		node.Id(), node.OpType(), classification.Category, required, isMixed)
	return rw.dst.RebuildNode(node, newInputs, data)
}

// checkClassificationDTypes validates that the dtypes explicitly chosen by a
// rule stay within the base/mixed pair of this pass.
func (rw *rewriter) checkClassificationDTypes(node *ir.Node, classification Classification) {
	for _, dtype := range [2]dtypes.DType{classification.AccumulatorDType, classification.OutputDType} {
		if dtype != dtypes.InvalidDType && !rw.isConvertible(dtype) {
			panic(errors.Wrapf(ErrClassification, "node #%d (%s): rule selected dtype %s, outside the %s/%s pair of this pass",
				node.Id(), node.OpType(), dtype, rw.config.BaseDType, rw.config.MixedDType))
		}
	}
}

// castTo converts a floating point argument to the required dtype, reusing an
// already materialized conversion when one exists.
func (rw *rewriter) castTo(node *ir.Node, argIdx int, arg *ir.Node, dtype dtypes.DType) *ir.Node {
	if !arg.DType().IsFloat() {
		panic(errors.Wrapf(ErrCastInsertion, "node #%d (%s): argument #%d is %s, only floating point values are converted",
			node.Id(), node.OpType(), argIdx, arg.DType()))
	}
	if !rw.isConvertible(dtype) {
		panic(errors.Wrapf(ErrCastInsertion, "node #%d (%s): argument #%d requires dtype %s, outside the %s/%s pair of this pass",
			node.Id(), node.OpType(), argIdx, dtype, rw.config.BaseDType, rw.config.MixedDType))
	}
	return rw.casts.getOrInsert(arg, dtype)
}

// mixedData returns the attributes for a node that lands in the mixed dtype,
// with the accumulator and output dtypes required by its classification. For
// operations without dtype attributes the natural behavior (compute and output
// in the mixed dtype) must match what the classification asks, otherwise the
// pass fails.
func (rw *rewriter) mixedData(node *ir.Node, classification Classification) ir.NodeData {
	accumDType := classification.AccumulatorDType
	if accumDType == dtypes.InvalidDType {
		accumDType = rw.config.BaseDType
	}
	outDType := classification.OutputDType
	if outDType == dtypes.InvalidDType {
		outDType = rw.config.MixedDType
	}

	switch data := node.Data().(type) {
	case *ir.DotGeneralData:
		newData := *data
		newData.Config = ir.DTypeConfig{AccumulatorDType: accumDType, OutputDType: outDType}
		return &newData
	case *ir.ConvGeneralData:
		newData := *data
		newData.Config = ir.DTypeConfig{AccumulatorDType: accumDType, OutputDType: outDType}
		return &newData
	}

	// No dtype attributes to override: only explicit requirements that differ
	// from the natural mixed behavior are a problem.
	if classification.AccumulatorDType != dtypes.InvalidDType && classification.AccumulatorDType != rw.config.MixedDType {
		panic(errors.Wrapf(ErrAttributeReconstruction, "node #%d (%s) carries no accumulator dtype attribute, cannot accumulate in %s",
			node.Id(), node.OpType(), classification.AccumulatorDType))
	}
	if classification.OutputDType != dtypes.InvalidDType && classification.OutputDType != rw.config.MixedDType {
		panic(errors.Wrapf(ErrAttributeReconstruction, "node #%d (%s) carries no output dtype attribute, cannot output %s",
			node.Id(), node.OpType(), classification.OutputDType))
	}
	return node.Data()
}

// restoreToShape casts a rewritten graph output back to its original dtype, so
// the signature seen by the callers of the graph does not change. Tuple
// outputs are restored element by element.
func (rw *rewriter) restoreToShape(node *ir.Node, want shapes.Shape) *ir.Node {
	if node.Shape().Equal(want) {
		return node
	}
	if want.IsTuple() {
		elements := make([]*ir.Node, want.TupleSize())
		for ii := range elements {
			elements[ii] = rw.restoreToShape(ir.GetTupleElement(node, ii), want.TupleShapes[ii])
		}
		return ir.Tuple(elements...)
	}
	if !want.DType.IsFloat() || !node.DType().IsFloat() {
		panic(errors.Errorf("graph %q: output changed from %s to %s during the rewrite, this is a bug in the pass",
			rw.src.Name(), want, node.Shape()))
	}
	return rw.casts.getOrInsert(node, want.DType)
}
