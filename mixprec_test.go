package mixprec

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/mixprec/ir"
	"github.com/gomlx/mixprec/optypes"
	"github.com/gomlx/mixprec/shapes"
)

var (
	// Aliases to make test tables shorter.
	BF16 = dtypes.BFloat16
	F16  = dtypes.Float16
	F32  = dtypes.Float32
	F64  = dtypes.Float64
	I32  = dtypes.Int32

	MS = shapes.Make
)

// nodesOfType returns the nodes of the graph with the given operation type.
func nodesOfType(g *ir.Graph, opType optypes.OpType) []*ir.Node {
	var nodes []*ir.Node
	for _, node := range g.Nodes() {
		if node.OpType() == opType {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// theOne returns the only node of the given operation type in the graph.
func theOne(t *testing.T, g *ir.Graph, opType optypes.OpType) *ir.Node {
	nodes := nodesOfType(g, opType)
	require.Lenf(t, nodes, 1, "expected exactly one %s node in graph %q", opType, g.Name())
	return nodes[0]
}

// TestRewriteEndToEnd covers the canonical scenario: a matmul (runs mixed,
// accumulating wide) feeding an exponential (stays in full precision).
func TestRewriteEndToEnd(t *testing.T) {
	g := ir.New("scenario")
	a := ir.Parameter(g, "a", MS(F32, 4, 4))
	b := ir.DotGeneral(a, []int{1}, nil, a, []int{0}, nil)
	g.SetOutputs(ir.Exp(b))

	rewritten, stats, err := RewriteWithStats(g, Config{MixedDType: F16})
	require.NoError(t, err)
	require.Equal(t, Stats{NodesVisited: 3, PassThrough: 1, Always: 1, Never: 1, NodesMixed: 1, CastsInserted: 2}, stats)
	require.Equal(t, 5, rewritten.NumNodes()) // parameter, cast, matmul, cast, exp

	// The matmul runs in F16, accumulating in F32, and both of its arguments
	// share a single cast of the parameter.
	dot := theOne(t, rewritten, optypes.DotGeneral)
	require.Equal(t, F16, dot.DType())
	require.Equal(t, ir.DTypeConfig{AccumulatorDType: F32, OutputDType: F16},
		dot.Data().(*ir.DotGeneralData).Config)
	require.Equal(t, dot.Inputs()[0], dot.Inputs()[1])
	castIn := dot.Inputs()[0]
	require.Equal(t, optypes.ConvertDType, castIn.OpType())
	require.Equal(t, F16, castIn.DType())
	require.Equal(t, rewritten.Parameters()[0], castIn.Inputs()[0])

	// The exponential runs in F32, fed by a cast of the matmul output.
	exp := theOne(t, rewritten, optypes.Exp)
	require.Equal(t, F32, exp.DType())
	castBack := exp.Inputs()[0]
	require.Equal(t, optypes.ConvertDType, castBack.OpType())
	require.Equal(t, F32, castBack.DType())
	require.Equal(t, dot, castBack.Inputs()[0])

	// External signature is preserved.
	require.Equal(t, []*ir.Node{exp}, rewritten.Outputs())
	require.Equal(t, 1, rewritten.NumParameters())
	require.Equal(t, "a", rewritten.Parameters()[0].GetParameterName())
	require.Equal(t, F32, rewritten.Parameters()[0].DType())
	require.Equal(t, g.Name(), rewritten.Name())

	// The input graph was not modified.
	require.Equal(t, 3, g.NumNodes())
	require.Equal(t, F32, b.DType())
	require.True(t, b.Data().(*ir.DotGeneralData).Config.IsDefault())
}

// TestCastSharing checks that every consumer requiring the same value at the
// same dtype shares one cast node.
func TestCastSharing(t *testing.T) {
	g := ir.New("sharing")
	x := ir.Parameter(g, "x", MS(F32, 2, 2))
	m := ir.DotGeneral(x, []int{1}, nil, x, []int{0}, nil)
	g.SetOutputs(ir.Exp(m), ir.Log(m))

	rewritten, stats, err := RewriteWithStats(g, Config{MixedDType: F16})
	require.NoError(t, err)

	// One cast of x to F16 (shared by both matmul arguments) and one cast of
	// the matmul back to F32 (shared by Exp and Log).
	require.Equal(t, 2, stats.CastsInserted)
	exp := theOne(t, rewritten, optypes.Exp)
	log := theOne(t, rewritten, optypes.Log)
	require.Equal(t, exp.Inputs()[0], log.Inputs()[0])
	require.Equal(t, optypes.ConvertDType, exp.Inputs()[0].OpType())
}

// TestFollowAllMixed: a Follow operation whose floating point arguments all
// landed in the mixed dtype runs mixed, with no casts of its own.
func TestFollowAllMixed(t *testing.T) {
	g := ir.New("follow_mixed")
	x := ir.Parameter(g, "x", MS(F32, 2, 2))
	m := ir.DotGeneral(x, []int{1}, nil, x, []int{0}, nil)
	g.SetOutputs(ir.Add(m, m))

	rewritten, stats, err := RewriteWithStats(g, Config{MixedDType: F16})
	require.NoError(t, err)

	add := theOne(t, rewritten, optypes.Add)
	require.Equal(t, F16, add.DType())
	// Both inputs are the matmul itself: no cast in between.
	dot := theOne(t, rewritten, optypes.DotGeneral)
	require.Equal(t, []*ir.Node{dot, dot}, add.Inputs())
	require.Equal(t, 2, stats.NodesMixed)
	require.Equal(t, 1, stats.FollowMixed)

	// The graph output goes back to F32.
	require.Equal(t, 1, stats.OutputsRestored)
	output := rewritten.Outputs()[0]
	require.Equal(t, optypes.ConvertDType, output.OpType())
	require.Equal(t, F32, output.DType())
	require.Equal(t, add, output.Inputs()[0])
}

// TestFollowPartialMixed: one mixed and one base argument is never left
// partially mixed, the operation falls back to the base dtype.
func TestFollowPartialMixed(t *testing.T) {
	g := ir.New("follow_partial")
	x := ir.Parameter(g, "x", MS(F32, 2, 2))
	m := ir.DotGeneral(x, []int{1}, nil, x, []int{0}, nil)
	g.SetOutputs(ir.Add(m, x))

	rewritten, stats, err := RewriteWithStats(g, Config{MixedDType: F16})
	require.NoError(t, err)

	add := theOne(t, rewritten, optypes.Add)
	require.Equal(t, F32, add.DType())
	// The mixed argument was cast back to base, the base argument reused as is.
	castBack := add.Inputs()[0]
	require.Equal(t, optypes.ConvertDType, castBack.OpType())
	require.Equal(t, F32, castBack.DType())
	require.Equal(t, theOne(t, rewritten, optypes.DotGeneral), castBack.Inputs()[0])
	require.Equal(t, rewritten.Parameters()[0], add.Inputs()[1])
	require.Equal(t, 1, stats.NodesMixed)
	require.Equal(t, 0, stats.OutputsRestored)
}

// TestNeverAtBaseIsNoOp: numerically sensitive operations whose arguments are
// already in the base dtype need no conversion at all.
func TestNeverAtBaseIsNoOp(t *testing.T) {
	g := ir.New("never_noop")
	x := ir.Parameter(g, "x", MS(F32, 8))
	g.SetOutputs(ir.Exp(x))

	rewritten, stats, err := RewriteWithStats(g, Config{MixedDType: F16})
	require.NoError(t, err)
	require.Equal(t, Stats{NodesVisited: 2, PassThrough: 1, Never: 1}, stats)
	require.Equal(t, 2, rewritten.NumNodes())
	require.Equal(t, F32, rewritten.Outputs()[0].DType())
}

// TestIntegerMatmulUntouched: an Always operation with no floating point
// arguments is rebuilt unchanged, dtype attributes included.
func TestIntegerMatmulUntouched(t *testing.T) {
	g := ir.New("integer")
	x := ir.Parameter(g, "x", MS(I32, 3, 3))
	g.SetOutputs(ir.DotGeneral(x, []int{1}, nil, x, []int{0}, nil))

	rewritten, stats, err := RewriteWithStats(g, Config{MixedDType: F16})
	require.NoError(t, err)
	require.Equal(t, 0, stats.NodesMixed)
	require.Equal(t, 0, stats.CastsInserted)
	dot := theOne(t, rewritten, optypes.DotGeneral)
	require.Equal(t, I32, dot.DType())
	require.True(t, dot.Data().(*ir.DotGeneralData).Config.IsDefault())
}

// TestNonFloatArgsNeverCast: boolean and integer arguments of classified
// operations pass through uncast, whatever happens to the float ones.
func TestNonFloatArgsNeverCast(t *testing.T) {
	g := ir.New("bool_cond")
	x := ir.Parameter(g, "x", MS(F32, 2, 2))
	m := ir.DotGeneral(x, []int{1}, nil, x, []int{0}, nil)
	cond := ir.GreaterThan(x, ir.Scalar(g, F32, 0))
	g.SetOutputs(ir.Where(cond, m, x))

	rewritten, _, err := RewriteWithStats(g, Config{MixedDType: F16})
	require.NoError(t, err)

	where := theOne(t, rewritten, optypes.Where)
	// Where follows: one F16 and one F32 float argument, so it runs at base.
	require.Equal(t, F32, where.DType())
	// The condition is the comparison node itself, not a cast.
	require.Equal(t, theOne(t, rewritten, optypes.GreaterThan), where.Inputs()[0])
}

// TestUnreachableNodesDropped: nodes that don't contribute to the outputs are
// not carried over, but unused parameters survive so the input signature is
// unchanged.
func TestUnreachableNodesDropped(t *testing.T) {
	g := ir.New("dead_code")
	x := ir.Parameter(g, "x", MS(F32, 4))
	unused := ir.Parameter(g, "unused", MS(F32, 2))
	ir.Mul(x, x) // Dead.
	g.SetOutputs(ir.Tanh(x))

	rewritten, stats, err := RewriteWithStats(g, Config{MixedDType: F16})
	require.NoError(t, err)
	require.Equal(t, 3, stats.NodesVisited)
	require.Equal(t, 3, rewritten.NumNodes()) // Two parameters and the Tanh.
	require.Empty(t, nodesOfType(rewritten, optypes.Mul))
	require.Equal(t, 2, rewritten.NumParameters())
	require.Equal(t, unused.GetParameterName(), rewritten.Parameters()[1].GetParameterName())
	require.Equal(t, unused.GetParameterHandle(), rewritten.Parameters()[1].GetParameterHandle())
}

// TestAlreadyMixedGraph: graphs that already cast their values to the mixed
// dtype get no extra casts, only the accumulator override.
func TestAlreadyMixedGraph(t *testing.T) {
	g := ir.New("pre_mixed")
	x := ir.Parameter(g, "x", MS(F32, 2, 3))
	w := ir.Parameter(g, "w", MS(F32, 3, 2))
	dot := ir.DotGeneral(ir.ConvertDType(x, F16), []int{1}, nil, ir.ConvertDType(w, F16), []int{0}, nil)
	g.SetOutputs(dot)

	rewritten, stats, err := RewriteWithStats(g, Config{MixedDType: F16})
	require.NoError(t, err)
	require.Equal(t, 0, stats.CastsInserted)
	require.Equal(t, 1, stats.NodesMixed)
	require.Equal(t, 0, stats.OutputsRestored) // The output was already F16.
	require.Equal(t, g.NumNodes(), rewritten.NumNodes())
	newDot := theOne(t, rewritten, optypes.DotGeneral)
	require.Equal(t, F16, newDot.DType())
	require.Equal(t, ir.DTypeConfig{AccumulatorDType: F32, OutputDType: F16},
		newDot.Data().(*ir.DotGeneralData).Config)
}

// TestOtherFloatDTypesUntouched: the pass only converts between the base and
// mixed dtypes, a Float64 computation passes through unchanged.
func TestOtherFloatDTypesUntouched(t *testing.T) {
	g := ir.New("float64")
	x := ir.Parameter(g, "x", MS(F64, 4, 4))
	m := ir.DotGeneral(x, []int{1}, nil, x, []int{0}, nil)
	g.SetOutputs(ir.Tanh(m))

	rewritten, stats, err := RewriteWithStats(g, Config{MixedDType: F16})
	require.NoError(t, err)
	require.Equal(t, Stats{NodesVisited: 3, PassThrough: 1, Always: 1, Follow: 1}, stats)
	require.Equal(t, F64, rewritten.Outputs()[0].DType())
	require.True(t, theOne(t, rewritten, optypes.DotGeneral).Data().(*ir.DotGeneralData).Config.IsDefault())
}

// TestIdempotence: rewriting an already rewritten graph changes nothing.
func TestIdempotence(t *testing.T) {
	g := ir.New("idempotent")
	a := ir.Parameter(g, "a", MS(F32, 4, 4))
	b := ir.DotGeneral(a, []int{1}, nil, a, []int{0}, nil)
	g.SetOutputs(ir.Exp(b))

	config := Config{MixedDType: F16}
	first, err := Rewrite(g, config)
	require.NoError(t, err)
	second, stats, err := RewriteWithStats(first, config)
	require.NoError(t, err)
	require.Equal(t, 0, stats.CastsInserted)
	require.Equal(t, 0, stats.OutputsRestored)
	require.Equal(t, first.String(), second.String())
}

// TestBFloat16Target: the mixed dtype is configurable.
func TestBFloat16Target(t *testing.T) {
	g := ir.New("bfloat16")
	x := ir.Parameter(g, "x", MS(F32, 2, 2))
	g.SetOutputs(ir.DotGeneral(x, []int{1}, nil, x, []int{0}, nil))

	rewritten, _, err := RewriteWithStats(g, Config{MixedDType: BF16})
	require.NoError(t, err)
	dot := theOne(t, rewritten, optypes.DotGeneral)
	require.Equal(t, BF16, dot.DType())
	require.Equal(t, ir.DTypeConfig{AccumulatorDType: F32, OutputDType: BF16},
		dot.Data().(*ir.DotGeneralData).Config)
	require.Equal(t, F32, rewritten.Outputs()[0].DType())
}

// TestConvGeneralRewrite: convolutions are in the default Always table too.
func TestConvGeneralRewrite(t *testing.T) {
	g := ir.New("conv")
	input := ir.Parameter(g, "input", MS(F32, 1, 3, 8, 8))
	kernel := ir.Parameter(g, "kernel", MS(F32, 4, 3, 3, 3))
	g.SetOutputs(ir.ConvGeneral(input, kernel, []int{1, 1}, [][2]int{{1, 1}, {1, 1}}))

	rewritten, stats, err := RewriteWithStats(g, Config{MixedDType: F16})
	require.NoError(t, err)
	conv := theOne(t, rewritten, optypes.ConvGeneral)
	require.Equal(t, F16, conv.DType())
	require.Equal(t, ir.DTypeConfig{AccumulatorDType: F32, OutputDType: F16},
		conv.Data().(*ir.ConvGeneralData).Config)
	// Input and kernel casts, plus the output restored to F32.
	require.Equal(t, 3, stats.CastsInserted)
	require.Equal(t, 1, stats.OutputsRestored)
	require.Equal(t, F32, rewritten.Outputs()[0].DType())
}

// TestTupleOutputRestored: tuple outputs keep their dtypes element by element.
func TestTupleOutputRestored(t *testing.T) {
	g := ir.New("tuple_output")
	x := ir.Parameter(g, "x", MS(F32, 2, 2))
	m := ir.DotGeneral(x, []int{1}, nil, x, []int{0}, nil)
	tuple := ir.Tuple(m, x)
	g.SetOutputs(tuple)

	rewritten, stats, err := RewriteWithStats(g, Config{MixedDType: F16})
	require.NoError(t, err)
	require.Equal(t, 1, stats.OutputsRestored)
	output := rewritten.Outputs()[0]
	require.Equal(t, optypes.Tuple, output.OpType())
	require.True(t, output.Shape().Equal(tuple.Shape()))
}

// TestCallPassThrough: calls to opaque sub-computations are rebuilt as is,
// with whatever dtypes their rewritten arguments have.
func TestCallPassThrough(t *testing.T) {
	g := ir.New("call")
	x := ir.Parameter(g, "x", MS(F32, 2, 2))
	m := ir.DotGeneral(x, []int{1}, nil, x, []int{0}, nil)
	fn := &ir.Function{
		Name:   "head",
		Inputs: []shapes.Shape{MS(F32, 2, 2)},
		Output: MS(F32, 2),
	}
	g.SetOutputs(ir.Call(g, fn, m))

	rewritten, stats, err := RewriteWithStats(g, Config{MixedDType: F16})
	require.NoError(t, err)
	call := theOne(t, rewritten, optypes.Call)
	// The argument is the F16 matmul, uncast: the callee is re-specialized by
	// the host for the dtypes it receives.
	require.Equal(t, theOne(t, rewritten, optypes.DotGeneral), call.Inputs()[0])
	require.Equal(t, F16, call.Inputs()[0].DType())
	// The declared output shape stands.
	require.Equal(t, F32, call.DType())
	require.Equal(t, 1, stats.CastsInserted)
}

// TestCustomRules: user rules override the default table through priorities,
// with ties going to the latest registration.
func TestCustomRules(t *testing.T) {
	build := func() *ir.Graph {
		g := ir.New("custom")
		x := ir.Parameter(g, "x", MS(F32, 2, 2))
		m := ir.DotGeneral(x, []int{1}, nil, x, []int{0}, nil)
		g.SetOutputs(ir.Exp(m))
		return g
	}

	// Re-register Exp as Follow at the default priority: the latest
	// registration wins the tie, so Exp now runs in F16.
	registry := DefaultRegistry().Clone()
	err := registry.Register(optypes.Exp, 0, func(node *ir.Node, target dtypes.DType) (Classification, error) {
		return Classification{Category: CategoryFollow}, nil
	})
	require.NoError(t, err)
	rewritten, err := Rewrite(build(), Config{MixedDType: F16, Registry: registry})
	require.NoError(t, err)
	require.Equal(t, F16, theOne(t, rewritten, optypes.Exp).DType())
	// The output is restored to F32 at the end.
	require.Equal(t, F32, rewritten.Outputs()[0].DType())

	// A higher priority rule turns DotGeneral off: nothing gets mixed.
	registry = DefaultRegistry().Clone()
	err = registry.Register(optypes.DotGeneral, 10, func(node *ir.Node, target dtypes.DType) (Classification, error) {
		return Classification{Category: CategoryNever}, nil
	})
	require.NoError(t, err)
	var stats Stats
	rewritten, stats, err = RewriteWithStats(build(), Config{MixedDType: F16, Registry: registry})
	require.NoError(t, err)
	require.Equal(t, 0, stats.NodesMixed)
	require.Equal(t, 0, stats.CastsInserted)
	require.Equal(t, F32, theOne(t, rewritten, optypes.DotGeneral).DType())

	// The default registry is not affected by rules registered on clones.
	require.Equal(t, DefaultRegistry().NumRules(), registry.NumRules()-1)
}

// TestRuleFailures: evaluator errors and invalid classifications abort the
// pass with the matching sentinel error.
func TestRuleFailures(t *testing.T) {
	build := func() *ir.Graph {
		g := ir.New("failures")
		x := ir.Parameter(g, "x", MS(F32, 2, 2))
		g.SetOutputs(ir.Add(x, x))
		return g
	}
	rewriteWith := func(rule RuleFunc) error {
		registry := NewRegistry()
		require.NoError(t, registry.Register(optypes.Add, 0, rule))
		_, err := Rewrite(build(), Config{MixedDType: F16, Registry: registry})
		return err
	}

	// Evaluator failure.
	err := rewriteWith(func(node *ir.Node, target dtypes.DType) (Classification, error) {
		return Classification{}, errors.New("shape not static")
	})
	require.ErrorIs(t, err, ErrClassification)
	require.Contains(t, err.Error(), "shape not static")

	// Invalid category.
	err = rewriteWith(func(node *ir.Node, target dtypes.DType) (Classification, error) {
		return Classification{Category: Category(42)}, nil
	})
	require.ErrorIs(t, err, ErrClassification)

	// Dtype outside the base/mixed pair.
	err = rewriteWith(func(node *ir.Node, target dtypes.DType) (Classification, error) {
		return Classification{Category: CategoryAlways, OutputDType: F64}, nil
	})
	require.ErrorIs(t, err, ErrClassification)

	// Accumulator dtype on an operation without dtype attributes.
	err = rewriteWith(func(node *ir.Node, target dtypes.DType) (Classification, error) {
		return Classification{Category: CategoryAlways, AccumulatorDType: F32}, nil
	})
	require.ErrorIs(t, err, ErrAttributeReconstruction)
}

// TestRewriteValidation: malformed configs and graphs are rejected before any
// rewriting happens.
func TestRewriteValidation(t *testing.T) {
	g := ir.New("validation")
	x := ir.Parameter(g, "x", MS(F32, 2))
	g.SetOutputs(ir.Tanh(x))

	_, err := Rewrite(nil, Config{MixedDType: F16})
	require.Error(t, err)

	_, err = Rewrite(g, Config{})
	require.Error(t, err) // MixedDType not set.

	_, err = Rewrite(g, Config{MixedDType: I32})
	require.Error(t, err) // Not a float dtype.

	_, err = Rewrite(g, Config{MixedDType: F32})
	require.Error(t, err) // Same as the base dtype.

	noOutputs := ir.New("no_outputs")
	ir.Parameter(noOutputs, "x", MS(F32, 2))
	_, err = Rewrite(noOutputs, Config{MixedDType: F16})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no outputs")
}
