package ir

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/mixprec/optypes"
	"github.com/gomlx/mixprec/shapes"
)

var (
	// Aliases to make test tables shorter.
	Bool = dtypes.Bool
	I32  = dtypes.Int32
	F16  = dtypes.Float16
	F32  = dtypes.Float32

	MS = shapes.Make
)

func TestGraphParameters(t *testing.T) {
	g := New("params")
	x := Parameter(g, "x", MS(F32, 2, 3))
	y := Parameter(g, "y", MS(F32, 3))
	require.Equal(t, 2, g.NumParameters())
	require.Equal(t, ParameterHandle(0), x.GetParameterHandle())
	require.Equal(t, ParameterHandle(1), y.GetParameterHandle())
	require.Equal(t, "x", x.GetParameterName())
	require.Equal(t, []*Node{x, y}, g.Parameters())
	require.Equal(t, x, g.ParameterByName("x"))
	require.Nil(t, g.ParameterByName("z"))

	// Invalid parameters.
	require.Panics(t, func() { Parameter(g, "x", MS(F32, 2)) })       // Duplicate name.
	require.Panics(t, func() { Parameter(g, "", MS(F32, 2)) })        // Empty name.
	require.Panics(t, func() { Parameter(g, "w", shapes.Invalid()) }) // Invalid shape.

	// GetParameterHandle only works on Parameter nodes.
	sum := Add(x, x)
	require.Panics(t, func() { sum.GetParameterHandle() })
}

func TestConstantAndScalar(t *testing.T) {
	g := New("constants")
	c := Constant(g, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.True(t, c.Shape().Equal(MS(F32, 2, 3)))
	require.Equal(t, optypes.Constant, c.OpType())

	s := Scalar(g, F16, 1)
	require.True(t, s.Shape().Equal(MS(F16)))
	require.True(t, s.IsScalar())

	require.Panics(t, func() { Constant(g, []float32{1, 2, 3}, 2, 3) }) // Wrong number of values.
	require.Panics(t, func() { Constant(g, float32(7)) })               // Not a slice.
	require.Panics(t, func() { Constant(g, []float32{1}, 0) })          // Invalid dimension.
}

func TestOpsShapes(t *testing.T) {
	g := New("shapes")
	x := Parameter(g, "x", MS(F32, 2, 3))
	one := Scalar(g, F32, 1)

	sum := Add(x, one) // Scalar broadcasts.
	require.True(t, sum.Shape().Equal(MS(F32, 2, 3)))
	require.Equal(t, []*Node{x, one}, sum.Inputs())

	mask := GreaterThan(sum, one)
	require.Equal(t, Bool, mask.DType())

	sel := Where(mask, sum, x)
	require.True(t, sel.Shape().Equal(MS(F32, 2, 3)))

	total := ReduceSum(sel, 1)
	require.True(t, total.Shape().Equal(MS(F32, 2)))

	transposed := Transpose(sel, 1, 0)
	require.True(t, transposed.Shape().Equal(MS(F32, 3, 2)))

	flat := Reshape(sel, 6)
	require.True(t, flat.Shape().Equal(MS(F32, 6)))

	bcast := Broadcast(total, 4)
	require.True(t, bcast.Shape().Equal(MS(F32, 4, 2)))

	concat := Concatenate(0, x, sel)
	require.True(t, concat.Shape().Equal(MS(F32, 4, 3)))

	sliced := Slice(concat, []int{0, 0}, []int{4, 3}, []int{2, 1})
	require.True(t, sliced.Shape().Equal(MS(F32, 2, 3)))

	best := ArgMinMax(x, 1, I32, false)
	require.True(t, best.Shape().Equal(MS(I32, 2)))

	// Nodes of different graphs cannot be mixed.
	g2 := New("other")
	other := Parameter(g2, "other", MS(F32, 2, 3))
	require.Panics(t, func() { Add(x, other) })
}

func TestConvertDType(t *testing.T) {
	g := New("convert")
	x := Parameter(g, "x", MS(F32, 2))

	// No-op conversion returns the input node itself.
	same := ConvertDType(x, F32)
	require.Equal(t, x, same)
	require.Equal(t, 1, g.NumNodes())

	half := ConvertDType(x, F16)
	require.True(t, half.Shape().Equal(MS(F16, 2)))
	require.Equal(t, optypes.ConvertDType, half.OpType())
	require.Equal(t, F16, half.Data().(*ConvertDTypeData).DType)
}

func TestDotGeneral(t *testing.T) {
	g := New("dotgeneral")
	lhs := Parameter(g, "lhs", MS(F32, 4, 3))
	rhs := Parameter(g, "rhs", MS(F32, 3, 5))

	dot := DotGeneral(lhs, []int{1}, nil, rhs, []int{0}, nil)
	require.True(t, dot.Shape().Equal(MS(F32, 4, 5)))
	require.True(t, dot.Data().(*DotGeneralData).Config.IsDefault())

	// The output dtype override is reflected in the node shape.
	lhs16 := ConvertDType(lhs, F16)
	rhs16 := ConvertDType(rhs, F16)
	config := DTypeConfig{AccumulatorDType: F32, OutputDType: F16}
	mixed := DotGeneralWithConfig(lhs16, []int{1}, nil, rhs16, []int{0}, nil, config)
	require.True(t, mixed.Shape().Equal(MS(F16, 4, 5)))
	require.Equal(t, config, mixed.Data().(*DotGeneralData).Config)

	// Non-float dtypes are not valid accumulators.
	require.Panics(t, func() {
		DotGeneralWithConfig(lhs, []int{1}, nil, rhs, []int{0}, nil, DTypeConfig{AccumulatorDType: I32})
	})
}

func TestConvGeneral(t *testing.T) {
	g := New("convgeneral")
	input := Parameter(g, "input", MS(F32, 1, 3, 8, 8))
	kernel := Parameter(g, "kernel", MS(F32, 16, 3, 3, 3))

	conv := ConvGeneral(input, kernel, []int{1, 1}, [][2]int{{1, 1}, {1, 1}})
	require.True(t, conv.Shape().Equal(MS(F32, 1, 16, 8, 8)))

	config := DTypeConfig{AccumulatorDType: F32, OutputDType: F16}
	input16 := ConvertDType(input, F16)
	kernel16 := ConvertDType(kernel, F16)
	mixed := ConvGeneralWithConfig(input16, kernel16, []int{2, 2}, [][2]int{{0, 0}, {0, 0}}, config)
	require.True(t, mixed.Shape().Equal(MS(F16, 1, 16, 3, 3)))
}

func TestTupleOps(t *testing.T) {
	g := New("tuples")
	x := Parameter(g, "x", MS(F32, 2))
	y := Parameter(g, "y", MS(I32, 3))

	tuple := Tuple(x, y)
	require.True(t, tuple.Shape().IsTuple())
	require.Equal(t, 2, tuple.Shape().TupleSize())

	first := GetTupleElement(tuple, 0)
	require.True(t, first.Shape().Equal(MS(F32, 2)))
	second := GetTupleElement(tuple, 1)
	require.True(t, second.Shape().Equal(MS(I32, 3)))
	require.Panics(t, func() { GetTupleElement(tuple, 2) })
}

func TestCall(t *testing.T) {
	g := New("calls")
	x := Parameter(g, "x", MS(F32, 4, 3))
	fn := &Function{
		Name:   "dense_layer",
		Inputs: []shapes.Shape{MS(F32, 4, 3)},
		Output: MS(F32, 4, 8),
	}

	call := Call(g, fn, x)
	require.True(t, call.Shape().Equal(MS(F32, 4, 8)))
	require.Equal(t, fn, call.Data().(*CallData).Callee)

	// Arguments only need to match the declared dimensions, not the dtype:
	// the host compiler re-specializes callees.
	x16 := ConvertDType(x, F16)
	call16 := Call(g, fn, x16)
	require.True(t, call16.Shape().Equal(MS(F32, 4, 8)))

	require.Panics(t, func() { Call(g, fn, x, x) }) // Wrong number of arguments.
	require.Panics(t, func() {                      // Wrong dimensions.
		Call(g, fn, Parameter(g, "bad", MS(F32, 4, 7)))
	})
	require.Panics(t, func() { // Callee without a resolved output shape.
		badFn := &Function{Name: "bad", Output: shapes.Invalid()}
		Call(g, badFn)
	})
}

func TestSetOutputs(t *testing.T) {
	g := New("outputs")
	x := Parameter(g, "x", MS(F32, 2))
	y := Tanh(x)
	g.SetOutputs(y)
	require.Equal(t, []*Node{y}, g.Outputs())

	// SetOutputs replaces previous outputs.
	g.SetOutputs(x, y)
	require.Equal(t, []*Node{x, y}, g.Outputs())

	require.Panics(t, func() { g.SetOutputs() })
	g2 := New("other")
	require.Panics(t, func() { g.SetOutputs(Parameter(g2, "z", MS(F32, 2))) })
}

func TestGraphString(t *testing.T) {
	g := New("pretty")
	x := Parameter(g, "x", MS(F32, 2, 3))
	y := Exp(x)
	g.SetOutputs(y)

	str := g.String()
	require.Contains(t, str, `Graph "pretty": 2 nodes, 1 parameters`)
	require.Contains(t, str, fmt.Sprintf("#%d", y.Id()))
	require.Contains(t, str, "Exp(#0)")
	require.Contains(t, str, "outputs: [#1]")
	require.Equal(t, 4, len(strings.Split(str, "\n")))
}

func TestRebuildNode(t *testing.T) {
	g := New("original")
	x := Parameter(g, "x", MS(F32, 4, 3))
	w := Parameter(g, "w", MS(F32, 3, 5))
	dot := DotGeneral(x, []int{1}, nil, w, []int{0}, nil)
	out := Exp(dot)
	g.SetOutputs(out)

	// Rebuild the graph node by node, converting the DotGeneral operands to
	// F16 and overriding its accumulator/output dtypes.
	g2 := New("rebuilt")
	x2 := g2.RebuildNode(x, nil, x.Data())
	require.Equal(t, "x", x2.GetParameterName())
	require.True(t, x2.Shape().Equal(x.Shape()))
	w2 := g2.RebuildNode(w, nil, w.Data())

	dotData := dot.Data().(*DotGeneralData)
	newData := &DotGeneralData{
		LhsContractingAxes: dotData.LhsContractingAxes,
		LhsBatchAxes:       dotData.LhsBatchAxes,
		RhsContractingAxes: dotData.RhsContractingAxes,
		RhsBatchAxes:       dotData.RhsBatchAxes,
		Config:             DTypeConfig{AccumulatorDType: F32, OutputDType: F16},
	}
	dot2 := g2.RebuildNode(dot, []*Node{ConvertDType(x2, F16), ConvertDType(w2, F16)}, newData)
	require.True(t, dot2.Shape().Equal(MS(F16, 4, 5)))

	out2 := g2.RebuildNode(out, []*Node{dot2}, nil)
	require.Equal(t, optypes.Exp, out2.OpType())
	require.True(t, out2.Shape().Equal(MS(F16, 4, 5)))

	// Rebuilding a ConvertDType into a no-op returns the input node itself.
	half := ConvertDType(x, F16)
	x16 := ConvertDType(x2, F16)
	merged := g2.RebuildNode(half, []*Node{x16}, half.Data())
	require.Equal(t, x16, merged)

	// Attributes of the wrong type panic.
	require.Panics(t, func() { g2.RebuildNode(dot, []*Node{dot2, dot2}, &ReduceData{}) })
	// Input arity must match the original node.
	require.Panics(t, func() { g2.RebuildNode(out, nil, nil) })
	// Inputs must belong to the destination graph.
	require.Panics(t, func() { g2.RebuildNode(out, []*Node{dot}, nil) })
}
