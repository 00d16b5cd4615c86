// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ir

import (
	"reflect"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/gomlx/mixprec/optypes"
	"github.com/gomlx/mixprec/shapeinference"
	"github.com/gomlx/mixprec/shapes"
)

// checkNodes validates that the input nodes are non-nil and belong to the same
// graph, and returns that graph.
func checkNodes(opType optypes.OpType, nodes ...*Node) *Graph {
	if len(nodes) == 0 {
		exceptions.Panicf("%s: operation requires at least one input node", opType)
	}
	var g *Graph
	for idx, node := range nodes {
		if node == nil {
			exceptions.Panicf("%s: input node #%d is nil!?", opType, idx)
		}
		if node.graph == nil {
			exceptions.Panicf("%s: input node #%d is not attached to any graph", opType, idx)
		}
		if g == nil {
			g = node.graph
		} else if node.graph != g {
			exceptions.Panicf("%s: input node #%d was created on a different graph (%q), cannot mix nodes of different graphs",
				opType, idx, node.graph.name)
		}
	}
	return g
}

// checkFlat throws an exception if flat is not a slice of one of the dtypes supported.
// It returns the dtype and the length of the flat slice.
func checkFlat(flat any) (dtypes.DType, int) {
	flatType := reflect.TypeOf(flat)
	if flatType.Kind() != reflect.Slice {
		exceptions.Panicf("flat data should be a slice, not %s", flatType.Kind())
	}
	dtype := dtypes.FromGoType(flatType.Elem())
	if dtype == dtypes.InvalidDType {
		exceptions.Panicf("flat is a slice of %s, not a valid data type", flatType.Elem())
	}
	flatValue := reflect.ValueOf(flat)
	return dtype, flatValue.Len()
}

// addUnaryOp adds a generic unary op.
func addUnaryOp(opType optypes.OpType, x *Node) *Node {
	g := checkNodes(opType, x)
	shape, err := shapeinference.UnaryOp(opType, x.shape)
	if err != nil {
		panic(err)
	}
	return g.newNode(opType, shape, nil, x)
}

// addBinaryOp adds a generic binary op, after broadcasting a scalar operand if needed.
func addBinaryOp(opType optypes.OpType, lhs, rhs *Node) *Node {
	g := checkNodes(opType, lhs, rhs)
	shape, err := shapeinference.BinaryOp(opType, lhs.shape, rhs.shape)
	if err != nil {
		panic(err)
	}
	return g.newNode(opType, shape, nil, lhs, rhs)
}

// addComparisonOp adds a generic comparison op: the output dtype is Bool.
func addComparisonOp(opType optypes.OpType, lhs, rhs *Node) *Node {
	g := checkNodes(opType, lhs, rhs)
	shape, err := shapeinference.ComparisonOp(opType, lhs.shape, rhs.shape)
	if err != nil {
		panic(err)
	}
	return g.newNode(opType, shape, nil, lhs, rhs)
}

// Parameter registers a named input to the graph and returns the node
// representing its value. The name must be unique within the graph.
func Parameter(g *Graph, name string, shape shapes.Shape) *Node {
	if name == "" {
		exceptions.Panicf("Graph %q: parameters require a non-empty name", g.name)
	}
	if !shape.Ok() {
		exceptions.Panicf("Graph %q: parameter %q must be created with a valid shape", g.name, name)
	}
	if _, found := g.parameterNameToHandle[name]; found {
		exceptions.Panicf("Graph %q already has a parameter named %q", g.name, name)
	}
	handle := ParameterHandle(len(g.parameters))
	node := g.newNode(optypes.Parameter, shape.Clone(), &ParameterData{Name: name, Handle: handle})
	g.parameters = append(g.parameters, node)
	g.parameterNameToHandle[name] = handle
	return node
}

// Constant returns a node holding the given values: flat must be a slice of
// one of the supported dtypes, with one value per element of the shape given
// by dims (no dims means scalar).
//
// The flat slice is stored as is and must not be changed after this call.
func Constant(g *Graph, flat any, dims ...int) *Node {
	dtype, flatLen := checkFlat(flat)
	shape := shapes.Make(dtype, dims...)
	if flatLen != shape.Size() {
		exceptions.Panicf("Graph %q: Constant got %d values for shape %s with %d elements",
			g.name, flatLen, shape, shape.Size())
	}
	return g.newNode(optypes.Constant, shape, &ConstantData{Flat: flat, Dims: slices.Clone(dims)})
}

// Scalar returns a Constant node with a single value converted to the given dtype.
func Scalar[N dtypes.NumberNotComplex](g *Graph, dtype dtypes.DType, value N) *Node {
	flat := shapes.ScalarToFlat(float64(value), dtype)
	if flat == nil {
		exceptions.Panicf("Graph %q: Scalar does not support dtype %s", g.name, dtype)
	}
	return Constant(g, flat)
}

// Identity returns a node that forwards x unchanged.
func Identity(x *Node) *Node {
	g := checkNodes(optypes.Identity, x)
	return g.newNode(optypes.Identity, x.shape, nil, x)
}

// Abs returns the element-wise absolute value of x.
func Abs(x *Node) *Node { return addUnaryOp(optypes.Abs, x) }

// Ceil returns the element-wise smallest integral value not less than x.
func Ceil(x *Node) *Node { return addUnaryOp(optypes.Ceil, x) }

// Cos returns the element-wise cosine of x.
func Cos(x *Node) *Node { return addUnaryOp(optypes.Cos, x) }

// Erf returns the element-wise Gauss error function of x.
func Erf(x *Node) *Node { return addUnaryOp(optypes.Erf, x) }

// Exp returns the element-wise exponential of x.
func Exp(x *Node) *Node { return addUnaryOp(optypes.Exp, x) }

// Expm1 returns the element-wise e^x - 1, more accurate than Exp for values near zero.
func Expm1(x *Node) *Node { return addUnaryOp(optypes.Expm1, x) }

// Floor returns the element-wise largest integral value not greater than x.
func Floor(x *Node) *Node { return addUnaryOp(optypes.Floor, x) }

// Log returns the element-wise natural logarithm of x.
func Log(x *Node) *Node { return addUnaryOp(optypes.Log, x) }

// Log1p returns the element-wise log(1+x), more accurate than Log for values near zero.
func Log1p(x *Node) *Node { return addUnaryOp(optypes.Log1p, x) }

// Logistic returns the element-wise sigmoid 1/(1+e^-x) of x.
func Logistic(x *Node) *Node { return addUnaryOp(optypes.Logistic, x) }

// LogicalNot returns the element-wise negation of the boolean x.
func LogicalNot(x *Node) *Node { return addUnaryOp(optypes.LogicalNot, x) }

// Neg returns the element-wise negative of x.
func Neg(x *Node) *Node { return addUnaryOp(optypes.Neg, x) }

// Round returns the element-wise nearest integral value to x.
func Round(x *Node) *Node { return addUnaryOp(optypes.Round, x) }

// Rsqrt returns the element-wise reciprocal of the square root of x.
func Rsqrt(x *Node) *Node { return addUnaryOp(optypes.Rsqrt, x) }

// Sign returns the element-wise sign of x as -1, 0 or +1.
func Sign(x *Node) *Node { return addUnaryOp(optypes.Sign, x) }

// Sin returns the element-wise sine of x.
func Sin(x *Node) *Node { return addUnaryOp(optypes.Sin, x) }

// Sqrt returns the element-wise square root of x.
func Sqrt(x *Node) *Node { return addUnaryOp(optypes.Sqrt, x) }

// Tanh returns the element-wise hyperbolic tangent of x.
func Tanh(x *Node) *Node { return addUnaryOp(optypes.Tanh, x) }

// Add returns the element-wise sum of lhs and rhs.
// Either operand can be a scalar, in which case it is broadcast to the shape of the other.
func Add(lhs, rhs *Node) *Node { return addBinaryOp(optypes.Add, lhs, rhs) }

// Div returns the element-wise division of lhs by rhs.
func Div(lhs, rhs *Node) *Node { return addBinaryOp(optypes.Div, lhs, rhs) }

// Max returns the element-wise maximum of lhs and rhs.
func Max(lhs, rhs *Node) *Node { return addBinaryOp(optypes.Max, lhs, rhs) }

// Min returns the element-wise minimum of lhs and rhs.
func Min(lhs, rhs *Node) *Node { return addBinaryOp(optypes.Min, lhs, rhs) }

// Mul returns the element-wise product of lhs and rhs.
func Mul(lhs, rhs *Node) *Node { return addBinaryOp(optypes.Mul, lhs, rhs) }

// Pow returns the element-wise lhs raised to the power of rhs.
func Pow(lhs, rhs *Node) *Node { return addBinaryOp(optypes.Pow, lhs, rhs) }

// Rem returns the element-wise remainder of the division of lhs by rhs.
func Rem(lhs, rhs *Node) *Node { return addBinaryOp(optypes.Rem, lhs, rhs) }

// Sub returns the element-wise subtraction of rhs from lhs.
func Sub(lhs, rhs *Node) *Node { return addBinaryOp(optypes.Sub, lhs, rhs) }

// LogicalAnd returns the element-wise conjunction of the boolean lhs and rhs.
func LogicalAnd(lhs, rhs *Node) *Node { return addBinaryOp(optypes.LogicalAnd, lhs, rhs) }

// LogicalOr returns the element-wise disjunction of the boolean lhs and rhs.
func LogicalOr(lhs, rhs *Node) *Node { return addBinaryOp(optypes.LogicalOr, lhs, rhs) }

// LogicalXor returns the element-wise exclusive-or of the boolean lhs and rhs.
func LogicalXor(lhs, rhs *Node) *Node { return addBinaryOp(optypes.LogicalXor, lhs, rhs) }

// Equal returns the element-wise comparison lhs == rhs, with dtype Bool.
func Equal(lhs, rhs *Node) *Node { return addComparisonOp(optypes.Equal, lhs, rhs) }

// NotEqual returns the element-wise comparison lhs != rhs, with dtype Bool.
func NotEqual(lhs, rhs *Node) *Node { return addComparisonOp(optypes.NotEqual, lhs, rhs) }

// GreaterOrEqual returns the element-wise comparison lhs >= rhs, with dtype Bool.
func GreaterOrEqual(lhs, rhs *Node) *Node { return addComparisonOp(optypes.GreaterOrEqual, lhs, rhs) }

// GreaterThan returns the element-wise comparison lhs > rhs, with dtype Bool.
func GreaterThan(lhs, rhs *Node) *Node { return addComparisonOp(optypes.GreaterThan, lhs, rhs) }

// LessOrEqual returns the element-wise comparison lhs <= rhs, with dtype Bool.
func LessOrEqual(lhs, rhs *Node) *Node { return addComparisonOp(optypes.LessOrEqual, lhs, rhs) }

// LessThan returns the element-wise comparison lhs < rhs, with dtype Bool.
func LessThan(lhs, rhs *Node) *Node { return addComparisonOp(optypes.LessThan, lhs, rhs) }

// Where returns onTrue or onFalse element-wise, according to the boolean condition.
// The condition can be a scalar, in which case it selects one of the operands whole.
func Where(condition, onTrue, onFalse *Node) *Node {
	g := checkNodes(optypes.Where, condition, onTrue, onFalse)
	shape, err := shapeinference.WhereOp(condition.shape, onTrue.shape, onFalse.shape)
	if err != nil {
		panic(err)
	}
	return g.newNode(optypes.Where, shape, nil, condition, onTrue, onFalse)
}

// Broadcast prepends prefixDims to the shape of x, replicating its values.
func Broadcast(x *Node, prefixDims ...int) *Node {
	g := checkNodes(optypes.Broadcast, x)
	shape, err := shapeinference.BroadcastOp(x.shape, prefixDims)
	if err != nil {
		panic(err)
	}
	return g.newNode(optypes.Broadcast, shape, &BroadcastData{PrefixDims: slices.Clone(prefixDims)}, x)
}

// Concatenate joins the operands along the given axis. All operands must have
// the same dtype, rank and dimensions, except on the concatenation axis.
func Concatenate(axis int, operands ...*Node) *Node {
	g := checkNodes(optypes.Concatenate, operands...)
	operandShapes := make([]shapes.Shape, len(operands))
	for ii, operand := range operands {
		operandShapes[ii] = operand.shape
	}
	shape, err := shapeinference.ConcatenateOp(operandShapes, axis)
	if err != nil {
		panic(err)
	}
	return g.newNode(optypes.Concatenate, shape, &ConcatenateData{Axis: axis}, operands...)
}

// Reshape reorganizes the values of x into the given dimensions.
// The total size must not change.
func Reshape(x *Node, dims ...int) *Node {
	g := checkNodes(optypes.Reshape, x)
	shape, err := shapeinference.ReshapeOp(x.shape, dims)
	if err != nil {
		panic(err)
	}
	return g.newNode(optypes.Reshape, shape, &ReshapeData{Dims: slices.Clone(dims)}, x)
}

// Slice extracts for each axis the range [start, limit) with the given stride.
func Slice(x *Node, starts, limits, strides []int) *Node {
	g := checkNodes(optypes.Slice, x)
	shape, err := shapeinference.SliceOp(x.shape, starts, limits, strides)
	if err != nil {
		panic(err)
	}
	data := &SliceData{Starts: slices.Clone(starts), Limits: slices.Clone(limits), Strides: slices.Clone(strides)}
	return g.newNode(optypes.Slice, shape, data, x)
}

// Transpose permutes the axes of x: axis i of the output holds axis
// permutation[i] of x.
func Transpose(x *Node, permutation ...int) *Node {
	g := checkNodes(optypes.Transpose, x)
	shape, err := shapeinference.TransposeOp(x.shape, permutation)
	if err != nil {
		panic(err)
	}
	return g.newNode(optypes.Transpose, shape, &TransposeData{Permutation: slices.Clone(permutation)}, x)
}

// addReduceOp adds a generic reduction op: the given axes are removed from the shape.
func addReduceOp(opType optypes.OpType, x *Node, axes []int) *Node {
	g := checkNodes(opType, x)
	shape, err := shapeinference.ReduceOp(opType, x.shape, axes)
	if err != nil {
		panic(err)
	}
	return g.newNode(opType, shape, &ReduceData{Axes: slices.Clone(axes)}, x)
}

// ReduceMax returns the maximum of x over the given axes, which are removed
// from the shape.
func ReduceMax(x *Node, axes ...int) *Node { return addReduceOp(optypes.ReduceMax, x, axes) }

// ReduceMin returns the minimum of x over the given axes, which are removed
// from the shape.
func ReduceMin(x *Node, axes ...int) *Node { return addReduceOp(optypes.ReduceMin, x, axes) }

// ReduceProduct returns the product of x over the given axes, which are
// removed from the shape.
func ReduceProduct(x *Node, axes ...int) *Node { return addReduceOp(optypes.ReduceProduct, x, axes) }

// ReduceSum returns the sum of x over the given axes, which are removed from
// the shape.
func ReduceSum(x *Node, axes ...int) *Node { return addReduceOp(optypes.ReduceSum, x, axes) }

// ArgMinMax returns the index of the minimum (isMin=true) or maximum
// (isMin=false) of x along the given axis, which is removed from the shape.
// The output has the given integer dtype.
func ArgMinMax(x *Node, axis int, outputDType dtypes.DType, isMin bool) *Node {
	g := checkNodes(optypes.ArgMinMax, x)
	shape, err := shapeinference.ArgMinMaxOp(x.shape, axis, outputDType)
	if err != nil {
		panic(err)
	}
	data := &ArgMinMaxData{Axis: axis, OutputDType: outputDType, IsMin: isMin}
	return g.newNode(optypes.ArgMinMax, shape, data, x)
}

// ConvertDType converts x to the given dtype, keeping its dimensions.
// If x is already of the given dtype, it is returned unchanged and no node is
// created.
func ConvertDType(x *Node, dtype dtypes.DType) *Node {
	g := checkNodes(optypes.ConvertDType, x)
	if x.shape.DType == dtype {
		return x
	}
	shape, err := shapeinference.ConvertDTypeOp(x.shape, dtype)
	if err != nil {
		panic(err)
	}
	return g.newNode(optypes.ConvertDType, shape, &ConvertDTypeData{DType: dtype}, x)
}

// checkDTypeConfig validates that the dtypes set in a DTypeConfig, if any, are
// floating point.
func checkDTypeConfig(opType optypes.OpType, config DTypeConfig) {
	if config.AccumulatorDType != dtypes.InvalidDType && !config.AccumulatorDType.IsFloat() {
		exceptions.Panicf("%s: accumulator dtype must be a float dtype, got %s", opType, config.AccumulatorDType)
	}
	if config.OutputDType != dtypes.InvalidDType && !config.OutputDType.IsFloat() {
		exceptions.Panicf("%s: output dtype must be a float dtype, got %s", opType, config.OutputDType)
	}
}

// DotGeneral returns the generalized matrix multiplication ("Einsum") of lhs
// and rhs: batch axes are aligned in both operands, contracting axes are
// multiplied and summed away, and the remaining (cross) axes are concatenated
// in the output, as batch axes first, then lhs cross axes, then rhs cross axes.
//
// Accumulation and output use the operands' dtype; see DotGeneralWithConfig to
// change that.
func DotGeneral(lhs *Node, lhsContractingAxes, lhsBatchAxes []int,
	rhs *Node, rhsContractingAxes, rhsBatchAxes []int) *Node {
	return DotGeneralWithConfig(lhs, lhsContractingAxes, lhsBatchAxes,
		rhs, rhsContractingAxes, rhsBatchAxes, DTypeConfig{})
}

// DotGeneralWithConfig is like DotGeneral, also configuring the dtypes used
// for accumulation and for the output. See DTypeConfig: unset fields default
// to the operands' dtype.
func DotGeneralWithConfig(lhs *Node, lhsContractingAxes, lhsBatchAxes []int,
	rhs *Node, rhsContractingAxes, rhsBatchAxes []int, config DTypeConfig) *Node {
	data := &DotGeneralData{
		LhsContractingAxes: slices.Clone(lhsContractingAxes),
		LhsBatchAxes:       slices.Clone(lhsBatchAxes),
		RhsContractingAxes: slices.Clone(rhsContractingAxes),
		RhsBatchAxes:       slices.Clone(rhsBatchAxes),
		Config:             config,
	}
	return dotGeneralNode(lhs, rhs, data)
}

func dotGeneralNode(lhs, rhs *Node, data *DotGeneralData) *Node {
	g := checkNodes(optypes.DotGeneral, lhs, rhs)
	checkDTypeConfig(optypes.DotGeneral, data.Config)
	shape, err := shapeinference.DotGeneralOp(lhs.shape, data.LhsContractingAxes, data.LhsBatchAxes,
		rhs.shape, data.RhsContractingAxes, data.RhsBatchAxes, data.Config.OutputDType)
	if err != nil {
		panic(err)
	}
	return g.newNode(optypes.DotGeneral, shape, data, lhs, rhs)
}

// ConvGeneral returns the convolution of the kernel over the input, with the
// given strides and paddings per spatial axis.
//
// The input is shaped [batch, inChannels, spatial...] and the kernel
// [outChannels, inChannels, spatial...].
//
// Accumulation and output use the operands' dtype; see ConvGeneralWithConfig
// to change that.
func ConvGeneral(input, kernel *Node, strides []int, paddings [][2]int) *Node {
	return ConvGeneralWithConfig(input, kernel, strides, paddings, DTypeConfig{})
}

// ConvGeneralWithConfig is like ConvGeneral, also configuring the dtypes used
// for accumulation and for the output. See DTypeConfig: unset fields default
// to the operands' dtype.
func ConvGeneralWithConfig(input, kernel *Node, strides []int, paddings [][2]int, config DTypeConfig) *Node {
	data := &ConvGeneralData{
		Strides:  slices.Clone(strides),
		Paddings: slices.Clone(paddings),
		Config:   config,
	}
	return convGeneralNode(input, kernel, data)
}

func convGeneralNode(input, kernel *Node, data *ConvGeneralData) *Node {
	g := checkNodes(optypes.ConvGeneral, input, kernel)
	checkDTypeConfig(optypes.ConvGeneral, data.Config)
	shape, err := shapeinference.ConvGeneralOp(input.shape, kernel.shape, data.Strides, data.Paddings, data.Config.OutputDType)
	if err != nil {
		panic(err)
	}
	return g.newNode(optypes.ConvGeneral, shape, data, input, kernel)
}

// Tuple bundles the given nodes into a single tuple-shaped node.
func Tuple(elements ...*Node) *Node {
	g := checkNodes(optypes.Tuple, elements...)
	elementShapes := make([]shapes.Shape, len(elements))
	for ii, element := range elements {
		elementShapes[ii] = element.shape
	}
	shape, err := shapeinference.TupleOp(elementShapes)
	if err != nil {
		panic(err)
	}
	return g.newNode(optypes.Tuple, shape, nil, elements...)
}

// GetTupleElement extracts the element at the given index from a tuple-shaped node.
func GetTupleElement(tuple *Node, index int) *Node {
	g := checkNodes(optypes.GetTupleElement, tuple)
	shape, err := shapeinference.GetTupleElementOp(tuple.shape, index)
	if err != nil {
		panic(err)
	}
	return g.newNode(optypes.GetTupleElement, shape, &TupleElementData{Index: index}, tuple)
}

// Call invokes a sub-computation with the given signature. The callee body is
// owned by the host compiler and opaque to this IR: the output shape is the
// one declared by fn, which must be valid.
//
// Only the dimensions of the arguments are checked against the declared
// inputs: the host compiler re-specializes callees for the dtypes actually
// passed.
func Call(g *Graph, fn *Function, args ...*Node) *Node {
	if fn == nil {
		exceptions.Panicf("Graph %q: Call requires a non-nil function", g.name)
	}
	if !fn.Output.Ok() {
		exceptions.Panicf("Graph %q: callee %q must declare a valid output shape", g.name, fn.Name)
	}
	if len(args) != len(fn.Inputs) {
		exceptions.Panicf("Graph %q: callee %q takes %d inputs, got %d arguments",
			g.name, fn.Name, len(fn.Inputs), len(args))
	}
	if len(args) > 0 {
		if argsG := checkNodes(optypes.Call, args...); argsG != g {
			exceptions.Panicf("Graph %q: Call arguments were created on a different graph (%q)", g.name, argsG.name)
		}
	}
	for idx, arg := range args {
		if !arg.shape.EqualDimensions(fn.Inputs[idx]) {
			exceptions.Panicf("Graph %q: callee %q input #%d expects dimensions of %s, got %s",
				g.name, fn.Name, idx, fn.Inputs[idx], arg.shape)
		}
	}
	return g.newNode(optypes.Call, fn.Output.Clone(), &CallData{Callee: fn}, args...)
}

// nodeDataAs casts the attributes to the type expected by the operation being rebuilt.
func nodeDataAs[T NodeData](opType optypes.OpType, data NodeData) T {
	value, ok := data.(T)
	if !ok {
		exceptions.Panicf("%s: expected attributes of type %T, got %T", opType, value, data)
	}
	return value
}

// RebuildNode re-creates the operation of orig in the graph g, with the given
// inputs and static attributes, re-validating the inputs and re-inferring the
// output shape. The original node is not modified and can belong to a
// different graph.
//
// The inputs must belong to g and match the arity of orig. data must be of
// the same concrete type as orig.Data(): since NodeData values are immutable,
// passing orig.Data() itself to keep the original attributes is fine.
//
// It may return an existing node instead of creating one when the rebuilt
// operation is a no-op, e.g. a ConvertDType to the dtype its input already
// has.
func (g *Graph) RebuildNode(orig *Node, inputs []*Node, data NodeData) *Node {
	orig.AssertValid()
	if len(inputs) != len(orig.inputs) {
		exceptions.Panicf("Graph %q: RebuildNode of %s requires %d inputs, got %d",
			g.name, orig.opType, len(orig.inputs), len(inputs))
	}
	for idx, input := range inputs {
		if input == nil {
			exceptions.Panicf("Graph %q: RebuildNode of %s: input #%d is nil!?", g.name, orig.opType, idx)
		}
		if input.graph != g {
			exceptions.Panicf("Graph %q: RebuildNode of %s: input #%d belongs to graph %q",
				g.name, orig.opType, idx, input.graph.name)
		}
	}

	opType := orig.opType
	switch opType {
	case optypes.Parameter:
		pd := nodeDataAs[*ParameterData](opType, data)
		return Parameter(g, pd.Name, orig.shape)
	case optypes.Constant:
		cd := nodeDataAs[*ConstantData](opType, data)
		return Constant(g, cd.Flat, cd.Dims...)
	case optypes.Identity:
		return Identity(inputs[0])
	case optypes.Tuple:
		return Tuple(inputs...)
	case optypes.GetTupleElement:
		td := nodeDataAs[*TupleElementData](opType, data)
		return GetTupleElement(inputs[0], td.Index)
	case optypes.Call:
		cd := nodeDataAs[*CallData](opType, data)
		return Call(g, cd.Callee, inputs...)
	case optypes.ConvertDType:
		cd := nodeDataAs[*ConvertDTypeData](opType, data)
		return ConvertDType(inputs[0], cd.DType)
	case optypes.Where:
		return Where(inputs[0], inputs[1], inputs[2])
	case optypes.Broadcast:
		bd := nodeDataAs[*BroadcastData](opType, data)
		return Broadcast(inputs[0], bd.PrefixDims...)
	case optypes.Concatenate:
		cd := nodeDataAs[*ConcatenateData](opType, data)
		return Concatenate(cd.Axis, inputs...)
	case optypes.Reshape:
		rd := nodeDataAs[*ReshapeData](opType, data)
		return Reshape(inputs[0], rd.Dims...)
	case optypes.Slice:
		sd := nodeDataAs[*SliceData](opType, data)
		return Slice(inputs[0], sd.Starts, sd.Limits, sd.Strides)
	case optypes.Transpose:
		td := nodeDataAs[*TransposeData](opType, data)
		return Transpose(inputs[0], td.Permutation...)
	case optypes.ArgMinMax:
		ad := nodeDataAs[*ArgMinMaxData](opType, data)
		return ArgMinMax(inputs[0], ad.Axis, ad.OutputDType, ad.IsMin)
	case optypes.DotGeneral:
		dd := nodeDataAs[*DotGeneralData](opType, data)
		return dotGeneralNode(inputs[0], inputs[1], dd)
	case optypes.ConvGeneral:
		cd := nodeDataAs[*ConvGeneralData](opType, data)
		return convGeneralNode(inputs[0], inputs[1], cd)
	}

	switch {
	case shapeinference.ReduceOperations.Has(opType):
		rd := nodeDataAs[*ReduceData](opType, data)
		return addReduceOp(opType, inputs[0], rd.Axes)
	case shapeinference.StandardUnaryOperations.Has(opType):
		return addUnaryOp(opType, inputs[0])
	case shapeinference.StandardBinaryOperations.Has(opType):
		return addBinaryOp(opType, inputs[0], inputs[1])
	case shapeinference.ComparisonOperations.Has(opType):
		return addComparisonOp(opType, inputs[0], inputs[1])
	}
	exceptions.Panicf("Graph %q: RebuildNode does not know how to rebuild %s nodes", g.name, opType)
	return nil
}
