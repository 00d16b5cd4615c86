// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapeinference calculates the shape resulting from operations and validates their inputs.
//
// It is the "type-inference oracle" used by the ir package to annotate every node with its
// result shape at construction time.
//
// It defines a BinaryOp function for shape inference for the majority of binary functions,
// using the standard broadcasting rules.
//
// The majority of the unary functions don't change the shape.
//
// For the remainder ops, it defines one function per OpType.
package shapeinference

import (
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/gomlx/mixprec/internal/sets"
	"github.com/gomlx/mixprec/optypes"
	"github.com/gomlx/mixprec/shapes"
)

var (
	// BooleanOperations take booleans as input, aka. logical operations.
	BooleanOperations = sets.MakeWith(
		optypes.LogicalAnd,
		optypes.LogicalOr,
		optypes.LogicalXor,
		optypes.LogicalNot,
	)

	// NumberOperations can take any type of number as input: integers, floats, or complex numbers.
	NumberOperations = sets.MakeWith(
		optypes.Add,
		optypes.Sub,
		optypes.Mul,
		optypes.Div,
		optypes.Pow,
		optypes.Rem,

		// Notice Abs and Sign work for unsigned ints: it's just a trivial implementation.
		optypes.Abs,
		optypes.Sign,

		optypes.Equal,
		optypes.NotEqual,
		optypes.GreaterOrEqual,
		optypes.GreaterThan,
		optypes.LessOrEqual,
		optypes.LessThan,
	)

	SignedNumberOperations = sets.MakeWith(
		optypes.Neg,
	)

	// FloatOperations operate only on float (and not on complex numbers).
	FloatOperations = sets.MakeWith(
		optypes.Erf,
		optypes.Logistic,
		optypes.Cos,
		optypes.Sin,
		optypes.Tanh,
	)

	// FloatOrComplexOperations operate only on float or complex numbers and won't work on integer or boolean values.
	FloatOrComplexOperations = sets.MakeWith(
		optypes.Exp,
		optypes.Expm1,
		optypes.Log,
		optypes.Log1p,
		optypes.Ceil,
		optypes.Floor,
		optypes.Round,
		optypes.Rsqrt,
		optypes.Sqrt,
	)

	// StandardBinaryOperations include all operations that have two operands usually named lhs (left-hand-side) and
	// rhs (right-hand-side) and are usually commutative (invariant to order).
	StandardBinaryOperations = sets.MakeWith(
		optypes.Add,
		optypes.Sub,
		optypes.Mul,
		optypes.Div,
		optypes.Pow,
		optypes.Rem,
		optypes.LogicalAnd,
		optypes.LogicalOr,
		optypes.LogicalXor,
		optypes.Max,
		optypes.Min,
	)

	// ComparisonOperations include all operations that take two inputs and return booleans with the results of
	// a comparison.
	ComparisonOperations = sets.MakeWith(
		optypes.Equal,
		optypes.NotEqual,
		optypes.GreaterOrEqual,
		optypes.GreaterThan,
		optypes.LessOrEqual,
		optypes.LessThan,
	)

	// StandardUnaryOperations include all operations that have a single operand as input, and the return shape is the
	// same as the input (so no reductions).
	StandardUnaryOperations = sets.MakeWith(
		optypes.LogicalNot,
		optypes.Erf,
		optypes.Exp,
		optypes.Expm1,
		optypes.Log,
		optypes.Log1p,
		optypes.Logistic,
		optypes.Ceil,
		optypes.Floor,
		optypes.Round,
		optypes.Rsqrt,
		optypes.Sqrt,
		optypes.Cos,
		optypes.Sin,
		optypes.Tanh,
		optypes.Abs,
		optypes.Neg,
		optypes.Sign,
	)

	// ReduceOperations reduce the operand along the given axes.
	ReduceOperations = sets.MakeWith(
		optypes.ReduceMax,
		optypes.ReduceMin,
		optypes.ReduceProduct,
		optypes.ReduceSum,
	)
)

// BinaryOp returns the expected output shape for ops in the StandardBinaryOperations set -- those include all
// operations that have two operands usually named lhs (left-hand-side) and rhs (right-hand-side), and they are
// usually commutative (invariant to order).
//
// It returns an error if the data type (shape.DType) is invalid for the operation -- e.g.: non-matching
// dtypes, or LogicalAnd not having booleans (dtype.Bool) as input.
func BinaryOp(opType optypes.OpType, lhsShape, rhsShape shapes.Shape) (output shapes.Shape, err error) {
	if !StandardBinaryOperations.Has(opType) {
		err = errors.Errorf("operation %s is not in the StandardBinaryOperations set, cannot process it with BinaryOp", opType)
		return
	}
	if lhsShape.DType == dtypes.InvalidDType || rhsShape.DType == dtypes.InvalidDType {
		err = errors.Errorf("invalid shape for %s or %s for BinaryOp %s", lhsShape, rhsShape, opType)
		return
	}
	if lhsShape.DType != rhsShape.DType {
		err = errors.Errorf("data types (DType) for BinaryOp %s must match, got %s and %s", opType, lhsShape, rhsShape)
		return
	}
	if BooleanOperations.Has(opType) && lhsShape.DType != dtypes.Bool {
		err = errors.Errorf("logical BinaryOp %s must have boolean (dtype.Bool) data types as input, got %s", opType, lhsShape)
		return
	}
	if NumberOperations.Has(opType) && !(lhsShape.DType.IsInt() || lhsShape.DType.IsFloat() || lhsShape.DType.IsComplex()) {
		err = errors.Errorf("numeric BinaryOp %s must have a number (Int32, Float32, Complex64, ...) data type as input, got %s", opType, lhsShape)
		return
	}
	if FloatOperations.Has(opType) && !lhsShape.DType.IsFloat() {
		err = errors.Errorf("float BinaryOp %s must have a float (Float32, Float64, ...) data type as input, got %s", opType, lhsShape)
		return
	}
	if FloatOrComplexOperations.Has(opType) && !(lhsShape.DType.IsFloat() || lhsShape.DType.IsComplex()) {
		err = errors.Errorf("float/complex BinaryOp %s must have a float or complex (Float32, Complex64, ...) data type as input, got %s", opType, lhsShape)
		return
	}
	return binaryOpImpl(opType, lhsShape, rhsShape)
}

func binaryOpImpl(opType optypes.OpType, lhsShape, rhsShape shapes.Shape) (output shapes.Shape, err error) {
	// Trivial cases: if one of the sides is a scalar, return the other side shape.
	if lhsShape.IsScalar() {
		return rhsShape, nil
	}
	if rhsShape.IsScalar() {
		return lhsShape, nil
	}

	// Other cases, either the dimensions match or one of them is 1.
	if lhsShape.Rank() != rhsShape.Rank() {
		err = errors.Errorf("if operands are not scalars, their rank must match for BinaryOp (%s), got shapes %s and %s",
			opType, lhsShape, rhsShape)
		return
	}
	output = lhsShape.Clone()
	for axis := range output.Rank() {
		lhsDim := lhsShape.Dimensions[axis]
		rhsDim := rhsShape.Dimensions[axis]
		if lhsDim != 1 && rhsDim != 1 && lhsDim != rhsDim {
			err = errors.Errorf("dimension of axis #%d doesn't match and cannot be broadcast for BinaryOp (%s), got shapes %s and %s",
				axis, opType, lhsShape, rhsShape)
			return
		}
		output.Dimensions[axis] = max(lhsDim, rhsDim)
	}
	return
}

// ComparisonOp returns the broadcast shape with dtype set to Bool, for comparison operations
// (Equal, LessThan, GreaterOrEqual, etc.)
func ComparisonOp(opType optypes.OpType, lhsShape, rhsShape shapes.Shape) (output shapes.Shape, err error) {
	if !ComparisonOperations.Has(opType) {
		err = errors.Errorf("operation %s is not in the ComparisonOperations set, cannot process it with ComparisonOp", opType)
		return
	}
	if lhsShape.DType == dtypes.InvalidDType || rhsShape.DType == dtypes.InvalidDType {
		err = errors.Errorf("invalid shape for %s or %s for ComparisonOp %s", lhsShape, rhsShape, opType)
		return
	}
	if lhsShape.DType != rhsShape.DType {
		err = errors.Errorf("data types (DType) for ComparisonOp %s must match, got %s and %s", opType, lhsShape, rhsShape)
		return
	}
	output, err = binaryOpImpl(opType, lhsShape, rhsShape)
	if err != nil {
		return
	}
	output.DType = dtypes.Bool
	return
}

// UnaryOp checks the validity of the data type for StandardUnaryOperations and returns either an error or
// the output shape, which is the same as the operand.
func UnaryOp(opType optypes.OpType, operand shapes.Shape) (output shapes.Shape, err error) {
	if !StandardUnaryOperations.Has(opType) {
		err = errors.Errorf("operation %s is not in the StandardUnaryOperations set, cannot process it with UnaryOp", opType)
		return
	}
	if operand.DType == dtypes.InvalidDType {
		err = errors.Errorf("invalid shape %s for UnaryOp %s", operand, opType)
		return
	}
	if BooleanOperations.Has(opType) && operand.DType != dtypes.Bool {
		err = errors.Errorf("logical UnaryOp %s must have boolean (dtype.Bool) data types as input, got %s", opType, operand)
		return
	}
	if SignedNumberOperations.Has(opType) && (operand.DType.IsUnsigned() ||
		!(operand.DType.IsInt() || operand.DType.IsFloat() || operand.DType.IsComplex())) {
		err = errors.Errorf("signed UnaryOp %s must have a signed data type as input, got %s", opType, operand)
		return
	}
	if NumberOperations.Has(opType) && !(operand.DType.IsInt() || operand.DType.IsFloat() || operand.DType.IsComplex()) {
		err = errors.Errorf("numeric UnaryOp %s must have a number (Int32, Float32, Complex64, ...) data type as input, got %s", opType, operand)
		return
	}
	if FloatOperations.Has(opType) && !operand.DType.IsFloat() {
		err = errors.Errorf("float UnaryOp %s must have a float (Float32, Float64, ...) data type as input, got %s", opType, operand)
		return
	}
	if FloatOrComplexOperations.Has(opType) && !(operand.DType.IsFloat() || operand.DType.IsComplex()) {
		err = errors.Errorf("float/complex UnaryOp %s must have a float or complex (Float32, Complex64, ...) data type as input, got %s", opType, operand)
		return
	}
	output = operand
	return
}

// WhereOp returns the shape resulting from the Where operation.
//
// Shape constraints for the operation:
//
//  1. The onTrue and onFalse must have the exact same shape, or one can be a scalar.
//  2. The condition must either be a scalar or match the shape of onTrue or onFalse, except for the DType that
//     must be Bool.
func WhereOp(condition, onTrue, onFalse shapes.Shape) (output shapes.Shape, err error) {
	if condition.DType != dtypes.Bool {
		err = errors.Errorf("condition for Where() must be a boolean, got %s instead", condition)
		return
	}
	if !onTrue.IsScalar() && !onFalse.IsScalar() && !onTrue.Equal(onFalse) {
		err = errors.Errorf("onTrue (%s) and onFalse (%s) values for Where() must either be scalar or match each other's shape",
			onTrue, onFalse)
		return
	}
	if onTrue.DType != onFalse.DType {
		err = errors.Errorf("onTrue (%s) and onFalse (%s) values for Where() must have the same data type", onTrue, onFalse)
		return
	}

	output = onTrue
	if output.IsScalar() {
		output = onFalse
		if output.IsScalar() && !condition.IsScalar() {
			output = condition.Clone()
			output.DType = onTrue.DType
		}
	}

	if !condition.IsScalar() && slices.Compare(condition.Dimensions, output.Dimensions) != 0 {
		err = errors.Errorf("condition for Where() must either be a scalar or match the output shape (not the DType), instead got shapes condition=%s, onTrue=%s and onFalse=%s",
			condition, onTrue, onFalse)
		return
	}
	return
}

// ReshapeOp to the given dimensions: trivial output shape, but this function also checks
// that the sizes are the same.
func ReshapeOp(operand shapes.Shape, dims []int) (output shapes.Shape, err error) {
	output = shapes.Make(operand.DType, dims...)
	if operand.Size() != output.Size() {
		err = errors.Errorf("Reshape() cannot reshape %s to dimensions %v, their size don't match",
			operand, dims)
		return shapes.Invalid(), err
	}
	return
}

// TransposeOp all axes of the operand.
// There must be one value in permutations for each axis in the operand.
// The output will have: output.Shape.Dimension[ii] = operand.Shape.Dimension[permutations[i]].
func TransposeOp(operand shapes.Shape, permutations []int) (output shapes.Shape, err error) {
	rank := operand.Rank()
	if len(permutations) != rank {
		err = errors.Errorf("Transpose() requires all axes permutations to be defined, operand has shape %s, but %d permutations were given",
			operand, len(permutations))
		return
	}
	if rank == 0 {
		return operand, nil
	}

	// Check permutation axes are within range and unique.
	axesSet := slices.Clone(permutations)
	slices.Sort(axesSet)
	for ii, srcAxis := range axesSet {
		if srcAxis < 0 || srcAxis >= rank {
			err = errors.Errorf("invalid permutation axis %d given to Transpose(%s), it must be within the range of its rank",
				srcAxis, operand)
			return
		}
		if ii > 0 && srcAxis == axesSet[ii-1] {
			err = errors.Errorf("invalid permutations given to Transpose(%s, %v), there cannot be any repeated axis, each must appear exactly once",
				operand, permutations)
			return
		}
	}

	output = operand.Clone()
	for axis, srcAxis := range permutations {
		output.Dimensions[axis] = operand.Dimensions[srcAxis]
	}
	return
}

// BroadcastOp adds the prefixDims to the operand shape.
func BroadcastOp(operand shapes.Shape, prefixDims []int) (output shapes.Shape, err error) {
	if operand.DType == dtypes.InvalidDType {
		err = errors.Errorf("invalid shape %s for BroadcastOp", operand)
		return
	}
	if len(prefixDims) == 0 {
		return operand, nil
	}
	for _, dim := range prefixDims {
		if dim <= 0 {
			err = errors.Errorf("invalid prefix dimensions %v for BroadcastOp, they must be positive", prefixDims)
			return
		}
	}
	output = shapes.Make(operand.DType)
	output.Dimensions = make([]int, len(prefixDims)+operand.Rank())
	copy(output.Dimensions, prefixDims)
	copy(output.Dimensions[len(prefixDims):], operand.Dimensions)
	return
}

// ReduceOp works for the ReduceMax, ReduceMin, ReduceSum and ReduceProduct ops.
func ReduceOp(opType optypes.OpType, operand shapes.Shape, axes []int) (output shapes.Shape, err error) {
	if !ReduceOperations.Has(opType) {
		err = errors.Errorf("operation %s is not in the ReduceOperations set, cannot process it with ReduceOp", opType)
		return
	}
	if !(operand.DType.IsInt() || operand.DType.IsFloat() || operand.DType.IsComplex()) {
		err = errors.Errorf("ReduceOp %s must have a number data type as input, got %s", opType, operand)
		return
	}
	if len(axes) == 0 {
		return operand, nil
	}
	output = shapes.Make(operand.DType)
	outputRank := operand.Rank() - len(axes)
	if outputRank > 0 {
		// Copy over dimensions that will stay.
		output.Dimensions = make([]int, 0, outputRank)
		for _, axis := range axes {
			if axis < 0 || axis >= operand.Rank() {
				return shapes.Invalid(), errors.Errorf("Reduce operations require each axis to be 0 <= axis < rank, but got invalid axis %d for shape %s", axis, operand)
			}
		}
		axesSet := sets.MakeWith(axes...)
		for axis, dim := range operand.Dimensions {
			if !axesSet.Has(axis) {
				output.Dimensions = append(output.Dimensions, dim)
			}
		}
	}
	return
}

// ConcatenateOp calculates the output shape of a Concatenate operation along the given axis.
func ConcatenateOp(inputs []shapes.Shape, axis int) (output shapes.Shape, err error) {
	if len(inputs) == 0 {
		return shapes.Invalid(), errors.Errorf("ConcatenateOp requires at least one input shape")
	}

	// Initialize output dimensions with the first shape.
	firstShape := inputs[0]
	dtype := firstShape.DType
	rank := firstShape.Rank()
	output = firstShape.Clone()
	if dtype == dtypes.InvalidDType {
		return shapes.Invalid(), errors.Errorf("invalid shape %s for first input of ConcatenateOp", firstShape)
	}
	if len(inputs) == 1 {
		return firstShape, nil
	}

	if axis < 0 || axis >= rank {
		return shapes.Invalid(), errors.Errorf("invalid concatenation axis %d for shapes with rank %d", axis, rank)
	}

	// Validate further inputs and accumulate the concatenation axis size.
	for i := 1; i < len(inputs); i++ {
		currentShape := inputs[i]
		if currentShape.DType == dtypes.InvalidDType {
			return shapes.Invalid(), errors.Errorf("invalid shape %s for input #%d of ConcatenateOp", currentShape, i)
		}
		if currentShape.DType != dtype {
			return shapes.Invalid(), errors.Errorf("mismatched DTypes for ConcatenateOp: input #0 has %s, input #%d has %s",
				dtype, i, currentShape.DType)
		}
		if currentShape.Rank() != rank {
			return shapes.Invalid(), errors.Errorf("mismatched ranks for ConcatenateOp: input #0 has rank %d, input #%d has rank %d",
				rank, i, currentShape.Rank())
		}

		for d := 0; d < rank; d++ {
			if d == axis {
				output.Dimensions[d] += currentShape.Dimensions[d]
			} else {
				if currentShape.Dimensions[d] != output.Dimensions[d] {
					return shapes.Invalid(), errors.Errorf("mismatched dimensions for ConcatenateOp at axis %d (non-concatenation axis): input #0 has %d, input #%d has %d",
						d, output.Dimensions[d], i, currentShape.Dimensions[d])
				}
			}
		}
	}
	return output, nil
}

// SliceOp calculates the output shape of a Slice operation.
func SliceOp(operand shapes.Shape, starts, limits, strides []int) (output shapes.Shape, err error) {
	rank := operand.Rank()
	opName := "SliceOp"
	if operand.DType == dtypes.InvalidDType {
		return shapes.Invalid(), errors.Errorf("%s: invalid operand shape %s", opName, operand)
	}
	if len(starts) != rank {
		return shapes.Invalid(), errors.Errorf("%s: len(starts)=%d, but operand rank is %d", opName, len(starts), rank)
	}
	if len(limits) != rank {
		return shapes.Invalid(), errors.Errorf("%s: len(limits)=%d, but operand rank is %d", opName, len(limits), rank)
	}
	if len(strides) != rank {
		return shapes.Invalid(), errors.Errorf("%s: len(strides)=%d, but operand rank is %d", opName, len(strides), rank)
	}

	output = shapes.Shape{
		DType:      operand.DType,
		Dimensions: make([]int, rank),
	}

	for axis := 0; axis < rank; axis++ {
		start, limit, stride := starts[axis], limits[axis], strides[axis]
		dimSize := operand.Dimensions[axis]

		if stride <= 0 {
			return shapes.Invalid(), errors.Errorf("%s: stride must be positive, but got stride[%d]=%d for operand shape %s",
				opName, axis, stride, operand)
		}
		if start < 0 || start >= dimSize {
			return shapes.Invalid(), errors.Errorf("%s: start index %d is out of bounds for axis %d with size %d (operand shape %s)",
				opName, start, axis, dimSize, operand)
		}
		// Limit can be equal to dimSize.
		if limit < start || limit > dimSize {
			return shapes.Invalid(), errors.Errorf("%s: limit index %d is out of bounds for axis %d (start=%d, size=%d, operand shape %s)",
				opName, limit, axis, start, dimSize, operand)
		}

		// The first one is always taken, so we use the ceiling of the division.
		output.Dimensions[axis] = (limit - start + (stride - 1)) / stride
	}
	return output, nil
}

// ArgMinMaxOp calculates the output shape for an ArgMinMax operation.
// It will be the shape of the operand minus the "reduce" axis.
func ArgMinMaxOp(operand shapes.Shape, axis int, outputDType dtypes.DType) (output shapes.Shape, err error) {
	if !outputDType.IsInt() {
		err = errors.Errorf("ArgMinMax outputDType must be an integer type, got %s", outputDType)
		return
	}
	if !operand.DType.IsFloat() && !operand.DType.IsInt() {
		err = errors.Errorf("ArgMinMax operand DType must be a floating point or integer type, got %s", operand)
		return
	}
	if operand.IsScalar() {
		err = errors.Errorf("ArgMinMax requires a non-scalar operand, got %s", operand)
		return
	}
	if axis < 0 || axis >= operand.Rank() {
		err = errors.Errorf("ArgMinMax axis %d is out of range for operand %s", axis, operand)
		return
	}
	newDims := slices.Clone(operand.Dimensions)
	newDims = slices.Delete(newDims, axis, axis+1)
	output = shapes.Make(outputDType, newDims...)
	return
}

// ConvertDTypeOp returns the operand shape with the target dtype.
func ConvertDTypeOp(operand shapes.Shape, dtype dtypes.DType) (output shapes.Shape, err error) {
	if operand.DType == dtypes.InvalidDType || operand.IsTuple() {
		err = errors.Errorf("invalid or tuple shape %s for ConvertDTypeOp", operand)
		return
	}
	if dtype == dtypes.InvalidDType {
		err = errors.Errorf("invalid target dtype for ConvertDTypeOp(%s)", operand)
		return
	}
	output = operand.Clone()
	output.DType = dtype
	return
}

// TupleOp returns the tuple shape packing the given element shapes.
func TupleOp(elements []shapes.Shape) (output shapes.Shape, err error) {
	if len(elements) == 0 {
		err = errors.Errorf("TupleOp requires at least one element")
		return
	}
	for ii, element := range elements {
		if !element.Ok() {
			err = errors.Errorf("invalid shape %s for element #%d of TupleOp", element, ii)
			return
		}
	}
	return shapes.MakeTuple(slices.Clone(elements)), nil
}

// GetTupleElementOp returns the shape of the tuple element at the given index.
func GetTupleElementOp(tuple shapes.Shape, index int) (output shapes.Shape, err error) {
	if !tuple.IsTuple() {
		err = errors.Errorf("GetTupleElementOp requires a tuple shape, got %s", tuple)
		return
	}
	if index < 0 || index >= tuple.TupleSize() {
		err = errors.Errorf("GetTupleElementOp index %d out of range for tuple %s", index, tuple)
		return
	}
	return tuple.TupleShapes[index].Clone(), nil
}

// DotGeneralOp calculates the output shape of a DotGeneral (generalized "Einsum") operation.
// Each axis of lhs and rhs can be batch (aligned in both operands and in the output), contracting
// (multiplied and summed away) or crossed (concatenated in the output).
//
// The resulting dimensions start with the batch dimensions, then the lhs cross dimensions and
// finally the rhs cross dimensions.
//
// outputDType overrides the dtype of the output shape. If set to dtypes.InvalidDType the output
// keeps the operands' dtype.
func DotGeneralOp(lhs shapes.Shape, lhsContractingAxes, lhsBatchAxes []int,
	rhs shapes.Shape, rhsContractingAxes, rhsBatchAxes []int, outputDType dtypes.DType) (output shapes.Shape, err error) {
	dtype := lhs.DType
	if dtype == dtypes.InvalidDType || rhs.DType == dtypes.InvalidDType {
		return shapes.Invalid(), errors.Errorf("invalid shape for lhs (%s) or rhs (%s) for DotGeneralOp", lhs, rhs)
	}
	if dtype != rhs.DType {
		return shapes.Invalid(), errors.Errorf("DotGeneral lhs (left-hand-side) and rhs operands don't match data types: %s and %s", dtype, rhs.DType)
	}
	if !(dtype.IsInt() || dtype.IsFloat() || dtype.IsComplex()) {
		return shapes.Invalid(), errors.Errorf("DotGeneral requires a number data type as input, got %s", lhs)
	}
	if len(lhsContractingAxes) != len(rhsContractingAxes) {
		return shapes.Invalid(), errors.Errorf("DotGeneral number of contracting axes for lhs (%d) doesn't match rhs (%d)",
			len(lhsContractingAxes), len(rhsContractingAxes))
	}
	if len(lhsBatchAxes) != len(rhsBatchAxes) {
		return shapes.Invalid(), errors.Errorf("DotGeneral number of batch axes for lhs (%d) doesn't match rhs (%d)",
			len(lhsBatchAxes), len(rhsBatchAxes))
	}

	lhsUsed, err := dotGeneralUsedAxes("lhs", lhs, lhsContractingAxes, lhsBatchAxes)
	if err != nil {
		return shapes.Invalid(), err
	}
	rhsUsed, err := dotGeneralUsedAxes("rhs", rhs, rhsContractingAxes, rhsBatchAxes)
	if err != nil {
		return shapes.Invalid(), err
	}

	// Check that batch and contracting dimensions from lhs and rhs match.
	for ii, lhsAxis := range lhsContractingAxes {
		rhsAxis := rhsContractingAxes[ii]
		if lhs.Dimensions[lhsAxis] != rhs.Dimensions[rhsAxis] {
			return shapes.Invalid(), errors.Errorf("DotGeneral contracting dimensions don't match: lhs[%d]=%d != rhs[%d]=%d",
				lhsAxis, lhs.Dimensions[lhsAxis], rhsAxis, rhs.Dimensions[rhsAxis])
		}
	}
	batchDims := make([]int, len(lhsBatchAxes))
	for ii, lhsAxis := range lhsBatchAxes {
		rhsAxis := rhsBatchAxes[ii]
		if lhs.Dimensions[lhsAxis] != rhs.Dimensions[rhsAxis] {
			return shapes.Invalid(), errors.Errorf("DotGeneral batch dimensions don't match: lhs[%d]=%d != rhs[%d]=%d",
				lhsAxis, lhs.Dimensions[lhsAxis], rhsAxis, rhs.Dimensions[rhsAxis])
		}
		batchDims[ii] = lhs.Dimensions[lhsAxis]
	}

	// Output: batch dimensions, then lhs cross dimensions, then rhs cross dimensions.
	outDims := slices.Clone(batchDims)
	for axis, dim := range lhs.Dimensions {
		if !lhsUsed.Has(axis) {
			outDims = append(outDims, dim)
		}
	}
	for axis, dim := range rhs.Dimensions {
		if !rhsUsed.Has(axis) {
			outDims = append(outDims, dim)
		}
	}

	if outputDType == dtypes.InvalidDType {
		outputDType = dtype
	}
	return shapes.Make(outputDType, outDims...), nil
}

// dotGeneralUsedAxes validates the contracting/batch axes of one DotGeneral operand and returns
// the set of axes taken by them.
func dotGeneralUsedAxes(side string, operand shapes.Shape, contractingAxes, batchAxes []int) (sets.Set[int], error) {
	used := sets.Make[int](len(contractingAxes) + len(batchAxes))
	for _, axes := range [][]int{contractingAxes, batchAxes} {
		for _, axis := range axes {
			if axis < 0 || axis >= operand.Rank() {
				return nil, errors.Errorf("DotGeneral axis %d out of range for %s shape %s", axis, side, operand)
			}
			if used.Has(axis) {
				return nil, errors.Errorf("DotGeneral axis %d of %s (shape %s) used more than once across contracting/batch axes", axis, side, operand)
			}
			used.Insert(axis)
		}
	}
	return used, nil
}

// ConvGeneralOp calculates the output shape of a ConvGeneral operation with the channels-first
// layout: input is [batch, inChannels, spatial...], kernel is [outChannels, inChannels, spatial...].
//
// strides must have one value per spatial axis; paddings is optional (nil means no padding) and
// gives the low/high padding per spatial axis.
//
// outputDType overrides the dtype of the output shape. If set to dtypes.InvalidDType the output
// keeps the operands' dtype.
func ConvGeneralOp(input, kernel shapes.Shape, strides []int, paddings [][2]int, outputDType dtypes.DType) (output shapes.Shape, err error) {
	if input.DType == dtypes.InvalidDType || kernel.DType == dtypes.InvalidDType {
		return shapes.Invalid(), errors.Errorf("invalid shape for input (%s) or kernel (%s) for ConvGeneralOp", input, kernel)
	}
	if input.DType != kernel.DType {
		return shapes.Invalid(), errors.Errorf("ConvGeneral input and kernel don't match data types: %s and %s", input.DType, kernel.DType)
	}
	if !input.DType.IsFloat() {
		return shapes.Invalid(), errors.Errorf("ConvGeneral requires a float data type as input, got %s", input)
	}
	if input.Rank() < 3 {
		return shapes.Invalid(), errors.Errorf("ConvGeneral input must have rank >= 3 ([batch, channels, spatial...]), got %s", input)
	}
	if kernel.Rank() != input.Rank() {
		return shapes.Invalid(), errors.Errorf("ConvGeneral kernel rank (%d) must match input rank (%d)", kernel.Rank(), input.Rank())
	}
	numSpatial := input.Rank() - 2
	if len(strides) != numSpatial {
		return shapes.Invalid(), errors.Errorf("ConvGeneral strides (%v) must provide one value for each of the %d spatial axes", strides, numSpatial)
	}
	if paddings != nil && len(paddings) != numSpatial {
		return shapes.Invalid(), errors.Errorf("ConvGeneral paddings (%v) must provide one value for each of the %d spatial axes", paddings, numSpatial)
	}
	if input.Dimensions[1] != kernel.Dimensions[1] {
		return shapes.Invalid(), errors.Errorf("ConvGeneral input channels (%d) don't match kernel input channels (%d)",
			input.Dimensions[1], kernel.Dimensions[1])
	}

	outDims := make([]int, input.Rank())
	outDims[0] = input.Dimensions[0]  // Batch.
	outDims[1] = kernel.Dimensions[0] // Output channels.
	for ii := 0; ii < numSpatial; ii++ {
		stride := strides[ii]
		if stride <= 0 {
			return shapes.Invalid(), errors.Errorf("ConvGeneral stride must be positive, got strides[%d]=%d", ii, stride)
		}
		inDim := input.Dimensions[2+ii]
		kernelDim := kernel.Dimensions[2+ii]
		if paddings != nil {
			inDim += paddings[ii][0] + paddings[ii][1]
		}
		if kernelDim > inDim {
			return shapes.Invalid(), errors.Errorf("ConvGeneral kernel spatial dimension #%d (%d) larger than padded input (%d)",
				ii, kernelDim, inDim)
		}
		outDims[2+ii] = (inDim-kernelDim)/stride + 1
	}

	if outputDType == dtypes.InvalidDType {
		outputDType = input.DType
	}
	return shapes.Make(outputDType, outDims...), nil
}
