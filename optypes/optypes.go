// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package optypes enumerates the operations of the computation graph IR.
//
// The set covers the usual tensor operations a front-end emits: element-wise
// math, comparisons, shape manipulation, reductions, the contracting ops
// (DotGeneral, ConvGeneral) and the structural nodes (Parameter, Constant,
// Tuple, GetTupleElement, Call).
package optypes

// OpType is an enum of all operations supported by the graph IR.
type OpType int

//go:generate go tool enumer -type=OpType -output=gen_optype_enumer.go optypes.go

const (
	Invalid OpType = iota

	// Leaf and structural operations.

	Parameter
	Constant
	Identity
	Tuple
	GetTupleElement
	Call

	Abs
	Add
	ArgMinMax
	Broadcast
	Ceil
	Concatenate
	ConvGeneral
	ConvertDType
	Cos
	Div
	DotGeneral
	Equal
	Erf
	Exp
	Expm1
	Floor
	GreaterOrEqual
	GreaterThan
	LessOrEqual
	LessThan
	Log
	Log1p
	LogicalAnd
	LogicalNot
	LogicalOr
	LogicalXor
	Logistic
	Max
	Min
	Mul
	Neg
	NotEqual
	Pow
	ReduceMax
	ReduceMin
	ReduceProduct
	ReduceSum
	Rem
	Reshape
	Round
	Rsqrt
	Sign
	Sin
	Slice
	Sqrt
	Sub
	Tanh
	Transpose
	Where

	// Last should always be kept the last, it is used as a counter/marker for OpType.
	Last
)
