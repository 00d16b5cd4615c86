// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ir

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"

	"github.com/gomlx/mixprec/shapes"
)

const (
	MaxSizeToPrint = 5
)

// DTypeConfig configures the data types used internally by operations that
// support a separate accumulation precision (DotGeneral and ConvGeneral).
//
// The zero value of each field (dtypes.InvalidDType) selects the default,
// which is the dtype of the operands.
type DTypeConfig struct {
	// AccumulatorDType is the dtype used to accumulate partial results.
	AccumulatorDType dtypes.DType

	// OutputDType is the dtype of the operation result.
	OutputDType dtypes.DType
}

// IsDefault returns whether both dtypes are unset, meaning the operation uses
// the operands' dtype throughout.
func (c DTypeConfig) IsDefault() bool {
	return c.AccumulatorDType == dtypes.InvalidDType && c.OutputDType == dtypes.InvalidDType
}

func (c DTypeConfig) String() string {
	if c.IsDefault() {
		return "default"
	}
	return fmt.Sprintf("accumulator=%s, output=%s", c.AccumulatorDType, c.OutputDType)
}

// Function declares the signature of a sub-computation that can be invoked
// with Call. The body of the function is owned by the host compiler and is
// opaque to this IR: only the signature matters here.
type Function struct {
	// Name of the sub-computation, used to link back to its definition.
	Name string

	// Inputs are the shapes of the arguments the function expects.
	Inputs []shapes.Shape

	// Output is the shape of the value the function returns.
	Output shapes.Shape
}

func (f *Function) String() string {
	inputs := make([]string, len(f.Inputs))
	for ii, s := range f.Inputs {
		inputs[ii] = s.String()
	}
	return fmt.Sprintf("%s(%s) -> %s", f.Name, strings.Join(inputs, ", "), f.Output)
}

// ParameterData annotates a Parameter node.
type ParameterData struct {
	Name   string
	Handle ParameterHandle
}

func (pd *ParameterData) String() string {
	return fmt.Sprintf("name=%q", pd.Name)
}

// ConstantData annotates a Constant node: Flat is the flattened values, a
// slice of the Go type corresponding to the node's dtype.
type ConstantData struct {
	Flat any
	Dims []int
}

func (cd *ConstantData) String() string {
	flatV := reflect.ValueOf(cd.Flat)
	if flatV.Len() <= MaxSizeToPrint {
		return fmt.Sprintf("value=%v", cd.Flat)
	}
	return fmt.Sprintf("value=(%d values)", flatV.Len())
}

// TupleElementData annotates a GetTupleElement node with the element index.
type TupleElementData struct {
	Index int
}

func (td *TupleElementData) String() string {
	return fmt.Sprintf("index=%d", td.Index)
}

// CallData annotates a Call node with the signature of the sub-computation it
// invokes.
type CallData struct {
	Callee *Function
}

func (cd *CallData) String() string {
	return fmt.Sprintf("callee=%q", cd.Callee.Name)
}

// ConvertDTypeData annotates a ConvertDType node with the destination dtype.
type ConvertDTypeData struct {
	DType dtypes.DType
}

func (cd *ConvertDTypeData) String() string {
	return fmt.Sprintf("dtype=%s", cd.DType)
}

// BroadcastData annotates a Broadcast node with the dimensions prepended to
// the operand shape.
type BroadcastData struct {
	PrefixDims []int
}

func (bd *BroadcastData) String() string {
	return fmt.Sprintf("prefixDims=%v", bd.PrefixDims)
}

// ConcatenateData annotates a Concatenate node with the axis along which the
// operands are joined.
type ConcatenateData struct {
	Axis int
}

func (cd *ConcatenateData) String() string {
	return fmt.Sprintf("axis=%d", cd.Axis)
}

// ReshapeData annotates a Reshape node with the target dimensions.
type ReshapeData struct {
	Dims []int
}

func (rd *ReshapeData) String() string {
	return fmt.Sprintf("dims=%v", rd.Dims)
}

// SliceData annotates a Slice node: for each axis, the start (inclusive),
// limit (exclusive) and stride of the slice.
type SliceData struct {
	Starts  []int
	Limits  []int
	Strides []int
}

func (sd *SliceData) String() string {
	return fmt.Sprintf("starts=%v, limits=%v, strides=%v", sd.Starts, sd.Limits, sd.Strides)
}

// TransposeData annotates a Transpose node with the axes permutation.
type TransposeData struct {
	Permutation []int
}

func (td *TransposeData) String() string {
	return fmt.Sprintf("permutation=%v", td.Permutation)
}

// ReduceData annotates the Reduce* nodes with the axes being reduced.
type ReduceData struct {
	Axes []int
}

func (rd *ReduceData) String() string {
	return fmt.Sprintf("axes=%v", rd.Axes)
}

// ArgMinMaxData annotates an ArgMinMax node.
type ArgMinMaxData struct {
	Axis        int
	OutputDType dtypes.DType
	IsMin       bool
}

func (ad *ArgMinMaxData) String() string {
	return fmt.Sprintf("axis=%d, outputDType=%s, isMin=%v", ad.Axis, ad.OutputDType, ad.IsMin)
}

// DotGeneralData annotates a DotGeneral node with the contraction spec and the
// optional accumulator/output dtype configuration.
type DotGeneralData struct {
	LhsContractingAxes []int
	LhsBatchAxes       []int
	RhsContractingAxes []int
	RhsBatchAxes       []int

	// Config selects the accumulation and output precision.
	// The zero value means same as the operands.
	Config DTypeConfig
}

func (dd *DotGeneralData) String() string {
	desc := fmt.Sprintf("lhsContracting=%v, lhsBatch=%v, rhsContracting=%v, rhsBatch=%v",
		dd.LhsContractingAxes, dd.LhsBatchAxes, dd.RhsContractingAxes, dd.RhsBatchAxes)
	if dd.Config.IsDefault() {
		return desc
	}
	return fmt.Sprintf("%s, %s", desc, dd.Config)
}

// ConvGeneralData annotates a ConvGeneral node: per spatial axis, the kernel
// stride and the low/high padding, plus the optional accumulator/output dtype
// configuration.
type ConvGeneralData struct {
	Strides  []int
	Paddings [][2]int

	// Config selects the accumulation and output precision.
	// The zero value means same as the operands.
	Config DTypeConfig
}

func (cd *ConvGeneralData) String() string {
	desc := fmt.Sprintf("strides=%v, paddings=%v", cd.Strides, cd.Paddings)
	if cd.Config.IsDefault() {
		return desc
	}
	return fmt.Sprintf("%s, %s", desc, cd.Config)
}
