// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"reflect"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
)

// ScalarToFlat converts a scalar value to a flat slice with one element of the given dtype.
// It returns nil for dtypes it cannot represent.
func ScalarToFlat[T interface{ float64 | int | int64 }](value T, dtype dtypes.DType) any {
	switch dtype {
	case dtypes.Float32:
		return []float32{float32(value)}
	case dtypes.Float64:
		return []float64{float64(value)}
	case dtypes.Int8:
		return []int8{int8(value)}
	case dtypes.Int16:
		return []int16{int16(value)}
	case dtypes.Int32:
		return []int32{int32(value)}
	case dtypes.Int64:
		return []int64{int64(value)}
	case dtypes.Uint8:
		return []uint8{uint8(value)}
	case dtypes.Uint16:
		return []uint16{uint16(value)}
	case dtypes.Uint32:
		return []uint32{uint32(value)}
	case dtypes.Uint64:
		return []uint64{uint64(value)}
	case dtypes.Complex64:
		return []complex64{complex(float32(value), 0)}
	case dtypes.Complex128:
		return []complex128{complex(float64(value), 0)}
	case dtypes.BFloat16:
		return []bfloat16.BFloat16{bfloat16.FromFloat32(float32(value))}
	case dtypes.Float16:
		return []float16.Float16{float16.Fromfloat32(float32(value))}
	case dtypes.Bool:
		return []bool{value != 0}
	default:
		return nil
	}
}

// FilledFlat returns a flat slice with size elements of the given dtype, all set to value.
// It returns nil for dtypes it cannot represent.
func FilledFlat[T interface{ float64 | int | int64 }](value T, dtype dtypes.DType, size int) any {
	one := ScalarToFlat(value, dtype)
	if one == nil {
		return nil
	}
	oneV := reflect.ValueOf(one)
	flatV := reflect.MakeSlice(oneV.Type(), size, size)
	elemV := oneV.Index(0)
	for ii := 0; ii < size; ii++ {
		flatV.Index(ii).Set(elemV)
	}
	return flatV.Interface()
}
