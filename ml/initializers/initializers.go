/*
 *	Copyright 2025 The HopGNN Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package initializers include several weight initializers, used to create
// the initial values of layer variables.
//
// They implement the VariableInitializer type.
package initializers

import (
	"reflect"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/hopgnn/hopgnn/types/shapes"
	"github.com/hopgnn/hopgnn/types/tensors"
	"golang.org/x/exp/rand"
)

// VariableInitializer builds a tensor with the initial value for a variable
// of the given shape.
type VariableInitializer func(shape shapes.Shape) *tensors.Tensor

// Zero initializes variables with zero.
func Zero(shape shapes.Shape) *tensors.Tensor {
	return tensors.FromShape(shape)
}

// One initializes variables with one.
func One(shape shapes.Shape) *tensors.Tensor {
	return constantInitializer(shape, 1)
}

// Constant returns an initializer that sets every element to the given value,
// converted to the variable's dtype.
func Constant(value float64) VariableInitializer {
	return func(shape shapes.Shape) *tensors.Tensor {
		return constantInitializer(shape, value)
	}
}

func constantInitializer(shape shapes.Shape, value float64) *tensors.Tensor {
	t := tensors.FromShape(shape)
	switch shape.DType {
	case dtypes.Float32:
		fillFlat(t, float32(value))
	case dtypes.Float64:
		fillFlat(t, value)
	default:
		// Other dtypes (integers, Float16, Bool): cast the value once and
		// fill through reflection.
		fillValue := reflect.ValueOf(shapes.CastAsDType(value, shape.DType))
		t.MutableFlatData(func(flat any) {
			flatV := reflect.ValueOf(flat)
			for ii := range flatV.Len() {
				flatV.Index(ii).Set(fillValue)
			}
		})
	}
	return t
}

func fillFlat[T float32 | float64](t *tensors.Tensor, value T) {
	tensors.MutableFlatData(t, func(flat []T) {
		for ii := range flat {
			flat[ii] = value
		}
	})
}

// RandomNormalFn returns an initializer that generates random normal values
// with the given standard deviation and mean of zero.
//
// A seed of 0 selects a randomized seed. Initializers created with the same
// non-zero seed generate the same sequence of variables.
//
// It only supports float dtypes.
func RandomNormalFn(seed uint64, stddev float64) VariableInitializer {
	rng := newRng(seed)
	return func(shape shapes.Shape) *tensors.Tensor {
		t := tensors.FromShape(shape)
		switch shape.DType {
		case dtypes.Float32:
			tensors.MutableFlatData(t, func(flat []float32) {
				for ii := range flat {
					flat[ii] = float32(rng.NormFloat64() * stddev)
				}
			})
		case dtypes.Float64:
			tensors.MutableFlatData(t, func(flat []float64) {
				for ii := range flat {
					flat[ii] = rng.NormFloat64() * stddev
				}
			})
		default:
			exceptions.Panicf("RandomNormalFn does not support dtype %s", shape.DType)
		}
		return t
	}
}

// RandomUniformFn returns an initializer that generates uniform values in the
// range [min, max). Same seed semantics as RandomNormalFn.
func RandomUniformFn(seed uint64, min, max float64) VariableInitializer {
	rng := newRng(seed)
	return func(shape shapes.Shape) *tensors.Tensor {
		t := tensors.FromShape(shape)
		spread := max - min
		switch shape.DType {
		case dtypes.Float32:
			tensors.MutableFlatData(t, func(flat []float32) {
				for ii := range flat {
					flat[ii] = float32(rng.Float64()*spread + min)
				}
			})
		case dtypes.Float64:
			tensors.MutableFlatData(t, func(flat []float64) {
				for ii := range flat {
					flat[ii] = rng.Float64()*spread + min
				}
			})
		default:
			exceptions.Panicf("RandomUniformFn does not support dtype %s", shape.DType)
		}
		return t
	}
}

func newRng(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewSource(seed))
}
