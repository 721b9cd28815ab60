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

// Package variables holds the named, materialized weights of layers.
//
// Layers create their variables at construction time with an initializer,
// and read them during Apply. Checkpointing code enumerates them by name.
package variables

import (
	"fmt"

	. "github.com/gomlx/exceptions"
	"github.com/hopgnn/hopgnn/ml/initializers"
	"github.com/hopgnn/hopgnn/types/shapes"
	"github.com/hopgnn/hopgnn/types/tensors"
)

// Variable is a named tensor owned by a layer.
//
// The value can be read with Value and replaced with SetValue. Replacing the
// value requires the same shape: a variable's shape is fixed at creation.
type Variable struct {
	name string

	// Trainable indicates whether the variable is updated by training. If set
	// to false it won't be touched by optimizers.
	Trainable bool

	value *tensors.Tensor
}

// New creates a variable with the given name and shape, initialized with the
// given initializer. Variables start trainable.
func New(name string, shape shapes.Shape, initializer initializers.VariableInitializer) *Variable {
	if name == "" {
		Panicf("variables.New requires a non-empty name")
	}
	value := initializer(shape)
	if err := value.Shape().Check(shape.DType, shape.Dimensions...); err != nil {
		Panicf("initializer for variable %q: %v", name, err)
	}
	return &Variable{name: name, Trainable: true, value: value}
}

// Name of the variable.
func (v *Variable) Name() string {
	v.AssertValid()
	return v.name
}

// String implements stringer.
func (v *Variable) String() string {
	if v == nil || v.value == nil {
		return "INVALID (NIL) VARIABLE"
	}
	return fmt.Sprintf("%s: %s", v.name, v.value.Shape())
}

// AssertValid panics if the variable is in an invalid state: if it's nil or
// its value was never set.
func (v *Variable) AssertValid() {
	if v == nil {
		Panicf("variables.Variable is nil")
	}
	if v.value == nil {
		Panicf("variables.Variable %q has no value", v.name)
	}
	v.value.AssertValid()
}

// Shape of the variable's value.
func (v *Variable) Shape() shapes.Shape {
	v.AssertValid()
	return v.value.Shape()
}

// Value returns the current value of the variable.
//
// The returned tensor is the variable's own storage, not a copy.
func (v *Variable) Value() *tensors.Tensor {
	v.AssertValid()
	return v.value
}

// SetValue replaces the variable's value. The new value must have the same
// shape as the current one.
func (v *Variable) SetValue(value *tensors.Tensor) {
	v.AssertValid()
	value.AssertValid()
	if !value.Shape().Equal(v.value.Shape()) {
		Panicf("variable %q has shape %s, cannot set value with shape %s",
			v.name, v.value.Shape(), value.Shape())
	}
	v.value = value
}

// SetTrainable sets the trainable status and returns the variable, so calls
// can be chained.
func (v *Variable) SetTrainable(trainable bool) *Variable {
	v.Trainable = trainable
	return v
}
