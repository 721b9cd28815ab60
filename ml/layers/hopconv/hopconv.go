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

// Package hopconv implements graph neural network layers that learn a
// feature-dependent adjacency before message passing.
//
// Three composable layers, used leaf-to-root:
//
//  1. PowerOperator: from a raw 0/1 adjacency matrix, builds the set of hop
//     operators {A⁰, A¹, ..., Aᵖ} via adjacency matrix powers.
//  2. Adjacency: replaces each connected entry of every hop operator with
//     the Euclidean distance between the two nodes' feature vectors, then
//     refines each matrix with a dedicated 2-layer MLP over its flattened
//     form.
//  3. GraphConvolution: aggregates node features across all hops with one
//     trainable kernel per hop, sums and applies a ReLU.
//
// Pipeline composes the three from a shared Config and exposes the
// intermediate outputs, which cross layer boundaries and are observable.
//
// All layers are pure forward computations: trainable weights are created at
// construction time and only read during Apply. Updating them is the job of
// an external optimizer, through Variables.
package hopconv

import (
	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/hopgnn/hopgnn/ml/initializers"
	"github.com/hopgnn/hopgnn/types/shapes"
	"github.com/hopgnn/hopgnn/types/tensors"
)

const (
	// DefaultMaxNodes is the default graph size (node count) layers are
	// built for.
	DefaultMaxNodes = 50

	// DefaultNumFeatures is the default node feature dimension.
	DefaultNumFeatures = 50

	// DefaultPower is the default exploration depth: power+1 hop operators
	// are produced and consumed.
	DefaultPower = 2

	// DefaultInitialStddev is the standard deviation of the random-normal
	// initializer used for weights when none is configured.
	DefaultInitialStddev = 0.05
)

// Config carries the hyperparameters shared by the layers of a pipeline.
//
// Create it with NewConfig, change defaults with the With* methods (they
// return the Config, so calls can be chained) and pass it to the layer
// constructors. The same Config value can be used to build all three layers,
// which guarantees they agree on sizes.
type Config struct {
	maxNodes    int
	numFeatures int
	power       int
	dtype       dtypes.DType
	initializer initializers.VariableInitializer
}

// NewConfig returns a Config with the default hyperparameters: 50 nodes, 50
// features, power 2 (3 hop operators), Float32, random-normal initialization.
func NewConfig() *Config {
	return &Config{
		maxNodes:    DefaultMaxNodes,
		numFeatures: DefaultNumFeatures,
		power:       DefaultPower,
		dtype:       dtypes.Float32,
		initializer: initializers.RandomNormalFn(0, DefaultInitialStddev),
	}
}

// WithMaxNodes sets the graph size N the layers are built for. Inputs with a
// different node count fail the forward pass.
func (c *Config) WithMaxNodes(maxNodes int) *Config {
	c.maxNodes = maxNodes
	return c
}

// WithNumFeatures sets the node feature dimension F.
func (c *Config) WithNumFeatures(numFeatures int) *Config {
	c.numFeatures = numFeatures
	return c
}

// WithPower sets the exploration depth: layers produce and consume power+1
// hop operators. Must be at least 1.
func (c *Config) WithPower(power int) *Config {
	c.power = power
	return c
}

// WithDType sets the dtype of the weights and of all inputs and outputs.
// Only Float32 and Float64 are supported.
func (c *Config) WithDType(dtype dtypes.DType) *Config {
	c.dtype = dtype
	return c
}

// WithInitializer sets the initializer used to create the trainable weights.
func (c *Config) WithInitializer(initializer initializers.VariableInitializer) *Config {
	c.initializer = initializer
	return c
}

// MaxNodes returns the configured graph size.
func (c *Config) MaxNodes() int { return c.maxNodes }

// NumFeatures returns the configured node feature dimension.
func (c *Config) NumFeatures() int { return c.numFeatures }

// Power returns the configured exploration depth. Layers work with power+1
// hop operators.
func (c *Config) Power() int { return c.power }

// DType returns the configured dtype.
func (c *Config) DType() dtypes.DType { return c.dtype }

// validate panics on invalid hyperparameters. Called by layer constructors:
// a bad Config is a programming error, not an input error.
func (c *Config) validate() {
	if c.maxNodes <= 0 {
		Panicf("hopconv: maxNodes must be positive, got %d", c.maxNodes)
	}
	if c.numFeatures <= 0 {
		Panicf("hopconv: numFeatures must be positive, got %d", c.numFeatures)
	}
	if c.power < 1 {
		Panicf("hopconv: power must be at least 1, got %d", c.power)
	}
	if c.dtype != dtypes.Float32 && c.dtype != dtypes.Float64 {
		Panicf("hopconv: dtype must be Float32 or Float64, got %s", c.dtype)
	}
	if c.initializer == nil {
		Panicf("hopconv: initializer must not be nil")
	}
}

// squeezeBatch drops a leading singleton batch axis, if present, when the
// remaining dimensions have the wanted rank. It returns the shape to operate
// on. The flat data is unaffected by the squeeze.
func squeezeBatch(shape shapes.Shape, wantRank int) shapes.Shape {
	if shape.Rank() == wantRank+1 && shape.Dimensions[0] == 1 {
		return shape.Squeeze(0)
	}
	return shape
}

// zerosLike returns a zero-initialized tensor of the given dimensions with
// the layer dtype.
func zerosLike(dtype dtypes.DType, dimensions ...int) *tensors.Tensor {
	return tensors.FromShape(shapes.Make(dtype, dimensions...))
}
