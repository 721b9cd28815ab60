// Copyright 2025 The HopGNN Authors. SPDX-License-Identifier: Apache-2.0

package hopconv

import (
	"fmt"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/hopgnn/hopgnn/internal/kernels"
	"github.com/hopgnn/hopgnn/ml/variables"
	"github.com/hopgnn/hopgnn/types/shapes"
	"github.com/hopgnn/hopgnn/types/tensors"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
)

// GraphConvolution aggregates node features across hops.
//
// Given node features X ([N,F]) and the learned adjacency matrices A_k, it
// computes ReLU(Σ_k A_k @ X @ W_k), with one trainable [F,F] kernel W_k per
// hop. The output has the same [N,F] shape as the input features.
type GraphConvolution struct {
	numFeatures int
	power       int
	dtype       dtypes.DType

	// kernels[k] is the [F,F] weight of hop k.
	kernels []*variables.Variable
}

// NewGraphConvolution builds the layer and its power+1 kernels of shape
// [F,F]. It panics on an invalid config.
func NewGraphConvolution(config *Config) *GraphConvolution {
	config.validate()
	l := &GraphConvolution{
		numFeatures: config.numFeatures,
		power:       config.power,
		dtype:       config.dtype,
		kernels:     make([]*variables.Variable, config.power+1),
	}
	kernelShape := shapes.Make(l.dtype, l.numFeatures, l.numFeatures)
	for k := range l.kernels {
		l.kernels[k] = variables.New(fmt.Sprintf("convolution/hop%d/kernel", k), kernelShape, config.initializer)
	}
	return l
}

// Apply returns the updated node features, shape [N,F].
//
// learnedOps must have power+1 square [N,N] entries and nodeVec must be
// [N,F] with F == numFeatures and matching N. A leading singleton batch axis
// is squeezed. Violations return an error wrapping ErrShape.
//
// Unlike PowerOperator, the learned operators here are real-valued, so no
// 0/1 validation applies.
func (l *GraphConvolution) Apply(nodeVec *tensors.Tensor, learnedOps []*tensors.Tensor) (*tensors.Tensor, error) {
	n, err := l.validateInputs(nodeVec, learnedOps)
	if err != nil {
		return nil, err
	}
	switch l.dtype {
	case dtypes.Float64:
		return convolutionApply[float64](l, nodeVec, learnedOps, n), nil
	default:
		return convolutionApply[float32](l, nodeVec, learnedOps, n), nil
	}
}

// MustApply is like Apply but panics on error. For tests and tools.
func (l *GraphConvolution) MustApply(nodeVec *tensors.Tensor, learnedOps []*tensors.Tensor) *tensors.Tensor {
	return must.M1(l.Apply(nodeVec, learnedOps))
}

// Variables returns the layer's trainable variables: one kernel per hop, in
// hop order.
func (l *GraphConvolution) Variables() []*variables.Variable {
	return append([]*variables.Variable{}, l.kernels...)
}

// validateInputs returns the node count N on success.
func (l *GraphConvolution) validateInputs(nodeVec *tensors.Tensor, learnedOps []*tensors.Tensor) (int, error) {
	if len(learnedOps) != l.power+1 {
		return 0, errors.WithMessagef(ErrShape, "got %d learned operators, layer built for %d", len(learnedOps), l.power+1)
	}
	nodeVec.AssertValid()
	vecShape := squeezeBatch(nodeVec.Shape(), 2)
	if err := vecShape.Check(l.dtype, shapes.UncheckedAxis, l.numFeatures); err != nil {
		return 0, errors.WithMessagef(ErrShape, "node features: %v", err)
	}
	n := vecShape.Dim(0)
	for k, learnedOp := range learnedOps {
		learnedOp.AssertValid()
		if err := squeezeBatch(learnedOp.Shape(), 2).Check(l.dtype, n, n); err != nil {
			return 0, errors.WithMessagef(ErrShape, "learned operator #%d: %v", k, err)
		}
	}
	return n, nil
}

func convolutionApply[T float32 | float64](l *GraphConvolution, nodeVec *tensors.Tensor, learnedOps []*tensors.Tensor, n int) *tensors.Tensor {
	f := l.numFeatures
	result := zerosLike(l.dtype, n, f)
	propagated := make([]T, n*f) // A_k @ X
	product := make([]T, n*f)    // A_k @ X @ W_k
	tensors.ConstFlatData(nodeVec, func(features []T) {
		tensors.MutableFlatData(result, func(sum []T) {
			for k, learnedOp := range learnedOps {
				tensors.ConstFlatData(learnedOp, func(opFlat []T) {
					kernels.MatMul(opFlat, features, n, n, f, propagated)
				})
				tensors.ConstFlatData(l.kernels[k].Value(), func(kernel []T) {
					kernels.MatMul(propagated, kernel, n, f, f, product)
				})
				kernels.Add(sum, product, sum)
			}
			kernels.ReLU(sum, sum)
		})
	})
	return result
}
