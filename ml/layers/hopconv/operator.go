// Copyright 2025 The HopGNN Authors. SPDX-License-Identifier: Apache-2.0

package hopconv

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/hopgnn/hopgnn/internal/kernels"
	"github.com/hopgnn/hopgnn/types/tensors"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
)

// PowerOperator builds the hop operator set of a graph: the matrix powers of
// its adjacency matrix.
//
// Apply on an [N,N] adjacency returns power+1 operators: slot 0 is the N×N
// identity, slot 1 is adj@adj and each following slot multiplies the previous
// one by adj once more. Nonzero entry (i,j) of slot k≥1 means node j is
// reachable from node i in k+1 edge traversals, and the entry carries the
// number of such paths.
//
// The layer is pure: it has no trainable state and no side effects.
type PowerOperator struct {
	power int
	dtype dtypes.DType
}

// NewPowerOperator builds a PowerOperator from the config. It panics on an
// invalid config.
func NewPowerOperator(config *Config) *PowerOperator {
	config.validate()
	return &PowerOperator{power: config.power, dtype: config.dtype}
}

// Apply computes the hop operator set for the given adjacency matrix.
//
// adj must be a square [N,N] matrix (a leading singleton batch axis, as in
// [1,N,N], is squeezed away) with only 0 and 1 entries, and the layer's
// dtype. It returns power+1 tensors of shape [N,N].
//
// Returns an error wrapping ErrShape if adj is not square (or has the wrong
// dtype), and one wrapping ErrAdjacencyValue if any entry is not 0 or 1.
func (op *PowerOperator) Apply(adj *tensors.Tensor) ([]*tensors.Tensor, error) {
	adj.AssertValid()
	if adj.DType() != op.dtype {
		return nil, errors.WithMessagef(ErrShape, "adjacency dtype is %s, layer built for %s", adj.DType(), op.dtype)
	}
	shape := squeezeBatch(adj.Shape(), 2)
	if err := shape.CheckSquareMatrix(); err != nil {
		return nil, errors.WithMessagef(ErrShape, "adjacency: %v", err)
	}
	switch op.dtype {
	case dtypes.Float64:
		return powerOperatorApply[float64](op, adj, shape.Dim(0))
	default:
		return powerOperatorApply[float32](op, adj, shape.Dim(0))
	}
}

// MustApply is like Apply but panics on error. For tests and tools.
func (op *PowerOperator) MustApply(adj *tensors.Tensor) []*tensors.Tensor {
	return must.M1(op.Apply(adj))
}

// Power returns the configured exploration depth. Apply returns power+1
// operators.
func (op *PowerOperator) Power() int { return op.power }

func powerOperatorApply[T float32 | float64](op *PowerOperator, adj *tensors.Tensor, n int) ([]*tensors.Tensor, error) {
	var err error
	hopOps := make([]*tensors.Tensor, op.power+1)
	tensors.ConstFlatData(adj, func(adjFlat []T) {
		if !kernels.IsBinary(adjFlat) {
			err = errors.WithMessagef(ErrAdjacencyValue, "adjacency of shape %s", adj.Shape())
			return
		}
		for k := range hopOps {
			hopOps[k] = zerosLike(op.dtype, n, n)
		}
		tensors.MutableFlatData(hopOps[0], func(out []T) {
			kernels.Eye(n, out)
		})
		tensors.MutableFlatData(hopOps[1], func(out []T) {
			kernels.MatMul(adjFlat, adjFlat, n, n, n, out)
		})
		for k := 2; k <= op.power; k++ {
			tensors.ConstFlatData(hopOps[k-1], func(prev []T) {
				tensors.MutableFlatData(hopOps[k], func(out []T) {
					kernels.MatMul(prev, adjFlat, n, n, n, out)
				})
			})
		}
	})
	if err != nil {
		return nil, err
	}
	return hopOps, nil
}
