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

// Adjacency learns real-valued adjacency matrices from hop operators and
// node features.
//
// The forward pass has two steps. First the distance transform: every
// connected entry (i,j) of a hop operator is replaced by the Euclidean
// distance between the feature vectors of nodes i and j, disconnected
// entries stay zero. Then each transformed matrix is flattened to a length-N²
// vector and refined by a dedicated 2-layer MLP with ReLU activations, using
// that hop's trainable weight pair, and reshaped back to [N,N].
//
// Weights are created at construction and never mutated by Apply.
type Adjacency struct {
	maxNodes    int
	numFeatures int
	power       int
	dtype       dtypes.DType

	// hidden[k] and output[k] are the MLP weight pair of hop k, both
	// [N², N²].
	hidden, output []*variables.Variable
}

// NewAdjacency builds the layer and its 2·(power+1) weight matrices of shape
// [N²,N²]. It panics on an invalid config.
func NewAdjacency(config *Config) *Adjacency {
	config.validate()
	l := &Adjacency{
		maxNodes:    config.maxNodes,
		numFeatures: config.numFeatures,
		power:       config.power,
		dtype:       config.dtype,
		hidden:      make([]*variables.Variable, config.power+1),
		output:      make([]*variables.Variable, config.power+1),
	}
	flatDim := l.maxNodes * l.maxNodes
	weightShape := shapes.Make(l.dtype, flatDim, flatDim)
	for k := range l.hidden {
		l.hidden[k] = variables.New(fmt.Sprintf("adjacency/hop%d/hidden", k), weightShape, config.initializer)
		l.output[k] = variables.New(fmt.Sprintf("adjacency/hop%d/output", k), weightShape, config.initializer)
	}
	return l
}

// Apply returns the learned adjacency matrices, one real-valued [N,N] matrix
// per hop operator.
//
// hopOps must have power+1 square [N,N] entries with N == maxNodes; nodeVec
// must be [N,F] with F == numFeatures. A leading singleton batch axis is
// squeezed on both. Violations return an error wrapping ErrShape.
func (l *Adjacency) Apply(hopOps []*tensors.Tensor, nodeVec *tensors.Tensor) ([]*tensors.Tensor, error) {
	if err := l.validateInputs(hopOps, nodeVec); err != nil {
		return nil, err
	}
	switch l.dtype {
	case dtypes.Float64:
		return adjacencyApply[float64](l, hopOps, nodeVec)
	default:
		return adjacencyApply[float32](l, hopOps, nodeVec)
	}
}

// MustApply is like Apply but panics on error. For tests and tools.
func (l *Adjacency) MustApply(hopOps []*tensors.Tensor, nodeVec *tensors.Tensor) []*tensors.Tensor {
	return must.M1(l.Apply(hopOps, nodeVec))
}

// DistanceTransform computes the distance-transformed hop matrices, the
// first step of Apply, without the MLP refinement.
//
// For each hop operator it returns an [N,N] matrix whose entry (i,j) is the
// Euclidean distance |x_i − x_j| where the operator is nonzero, and 0 where
// it is zero. Hop operators are powers of a 0/1 matrix so their entries are
// path counts; any nonzero count means connected. Note this is deliberately
// more permissive than a strict 0/1-only transform, which would leave cells
// with counts greater than one at zero and so disconnect exactly the node
// pairs multi-hop exploration is meant to reach. Same input constraints and
// errors as Apply.
func (l *Adjacency) DistanceTransform(hopOps []*tensors.Tensor, nodeVec *tensors.Tensor) ([]*tensors.Tensor, error) {
	if err := l.validateInputs(hopOps, nodeVec); err != nil {
		return nil, err
	}
	switch l.dtype {
	case dtypes.Float64:
		return distanceTransform[float64](l, hopOps, nodeVec), nil
	default:
		return distanceTransform[float32](l, hopOps, nodeVec), nil
	}
}

// Variables returns the layer's trainable variables: the per-hop MLP weight
// pairs, hidden before output, in hop order.
func (l *Adjacency) Variables() []*variables.Variable {
	vars := make([]*variables.Variable, 0, 2*(l.power+1))
	for k := range l.hidden {
		vars = append(vars, l.hidden[k], l.output[k])
	}
	return vars
}

func (l *Adjacency) validateInputs(hopOps []*tensors.Tensor, nodeVec *tensors.Tensor) error {
	if len(hopOps) != l.power+1 {
		return errors.WithMessagef(ErrShape, "got %d hop operators, layer built for %d", len(hopOps), l.power+1)
	}
	n := l.maxNodes
	for k, hopOp := range hopOps {
		hopOp.AssertValid()
		if err := squeezeBatch(hopOp.Shape(), 2).Check(l.dtype, n, n); err != nil {
			return errors.WithMessagef(ErrShape, "hop operator #%d: %v", k, err)
		}
	}
	nodeVec.AssertValid()
	if err := squeezeBatch(nodeVec.Shape(), 2).Check(l.dtype, n, l.numFeatures); err != nil {
		return errors.WithMessagef(ErrShape, "node features: %v", err)
	}
	return nil
}

// distanceTransform computes the pairwise distance matrix once and masks it
// by each hop operator's connectivity.
func distanceTransform[T float32 | float64](l *Adjacency, hopOps []*tensors.Tensor, nodeVec *tensors.Tensor) []*tensors.Tensor {
	n := l.maxNodes
	distances := make([]T, n*n)
	tensors.ConstFlatData(nodeVec, func(features []T) {
		kernels.PairwiseDistances(features, n, l.numFeatures, distances)
	})
	transformed := make([]*tensors.Tensor, len(hopOps))
	for k, hopOp := range hopOps {
		transformed[k] = zerosLike(l.dtype, n, n)
		tensors.ConstFlatData(hopOp, func(mask []T) {
			tensors.MutableFlatData(transformed[k], func(out []T) {
				kernels.MaskNonzero(distances, mask, out)
			})
		})
	}
	return transformed
}

func adjacencyApply[T float32 | float64](l *Adjacency, hopOps []*tensors.Tensor, nodeVec *tensors.Tensor) ([]*tensors.Tensor, error) {
	n := l.maxNodes
	flatDim := n * n
	transformed := distanceTransform[T](l, hopOps, nodeVec)
	learned := make([]*tensors.Tensor, len(hopOps))
	hiddenOut := make([]T, flatDim)
	for k := range hopOps {
		learned[k] = zerosLike(l.dtype, n, n)
		tensors.ConstFlatData(transformed[k], func(flat []T) {
			tensors.ConstFlatData(l.hidden[k].Value(), func(wHidden []T) {
				kernels.VecMat(flat, wHidden, flatDim, flatDim, hiddenOut)
			})
		})
		kernels.ReLU(hiddenOut, hiddenOut)
		tensors.MutableFlatData(learned[k], func(out []T) {
			tensors.ConstFlatData(l.output[k].Value(), func(wOutput []T) {
				kernels.VecMat(hiddenOut, wOutput, flatDim, flatDim, out)
			})
			kernels.ReLU(out, out)
		})
	}
	return learned, nil
}
