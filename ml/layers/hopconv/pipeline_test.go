package hopconv

import (
	"path/filepath"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/hopgnn/hopgnn/ml/initializers"
	"github.com/hopgnn/hopgnn/types/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ringAdjacency returns the 0/1 adjacency of a cycle over n nodes.
func ringAdjacency(n int) *tensors.Tensor {
	adj := tensors.FromShape(shapeF32(n, n))
	tensors.MutableFlatData(adj, func(flat []float32) {
		for ii := range n {
			flat[ii*n+(ii+1)%n] = 1
			flat[((ii+1)%n)*n+ii] = 1
		}
	})
	return adj
}

// rampFeatures returns [n,f] features with distinct rows.
func rampFeatures(n, f int) *tensors.Tensor {
	nodeVec := tensors.FromShape(shapeF32(n, f))
	tensors.MutableFlatData(nodeVec, func(flat []float32) {
		for ii := range flat {
			flat[ii] = float32(ii%5) - 2
		}
	})
	return nodeVec
}

func TestPipeline_Apply(t *testing.T) {
	const n, f = 4, 3
	p := New(testConfig(n, f, 2))
	out := p.MustApply(ringAdjacency(n), rampFeatures(n, f))
	assert.Equal(t, []int{n, f}, out.Shape().Dimensions)
}

func TestPipeline_Intermediates(t *testing.T) {
	const n, f = 4, 3
	p := New(testConfig(n, f, 2))
	inter, err := p.ApplyWithIntermediates(ringAdjacency(n), rampFeatures(n, f))
	require.NoError(t, err)
	require.Len(t, inter.HopOperators, 3)
	require.Len(t, inter.LearnedAdjacencies, 3)
	for k := range inter.HopOperators {
		assert.Equal(t, []int{n, n}, inter.HopOperators[k].Shape().Dimensions)
		assert.Equal(t, []int{n, n}, inter.LearnedAdjacencies[k].Shape().Dimensions)
	}
	assert.Equal(t, []int{n, f}, inter.Output.Shape().Dimensions)

	// Errors propagate from the first failing layer, with nil results.
	inter, err = p.ApplyWithIntermediates(tensors.FromShape(shapeF32(n, n+1)), rampFeatures(n, f))
	require.ErrorIs(t, err, ErrShape)
	assert.Nil(t, inter)
}

func TestPipeline_Idempotence(t *testing.T) {
	// Same weights, same inputs, no training step: bit-identical outputs.
	const n, f = 4, 3
	p := New(testConfig(n, f, 2))
	adj, nodeVec := ringAdjacency(n), rampFeatures(n, f)
	first := p.MustApply(adj, nodeVec)
	second := p.MustApply(adj, nodeVec)
	require.True(t, first.Equal(second))
}

func TestPipeline_AllZeroDegenerate(t *testing.T) {
	// Identity adjacency, zero features, zero weights: every intermediate
	// and the output are all-zero matrices of the expected shapes.
	const n, f = 3, 3
	p := New(testConfig(n, f, 2).WithInitializer(initializers.Zero))
	eye := tensors.FromValue([][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	inter, err := p.ApplyWithIntermediates(eye, tensors.FromShape(shapeF32(n, f)))
	require.NoError(t, err)
	zeroNN := tensors.FromShape(shapeF32(n, n))
	for k := 1; k < len(inter.HopOperators); k++ {
		assert.True(t, inter.HopOperators[k].Equal(eye), "powers of identity stay identity")
	}
	for _, m := range inter.LearnedAdjacencies {
		assert.True(t, m.Equal(zeroNN))
	}
	assert.True(t, inter.Output.Equal(tensors.FromShape(shapeF32(n, f))))
}

func TestPipeline_Variables(t *testing.T) {
	const power = 2
	p := New(testConfig(3, 2, power))
	vars := p.Variables()
	// 2·(power+1) MLP weights + power+1 kernels.
	require.Len(t, vars, 3*(power+1))

	seen := make(map[string]bool)
	for _, v := range vars {
		require.False(t, seen[v.Name()], "duplicate variable name %q", v.Name())
		seen[v.Name()] = true
	}

	// External update (optimizer-style) changes the forward pass.
	adj, nodeVec := ringAdjacency(3), rampFeatures(3, 2)
	before := p.MustApply(adj, nodeVec)
	for _, v := range p.Variables() {
		v.SetValue(initializers.Constant(0.5)(v.Shape()))
	}
	after := p.MustApply(adj, nodeVec)
	assert.False(t, before.Equal(after))
}

func TestPipeline_CheckpointRoundTrip(t *testing.T) {
	const n, f = 3, 2
	config := testConfig(n, f, 2)
	p := New(config)
	path := filepath.Join(t.TempDir(), "pipeline.ckpt")
	require.NoError(t, p.Save(path))

	// A fresh pipeline with different weights converges to the saved ones.
	other := New(testConfig(n, f, 2).WithInitializer(initializers.RandomNormalFn(7, 0.1)))
	adj, nodeVec := ringAdjacency(n), rampFeatures(n, f)
	require.False(t, p.MustApply(adj, nodeVec).Equal(other.MustApply(adj, nodeVec)))

	require.NoError(t, other.Load(path))
	for ii, v := range other.Variables() {
		require.True(t, v.Value().Equal(p.Variables()[ii].Value()), "variable %q", v.Name())
	}
	require.True(t, p.MustApply(adj, nodeVec).Equal(other.MustApply(adj, nodeVec)))
}

func TestPipeline_CheckpointShapeMismatch(t *testing.T) {
	p := New(testConfig(3, 2, 2))
	path := filepath.Join(t.TempDir(), "pipeline.ckpt")
	require.NoError(t, p.Save(path))

	// Different maxNodes: variable shapes differ.
	other := New(testConfig(4, 2, 2))
	require.Error(t, other.Load(path))

	// Different power: variable count differs.
	other = New(testConfig(3, 2, 3))
	require.Error(t, other.Load(path))
}

func TestPipeline_Float64(t *testing.T) {
	const n, f = 3, 2
	p := New(testConfig(n, f, 2).WithDType(dtypes.Float64))
	adj := tensors.FromValue([][]float64{{0, 1, 0}, {1, 0, 1}, {0, 1, 0}})
	nodeVec := tensors.FromValue([][]float64{{0, 0}, {1, 0}, {1, 1}})
	out := p.MustApply(adj, nodeVec)
	assert.Equal(t, dtypes.Float64, out.DType())
	assert.Equal(t, []int{n, f}, out.Shape().Dimensions)
}
