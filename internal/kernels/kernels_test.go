// Copyright 2025 The HopGNN Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatMul(t *testing.T) {
	// [2,3] @ [3,2] = [2,2]
	lhs := []float32{1, 2, 3, 4, 5, 6}
	rhs := []float32{7, 8, 9, 10, 11, 12}
	out := make([]float32, 4)
	MatMul(lhs, rhs, 2, 3, 2, out)
	assert.Equal(t, []float32{58, 64, 139, 154}, out)
}

func TestMatMulLargeMatchesNaive(t *testing.T) {
	// Large enough to go through the workers pool; compare against the naive
	// inner-product definition.
	const m, k, n = 33, 17, 29
	lhs := make([]float64, m*k)
	rhs := make([]float64, k*n)
	for ii := range lhs {
		lhs[ii] = float64(ii%7) - 3
	}
	for ii := range rhs {
		rhs[ii] = float64(ii%5) - 2
	}
	want := make([]float64, m*n)
	for row := range m {
		for col := range n {
			var sum float64
			for contract := range k {
				sum += lhs[row*k+contract] * rhs[contract*n+col]
			}
			want[row*n+col] = sum
		}
	}
	got := make([]float64, m*n)
	MatMul(lhs, rhs, m, k, n, got)
	require.Equal(t, want, got)
}

func TestVecMat(t *testing.T) {
	vec := []float64{1, 2}
	mat := []float64{3, 4, 5, 6}
	out := make([]float64, 2)
	VecMat(vec, mat, 2, 2, out)
	assert.Equal(t, []float64{13, 16}, out)
}

func TestReLU(t *testing.T) {
	in := []float32{-1, 0, 2, -0.5, 3}
	out := make([]float32, len(in))
	ReLU(in, out)
	assert.Equal(t, []float32{0, 0, 2, 0, 3}, out)

	// In place.
	ReLU(in, in)
	assert.Equal(t, []float32{0, 0, 2, 0, 3}, in)
}

func TestEye(t *testing.T) {
	out := make([]float32, 9)
	fillGarbage(out)
	Eye(3, out)
	assert.Equal(t, []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}, out)
}

// fillGarbage fills a slice with nonzero values, so tests catch kernels that
// assume zeroed outputs.
func fillGarbage[T float32 | float64](flat []T) {
	for ii := range flat {
		flat[ii] = T(-17)
	}
}

func TestAdd(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{10, 20, 30}
	out := make([]float64, 3)
	Add(a, b, out)
	assert.Equal(t, []float64{11, 22, 33}, out)
}

func TestMaskNonzero(t *testing.T) {
	values := []float32{5, 6, 7, 8}
	mask := []float32{0, 1, 2, 0}
	out := make([]float32, 4)
	MaskNonzero(values, mask, out)
	assert.Equal(t, []float32{0, 6, 7, 0}, out)
}

func TestIsBinary(t *testing.T) {
	assert.True(t, IsBinary([]float32{0, 1, 1, 0}))
	assert.False(t, IsBinary([]float32{0, 1, 2}))
	assert.False(t, IsBinary([]float32{0.5}))
	assert.True(t, IsBinary([]float64{}))
}

func TestPairwiseDistances(t *testing.T) {
	// Nodes at (0,0) and (3,4): distance 5.
	features := []float32{0, 0, 3, 4}
	out := make([]float32, 4)
	PairwiseDistances(features, 2, 2, out)
	assert.Equal(t, []float32{0, 5, 5, 0}, out)
}

func TestPairwiseDistancesLarge(t *testing.T) {
	// Large enough to go through the workers pool; check symmetry and diagonal,
	// and a few cells against the definition.
	const numRows, numFeatures = 40, 3
	features := make([]float64, numRows*numFeatures)
	for ii := range features {
		features[ii] = float64((ii*31)%11) - 5
	}
	out := make([]float64, numRows*numRows)
	PairwiseDistances(features, numRows, numFeatures, out)
	for row := range numRows {
		require.Zero(t, out[row*numRows+row])
		for col := range numRows {
			require.Equal(t, out[row*numRows+col], out[col*numRows+row])
		}
	}
	// Spot check row 0 vs row 1.
	var sum float64
	for ii := range numFeatures {
		diff := features[ii] - features[numFeatures+ii]
		sum += diff * diff
	}
	require.InDelta(t, sum, out[1]*out[1], 1e-9)
}
