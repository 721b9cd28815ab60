// Copyright 2025 The HopGNN Authors. SPDX-License-Identifier: Apache-2.0

// Package kernels implements the pure-Go numeric kernels the graph layers are built on:
// matrix multiplication, ReLU, pairwise distances and adjacency masking.
//
// All kernels operate on flat (row-major) slices and are generic over float32 and float64.
// Larger workloads are split over rows through a shared workers pool; every kernel is
// deterministic regardless of the parallelism used.
package kernels

import (
	"sync"

	"github.com/hopgnn/hopgnn/internal/workerspool"
)

var (
	pool     *workerspool.Pool
	poolOnce sync.Once
)

// sharedPool is lazily created so that tests can run before any kernel is used.
func sharedPool() *workerspool.Pool {
	poolOnce.Do(func() {
		pool = workerspool.New()
	})
	return pool
}

// minRowsToParallelize: below this number of output rows the dispatch overhead
// dominates, and the kernels run single-threaded.
const minRowsToParallelize = 8

// MatMul computes out = lhs @ rhs for row-major flat matrices:
// lhs is [m, k], rhs is [k, n] and out is [m, n].
//
// out must not alias lhs or rhs. Shapes are the caller's responsibility: the layers validate
// them before dispatching here.
func MatMul[T float32 | float64](lhs, rhs []T, m, k, n int, out []T) {
	matMulRow := func(row int) {
		lhsRow := lhs[row*k : (row+1)*k]
		outRow := out[row*n : (row+1)*n]
		for col := range outRow {
			outRow[col] = 0
		}
		// ikj ordering: traverses rhs row by row, friendlier to the cache than the naive
		// inner product per output cell.
		for contract, lhsValue := range lhsRow {
			if lhsValue == 0 {
				continue
			}
			rhsRow := rhs[contract*n : (contract+1)*n]
			for col, rhsValue := range rhsRow {
				outRow[col] += lhsValue * rhsValue
			}
		}
	}
	if m < minRowsToParallelize {
		for row := range m {
			matMulRow(row)
		}
		return
	}
	sharedPool().ForRange(m, matMulRow)
}

// VecMat computes out = vec @ mat for a row-major flat matrix: vec is [k], mat is [k, n]
// and out is [n]. It is MatMul with m=1, used for the flattened adjacency MLP.
func VecMat[T float32 | float64](vec, mat []T, k, n int, out []T) {
	MatMul(vec, mat, 1, k, n, out)
}

// ReLU applies max(0, x) elementwise, writing to out. in and out may alias.
func ReLU[T float32 | float64](in, out []T) {
	for ii, value := range in {
		if value < 0 {
			value = 0
		}
		out[ii] = value
	}
}

// Eye fills out, a flat [n, n] matrix, with the identity.
func Eye[T float32 | float64](n int, out []T) {
	for ii := range out {
		out[ii] = 0
	}
	for ii := range n {
		out[ii*n+ii] = 1
	}
}

// Add computes out[i] = a[i] + b[i] elementwise. out may alias a or b.
func Add[T float32 | float64](a, b, out []T) {
	for ii, value := range a {
		out[ii] = value + b[ii]
	}
}

// MaskNonzero computes out[i] = values[i] where mask[i] != 0, and 0 elsewhere.
// This is how a connectivity matrix selects which pairwise distances survive: powers of a
// 0/1 adjacency matrix carry path counts, and any nonzero count means connected.
func MaskNonzero[T float32 | float64](values, mask, out []T) {
	for ii, maskValue := range mask {
		if maskValue != 0 {
			out[ii] = values[ii]
		} else {
			out[ii] = 0
		}
	}
}

// IsBinary returns whether every entry of flat is exactly 0 or 1.
func IsBinary[T float32 | float64](flat []T) bool {
	for _, value := range flat {
		if value != 0 && value != 1 {
			return false
		}
	}
	return true
}
