// Copyright 2025 The HopGNN Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import "math"

// PairwiseDistances computes the full matrix of Euclidean distances between the rows of
// features, a row-major flat [numRows, numFeatures] matrix. out is flat [numRows, numRows],
// with out[i, j] = |features[i] - features[j]|.
//
// Computing all pairs at once (instead of one norm per nonzero adjacency entry) lets the
// caller reuse the same matrix for every hop operator -- the distances don't depend on the
// hop, only the mask does.
//
// The matrix is symmetric with a zero diagonal; only the upper triangle is computed, and
// rows are processed in parallel.
func PairwiseDistances[T float32 | float64](features []T, numRows, numFeatures int, out []T) {
	distanceRow := func(row int) {
		rowFeatures := features[row*numFeatures : (row+1)*numFeatures]
		out[row*numRows+row] = 0
		for col := row + 1; col < numRows; col++ {
			colFeatures := features[col*numFeatures : (col+1)*numFeatures]
			var sum T
			for ii, value := range rowFeatures {
				diff := value - colFeatures[ii]
				sum += diff * diff
			}
			distance := T(math.Sqrt(float64(sum)))
			out[row*numRows+col] = distance
			out[col*numRows+row] = distance
		}
	}
	if numRows < minRowsToParallelize {
		for row := range numRows {
			distanceRow(row)
		}
		return
	}
	sharedPool().ForRange(numRows, distanceRow)
}
