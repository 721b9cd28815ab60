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

package shapes

import (
	"bytes"
	"encoding/gob"
	"testing"

	. "github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestShape(t *testing.T) {
	invalidShape := Invalid()
	require.False(t, invalidShape.Ok())

	shape0 := Make(Float64)
	require.True(t, shape0.Ok())
	require.True(t, shape0.IsScalar())
	require.Equal(t, 0, shape0.Rank())
	require.Len(t, shape0.Dimensions, 0)
	require.Equal(t, 1, shape0.Size())
	require.Equal(t, 8, int(shape0.Memory()))

	shape1 := Make(Float32, 4, 3, 2)
	require.True(t, shape1.Ok())
	require.False(t, shape1.IsScalar())
	require.Equal(t, 3, shape1.Rank())
	require.Len(t, shape1.Dimensions, 3)
	require.Equal(t, 4*3*2, shape1.Size())
	require.Equal(t, 4*4*3*2, int(shape1.Memory()))

	require.Panics(t, func() { Make(Float32, 3, 0) })
}

func TestDim(t *testing.T) {
	shape := Make(Float32, 4, 3, 2)
	require.Equal(t, 4, shape.Dim(0))
	require.Equal(t, 3, shape.Dim(1))
	require.Equal(t, 2, shape.Dim(2))
	require.Equal(t, 4, shape.Dim(-3))
	require.Equal(t, 3, shape.Dim(-2))
	require.Equal(t, 2, shape.Dim(-1))
	require.Panics(t, func() { _ = shape.Dim(3) })
	require.Panics(t, func() { _ = shape.Dim(-4) })
}

func TestSquareMatrix(t *testing.T) {
	require.True(t, Make(Float32, 5, 5).IsSquareMatrix())
	require.False(t, Make(Float32, 3, 4).IsSquareMatrix())
	require.False(t, Make(Float32, 5).IsSquareMatrix())
	require.False(t, Make(Float32, 5, 5, 5).IsSquareMatrix())

	require.NoError(t, Make(Float32, 7, 7).CheckSquareMatrix())
	require.Error(t, Make(Float32, 3, 4).CheckSquareMatrix())
	require.Error(t, Make(Float32, 3, 4, 5).CheckSquareMatrix())
}

func TestCheckDims(t *testing.T) {
	shape := Make(Float32, 5, 8)
	require.NoError(t, shape.CheckDims(5, 8))
	require.NoError(t, shape.CheckDims(5, UncheckedAxis))
	require.NoError(t, shape.CheckDims(-1, -1))
	require.Error(t, shape.CheckDims(5))
	require.Error(t, shape.CheckDims(8, 5))
	require.NoError(t, shape.Check(Float32, 5, 8))
	require.Error(t, shape.Check(Float64, 5, 8))
	require.Error(t, shape.Check(Float32, UncheckedAxis, 5))
}

func TestSqueeze(t *testing.T) {
	require.Equal(t, []int{5, 5}, Make(Float32, 1, 5, 5).Squeeze().Dimensions)
	require.Equal(t, []int{5, 3}, Make(Float32, 5, 3).Squeeze().Dimensions)
	require.Equal(t, 0, Make(Float32, 1, 1).Squeeze().Rank())

	// Squeezing specific axes only drops those.
	require.Equal(t, []int{1, 1}, Make(Float32, 1, 1, 1).Squeeze(0).Dimensions)
	require.Equal(t, []int{5, 1}, Make(Float32, 1, 5, 1).Squeeze(0).Dimensions)
	require.Equal(t, []int{1, 5}, Make(Float32, 1, 5, 1).Squeeze(-1).Dimensions)
	require.Panics(t, func() { Make(Float32, 5, 1).Squeeze(0) })
	require.Panics(t, func() { Make(Float32, 1, 5).Squeeze(2) })
}

func TestEqual(t *testing.T) {
	require.True(t, Make(Float32, 2, 3).Equal(Make(Float32, 2, 3)))
	require.False(t, Make(Float32, 2, 3).Equal(Make(Float64, 2, 3)))
	require.False(t, Make(Float32, 2, 3).Equal(Make(Float32, 3, 2)))
	require.True(t, Make(Float32, 2, 3).EqualDimensions(Make(Float64, 2, 3)))
}

func TestCastAsDType(t *testing.T) {
	value := [][]int{{1, 2}, {3, 4}, {5, 6}}
	{
		want := [][]float32{{1, 2}, {3, 4}, {5, 6}}
		got := CastAsDType(value, Float32)
		require.Equal(t, want, got)
	}
	{
		want := [][]float64{{1, 2}, {3, 4}, {5, 6}}
		got := CastAsDType(value, Float64)
		require.Equal(t, want, got)
	}
	{
		want := []float16.Float16{float16.Fromfloat32(1), float16.Fromfloat32(2)}
		got := CastAsDType([]float32{1, 2}, Float16)
		require.Equal(t, want, got)
	}
	{
		want := []float32{1, 2}
		got := CastAsDType([]float16.Float16{float16.Fromfloat32(1), float16.Fromfloat32(2)}, Float32)
		require.Equal(t, want, got)
	}
}

func TestGobSerialization(t *testing.T) {
	shape := Make(Float64, 4, 2)
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	require.NoError(t, shape.GobSerialize(enc))

	dec := gob.NewDecoder(&buf)
	recovered, err := GobDeserialize(dec)
	require.NoError(t, err)
	require.True(t, shape.Equal(recovered))
}
