package variables

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/hopgnn/hopgnn/ml/initializers"
	"github.com/hopgnn/hopgnn/types/shapes"
	"github.com/hopgnn/hopgnn/types/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariable(t *testing.T) {
	s := shapes.Make(dtypes.Float32, 2, 2)
	v := New("weights", s, initializers.One)
	assert.Equal(t, "weights", v.Name())
	assert.True(t, v.Trainable)
	assert.True(t, v.Shape().Equal(s))
	tensors.ConstFlatData(v.Value(), func(flat []float32) {
		assert.Equal(t, []float32{1, 1, 1, 1}, flat)
	})

	v.SetValue(tensors.FromValue([][]float32{{1, 2}, {3, 4}}))
	assert.InDelta(t, 3.0, v.Value().Value().([][]float32)[1][0], 0)

	require.Panics(t, func() {
		v.SetValue(tensors.FromValue([]float32{1, 2}))
	}, "shape change must panic")

	assert.False(t, v.SetTrainable(false).Trainable)
}

func TestVariableInvalid(t *testing.T) {
	var v *Variable
	require.Panics(t, func() { v.AssertValid() })
	require.Panics(t, func() {
		New("", shapes.Make(dtypes.Float32, 1), initializers.Zero)
	})
	require.Panics(t, func() {
		badInit := func(shapes.Shape) *tensors.Tensor {
			return tensors.FromValue([]float32{1})
		}
		New("bad", shapes.Make(dtypes.Float32, 3), badInit)
	})
}
