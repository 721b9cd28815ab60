package hopconv

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/hopgnn/hopgnn/ml/initializers"
	"github.com/hopgnn/hopgnn/types/shapes"
	"github.com/hopgnn/hopgnn/types/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphConvolution_OutputShape(t *testing.T) {
	const n, f = 5, 8
	config := testConfig(n, f, 2)
	l := NewGraphConvolution(config)
	nodeVec := tensors.FromShape(shapeF32(n, f))
	learnedOps := []*tensors.Tensor{
		tensors.FromShape(shapeF32(n, n)),
		tensors.FromShape(shapeF32(n, n)),
		tensors.FromShape(shapeF32(n, n)),
	}
	out := l.MustApply(nodeVec, learnedOps)
	assert.Equal(t, []int{n, f}, out.Shape().Dimensions,
		"output shape must equal the input feature shape")
}

func TestGraphConvolution_KnownValues(t *testing.T) {
	// power=1, identity operators, identity-like kernels set by hand: the
	// output is ReLU(2·X) since each hop contributes X.
	const n, f = 2, 2
	config := testConfig(n, f, 1).WithInitializer(initializers.Zero)
	l := NewGraphConvolution(config)
	eyeF := tensors.FromValue([][]float32{{1, 0}, {0, 1}})
	for _, v := range l.Variables() {
		v.SetValue(eyeF.Clone())
	}
	nodeVec := tensors.FromValue([][]float32{{1, -2}, {3, 4}})
	eyeN := tensors.FromValue([][]float32{{1, 0}, {0, 1}})
	out := l.MustApply(nodeVec, []*tensors.Tensor{eyeN, eyeN.Clone()})
	want := tensors.FromValue([][]float32{{2, 0}, {6, 8}}) // ReLU(2·X)
	assert.True(t, out.Equal(want), "got %s", out)
}

func TestGraphConvolution_Errors(t *testing.T) {
	const n, f = 3, 2
	config := testConfig(n, f, 2)
	l := NewGraphConvolution(config)
	nodeVec := tensors.FromShape(shapeF32(n, f))
	ops := []*tensors.Tensor{
		tensors.FromShape(shapeF32(n, n)),
		tensors.FromShape(shapeF32(n, n)),
		tensors.FromShape(shapeF32(n, n)),
	}

	// Wrong operator count.
	_, err := l.Apply(nodeVec, ops[:2])
	require.ErrorIs(t, err, ErrShape)

	// Operator node count mismatching the features.
	bad := append([]*tensors.Tensor{}, ops...)
	bad[1] = tensors.FromShape(shapeF32(n+1, n+1))
	_, err = l.Apply(nodeVec, bad)
	require.ErrorIs(t, err, ErrShape)

	// Wrong feature dimension.
	_, err = l.Apply(tensors.FromShape(shapeF32(n, f+1)), ops)
	require.ErrorIs(t, err, ErrShape)

	// Wrong dtype.
	_, err = l.Apply(tensors.FromShape(shapes.Make(dtypes.Float64, n, f)), ops)
	require.ErrorIs(t, err, ErrShape)
}

func TestGraphConvolution_Variables(t *testing.T) {
	config := testConfig(3, 4, 2)
	l := NewGraphConvolution(config)
	vars := l.Variables()
	require.Len(t, vars, 3)
	for _, v := range vars {
		assert.Equal(t, []int{4, 4}, v.Shape().Dimensions)
		assert.Contains(t, v.Name(), "kernel")
	}

	// The returned slice is a copy; mutating it does not affect the layer.
	vars[0] = nil
	assert.NotNil(t, l.Variables()[0])
}
