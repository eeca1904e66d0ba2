package tensor

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftmaxRowsSumToOne(t *testing.T) {
	m := NewMatFromData(2, 3, []float32{1, 2, 3, 4, 5, 6})
	SoftmaxRows(&m)
	for i := 0; i < m.R; i++ {
		var sum float32
		for _, v := range m.Row(i) {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-5, "row %d", i)
	}
	// Softmax is shift invariant, both rows carry the same distribution.
	assert.InDeltaSlice(t, m.Row(0), m.Row(1), 1e-6)
}

func TestSoftmaxLargeMagnitudes(t *testing.T) {
	x := []float32{1e4, 1e4 + 1, -1e9}
	Softmax(x)
	for _, v := range x {
		require.False(t, math.IsNaN(float64(v)))
		require.False(t, math.IsInf(float64(v), 0))
	}
	assert.Less(t, x[2], float32(1e-6))
	assert.InDelta(t, 1.0, x[0]+x[1]+x[2], 1e-5)
}

func TestMeanVar(t *testing.T) {
	mean, variance := MeanVar([]float32{1, 2, 3, 4})
	assert.InDelta(t, 2.5, mean, 1e-12)
	assert.InDelta(t, 1.25, variance, 1e-12)

	mean, variance = MeanVar(nil)
	assert.Zero(t, mean)
	assert.Zero(t, variance)
}

func TestReLU(t *testing.T) {
	x := []float32{-2, -0.5, 0, 0.5, 3}
	ReLU(x)
	assert.Equal(t, []float32{0, 0, 0, 0.5, 3}, x)
}

func TestArgMax(t *testing.T) {
	assert.Equal(t, -1, ArgMax(nil))
	assert.Equal(t, 2, ArgMax([]float32{0, 1, 5, 5, -1}))
	assert.Equal(t, 0, ArgMax([]float32{-3}))
}

func TestGatherRows(t *testing.T) {
	src := NewMatFromData(3, 2, []float32{0, 1, 10, 11, 20, 21})
	dst := NewMat(4, 2)
	GatherRows(&dst, &src, []int{2, 0, 2, 1})
	assert.Equal(t, []float32{20, 21, 0, 1, 20, 21, 10, 11}, dst.Data)
}

func TestConcatColsKeepsPartOrder(t *testing.T) {
	a := NewMatFromData(2, 1, []float32{1, 2})
	b := NewMatFromData(2, 2, []float32{3, 4, 5, 6})
	dst := NewMat(2, 3)
	ConcatCols(&dst, []Mat{a, b})
	assert.Equal(t, []float32{1, 3, 4, 2, 5, 6}, dst.Data)

	assert.Panics(t, func() {
		bad := NewMat(2, 4)
		ConcatCols(&bad, []Mat{a, b})
	})
}

func TestAddRowVectorAndSum(t *testing.T) {
	m := NewMatFromData(2, 2, []float32{1, 2, 3, 4})
	AddRowVector(&m, []float32{10, 20})
	assert.Equal(t, []float32{11, 22, 13, 24}, m.Data)

	other := NewMatFromData(2, 2, []float32{1, 1, 1, 1})
	s := Sum(&m, &other)
	assert.Equal(t, []float32{12, 23, 14, 25}, s.Data)
	// Sum must not touch its inputs.
	assert.Equal(t, []float32{11, 22, 13, 24}, m.Data)

	assert.Panics(t, func() {
		wrong := NewMat(3, 2)
		AddMat(&m, &wrong)
	})
}

func TestScaleAndTranspose(t *testing.T) {
	m := NewMatFromData(2, 3, []float32{1, 2, 3, 4, 5, 6})
	Scale(&m, 2)
	tr := Transpose(&m)
	require.Equal(t, 3, tr.R)
	require.Equal(t, 2, tr.C)
	assert.Equal(t, []float32{2, 8, 4, 10, 6, 12}, tr.Data)
}

func TestFillXavierWithinLimit(t *testing.T) {
	m := NewMat(32, 16)
	rng := rand.New(rand.NewSource(7))
	FillXavier(&m, rng, 32, 16)
	limit := XavierLimit(32, 16)
	assert.InDelta(t, math.Sqrt(2.0/48.0), limit, 1e-7)
	for _, v := range m.Data {
		require.GreaterOrEqual(t, v, -limit)
		require.Less(t, v, limit)
	}
}

func TestFillUniformIsReproducible(t *testing.T) {
	a := NewMat(4, 4)
	b := NewMat(4, 4)
	FillUniform(&a, NewRand(11), -0.1, 0.1)
	FillUniform(&b, NewRand(11), -0.1, 0.1)
	assert.Equal(t, a.Data, b.Data)
}
