package model

import (
	"math"

	"github.com/samcharles93/tinylm/internal/tensor"
)

// DefaultLayerNormEpsilon keeps the denominator away from zero.
const DefaultLayerNormEpsilon = 1e-5

// LayerNorm normalizes each row to zero mean and unit variance, then applies
// the per-feature affine Gamma*x + Beta.
type LayerNorm struct {
	DModel  int
	Gamma   []float32
	Beta    []float32
	Epsilon float32
}

func NewLayerNorm(dModel int) (*LayerNorm, error) {
	if dModel <= 0 {
		return nil, configErrorf("d_model", "must be positive, got %d", dModel)
	}
	gamma := make([]float32, dModel)
	for i := range gamma {
		gamma[i] = 1
	}
	return &LayerNorm{
		DModel:  dModel,
		Gamma:   gamma,
		Beta:    make([]float32, dModel),
		Epsilon: DefaultLayerNormEpsilon,
	}, nil
}

// Forward returns a new matrix with every row normalized.
func (n *LayerNorm) Forward(x *tensor.Mat) tensor.Mat {
	if x.C != n.DModel {
		panic("layernorm: width mismatch")
	}
	out := tensor.NewMat(x.R, x.C)
	eps := float64(n.Epsilon)
	for i := 0; i < x.R; i++ {
		src := x.Row(i)
		dst := out.Row(i)
		mean, variance := tensor.MeanVar(src)
		inv := 1.0 / math.Sqrt(variance+eps)
		for j, v := range src {
			norm := (float64(v) - mean) * inv
			dst[j] = float32(norm)*n.Gamma[j] + n.Beta[j]
		}
	}
	return out
}

func (n *LayerNorm) NumParameters() int {
	return len(n.Gamma) + len(n.Beta)
}
