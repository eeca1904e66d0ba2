package model

import (
	"math/rand"

	"github.com/samcharles93/tinylm/internal/tensor"
)

// FeedForward is the position-wise MLP ReLU(x·W1 + b1)·W2 + b2.
type FeedForward struct {
	DModel int
	DFF    int

	W1 tensor.Mat // [DModel x DFF]
	B1 []float32  // [DFF]
	W2 tensor.Mat // [DFF x DModel]
	B2 []float32  // [DModel]
}

func NewFeedForward(dModel, dFF int, rng *rand.Rand) (*FeedForward, error) {
	if dModel <= 0 {
		return nil, configErrorf("d_model", "must be positive, got %d", dModel)
	}
	if dFF <= 0 {
		return nil, configErrorf("d_ff", "must be positive, got %d", dFF)
	}
	rng = ensureRand(rng)
	f := &FeedForward{
		DModel: dModel,
		DFF:    dFF,
		W1:     tensor.NewMat(dModel, dFF),
		B1:     make([]float32, dFF),
		W2:     tensor.NewMat(dFF, dModel),
		B2:     make([]float32, dModel),
	}
	tensor.FillXavier(&f.W1, rng, dModel, dFF)
	tensor.FillXavier(&f.W2, rng, dFF, dModel)
	return f, nil
}

// Forward maps (seq, DModel) to (seq, DModel).
func (f *FeedForward) Forward(x *tensor.Mat) tensor.Mat {
	hidden := tensor.Mul(x, &f.W1)
	tensor.AddRowVector(&hidden, f.B1)
	tensor.ReLUMat(&hidden)

	out := tensor.Mul(&hidden, &f.W2)
	tensor.AddRowVector(&out, f.B2)
	return out
}

func (f *FeedForward) NumParameters() int {
	return f.W1.Len() + len(f.B1) + f.W2.Len() + len(f.B2)
}
