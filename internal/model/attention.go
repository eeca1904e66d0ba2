package model

import (
	"math"
	"math/rand"

	"github.com/samcharles93/tinylm/internal/tensor"
)

// AttentionConfig describes a single attention head.  DModel is required;
// DK and DV default to DModel when left at zero.
type AttentionConfig struct {
	DModel int
	DK     int
	DV     int
}

// Build validates the configuration as a whole and returns either a fully
// initialised head or a *ConfigError.
func (c AttentionConfig) Build(rng *rand.Rand) (*SelfAttentionHead, error) {
	if c.DModel <= 0 {
		return nil, configErrorf("d_model", "must be set to a positive value, got %d", c.DModel)
	}
	dk, dv := c.DK, c.DV
	if dk == 0 {
		dk = c.DModel
	}
	if dv == 0 {
		dv = c.DModel
	}
	if dk < 0 {
		return nil, configErrorf("d_k", "must be positive, got %d", dk)
	}
	if dv < 0 {
		return nil, configErrorf("d_v", "must be positive, got %d", dv)
	}

	rng = ensureRand(rng)
	h := &SelfAttentionHead{
		DModel: c.DModel,
		DK:     dk,
		DV:     dv,
		WQ:     tensor.NewMat(c.DModel, dk),
		WK:     tensor.NewMat(c.DModel, dk),
		WV:     tensor.NewMat(c.DModel, dv),
		scale:  float32(1.0 / math.Sqrt(float64(dk))),
	}
	tensor.FillXavier(&h.WQ, rng, c.DModel, dk)
	tensor.FillXavier(&h.WK, rng, c.DModel, dk)
	tensor.FillXavier(&h.WV, rng, c.DModel, dv)
	return h, nil
}

// SelfAttentionHead computes scaled dot-product attention for one head.
// Weights are read-only after construction, so Forward may run concurrently.
type SelfAttentionHead struct {
	DModel, DK, DV int

	WQ tensor.Mat // [DModel x DK]
	WK tensor.Mat // [DModel x DK]
	WV tensor.Mat // [DModel x DV]

	scale float32 // 1/sqrt(DK)
}

// NewSelfAttentionHead is shorthand for AttentionConfig{...}.Build(rng).
func NewSelfAttentionHead(dModel, dK, dV int, rng *rand.Rand) (*SelfAttentionHead, error) {
	if dK <= 0 {
		return nil, configErrorf("d_k", "must be positive, got %d", dK)
	}
	if dV <= 0 {
		return nil, configErrorf("d_v", "must be positive, got %d", dV)
	}
	return AttentionConfig{DModel: dModel, DK: dK, DV: dV}.Build(rng)
}

// Forward computes softmax(Q·Kᵗ/sqrt(d_k) + mask)·V for x of shape
// (seq, DModel).  mask may be nil; otherwise it must be (seq, seq).
// It returns the (seq, DV) output and the (seq, seq) attention weights.
func (h *SelfAttentionHead) Forward(x, mask *tensor.Mat) (out, weights tensor.Mat, err error) {
	if err := checkMask(mask, x.R); err != nil {
		return tensor.Mat{}, tensor.Mat{}, err
	}

	q := tensor.Mul(x, &h.WQ)
	k := tensor.Mul(x, &h.WK)
	v := tensor.Mul(x, &h.WV)

	weights = tensor.MulTransB(&q, &k)
	tensor.Scale(&weights, h.scale)
	if mask != nil {
		tensor.AddMat(&weights, mask)
	}
	tensor.SoftmaxRows(&weights)

	out = tensor.Mul(&weights, &v)
	return out, weights, nil
}

func (h *SelfAttentionHead) NumParameters() int {
	return h.WQ.Len() + h.WK.Len() + h.WV.Len()
}

// checkMask rejects masks that do not match (seq, seq); broadcasting is not
// supported.
func checkMask(mask *tensor.Mat, seq int) error {
	if mask == nil {
		return nil
	}
	if mask.R != seq || mask.C != seq {
		return configErrorf("mask", "shape (%d, %d) does not match sequence length %d", mask.R, mask.C, seq)
	}
	return nil
}
