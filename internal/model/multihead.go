package model

import (
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/tinylm/internal/tensor"
)

// MultiHeadConfig describes a MultiHeadAttention layer.  Workers bounds the
// goroutines used per forward call (0 = GOMAXPROCS clamped to NumHeads).
type MultiHeadConfig struct {
	DModel   int
	NumHeads int
	Workers  int
}

// MultiHeadAttention runs NumHeads independent heads on the same input and
// projects their concatenation back to DModel through WO.
type MultiHeadAttention struct {
	DModel   int
	NumHeads int
	HeadDim  int

	Heads []*SelfAttentionHead // construction order == concatenation order
	WO    tensor.Mat           // [DModel x DModel]

	workers int
}

// NewMultiHeadAttention builds a layer with the default worker count.
func NewMultiHeadAttention(dModel, numHeads int, rng *rand.Rand) (*MultiHeadAttention, error) {
	return MultiHeadConfig{DModel: dModel, NumHeads: numHeads}.Build(rng)
}

// Build validates the configuration and initialises every head and WO.
func (c MultiHeadConfig) Build(rng *rand.Rand) (*MultiHeadAttention, error) {
	if c.DModel <= 0 {
		return nil, configErrorf("d_model", "must be positive, got %d", c.DModel)
	}
	if c.NumHeads <= 0 {
		return nil, configErrorf("num_heads", "must be positive, got %d", c.NumHeads)
	}
	if c.DModel%c.NumHeads != 0 {
		return nil, configErrorf("num_heads", "d_model %d is not divisible by num_heads %d", c.DModel, c.NumHeads)
	}
	if c.Workers < 0 {
		return nil, configErrorf("head_workers", "must not be negative, got %d", c.Workers)
	}

	rng = ensureRand(rng)
	headDim := c.DModel / c.NumHeads
	m := &MultiHeadAttention{
		DModel:   c.DModel,
		NumHeads: c.NumHeads,
		HeadDim:  headDim,
		Heads:    make([]*SelfAttentionHead, c.NumHeads),
		WO:       tensor.NewMat(c.DModel, c.DModel),
		workers:  headWorkersFor(c.Workers, c.NumHeads),
	}
	for i := range m.Heads {
		head, err := AttentionConfig{DModel: c.DModel, DK: headDim, DV: headDim}.Build(rng)
		if err != nil {
			return nil, err
		}
		m.Heads[i] = head
	}
	tensor.FillXavier(&m.WO, rng, c.DModel, c.DModel)
	return m, nil
}

// Workers reports the resolved per-call goroutine limit.
func (m *MultiHeadAttention) Workers() int {
	return m.workers
}

// Forward returns the (seq, DModel) projection of the concatenated heads.
func (m *MultiHeadAttention) Forward(x, mask *tensor.Mat) (tensor.Mat, error) {
	out, _, err := m.forward(x, mask, false)
	return out, err
}

// ForwardWithWeights additionally returns each head's (seq, seq) attention
// weights, indexed by head.
func (m *MultiHeadAttention) ForwardWithWeights(x, mask *tensor.Mat) (tensor.Mat, []tensor.Mat, error) {
	return m.forward(x, mask, true)
}

func (m *MultiHeadAttention) forward(x, mask *tensor.Mat, keepWeights bool) (tensor.Mat, []tensor.Mat, error) {
	if err := checkMask(mask, x.R); err != nil {
		return tensor.Mat{}, nil, err
	}

	outs := make([]tensor.Mat, len(m.Heads))
	var weights []tensor.Mat
	if keepWeights {
		weights = make([]tensor.Mat, len(m.Heads))
	}
	runHead := func(i int) error {
		out, w, err := m.Heads[i].Forward(x, mask)
		if err != nil {
			return err
		}
		outs[i] = out
		if keepWeights {
			weights[i] = w
		}
		return nil
	}

	if m.workers <= 1 || len(m.Heads) == 1 {
		for i := range m.Heads {
			if err := runHead(i); err != nil {
				return tensor.Mat{}, nil, err
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(m.workers)
		for i := range m.Heads {
			g.Go(func() error { return runHead(i) })
		}
		if err := g.Wait(); err != nil {
			return tensor.Mat{}, nil, err
		}
	}

	concat := tensor.NewMat(x.R, m.DModel)
	tensor.ConcatCols(&concat, outs)
	return tensor.Mul(&concat, &m.WO), weights, nil
}

func (m *MultiHeadAttention) NumParameters() int {
	n := m.WO.Len()
	for _, h := range m.Heads {
		n += h.NumParameters()
	}
	return n
}

func headWorkersFor(requested, nHead int) int {
	workers := requested
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if nHead > 0 && workers > nHead {
		workers = nHead
	}
	if workers < 1 {
		return 1
	}
	return workers
}
