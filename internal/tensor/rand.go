package tensor

import (
	"math"
	"math/rand"
	"time"
)

// NewRand returns a generator seeded with seed.  A negative seed selects a
// time-based seed.
func NewRand(seed int64) *rand.Rand {
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// FillUniform fills m with values drawn uniformly from [lo, hi).
func FillUniform(m *Mat, rng *rand.Rand, lo, hi float32) {
	if hi < lo {
		panic("uniform range inverted")
	}
	width := hi - lo
	for i := 0; i < m.R; i++ {
		row := m.Row(i)
		for j := range row {
			row[j] = lo + rng.Float32()*width
		}
	}
}

// XavierLimit is the Glorot half-width sqrt(2/(fanIn+fanOut)).
func XavierLimit(fanIn, fanOut int) float32 {
	if fanIn+fanOut <= 0 {
		return 0
	}
	return float32(math.Sqrt(2.0 / float64(fanIn+fanOut)))
}

// FillXavier fills m uniformly in [-limit, limit) with limit from XavierLimit.
func FillXavier(m *Mat, rng *rand.Rand, fanIn, fanOut int) {
	limit := XavierLimit(fanIn, fanOut)
	FillUniform(m, rng, -limit, limit)
}

// FillRand fills the matrix with reproducible pseudo‑random values.  A small
// range around zero is used to avoid overflow in accumulations.  The seed
// controls the random sequence; multiple calls with the same seed produce
// identical matrices.
func FillRand(m *Mat, seed int64) {
	FillUniform(m, rand.New(rand.NewSource(seed)), -0.01, 0.01)
}
