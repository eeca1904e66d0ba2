package tensor

import (
	"fmt"
	"math"
)

// Add adds src to dst element-wise.
func Add(dst, src []float32) {
	if len(dst) != len(src) {
		panic("add: length mismatch")
	}
	for i := range dst {
		dst[i] += src[i]
	}
}

// Dot computes the dot product of a and b.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// AddMat adds src into dst element-wise.  Shapes must match.
func AddMat(dst, src *Mat) {
	if !dst.SameShape(src) {
		panic(fmt.Sprintf("add: shape mismatch %v vs %v", *dst, *src))
	}
	for i := 0; i < dst.R; i++ {
		Add(dst.Row(i), src.Row(i))
	}
}

// Sum returns a freshly allocated a + b.
func Sum(a, b *Mat) Mat {
	out := a.Clone()
	AddMat(&out, b)
	return out
}

// AddRowVector broadcasts v across every row of m.
func AddRowVector(m *Mat, v []float32) {
	if len(v) != m.C {
		panic("add row vector: length mismatch")
	}
	for i := 0; i < m.R; i++ {
		Add(m.Row(i), v)
	}
}

// Scale multiplies every element of m by s.
func Scale(m *Mat, s float32) {
	for i := 0; i < m.R; i++ {
		row := m.Row(i)
		for j := range row {
			row[j] *= s
		}
	}
}

// ReLU applies max(v, 0) in place.
func ReLU(x []float32) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}

// ReLUMat applies ReLU to every element of m.
func ReLUMat(m *Mat) {
	for i := 0; i < m.R; i++ {
		ReLU(m.Row(i))
	}
}

// Softmax applies the softmax function to x.  The row maximum is
// subtracted before exponentiation so large scores cannot overflow.
func Softmax(x []float32) {
	if len(x) == 0 {
		return
	}
	maxv := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > maxv {
			maxv = x[i]
		}
	}
	var sum float64
	for i := range x {
		v := math.Exp(float64(x[i] - maxv))
		x[i] = float32(v)
		sum += v
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / sum)
	for i := range x {
		x[i] *= inv
	}
}

// SoftmaxRows applies Softmax to every row of m.
func SoftmaxRows(m *Mat) {
	for i := 0; i < m.R; i++ {
		Softmax(m.Row(i))
	}
}

// MeanVar returns the mean and the biased (population) variance of x.
// Accumulation happens in float64.
func MeanVar(x []float32) (mean, variance float64) {
	if len(x) == 0 {
		return 0, 0
	}
	n := float64(len(x))
	for _, v := range x {
		mean += float64(v)
	}
	mean /= n
	for _, v := range x {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= n
	return mean, variance
}

// ArgMax returns the index of the largest element, or -1 for an empty slice.
// Ties resolve to the lowest index.
func ArgMax(x []float32) int {
	if len(x) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[best] {
			best = i
		}
	}
	return best
}

// GatherRows copies src rows at the given indices into dst, in order.
// dst must be (len(idx), src.C).  Indices are not range-checked beyond the
// panic raised by Row; callers validate ids first.
func GatherRows(dst, src *Mat, idx []int) {
	if dst.R != len(idx) || dst.C != src.C {
		panic("gather: shape mismatch")
	}
	for i, r := range idx {
		copy(dst.Row(i), src.Row(r))
	}
}

// ConcatCols lays the parts side by side into dst.  Every part must have
// dst.R rows and the column counts must sum to dst.C.
func ConcatCols(dst *Mat, parts []Mat) {
	total := 0
	for i := range parts {
		if parts[i].R != dst.R {
			panic("concat: row count mismatch")
		}
		total += parts[i].C
	}
	if total != dst.C {
		panic("concat: column count mismatch")
	}
	off := 0
	for p := range parts {
		part := &parts[p]
		for i := 0; i < dst.R; i++ {
			copy(dst.Row(i)[off:off+part.C], part.Row(i))
		}
		off += part.C
	}
}

// Transpose returns a freshly allocated mᵗ.
func Transpose(m *Mat) Mat {
	out := NewMat(m.C, m.R)
	for i := 0; i < m.R; i++ {
		row := m.Row(i)
		for j, v := range row {
			out.Data[j*out.Stride+i] = v
		}
	}
	return out
}
