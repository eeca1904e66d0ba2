package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"
)

// Mat represents a dense row‑major matrix of float32 values.
//
// R and C represent the number of rows and columns respectively.  Stride is the
// number of elements between the starts of two consecutive rows (for freshly
// allocated matrices this is equal to C).  Data holds the flattened values.
//
// Mat does not perform any memory safety beyond the checks performed by Go's
// slice types and the explicit shape assertions below; out‑of‑range indices
// and mismatched shapes panic.
type Mat struct {
	R, C   int
	Stride int
	Data   []float32
}

// NewMat allocates a new matrix with the given number of rows and columns.
// The underlying slice is zero initialised.  The stride is set to the
// number of columns.
func NewMat(r, c int) Mat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	return Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   make([]float32, r*c),
	}
}

// NewMatFromData creates a matrix from existing data.
// It checks that the data length matches r*c.
func NewMatFromData(r, c int, data []float32) Mat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	if r*c != len(data) {
		panic("data length mismatch")
	}
	return Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   data,
	}
}

// Row returns a view of the i‑th row of the matrix as a slice.  The slice
// has length equal to the number of columns.  Modifications to the returned
// slice update the underlying matrix values.
func (m *Mat) Row(i int) []float32 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	start := i * m.Stride
	return m.Data[start : start+m.C]
}

// At returns the element at row i, column j.
func (m *Mat) At(i, j int) float32 {
	if j < 0 || j >= m.C {
		panic("column index out of range")
	}
	return m.Row(i)[j]
}

// Set stores v at row i, column j.
func (m *Mat) Set(i, j int, v float32) {
	if j < 0 || j >= m.C {
		panic("column index out of range")
	}
	m.Row(i)[j] = v
}

// Shape returns the (rows, cols) pair.
func (m *Mat) Shape() (int, int) {
	return m.R, m.C
}

// Len is the number of logical elements (R*C).
func (m *Mat) Len() int {
	return m.R * m.C
}

// SameShape reports whether m and o have identical dimensions.
func (m *Mat) SameShape(o *Mat) bool {
	return m.R == o.R && m.C == o.C
}

// Clone returns a compact deep copy of m.
func (m *Mat) Clone() Mat {
	out := NewMat(m.R, m.C)
	for i := 0; i < m.R; i++ {
		copy(out.Row(i), m.Row(i))
	}
	return out
}

// SliceRows returns a view over rows [start, end).  The view shares storage
// with m and must be treated as read-only by callers that do not own m.
func (m *Mat) SliceRows(start, end int) Mat {
	if start < 0 || end > m.R || start > end {
		panic(fmt.Sprintf("row slice [%d:%d] out of range for %d rows", start, end, m.R))
	}
	if start == end {
		return Mat{R: 0, C: m.C, Stride: m.Stride}
	}
	off := start * m.Stride
	last := (end-1)*m.Stride + m.C
	return Mat{
		R:      end - start,
		C:      m.C,
		Stride: m.Stride,
		Data:   m.Data[off:last],
	}
}

// String renders the shape, which is what callers usually want in logs and
// error messages.
func (m Mat) String() string {
	return fmt.Sprintf("Mat(%dx%d)", m.R, m.C)
}

func (m *Mat) general() blas32.General {
	stride := m.Stride
	if stride < 1 {
		stride = 1
	}
	return blas32.General{
		Rows:   m.R,
		Cols:   m.C,
		Stride: stride,
		Data:   m.Data,
	}
}
