package tensor

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Gemm computes C = alpha*A*op(B) + beta*C where op(B) is B or Bᵗ depending
// on transB.  Shapes are asserted up front; a mismatch is a caller bug and
// panics.
func Gemm(C, A, B *Mat, transB bool, alpha, beta float32) {
	n, k := B.C, B.R
	tB := blas.NoTrans
	if transB {
		n, k = B.R, B.C
		tB = blas.Trans
	}
	if A.C != k || C.R != A.R || C.C != n {
		panic("gemm: dimension mismatch")
	}
	if C.R == 0 || C.C == 0 {
		return
	}
	if k == 0 {
		// Empty inner dimension: the product term vanishes.
		for i := 0; i < C.R; i++ {
			row := C.Row(i)
			for j := range row {
				row[j] *= beta
			}
		}
		return
	}
	blas32.Gemm(blas.NoTrans, tB, alpha, A.general(), B.general(), beta, C.general())
}

// MatMul writes A·B into C, overwriting its contents.
func MatMul(C, A, B *Mat) {
	Gemm(C, A, B, false, 1, 0)
}

// MatMulTransB writes A·Bᵗ into C, overwriting its contents.
func MatMulTransB(C, A, B *Mat) {
	Gemm(C, A, B, true, 1, 0)
}

// Mul allocates and returns A·B.
func Mul(A, B *Mat) Mat {
	C := NewMat(A.R, B.C)
	MatMul(&C, A, B)
	return C
}

// MulTransB allocates and returns A·Bᵗ.
func MulTransB(A, B *Mat) Mat {
	C := NewMat(A.R, B.R)
	MatMulTransB(&C, A, B)
	return C
}
