package gonumExtensions

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// FullVec returns a vector of length n filled with value
func FullVec(n int, value float64) *mat.VecDense {
	data := make([]float64, n)
	for index := range data {
		data[index] = value
	}
	return mat.NewVecDense(n, data)
}

// Eye returns the (n by n) identity scaled by value
func Eye(n int, value float64) *mat.SymDense {
	res := mat.NewSymDense(n, nil)
	for index := 0; index < n; index++ {
		res.SetSym(index, index, value)
	}
	return res
}

// DiagSym returns a symmetric matrix with values on the diagonal
func DiagSym(values []float64) *mat.SymDense {
	n := len(values)
	res := mat.NewSymDense(n, nil)
	for index, value := range values {
		res.SetSym(index, index, value)
	}
	return res
}

// BlockDiag returns the symmetric block diagonal matrix
//
// [a 0; 0 b]
func BlockDiag(a, b mat.Symmetric) *mat.SymDense {
	na := a.SymmetricDim()
	nb := b.SymmetricDim()
	res := mat.NewSymDense(na+nb, nil)
	for row := 0; row < na; row++ {
		for col := row; col < na; col++ {
			res.SetSym(row, col, a.At(row, col))
		}
	}
	for row := 0; row < nb; row++ {
		for col := row; col < nb; col++ {
			res.SetSym(na+row, na+col, b.At(row, col))
		}
	}
	return res
}

// ConcatVec returns the stacked vector [a; b]
func ConcatVec(a, b mat.Vector) *mat.VecDense {
	na := a.Len()
	nb := b.Len()
	res := mat.NewVecDense(na+nb, nil)
	for index := 0; index < na; index++ {
		res.SetVec(index, a.AtVec(index))
	}
	for index := 0; index < nb; index++ {
		res.SetVec(na+index, b.AtVec(index))
	}
	return res
}

// Symmetrize returns (m + m^T) / 2 as a symmetric matrix. Products such as
// A Σ A^T are symmetric in exact arithmetic only.
func Symmetrize(m mat.Matrix) *mat.SymDense {
	n, c := m.Dims()
	if n != c {
		panic(mat.ErrShape)
	}
	res := mat.NewSymDense(n, nil)
	for row := 0; row < n; row++ {
		for col := row; col < n; col++ {
			res.SetSym(row, col, 0.5*(m.At(row, col)+m.At(col, row)))
		}
	}
	return res
}

// NANORINF checks if there are any NaN or Inf in matrix
func NANORINF(matrix mat.Matrix) bool {
	m, n := matrix.Dims()
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			if math.IsNaN(matrix.At(row, col)) || math.IsInf(matrix.At(row, col), 0) {
				return true
			}
		}
	}
	return false
}
