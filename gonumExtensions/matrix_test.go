package gonumExtensions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestEye(t *testing.T) {
	eye := Eye(3, 2.)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			want := 0.
			if row == col {
				want = 2.
			}
			assert.Equal(t, want, eye.At(row, col))
		}
	}
}

func TestBlockDiag(t *testing.T) {
	a := mat.NewSymDense(2, []float64{1, 2, 2, 3})
	b := DiagSym([]float64{4})
	res := BlockDiag(a, b)

	want := mat.NewDense(3, 3, []float64{
		1, 2, 0,
		2, 3, 0,
		0, 0, 4,
	})
	assert.True(t, mat.Equal(want, res), "\n%v", mat.Formatted(res))
}

func TestConcatVec(t *testing.T) {
	res := ConcatVec(mat.NewVecDense(2, []float64{1, 2}), FullVec(3, 7))
	assert.Equal(t, []float64{1, 2, 7, 7, 7}, res.RawVector().Data)
}

func TestSymmetrize(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 4, 5})
	res := Symmetrize(m)
	assert.Equal(t, 3., res.At(0, 1))
	assert.Equal(t, 3., res.At(1, 0))
	assert.Panics(t, func() { Symmetrize(mat.NewDense(2, 3, nil)) })
}

func TestNANORINF(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	assert.False(t, NANORINF(m))
	m.Set(1, 0, math.NaN())
	assert.True(t, NANORINF(m))
	m.Set(1, 0, math.Inf(-1))
	assert.True(t, NANORINF(m))
}
