package operator

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/harmonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type testSky struct {
	l, m, nMinus1, areas []float64
}

func (s testSky) NPix() int             { return len(s.l) }
func (s testSky) L() []float64          { return s.l }
func (s testSky) M() []float64          { return s.m }
func (s testSky) NMinus1() []float64    { return s.nMinus1 }
func (s testSky) PixelAreas() []float64 { return s.areas }

func newTestSky(rng *rand.Rand, nPix int, area float64) testSky {
	s := testSky{
		l:       make([]float64, nPix),
		m:       make([]float64, nPix),
		nMinus1: make([]float64, nPix),
		areas:   make([]float64, nPix),
	}
	for index := 0; index < nPix; index++ {
		r := 0.9 * math.Sqrt(rng.Float64())
		phi := 2 * math.Pi * rng.Float64()
		s.l[index] = r * math.Sin(phi)
		s.m[index] = r * math.Cos(phi)
		s.nMinus1[index] = math.Sqrt(1-r*r) - 1
		s.areas[index] = area
	}
	return s
}

func newTestBaselines(rng *rand.Rand, nVis int) Baselines {
	b := Baselines{U: make([]float64, nVis), V: make([]float64, nVis), W: make([]float64, nVis)}
	for index := 0; index < nVis; index++ {
		b.U[index] = 4 * (rng.Float64() - 0.5)
		b.V[index] = 4 * (rng.Float64() - 0.5)
		b.W[index] = 0.2 * (rng.Float64() - 0.5)
	}
	return b
}

func randomVector(rng *rand.Rand, n int) []float64 {
	res := make([]float64, n)
	for index := range res {
		res[index] = rng.NormFloat64()
	}
	return res
}

func dataFor(nVis, nFreq, nPol int) Data {
	res := make(Data, 2*nVis)
	for row := range res {
		res[row] = make([][]float64, nFreq)
		for f := range res[row] {
			res[row][f] = make([]float64, nPol)
		}
	}
	return res
}

func TestAdjointConsistency(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	configs := []struct {
		nVis, nPix  int
		frequencies []float64
	}{
		{1, 1, []float64{1.5e9}},
		{6, 12, []float64{1.57542e9}},
		{15, 48, []float64{1.4e9, 1.5e9, 1.6e9}},
	}
	for _, config := range configs {
		sky := newTestSky(rng, config.nPix, 4*math.Pi/float64(config.nPix))
		baselines := newTestBaselines(rng, config.nVis)
		op, err := NewForward(baselines, config.frequencies, dataFor(config.nVis, len(config.frequencies), 1), sky)
		require.NoError(t, err)

		m, n := op.Dims()
		for trial := 0; trial < 5; trial++ {
			x := randomVector(rng, n)
			y := randomVector(rng, m)
			assert.Less(t, AdjointError(op, x, y), 1e-10)
		}
	}
}

func TestDimensionLaw(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for _, nFreq := range []int{1, 2, 5} {
		frequencies := make([]float64, nFreq)
		for index := range frequencies {
			frequencies[index] = 1e9 + float64(index)*1e7
		}
		sky := newTestSky(rng, 7, 0.1)
		op, err := NewForward(newTestBaselines(rng, 4), frequencies, dataFor(4, nFreq, 2), sky)
		require.NoError(t, err)

		m, n := op.Dims()
		assert.Equal(t, 2*4*nFreq, m)
		assert.Equal(t, 7, n)
		assert.Equal(t, 2, op.Polarizations())

		y := make([]float64, m)
		op.Apply(y, randomVector(rng, n))
		x := make([]float64, n)
		op.ApplyAdjoint(x, y)

		assert.Panics(t, func() { op.Apply(make([]float64, m+1), x) })
		assert.Panics(t, func() { op.ApplyAdjoint(make([]float64, n), make([]float64, m-1)) })
	}
}

func TestPointSourceReduction(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	sky := newTestSky(rng, 9, 1)
	baselines := newTestBaselines(rng, 5)
	frequency := 1.57542e9
	op, err := NewForward(baselines, []float64{frequency}, dataFor(5, 1, 1), sky)
	require.NoError(t, err)

	const k = 4
	x := make([]float64, sky.NPix())
	x[k] = 2.5
	y := make([]float64, 10)
	op.Apply(y, x)

	omega := harmonic.Omega(frequency)
	for i := 0; i < 5; i++ {
		z := harmonic.Phase(baselines.U[i], baselines.V[i], baselines.W[i], omega, sky.l[k], sky.m[k], sky.nMinus1[k])
		assert.InDelta(t, 2.5*math.Cos(z), y[i], 1e-12)
		assert.InDelta(t, 2.5*math.Sin(z), y[5+i], 1e-12)
	}
}

func TestShapeMismatchRejection(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	sky := newTestSky(rng, 4, 1)
	baselines := newTestBaselines(rng, 3)

	op, err := NewForward(baselines, []float64{1e9}, dataFor(3, 1, 1)[:5], sky)
	assert.Nil(t, op)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))

	op, err = NewForward(baselines, []float64{1e9}, append(dataFor(3, 1, 1), [][]float64{{0}}), sky)
	assert.Nil(t, op)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))

	// two dimensional data
	flat := make(Data, 6)
	for row := range flat {
		flat[row] = [][]float64{{}}
	}
	op, err = NewForward(baselines, []float64{1e9}, flat, sky)
	assert.Nil(t, op)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))

	ragged := dataFor(3, 2, 1)
	ragged[2] = ragged[2][:1]
	op, err = NewForward(baselines, []float64{1e9, 2e9}, ragged, sky)
	assert.Nil(t, op)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))

	op, err = NewForward(baselines, []float64{1e9, 2e9}, dataFor(3, 1, 1), sky)
	assert.Nil(t, op)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
}

func TestWorkersDoNotChangeBits(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	sky := newTestSky(rng, 37, 0.3)
	baselines := newTestBaselines(rng, 11)
	frequencies := []float64{1.4e9, 1.6e9}
	data := dataFor(11, 2, 1)

	serial, err := NewForward(baselines, frequencies, data, sky)
	require.NoError(t, err)
	m, n := serial.Dims()
	x := randomVector(rng, n)
	y := randomVector(rng, m)

	wantY := make([]float64, m)
	wantX := make([]float64, n)
	serial.Apply(wantY, x)
	serial.ApplyAdjoint(wantX, y)

	for _, workers := range []int{2, 3, 8, 64} {
		parallel, err := NewForward(baselines, frequencies, data, sky, WithWorkers(workers))
		require.NoError(t, err)
		gotY := make([]float64, m)
		gotX := make([]float64, n)
		parallel.Apply(gotY, x)
		parallel.ApplyAdjoint(gotX, y)
		assert.Equal(t, wantY, gotY, "workers=%d", workers)
		assert.Equal(t, wantX, gotX, "workers=%d", workers)
	}
}

func TestDesignMatrixMatchesOperator(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	sky := newTestSky(rng, 6, 0.5)
	baselines := newTestBaselines(rng, 4)
	frequencies := []float64{1.2e9, 1.3e9}
	op, err := NewForward(baselines, frequencies, dataFor(4, 2, 1), sky)
	require.NoError(t, err)

	gamma := DesignMatrixFrequencies(baselines, frequencies, sky)
	m, n := op.Dims()
	rows, cols := gamma.Dims()
	require.Equal(t, m, rows)
	require.Equal(t, n, cols)

	col := make([]float64, m)
	for k := 0; k < n; k++ {
		unit := make([]float64, n)
		unit[k] = 1
		op.Apply(col, unit)
		for row := 0; row < m; row++ {
			assert.InDelta(t, col[row], gamma.At(row, k), 1e-12)
		}
	}

	single := DesignMatrix(baselines, frequencies[0], sky)
	r, c := single.Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 6, c)
	assert.Equal(t, gamma.At(0, 0), single.At(0, 0))
	assert.Equal(t, gamma.At(8, 3), single.At(4, 3))
}

func TestBackProjectorIsTranspose(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	sky := newTestSky(rng, 10, 0.2)
	baselines := newTestBaselines(rng, 5)
	frequencies := []float64{1.5e9, 1.7e9}
	fwd, err := NewForward(baselines, frequencies, dataFor(5, 2, 1), sky)
	require.NoError(t, err)
	bp, err := NewBackProjector(baselines, frequencies, sky, WithWorkers(3))
	require.NoError(t, err)

	m, n := fwd.Dims()
	bn, bm := bp.Dims()
	require.Equal(t, m, bm)
	require.Equal(t, n, bn)

	y := randomVector(rng, m)
	x := randomVector(rng, n)
	want := make([]float64, n)
	got := make([]float64, n)
	fwd.ApplyAdjoint(want, y)
	bp.Apply(got, y)
	assert.InDeltaSlice(t, want, got, 1e-10)

	wantY := make([]float64, m)
	gotY := make([]float64, m)
	fwd.Apply(wantY, x)
	bp.ApplyAdjoint(gotY, x)
	assert.InDeltaSlice(t, wantY, gotY, 1e-10)

	assert.Less(t, AdjointError(bp, y, x), 1e-10)
}

func TestDirtyImagePeaksAtSource(t *testing.T) {
	rng := rand.New(rand.NewPCG(15, 16))
	sky := newTestSky(rng, 30, 1)
	// pixel 0 at zenith
	sky.l[0], sky.m[0], sky.nMinus1[0] = 0, 0, 0
	baselines := newTestBaselines(rng, 20)
	bp, err := NewBackProjector(baselines, []float64{1.5e9}, sky)
	require.NoError(t, err)

	// a unit point source at zenith has unit visibility on every baseline
	vis := make([]complex128, 20)
	for index := range vis {
		vis[index] = 1
	}
	img := bp.DirtyImage(vis)
	require.Len(t, img, 30)
	assert.InDelta(t, 20., img[0], 1e-12)
	for index := 1; index < len(img); index++ {
		assert.Less(t, img[index], img[0])
	}
	assert.Panics(t, func() { bp.DirtyImage(vis[:3]) })
}

func TestMeasurementsLayout(t *testing.T) {
	data := dataFor(2, 2, 2)
	// visibility i at frequency f, polarization 1: (10*f + i) + j(100 + 10*f + i)
	for f := 0; f < 2; f++ {
		for i := 0; i < 2; i++ {
			data[i][f][1] = float64(10*f + i)
			data[2+i][f][1] = float64(100 + 10*f + i)
		}
	}
	assert.Equal(t, []float64{0, 1, 10, 11, 100, 101, 110, 111}, data.Measurements(1))
	assert.Equal(t, make([]float64, 8), data.Measurements(0))

	single := NewData([]float64{1, 2, 3, 4})
	rows, nFreq, nPol, err := single.Shape()
	require.NoError(t, err)
	assert.Equal(t, []int{4, 1, 1}, []int{rows, nFreq, nPol})
	assert.Equal(t, []float64{1, 2, 3, 4}, single.Measurements(0))
}

func TestDenseOperator(t *testing.T) {
	rng := rand.New(rand.NewPCG(17, 18))
	a := mat.NewDense(4, 3, randomVector(rng, 12))
	op := NewDense(a)
	m, n := op.Dims()
	assert.Equal(t, 4, m)
	assert.Equal(t, 3, n)
	assert.Less(t, AdjointError(op, randomVector(rng, 3), randomVector(rng, 4)), 1e-12)

	x := []float64{1, 0, 0}
	y := make([]float64, 4)
	op.Apply(y, x)
	assert.Equal(t, mat.Col(nil, 0, a), y)
}
