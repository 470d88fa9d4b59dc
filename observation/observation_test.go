package observation

import (
	"path/filepath"
	"testing"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/operator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllUVW(t *testing.T) {
	antennas := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 2, 1}}
	pairs, baselines := AllUVW(antennas)
	assert.Equal(t, [][2]int{{0, 1}, {0, 2}, {1, 2}}, pairs)
	assert.Equal(t, []float64{-1, 0, 1}, baselines.U)
	assert.Equal(t, []float64{0, -2, -2}, baselines.V)
	assert.Equal(t, []float64{0, -1, -1}, baselines.W)

	_, err := FromAntennas(antennas[:1], 1e9)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))

	obs, err := FromAntennas(antennas, 1e9)
	require.NoError(t, err)
	assert.Equal(t, 3, obs.NVis())
	assert.Equal(t, []int{0, 1, 2}, obs.Indices)
}

func TestVisToReal(t *testing.T) {
	vis := []complex128{1 + 2i, 3 - 4i}
	y := VisToReal(vis)
	assert.Equal(t, []float64{1, 3, 2, -4}, y)
	assert.Equal(t, vis, RealToVis(y))
}

func TestNewValidates(t *testing.T) {
	baselines := operator.Baselines{U: []float64{1, 2}, V: []float64{0, 0}, W: []float64{0, 0}}
	_, err := New(1e9, baselines, []complex128{1}, nil, nil)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
	_, err = New(1e9, baselines, nil, []float64{1}, nil)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
	_, err = New(1e9, baselines, nil, nil, []int{0})
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
	_, err = New(0, baselines, nil, nil, nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidParameter))
	_, err = New(1e9, operator.Baselines{}, nil, nil, nil)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
}

func TestVisStats(t *testing.T) {
	baselines := operator.Baselines{U: make([]float64, 4), V: make([]float64, 4), W: make([]float64, 4)}
	obs, err := New(1e9, baselines, []complex128{3 + 4i, 1, 2i, -3}, []float64{0.1, 0.1, 0.2, 0.2}, nil)
	require.NoError(t, err)
	s, err := obs.VisStats()
	require.NoError(t, err)
	assert.Equal(t, 5., s.P100)
	assert.Equal(t, 11., s.Energy)
	assert.LessOrEqual(t, s.P05, s.P50)
	assert.LessOrEqual(t, s.P50, s.P95)
	assert.LessOrEqual(t, s.P95, s.P100)
	assert.InDelta(t, 0.15, obs.MeanRMS(), 1e-15)

	empty, err := New(1e9, baselines, nil, nil, nil)
	require.NoError(t, err)
	_, err = empty.VisStats()
	assert.Error(t, err)
	assert.Equal(t, 0., empty.MeanRMS())
}

func TestSelect(t *testing.T) {
	baselines := operator.Baselines{U: []float64{1, 10, 100}, V: []float64{0, 0, 0}, W: []float64{0, 0, 0}}
	obs, err := New(1e9, baselines, []complex128{1, 2, 3}, []float64{1, 2, 3}, []int{7, 8, 9})
	require.NoError(t, err)

	short, err := obs.Select(0, 50)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, short.Indices)
	assert.Equal(t, []complex128{1, 2}, short.Vis)
	assert.Equal(t, []float64{1, 2}, short.RMS)

	long, err := obs.Select(5, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 100}, long.Baselines.U)

	_, err = obs.Select(1000, 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidParameter))
}

func TestLoadJSONAntennas(t *testing.T) {
	raw := []byte(`{"frequency": 1.5e9, "antennas": [[0,0,0],[1,0,0],[0,1,0]], "vis": [[1,0],[0,1],[1,1]], "rms": [0.1, 0.1, 0.1]}`)
	obs, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, 1.5e9, obs.Frequency)
	assert.Equal(t, 3, obs.NVis())
	assert.Equal(t, [][2]int{{0, 1}, {0, 2}, {1, 2}}, obs.Pairs)
	assert.Equal(t, []complex128{1, 1i, 1 + 1i}, obs.Vis)
}

func TestLoadRejects(t *testing.T) {
	for name, raw := range map[string]string{
		"no baselines": "frequency: 1e9\nvis: [[1, 0]]\n",
		"bad uvw":      "frequency: 1e9\nuvw: [[1, 0]]\n",
		"bad vis":      "frequency: 1e9\nuvw: [[1, 0, 0]]\nvis: [[1]]\n",
		"count":        "frequency: 1e9\nuvw: [[1, 0, 0]]\nvis: [[1, 0], [2, 0]]\n",
		"syntax":       "frequency: [\n",
	} {
		_, err := Parse([]byte(raw))
		assert.Error(t, err, name)
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	baselines := operator.Baselines{U: []float64{1, 2}, V: []float64{3, 4}, W: []float64{5, 6}}
	obs, err := New(1.2e9, baselines, []complex128{1 - 1i, 2}, []float64{0.5, 0.5}, []int{4, 2})
	require.NoError(t, err)
	obs.Info = map[string]string{"source": "test"}

	path := filepath.Join(t.TempDir(), "obs.yaml")
	require.NoError(t, obs.Save(path))
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, obs.Frequency, back.Frequency)
	assert.Equal(t, obs.Baselines, back.Baselines)
	assert.Equal(t, obs.Vis, back.Vis)
	assert.Equal(t, obs.RMS, back.RMS)
	assert.Equal(t, obs.Indices, back.Indices)
	assert.Equal(t, obs.Info, back.Info)
}
