package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/reconstruct"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gridless.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "lsqr", cfg.Solver.Strategy)
	assert.Equal(t, -1., cfg.Solver.Alpha)
	assert.Equal(t, 0.02, cfg.Solver.L1Ratio)
	assert.Equal(t, 5, cfg.Solver.Folds)
	assert.Greater(t, cfg.Solver.Workers, 0)
	assert.Equal(t, time.Duration(0), cfg.Solver.Timeout)
	assert.Equal(t, "sky.csv", cfg.Output.CSV)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, uint64(1), cfg.Simulate.Seed)

	strategy, err := cfg.Strategy()
	require.NoError(t, err)
	assert.Equal(t, reconstruct.LSQR{Damp: -1}, strategy)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[sphere]
nside = 4
fov = "60deg"

[solver]
strategy = "lasso"
alpha = 0.5
l1_ratio = 0.9
cross_validate = true
timeout = "2m"

[output]
scale = true
image = "sky.png"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Sphere.NSide)
	assert.True(t, cfg.Output.Scale)
	assert.Equal(t, 2*time.Minute, cfg.Solver.Timeout)

	strategy, err := cfg.Strategy()
	require.NoError(t, err)
	assert.Equal(t, reconstruct.ElasticNet{Alpha: 0.5, L1Ratio: 0.9, CrossValidate: true, Folds: 5}, strategy)

	sphere, err := cfg.Sphere()
	require.NoError(t, err)
	assert.Equal(t, 4, sphere.NSide())
	assert.Greater(t, sphere.NPix(), 0)
	assert.Less(t, sphere.NPix(), 12*4*4)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "[solver]\nalpha = 0.5\n")
	t.Setenv("GRIDLESS_SOLVER_ALPHA", "0.25")
	t.Setenv("GRIDLESS_SOLVER_STRATEGY", "fista")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Solver.Alpha)
	assert.Equal(t, "fista", cfg.Solver.Strategy)
}

func TestSphereFromResolution(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Sphere.Res = "10deg"
	sphere, err := cfg.Sphere()
	require.NoError(t, err)
	for _, n := range sphere.N() {
		assert.GreaterOrEqual(t, n, -1e-12)
	}
}

func TestValidate(t *testing.T) {
	for name, content := range map[string]string{
		"strategy": "[solver]\nstrategy = \"clean\"\n",
		"l1 ratio": "[solver]\nl1_ratio = 2.0\n",
		"nside":    "[sphere]\nnside = -1\n",
		"fov":      "[sphere]\nfov = \"wide\"\n",
	} {
		_, err := Load(writeConfig(t, content))
		assert.True(t, errors.Is(err, errors.ErrInvalidParameter), name)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
