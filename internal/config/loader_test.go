package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// chdir moves into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func isolatedLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	require.NotNil(t, loader)
	assert.Same(t, viper.GetViper(), loader.GetViper())

	assert.NotNil(t, NewLoaderWithViper(nil).GetViper())
}

func TestLoadWithNoConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg, err := isolatedLoader().Load()
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, def.Solver, cfg.Solver)
	assert.Equal(t, def.Hull, cfg.Hull)
	assert.Equal(t, def.Render, cfg.Render)
	assert.Equal(t, def.Server, cfg.Server)
}

func TestLoadWithValidYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, `
log_level: debug
solver:
  tolerance: 1.0e-6
  orientation: 0.5
hull:
  algorithm: monotone
  flip_y: true
output:
  format: json
server:
  port: 9090
batch:
  workers: 2
  include: ["*.pts"]
`)

	loader := isolatedLoader()
	cfg, err := loader.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.InDelta(t, 1e-6, cfg.Solver.Tolerance, 1e-18)
	assert.InDelta(t, 0.5, cfg.Solver.Orientation, 1e-12)
	assert.Equal(t, "monotone", cfg.Hull.Algorithm)
	assert.True(t, cfg.Hull.FlipY)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Batch.Workers)
	assert.Equal(t, []string{"*.pts"}, cfg.Batch.Include)

	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultConfig().Solver.MaxNewtonIterations, cfg.Solver.MaxNewtonIterations)
	assert.Equal(t, DefaultConfig().Render.HullColor, cfg.Render.HullColor)
	assert.Equal(t, path, loader.GetConfigFileUsed())
}

func TestLoadFindsConfigInWorkingDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hullrect.yaml"), "hull:\n  bounding_box: true\n")
	chdir(t, dir)

	cfg, err := isolatedLoader().Load()
	require.NoError(t, err)
	assert.True(t, cfg.Hull.BoundingBox)
}

func TestLoadWithInvalidYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	writeFile(t, path, "solver: [unclosed\n")

	_, err := isolatedLoader().LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadWithNonExistentFile(t *testing.T) {
	_, err := isolatedLoader().LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoadWithValidationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "solver:\n  mu_factor: 2\n")

	_, err := isolatedLoader().LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")

	cfg, err := isolatedLoader().LoadWithFileWithoutValidation(path)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, cfg.Solver.MuFactor, 1e-12)
}

func TestEnvironmentVariableOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdir(t, t.TempDir())
	t.Setenv("HULLRECT_LOG_LEVEL", "warn")
	t.Setenv("HULLRECT_SOLVER_MAX_OUTER_ITERATIONS", "12")
	t.Setenv("HULLRECT_HULL_ALGORITHM", "monotone")
	t.Setenv("HULLRECT_SERVER_RATE_LIMIT_ENABLED", "true")

	cfg, err := isolatedLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 12, cfg.Solver.MaxOuterIterations)
	assert.Equal(t, "monotone", cfg.Hull.Algorithm)
	assert.True(t, cfg.Server.RateLimit.Enabled)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	writeFile(t, path, "output:\n  format: yaml\n")
	t.Setenv("HULLRECT_OUTPUT_FORMAT", "csv")

	cfg, err := isolatedLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Output.Format)
}

func TestGetSetConfigValues(t *testing.T) {
	loader := isolatedLoader()
	loader.Set("hull.algorithm", "monotone")
	assert.Equal(t, "monotone", loader.GetString("hull.algorithm"))
	assert.Equal(t, "monotone", loader.Get("hull.algorithm"))
}

func TestGetResolvedConfig(t *testing.T) {
	loader := isolatedLoader()
	loader.setDefaults()
	settings := loader.GetResolvedConfig()
	assert.Contains(t, settings, "solver")
	assert.Contains(t, settings, "server")
}

func TestWriteConfigToFile(t *testing.T) {
	loader := isolatedLoader()
	loader.setDefaults()
	path := filepath.Join(t.TempDir(), "written.yaml")
	require.NoError(t, loader.WriteConfigToFile(path))

	cfg, err := isolatedLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Port, cfg.Server.Port)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hullrect.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Config
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	def := DefaultConfig()
	assert.Equal(t, def.Solver, decoded.Solver)
	assert.Equal(t, def.Render, decoded.Render)
	assert.Equal(t, def.Server, decoded.Server)
	assert.Equal(t, def.Batch.Include, decoded.Batch.Include)

	cfg, err := isolatedLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, def.Solver, cfg.Solver)
	assert.Equal(t, def.Hull, cfg.Hull)
}

func TestGenerateDefaultConfigFileWithEmptyFilename(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, GenerateDefaultConfigFile(""))
	_, err := os.Stat("hullrect.yaml")
	assert.NoError(t, err)
}

func TestGetConfigSearchPaths(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join(xdg, "hullrect"))
	assert.Equal(t, "/etc/hullrect", paths[len(paths)-1])
}

func TestPrintConfigInfo(t *testing.T) {
	var buf bytes.Buffer
	isolatedLoader().PrintConfigInfo(&buf)

	out := buf.String()
	assert.Contains(t, out, "Configuration file used: (none, using defaults)")
	assert.Contains(t, out, "/etc/hullrect")
	assert.Contains(t, out, "Environment prefix: HULLRECT")
}
