package scoring

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConfig_Validate(t *testing.T) {
	t.Run("builtins are valid", func(t *testing.T) {
		for _, cfg := range BuiltinConfigs() {
			assert.NoError(t, cfg.Validate(), "version %s", cfg.Version)
		}
	})

	t.Run("missing version", func(t *testing.T) {
		cfg := Config{Parameters: map[string]float64{ParamWeightAcademic: 0.5, ParamWeightExperience: 0.5}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("weights must sum to one", func(t *testing.T) {
		cfg := Config{
			Version:    "bad",
			Parameters: map[string]float64{ParamWeightAcademic: 0.7, ParamWeightExperience: 0.7},
		}
		assert.Error(t, cfg.Validate())
	})

	t.Run("invalid extract expression", func(t *testing.T) {
		cfg := Config{
			Version:    "bad",
			Parameters: map[string]float64{ParamWeightAcademic: 0.5, ParamWeightExperience: 0.5},
			Extract:    map[string]string{"gpa": "academic.["},
		}
		assert.Error(t, cfg.Validate())
	})
}

func TestNewResolver(t *testing.T) {
	t.Run("active builtin", func(t *testing.T) {
		r, err := NewResolver("v1", "", discardLogger())
		require.NoError(t, err)
		assert.Equal(t, "v1", r.Active().Version)

		cfg, ok := r.Get("v2")
		require.True(t, ok)
		assert.Equal(t, "v2", cfg.Version)

		_, ok = r.Get("v99")
		assert.False(t, ok)
	})

	t.Run("unknown active version", func(t *testing.T) {
		_, err := NewResolver("v99", "", discardLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not published")
	})

	t.Run("calibration file adds version", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "calibration.json")
		body := `{"versions":[{"version":"v3-pilot","parameters":{"weight_academic":0.45,"weight_experience":0.55}}]}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		r, err := NewResolver("v3-pilot", path, discardLogger())
		require.NoError(t, err)

		cfg := r.Active()
		assert.Equal(t, "v3-pilot", cfg.Version)
		assert.InDelta(t, 0.45, cfg.Param(ParamWeightAcademic, 0), 0.0001)
		// Versions without extract expressions inherit the defaults.
		assert.NotEmpty(t, cfg.Extract)
	})

	t.Run("invalid calibration version rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "calibration.json")
		body := `{"versions":[{"version":"broken","parameters":{"weight_academic":0.9,"weight_experience":0.9}}]}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		_, err := NewResolver("v1", path, discardLogger())
		assert.Error(t, err)
	})

	t.Run("unreadable calibration file degrades to builtins", func(t *testing.T) {
		r, err := NewResolver("v1", filepath.Join(t.TempDir(), "missing.json"), discardLogger())
		require.NoError(t, err)
		assert.Equal(t, "v1", r.Active().Version)
	})

	t.Run("malformed calibration file degrades to builtins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "calibration.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"versions": [`), 0o600))

		r, err := NewResolver("v2", path, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, "v2", r.Active().Version)
	})

	t.Run("versions lists builtins", func(t *testing.T) {
		r, err := NewResolver("v1", "", discardLogger())
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"v1", "v2"}, r.Versions())
	})
}
