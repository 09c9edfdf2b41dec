package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "county", cfg.Data.KeyColumn)
	assert.Contains(t, cfg.Data.ReservedColumns, "fips")
	assert.Equal(t, 9, cfg.Classify.MaxClasses)
	assert.Equal(t, 250, cfg.Layout.Iterations)
	assert.Equal(t, 60.0, cfg.Layout.CollisionRadius)
	assert.Equal(t, 0.02, cfg.Layout.Attraction)
	assert.Equal(t, 960.0, cfg.Render.Width)
	assert.Equal(t, 600.0, cfg.Render.Height)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "NAME", cfg.Geo.NameField)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ATLAS_DATA_KEY_COLUMN", "geoid")
	t.Setenv("ATLAS_SERVER_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "geoid", cfg.Data.KeyColumn)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level"})
	require.Error(t, err)
}
