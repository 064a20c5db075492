package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"shazoom/internal/config"
)

func TestLoadWithNoPathReturnsDefaults(t *testing.T) {
	app, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.DefaultApp().DatabaseKind, app.DatabaseKind)
	require.Equal(t, config.DefaultApp().ConfThreshold, app.ConfThreshold)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shazoom.toml")
	contents := `
workers = 4
conf_threshold = 0.2

[database]
kind = "postgres"
dsn = "postgres://localhost/shazoom"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	app, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, app.Workers)
	require.Equal(t, 0.2, app.ConfThreshold)
	require.Equal(t, "postgres", app.DatabaseKind)
	require.Equal(t, "postgres://localhost/shazoom", app.DatabaseDSN)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("SHAZOOM_DATABASE_KIND", "postgres")
	app, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "postgres", app.DatabaseKind)
}
