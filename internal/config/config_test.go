package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
log_level = "debug"
pretty_log = true

[[route]]
name = "routing:main_rw"
bind_address = "127.0.0.1:6446"
mode = "read-write"
protocol = "classic"
destinations = "10.0.0.1:3306,10.0.0.2:3306"

[[route]]
name = "routing:main_ro"
bind_address = "127.0.0.1:6447"
mode = "read-only"
destinations = "metadata-cache://mycluster/default?role=SECONDARY"
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadTOML(t *testing.T) {
	path := writeTemp(t, "config.toml", sampleTOML)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Routes, 2)
	assert.Equal(t, "routing:main_rw", cfg.Routes[0].Name)
	assert.Equal(t, "read-only", cfg.Routes[1].Mode)

	// defaults applied to the route that omitted them
	assert.Equal(t, "classic", cfg.Routes[1].Protocol)
	assert.EqualValues(t, DefaultMaxConnections, cfg.Routes[1].MaxConnections)
	assert.EqualValues(t, DefaultNetBufferLength, cfg.Routes[0].NetBufferLength)
}

func TestLoadUnknownSuffix(t *testing.T) {
	path := writeTemp(t, "config.ini", sampleTOML)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	assert.Error(t, err)
}

func TestApplyDefaultsNeverOverwritesExplicitValue(t *testing.T) {
	rc := RouteConfig{MaxConnections: 7}
	rc.ApplyDefaults()
	assert.EqualValues(t, 7, rc.MaxConnections)
}
