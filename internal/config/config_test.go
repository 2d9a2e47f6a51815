package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	c := config.New()
	assert.False(t, c.GetBool("debug"))
	assert.Equal(t, 8080, c.GetInt("server.port"))
	assert.True(t, c.GetBool("server.local_only"))
	assert.True(t, c.GetBool("backend.autosync"))
}

func TestNew_EnvOverride(t *testing.T) {
	t.Setenv("QPROG_DEBUG", "true")
	t.Setenv("QPROG_SERVER_PORT", "9090")

	c := config.New()
	assert.True(t, c.GetBool("debug"))
	assert.Equal(t, 9090, c.GetInt("server.port"))
}

func TestLoad_MissingPathUsesDefaults(t *testing.T) {
	c, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, c.GetInt("server.port"))
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backend.yaml")
	yaml := `
debug: true
backend:
  autosync: false
  global_min_clock_ns: 8
  buses:
    drive:
      minimum_clock_time_ns: 4
      markers_default: 15
      register_count: 32
      min_wait_ns: 4
      max_wait_ns: 65532
      max_acq_indices: 32
    readout:
      minimum_clock_time_ns: 4
      time_of_flight_ns: 224
      register_count: 32
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, c.GetBool("debug"))

	backend, err := c.BackendConfig()
	require.NoError(t, err)
	assert.False(t, backend.AutoSync)
	assert.Equal(t, int64(8), backend.GlobalMinClockNs)
	require.Contains(t, backend.Buses, "drive")
	require.Contains(t, backend.Buses, "readout")
	assert.Equal(t, uint8(15), backend.Buses["drive"].MarkersDefault)
	assert.Equal(t, int64(224), backend.Buses["readout"].TimeOfFlightNs)
}

func TestBackendConfig_EmptyWhenNoBusesDeclared(t *testing.T) {
	c := config.New()
	backend, err := c.BackendConfig()
	require.NoError(t, err)
	assert.Empty(t, backend.Buses)
	assert.True(t, backend.AutoSync)
}
