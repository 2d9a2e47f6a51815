// Package config loads the compiler's backend configuration (spec §6.1:
// per-bus minimum_clock_time, time_of_flight, delay_ns, markers_default,
// output/channel indices, plus the scheduling-wide autosync policy) from
// YAML and environment variables via github.com/spf13/viper, filling the
// role the teacher's referenced-but-unfinished internal/config.Config
// played against appServerOptions (C.GetBool("debug")).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/qilimanjaro-tech/qblox-qprog-compiler/qprog/compiler"
)

// Config wraps a viper instance scoped to this service's settings.
type Config struct {
	v *viper.Viper
}

// New returns a Config with QPROG_-prefixed environment overrides enabled
// and the built-in defaults for every setting this service reads.
func New() *Config {
	v := viper.New()
	v.SetEnvPrefix("QPROG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("debug", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.local_only", true)
	v.SetDefault("backend.autosync", true)
	v.SetDefault("backend.global_min_clock_ns", 4)
	return &Config{v: v}
}

// Load reads a YAML file at path into a fresh Config on top of the
// built-in defaults. An empty path skips file loading, so callers that
// only need env/defaults can pass ""; a non-empty path that cannot be read
// is an error.
func Load(path string) (*Config, error) {
	c := New()
	if path == "" {
		return c, nil
	}
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return c, nil
}

// GetBool reads a boolean setting, e.g. "debug".
func (c *Config) GetBool(key string) bool { return c.v.GetBool(key) }

// GetInt reads an integer setting, e.g. "server.port".
func (c *Config) GetInt(key string) int { return c.v.GetInt(key) }

// GetString reads a string setting.
func (c *Config) GetString(key string) string { return c.v.GetString(key) }

// busSetting mirrors one bus entry of the "backend.buses" map in the YAML
// backend-config file (spec §6.1).
type busSetting struct {
	MinimumClockTimeNs int64 `mapstructure:"minimum_clock_time_ns"`
	TimeOfFlightNs     int64 `mapstructure:"time_of_flight_ns"`
	DelayNs            int64 `mapstructure:"delay_ns"`
	MarkersDefault     uint8 `mapstructure:"markers_default"`
	RegisterCount      int   `mapstructure:"register_count"`
	MinWaitNs          int64 `mapstructure:"min_wait_ns"`
	MaxWaitNs          int64 `mapstructure:"max_wait_ns"`
	MaxAcqIndices      int   `mapstructure:"max_acq_indices"`
	OutputIndices      []int `mapstructure:"output_indices"`
}

// backendSetting mirrors the "backend" top-level YAML key.
type backendSetting struct {
	AutoSync         bool                  `mapstructure:"autosync"`
	GlobalMinClockNs int64                 `mapstructure:"global_min_clock_ns"`
	Buses            map[string]busSetting `mapstructure:"buses"`
}

// BackendConfig decodes the "backend" section into a compiler.BackendConfig.
// Distortion chains are not config-driven here — they carry Filter
// implementations (spec §4.4.9) which a calibration/runcard layer
// upstream of this service is responsible for constructing and attaching
// per bus before Compile runs; this loader only fills the scalar/timing
// settings a YAML file can express directly.
func (c *Config) BackendConfig() (compiler.BackendConfig, error) {
	var raw backendSetting
	if err := c.v.UnmarshalKey("backend", &raw); err != nil {
		return compiler.BackendConfig{}, fmt.Errorf("config: decoding backend settings: %w", err)
	}
	buses := make(map[string]compiler.BusBackendConfig, len(raw.Buses))
	for name, b := range raw.Buses {
		buses[name] = compiler.BusBackendConfig{
			MinimumClockTimeNs: b.MinimumClockTimeNs,
			TimeOfFlightNs:     b.TimeOfFlightNs,
			DelayNs:            b.DelayNs,
			MarkersDefault:     b.MarkersDefault,
			RegisterCount:      b.RegisterCount,
			MinWaitNs:          b.MinWaitNs,
			MaxWaitNs:          b.MaxWaitNs,
			MaxAcqIndices:      b.MaxAcqIndices,
			OutputIndices:      b.OutputIndices,
		}
	}
	return compiler.BackendConfig{
		Buses:            buses,
		AutoSync:         raw.AutoSync,
		GlobalMinClockNs: raw.GlobalMinClockNs,
	}, nil
}
