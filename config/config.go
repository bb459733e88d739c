// Package config loads the dashboard configuration from file and
// environment, with defaults that bring the dashboard up against the mock
// source without any file at all.
package config

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownSourceKind = errors.New("unknown datasource kind")
	ErrBadForecastConfig = errors.New("invalid forecast configuration")
)

// Config is the complete application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	DataSource DataSourceConfig `mapstructure:"datasource"`
	Forecast   ForecastConfig   `mapstructure:"forecast"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Logging    LoggingConfig    `mapstructure:"logging"`

	// Parameters describes the selectable sensor parameters, keyed by
	// parameter id. Empty falls back to the built-in set.
	Parameters map[string]ParameterMeta `mapstructure:"parameters"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DataSourceConfig selects and configures the history backend.
type DataSourceConfig struct {
	// Kind is one of "homeassistant", "influx" or "mock". The non-mock
	// kinds fall back to mock data when unreachable.
	Kind string `mapstructure:"kind"`

	Rooms []string `mapstructure:"rooms"`

	HomeAssistant HomeAssistantConfig `mapstructure:"homeassistant"`
	Influx        InfluxConfig        `mapstructure:"influx"`
	Mock          MockConfig          `mapstructure:"mock"`
}

type HomeAssistantConfig struct {
	Host    string        `mapstructure:"host"`
	Port    int           `mapstructure:"port"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type InfluxConfig struct {
	URL         string `mapstructure:"url"`
	Token       string `mapstructure:"token"`
	Org         string `mapstructure:"org"`
	Bucket      string `mapstructure:"bucket"`
	Measurement string `mapstructure:"measurement"`
}

type MockConfig struct {
	Seed     uint64        `mapstructure:"seed"`
	Interval time.Duration `mapstructure:"interval"`
}

// ForecastConfig carries the engine and predictor tunables. These are passed
// explicitly into the core rather than read from ambient state there.
type ForecastConfig struct {
	Window         int           `mapstructure:"window"`
	Damping        float64       `mapstructure:"damping"`
	HorizonCap     int           `mapstructure:"horizon_cap"`
	BlendWeight    float64       `mapstructure:"blend_weight"`
	NoiseScale     float64       `mapstructure:"noise_scale"`
	BucketsPerDay  int           `mapstructure:"buckets_per_day"`
	WorkdayProfile bool          `mapstructure:"workday_profile"`
	Interval       time.Duration `mapstructure:"interval"`
	DefaultHorizon int           `mapstructure:"default_horizon"`
	Lookback       time.Duration `mapstructure:"lookback"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ParameterMeta labels a sensor parameter for display and bounds its
// plausible readings.
type ParameterMeta struct {
	Unit        string  `mapstructure:"unit" json:"unit"`
	DisplayName string  `mapstructure:"display_name" json:"display_name"`
	Color       string  `mapstructure:"color" json:"color"`
	Min         float64 `mapstructure:"min" json:"min"`
	Max         float64 `mapstructure:"max" json:"max"`
}

// defaultParameters mirrors the sensors of the multisensor units feeding the
// dashboard.
var defaultParameters = map[string]ParameterMeta{
	"co2":         {Unit: "ppm", DisplayName: "CO2", Color: "#FF6B6B", Min: 300, Max: 5000},
	"temperature": {Unit: "°C", DisplayName: "Temperature", Color: "#4ECDC4", Min: -10, Max: 50},
	"humidity":    {Unit: "%", DisplayName: "Humidity", Color: "#45B7D1", Min: 0, Max: 100},
	"pressure":    {Unit: "hPa", DisplayName: "Pressure", Color: "#96CEB4", Min: 900, Max: 1100},
	"iaq":         {Unit: "IAQ", DisplayName: "Indoor Air Quality", Color: "#FFEAA7", Min: 0, Max: 500},
	"voc":         {Unit: "VOC", DisplayName: "Volatile Organic Compounds", Color: "#DDA0DD", Min: 0, Max: 1000},
}

// Validate checks cross-field constraints not expressible as defaults.
func (c *Config) Validate() error {
	switch c.DataSource.Kind {
	case "homeassistant", "influx", "mock":
	default:
		return fmt.Errorf("%q, %w", c.DataSource.Kind, ErrUnknownSourceKind)
	}

	f := c.Forecast
	if f.Damping <= 0 || f.Damping > 1 {
		return fmt.Errorf("damping %v out of (0, 1], %w", f.Damping, ErrBadForecastConfig)
	}
	if f.Window < 2 {
		return fmt.Errorf("window %d below 2, %w", f.Window, ErrBadForecastConfig)
	}
	if f.HorizonCap < 1 {
		return fmt.Errorf("horizon cap %d below 1, %w", f.HorizonCap, ErrBadForecastConfig)
	}
	if f.BlendWeight < 0 || f.BlendWeight > 1 {
		return fmt.Errorf("blend weight %v out of [0, 1], %w", f.BlendWeight, ErrBadForecastConfig)
	}
	if f.Interval <= 0 {
		return fmt.Errorf("interval %s not positive, %w", f.Interval, ErrBadForecastConfig)
	}
	return nil
}

// ParameterNames returns the configured parameter ids in map order.
func (c *Config) ParameterNames() []string {
	names := make([]string, 0, len(c.Parameters))
	for name := range c.Parameters {
		names = append(names, name)
	}
	return names
}

// Parameter returns display metadata for a parameter, with a neutral default
// for ids the config does not know.
func (c *Config) Parameter(name string) ParameterMeta {
	if meta, ok := c.Parameters[name]; ok {
		return meta
	}
	return ParameterMeta{Unit: "", DisplayName: name, Color: "#1f77b4"}
}
