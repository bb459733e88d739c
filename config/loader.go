package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration from the given file path, falling back to a
// config.yaml in the usual locations when path is empty. Environment
// variables prefixed HINDCAST_ override file values, with dots replaced by
// underscores (e.g. HINDCAST_SERVER_PORT).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/hindcast")
	}

	v.SetEnvPrefix("HINDCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Parameters) == 0 {
		cfg.Parameters = defaultParameters
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8501)

	v.SetDefault("datasource.kind", "mock")
	v.SetDefault("datasource.homeassistant.host", "localhost")
	v.SetDefault("datasource.homeassistant.port", 8123)
	v.SetDefault("datasource.homeassistant.timeout", 10*time.Second)
	v.SetDefault("datasource.influx.url", "http://localhost:8086")
	v.SetDefault("datasource.influx.bucket", "sensors")
	v.SetDefault("datasource.influx.measurement", "sensor_data")
	v.SetDefault("datasource.mock.interval", 5*time.Minute)

	v.SetDefault("forecast.window", 24)
	v.SetDefault("forecast.damping", 0.95)
	v.SetDefault("forecast.horizon_cap", 72)
	v.SetDefault("forecast.blend_weight", 0.5)
	v.SetDefault("forecast.noise_scale", 1.0)
	v.SetDefault("forecast.buckets_per_day", 48)
	v.SetDefault("forecast.workday_profile", false)
	v.SetDefault("forecast.interval", 5*time.Minute)
	v.SetDefault("forecast.default_horizon", 72)
	v.SetDefault("forecast.lookback", 24*time.Hour)

	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}
