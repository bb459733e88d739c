package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/senselab/hindcast/config"
	"github.com/senselab/hindcast/dashboard"
	"github.com/senselab/hindcast/datasource"
	"github.com/senselab/hindcast/server"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log.Info().
		Str("version", Version).
		Str("commit", GitCommit).
		Str("datasource", cfg.DataSource.Kind).
		Msg("hindcastd starting")

	provider := newProvider(cfg, log)
	svc := dashboard.New(cfg, provider, log)
	app := server.New(svc, log)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info().Str("address", addr).Msg("server listening")
		if err := app.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}

// newProvider builds the configured source wrapped with a mock standby, so
// the dashboard stays usable when the live backend is down.
func newProvider(cfg *config.Config, log zerolog.Logger) datasource.Provider {
	params := cfg.ParameterNames()
	mock := datasource.NewMock(datasource.MockOptions{
		Seed:       cfg.DataSource.Mock.Seed,
		Interval:   cfg.DataSource.Mock.Interval,
		Rooms:      cfg.DataSource.Rooms,
		Parameters: params,
	})

	switch cfg.DataSource.Kind {
	case "homeassistant":
		ha := datasource.NewHomeAssistant(datasource.HomeAssistantOptions{
			Host:       cfg.DataSource.HomeAssistant.Host,
			Port:       cfg.DataSource.HomeAssistant.Port,
			Token:      cfg.DataSource.HomeAssistant.Token,
			Timeout:    cfg.DataSource.HomeAssistant.Timeout,
			Rooms:      cfg.DataSource.Rooms,
			Parameters: params,
		}, log)
		return datasource.NewFallback(ha, mock, log)
	case "influx":
		influx := datasource.NewInflux(datasource.InfluxOptions{
			URL:         cfg.DataSource.Influx.URL,
			Token:       cfg.DataSource.Influx.Token,
			Org:         cfg.DataSource.Influx.Org,
			Bucket:      cfg.DataSource.Influx.Bucket,
			Measurement: cfg.DataSource.Influx.Measurement,
			Rooms:       cfg.DataSource.Rooms,
			Parameters:  params,
		}, log)
		return datasource.NewFallback(influx, mock, log)
	default:
		return mock
	}
}

func newLogger(cfg config.LoggingConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	log := zerolog.New(os.Stderr)
	if cfg.Format == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return log.Level(level).With().Timestamp().Logger(), nil
}
