// Package datasource supplies sensor observations to the dashboard, either
// from a live home-automation backend or from a synthetic generator when
// nothing is reachable. Source failures are absorbed here and never reach the
// forecasting core.
package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/senselab/hindcast/timeseries"
)

var ErrSourceUnavailable = errors.New("data source unavailable")

// Provider is the data source capability consumed by the dashboard.
type Provider interface {
	FetchSeries(ctx context.Context, roomID, sensorID string, start, end time.Time) (*timeseries.Series, error)
	Rooms(ctx context.Context) ([]string, error)
	Parameters(ctx context.Context, roomID string) ([]string, error)
	Connected(ctx context.Context) bool
}

// Fallback wraps a primary provider and substitutes the standby whenever the
// primary is unavailable, so the dashboard keeps rendering with synthetic
// data instead of propagating source failures.
type Fallback struct {
	primary Provider
	standby Provider
	log     zerolog.Logger
}

func NewFallback(primary, standby Provider, log zerolog.Logger) *Fallback {
	return &Fallback{
		primary: primary,
		standby: standby,
		log:     log,
	}
}

func (f *Fallback) FetchSeries(ctx context.Context, roomID, sensorID string, start, end time.Time) (*timeseries.Series, error) {
	s, err := f.primary.FetchSeries(ctx, roomID, sensorID, start, end)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrSourceUnavailable) {
		return nil, err
	}
	f.log.Warn().
		Err(err).
		Str("room", roomID).
		Str("sensor", sensorID).
		Msg("primary data source unavailable, substituting standby")
	return f.standby.FetchSeries(ctx, roomID, sensorID, start, end)
}

func (f *Fallback) Rooms(ctx context.Context) ([]string, error) {
	rooms, err := f.primary.Rooms(ctx)
	if err == nil {
		return rooms, nil
	}
	if !errors.Is(err, ErrSourceUnavailable) {
		return nil, err
	}
	return f.standby.Rooms(ctx)
}

func (f *Fallback) Parameters(ctx context.Context, roomID string) ([]string, error) {
	params, err := f.primary.Parameters(ctx, roomID)
	if err == nil {
		return params, nil
	}
	if !errors.Is(err, ErrSourceUnavailable) {
		return nil, err
	}
	return f.standby.Parameters(ctx, roomID)
}

func (f *Fallback) Connected(ctx context.Context) bool {
	return f.primary.Connected(ctx) || f.standby.Connected(ctx)
}
