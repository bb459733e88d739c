// Package dashboard orchestrates one overlay request end to end: fetch
// history from the data source, split it at the cutoff, run the forecast and
// score it against any held-out actuals.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/senselab/hindcast/config"
	"github.com/senselab/hindcast/datasource"
	"github.com/senselab/hindcast/forecast"
	"github.com/senselab/hindcast/models"
	"github.com/senselab/hindcast/timeseries"
	"github.com/senselab/hindcast/validation"
)

var (
	ErrNoData     = errors.New("no observations in requested range")
	ErrBadRequest = errors.New("invalid overlay request")
	ErrBadCutoff  = errors.New("cutoff outside requested range")
)

// Request selects what to show: a room, a parameter, a time range and
// optionally a cutoff inside the range plus forecast overrides.
type Request struct {
	Room      string
	Parameter string

	// Start and End bound the fetched history. Zero End means now, zero
	// Start means End minus the configured lookback.
	Start time.Time
	End   time.Time

	// Cutoff is where the forecast begins. Zero means End, i.e. forecasting
	// from the latest observation with no validation window.
	Cutoff time.Time

	// Horizon is the number of forecast steps. Zero takes the configured
	// default, values above the cap are truncated.
	Horizon int

	// Model names a registered predictor. Empty means "trend".
	Model string

	// Seed pins the noise source for repeatable forecasts. Zero leaves the
	// engine time-seeded.
	Seed uint64
}

// View is the complete material for one rendered overlay.
type View struct {
	Room      string               `json:"room"`
	Parameter string               `json:"parameter"`
	Meta      config.ParameterMeta `json:"parameter_meta"`
	Model     string               `json:"model"`

	Cutoff   time.Time     `json:"cutoff"`
	Interval time.Duration `json:"interval"`

	History      []timeseries.Observation `json:"history"`
	ActualFuture []timeseries.Observation `json:"actual_future"`
	Forecast     []forecast.Point         `json:"forecast"`

	// Validation is nil when the cutoff sits at the end of the range and
	// there is nothing to score against.
	Validation *validation.Result `json:"validation,omitempty"`

	// Degraded marks a flat-line fallback forecast produced because the
	// history before the cutoff was too short to fit the requested model.
	Degraded bool `json:"degraded"`
}

// Service wires the data source, the predictor registry and the forecast
// engine behind a cache. Safe for concurrent use.
type Service struct {
	cfg      *config.Config
	provider datasource.Provider
	cache    *seriesCache
	log      zerolog.Logger
}

func New(cfg *config.Config, provider datasource.Provider, log zerolog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		provider: provider,
		cache:    newSeriesCache(cfg.Cache.TTL),
		log:      log,
	}
}

// Overlay runs the full pipeline for one request.
func (s *Service) Overlay(ctx context.Context, req Request) (*View, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	series, err := s.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("%s/%s in [%s, %s], %w",
			req.Room, req.Parameter, req.Start.Format(time.RFC3339), req.End.Format(time.RFC3339), ErrNoData)
	}

	split, err := timeseries.Split(series, req.Cutoff)
	if err != nil {
		return nil, err
	}

	interval := s.interval(series)

	points, degraded, err := s.forecast(split.History, req, interval)
	if err != nil {
		return nil, err
	}

	view := &View{
		Room:         req.Room,
		Parameter:    req.Parameter,
		Meta:         s.cfg.Parameter(req.Parameter),
		Model:        req.Model,
		Cutoff:       req.Cutoff,
		Interval:     interval,
		History:      split.History.Observations,
		ActualFuture: split.ActualFuture.Observations,
		Forecast:     points,
		Degraded:     degraded,
	}
	if split.ActualFuture.Len() > 0 {
		view.Validation = validation.Validate(points, split.ActualFuture, interval)
	}
	return view, nil
}

// Series returns the raw fetched history for the request range without
// running the forecast pipeline, going through the same cache as Overlay.
func (s *Service) Series(ctx context.Context, req Request) (*timeseries.Series, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, req)
}

// Rooms lists the rooms the data source knows about.
func (s *Service) Rooms(ctx context.Context) ([]string, error) {
	return s.provider.Rooms(ctx)
}

// Parameters lists the selectable parameters for a room.
func (s *Service) Parameters(ctx context.Context, roomID string) ([]string, error) {
	return s.provider.Parameters(ctx, roomID)
}

// Models lists the registered predictor names.
func (s *Service) Models() []string {
	return models.List()
}

// Connected reports whether any backing source is reachable.
func (s *Service) Connected(ctx context.Context) bool {
	return s.provider.Connected(ctx)
}

// InvalidateCache drops all cached history, forcing the next overlay to hit
// the source.
func (s *Service) InvalidateCache() {
	s.cache.purge()
}

func (s *Service) normalize(req Request) (Request, error) {
	if req.Room == "" || req.Parameter == "" {
		return req, fmt.Errorf("room and parameter are required, %w", ErrBadRequest)
	}
	if req.End.IsZero() {
		req.End = time.Now().UTC()
	}
	if req.Start.IsZero() {
		req.Start = req.End.Add(-s.cfg.Forecast.Lookback)
	}
	if !req.Start.Before(req.End) {
		return req, fmt.Errorf("start %s not before end %s, %w",
			req.Start.Format(time.RFC3339), req.End.Format(time.RFC3339), ErrBadRequest)
	}
	if req.Cutoff.IsZero() {
		req.Cutoff = req.End
	}
	if req.Cutoff.Before(req.Start) || req.Cutoff.After(req.End) {
		return req, fmt.Errorf("cutoff %s outside [%s, %s], %w",
			req.Cutoff.Format(time.RFC3339), req.Start.Format(time.RFC3339), req.End.Format(time.RFC3339), ErrBadCutoff)
	}
	if req.Horizon <= 0 {
		req.Horizon = s.cfg.Forecast.DefaultHorizon
	}
	if req.Model == "" {
		req.Model = "trend"
	}
	return req, nil
}

func (s *Service) fetch(ctx context.Context, req Request) (*timeseries.Series, error) {
	key := cacheKey(req.Room, req.Parameter, req.Start, req.End)
	if series, ok := s.cache.get(key); ok {
		return series, nil
	}

	series, err := s.provider.FetchSeries(ctx, req.Room, req.Parameter, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	s.cache.put(key, series)
	s.log.Debug().
		Str("room", req.Room).
		Str("parameter", req.Parameter).
		Int("points", series.Len()).
		Msg("fetched history")
	return series, nil
}

func (s *Service) interval(series *timeseries.Series) time.Duration {
	if iv, err := series.Interval(); err == nil {
		return iv
	}
	return s.cfg.Forecast.Interval
}

func (s *Service) forecast(history *timeseries.Series, req Request, interval time.Duration) ([]forecast.Point, bool, error) {
	engineOpt := &forecast.Options{HorizonCap: s.cfg.Forecast.HorizonCap}
	if req.Seed != 0 {
		engineOpt.Rand = rand.New(rand.NewPCG(req.Seed, req.Seed<<32|req.Seed>>32))
	}

	// a cutoff before the first observation leaves nothing to extrapolate
	// from; render an empty forecast rather than failing the view
	if history.Len() == 0 {
		return []forecast.Point{}, true, nil
	}
	if history.Len() < forecast.MinHistory {
		points, err := forecast.Flat(history, req.Horizon, interval, engineOpt)
		if err != nil {
			return nil, false, err
		}
		return points, true, nil
	}

	f := s.cfg.Forecast
	predictor, err := models.New(req.Model, &models.Options{
		Window:         f.Window,
		Damping:        f.Damping,
		BlendWeight:    f.BlendWeight,
		NoiseScale:     f.NoiseScale,
		BucketsPerDay:  f.BucketsPerDay,
		WorkdayProfile: f.WorkdayProfile,
	})
	if err != nil {
		return nil, false, err
	}

	points, err := forecast.Forecast(history, req.Horizon, interval, predictor, engineOpt)
	if err != nil {
		return nil, false, err
	}
	return points, false, nil
}
