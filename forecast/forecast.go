// Package forecast turns a history series into a bounded sequence of future
// points by repeatedly invoking a pluggable single-step predictor.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/senselab/hindcast/timeseries"
)

var (
	ErrInsufficientHistory = errors.New("insufficient history, need at least 2 points")
	ErrNoPredictor         = errors.New("no predictor provided")
	ErrInvalidInterval     = errors.New("sampling interval must be positive")
)

// MinHistory is the smallest history a predictor can extrapolate a trend from.
const MinHistory = 2

// Point is a single forecast step. Steps are 0-based and the timestamp of
// step k lands (k+1) sampling intervals after the cutoff, so the first
// forecast point sits one interval past the last observed sample.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Predicted float64   `json:"predicted_value"`
	Step      int       `json:"step_index"`
}

// Forecast generates up to horizon points after the end of history, chaining
// each prediction into the context of the next. Horizons above the configured
// cap are truncated, not rejected. A predictor error mid-horizon holds the
// previous value instead of aborting so a single bad step cannot take down
// the whole view.
func Forecast(history *timeseries.Series, horizon int, interval time.Duration, p Predictor, opt *Options) ([]Point, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoPredictor
	}
	if interval <= 0 {
		return nil, fmt.Errorf("got interval %s, %w", interval, ErrInvalidInterval)
	}
	if history.Len() < MinHistory {
		return nil, fmt.Errorf("got %d history points, %w", history.Len(), ErrInsufficientHistory)
	}

	if horizon > opt.HorizonCap {
		horizon = opt.HorizonCap
	}
	points := make([]Point, 0, max(horizon, 0))
	if horizon <= 0 {
		return points, nil
	}

	last, err := history.Last()
	if err != nil {
		return nil, err
	}
	cutoff := last.Timestamp
	rng := opt.rand()

	for k := 0; k < horizon; k++ {
		c := &Context{
			History:   history,
			Emitted:   points,
			Step:      k,
			Timestamp: cutoff.Add(time.Duration(k+1) * interval),
			Interval:  interval,
			Rand:      rng,
		}
		v, err := p.PredictNext(c)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			v = holdValue(points, last.Value)
		}
		points = append(points, Point{
			Timestamp: c.Timestamp,
			Predicted: v,
			Step:      k,
		})
	}
	return points, nil
}

// Flat is the degraded forecast used when history is too short to fit a
// trend: a flat line at the last observed value.
func Flat(history *timeseries.Series, horizon int, interval time.Duration, opt *Options) ([]Point, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, fmt.Errorf("got interval %s, %w", interval, ErrInvalidInterval)
	}

	last, err := history.Last()
	if err != nil {
		return nil, err
	}

	if horizon > opt.HorizonCap {
		horizon = opt.HorizonCap
	}
	points := make([]Point, 0, max(horizon, 0))
	for k := 0; k < horizon; k++ {
		points = append(points, Point{
			Timestamp: last.Timestamp.Add(time.Duration(k+1) * interval),
			Predicted: last.Value,
			Step:      k,
		})
	}
	return points, nil
}

func holdValue(points []Point, lastObserved float64) float64 {
	if len(points) > 0 {
		return points[len(points)-1].Predicted
	}
	return lastObserved
}
