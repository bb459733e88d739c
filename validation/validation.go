// Package validation aligns forecast output against held-out actuals and
// scores the error. Results are ephemeral and recomputed on every cutoff
// change.
package validation

import (
	"math"
	"time"

	"github.com/senselab/hindcast/forecast"
	"github.com/senselab/hindcast/timeseries"
)

// Pair is one forecast point matched with the actual value observed at the
// same (interval-rounded) timestamp.
type Pair struct {
	Point  forecast.Point `json:"forecast"`
	Actual float64        `json:"actual_value"`
}

// Result carries the aligned pairs and error metrics for one validation
// window. Defined is false when no pair aligned, in which case MAE and RMSE
// hold zero rather than a NaN that could leak into arithmetic downstream.
type Result struct {
	Pairs    []Pair  `json:"aligned_pairs"`
	MAE      float64 `json:"mean_absolute_error"`
	RMSE     float64 `json:"root_mean_squared_error"`
	Defined  bool    `json:"defined"`
	Coverage float64 `json:"coverage"`
}

// Validate matches forecast points against the actual-future series by exact
// timestamp after rounding both sides to the sampling interval. Points with
// no actual counterpart are excluded from the error metrics but still count
// against coverage. Inputs are not mutated.
func Validate(points []forecast.Point, actual *timeseries.Series, interval time.Duration) *Result {
	res := &Result{
		Pairs: make([]Pair, 0, len(points)),
	}
	if len(points) == 0 {
		return res
	}

	actuals := make(map[int64]float64, actual.Len())
	for _, o := range actual.Observations {
		if math.IsNaN(o.Value) {
			continue
		}
		actuals[roundTo(o.Timestamp, interval)] = o.Value
	}

	var absSum, sqSum float64
	for _, p := range points {
		v, ok := actuals[roundTo(p.Timestamp, interval)]
		if !ok {
			continue
		}
		res.Pairs = append(res.Pairs, Pair{Point: p, Actual: v})
		diff := v - p.Predicted
		absSum += math.Abs(diff)
		sqSum += diff * diff
	}

	res.Coverage = float64(len(res.Pairs)) / float64(len(points))
	if len(res.Pairs) == 0 {
		return res
	}

	n := float64(len(res.Pairs))
	res.MAE = absSum / n
	res.RMSE = math.Sqrt(sqSum / n)
	res.Defined = true
	return res
}

func roundTo(ts time.Time, interval time.Duration) int64 {
	if interval <= 0 {
		return ts.UnixNano()
	}
	return ts.Round(interval).UnixNano()
}
