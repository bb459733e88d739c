package models

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/senselab/hindcast/forecast"
	"github.com/senselab/hindcast/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesAt(tb testing.TB, start time.Time, interval time.Duration, vals []float64) *timeseries.Series {
	tb.Helper()
	obs := make([]timeseries.Observation, 0, len(vals))
	for i, v := range vals {
		obs = append(obs, timeseries.Observation{
			Timestamp: start.Add(time.Duration(i) * interval),
			Value:     v,
			SensorID:  "co2",
			RoomID:    "lab",
		})
	}
	s, err := timeseries.NewSeries("lab", "co2", obs)
	require.NoError(tb, err)
	return s
}

// quiet returns trend options with noise and time-of-day blending disabled.
func quiet() *Options {
	return &Options{
		Window:      24,
		Damping:     0.95,
		BlendWeight: 0,
		NoiseScale:  0,
	}
}

func TestTrendLinearHistory(t *testing.T) {
	interval := 5 * time.Minute
	start := time.Date(2024, 9, 24, 0, 0, 0, 0, time.UTC)
	h := seriesAt(t, start, interval, []float64{20.0, 20.5, 21.0})

	tr, err := NewTrend(quiet())
	require.NoError(t, err)

	points, err := forecast.Forecast(h, 3, interval, tr, nil)
	require.NoError(t, err)
	require.Len(t, points, 3)

	// +0.1/min trend damped at 0.95^k, anchored at the last observed 21.0
	assert.InDelta(t, 21.5, points[0].Predicted, 1e-9)
	assert.InDelta(t, 21.95, points[1].Predicted, 1e-9)
	assert.InDelta(t, 22.35, points[2].Predicted, 0.1)

	for k, p := range points {
		assert.Equal(t, k, p.Step)
		assert.Equal(t, start.Add(time.Duration(2+k+1)*interval), p.Timestamp)
	}
}

func TestTrendFlatHistoryEmitsNoNoise(t *testing.T) {
	interval := 5 * time.Minute
	start := time.Date(2024, 9, 24, 0, 0, 0, 0, time.UTC)
	h := seriesAt(t, start, interval, []float64{22, 22, 22, 22, 22, 22})

	opt := quiet()
	opt.NoiseScale = 1.0 // volatility of a flat series is zero, so still no noise
	tr, err := NewTrend(opt)
	require.NoError(t, err)

	points, err := forecast.Forecast(h, 5, interval, tr, &forecast.Options{
		Rand: rand.New(rand.NewPCG(7, 7)),
	})
	require.NoError(t, err)
	for _, p := range points {
		assert.Equal(t, 22.0, p.Predicted)
	}
}

func TestTrendDampingPullsTowardLastValue(t *testing.T) {
	interval := 5 * time.Minute
	start := time.Date(2024, 9, 24, 0, 0, 0, 0, time.UTC)
	h := seriesAt(t, start, interval, []float64{20.0, 20.5, 21.0})

	opt := quiet()
	opt.Damping = 0.45
	tr, err := NewTrend(opt)
	require.NoError(t, err)

	points, err := forecast.Forecast(h, 20, interval, tr, nil)
	require.NoError(t, err)

	anchor := 21.0
	prev := math.Inf(1)
	for _, p := range points {
		dev := math.Abs(p.Predicted - anchor)
		assert.LessOrEqual(t, dev, prev)
		prev = dev
	}
}

func TestTrendShortWindowUsesAllHistory(t *testing.T) {
	interval := 5 * time.Minute
	start := time.Date(2024, 9, 24, 0, 0, 0, 0, time.UTC)
	h := seriesAt(t, start, interval, []float64{10, 12})

	opt := quiet()
	opt.Window = 24 // exceeds available history
	tr, err := NewTrend(opt)
	require.NoError(t, err)

	points, err := forecast.Forecast(h, 1, interval, tr, nil)
	require.NoError(t, err)
	assert.InDelta(t, 14.0, points[0].Predicted, 1e-9)
}

func TestTrendTimeOfDayBlend(t *testing.T) {
	interval := time.Hour
	start := time.Date(2024, 9, 22, 0, 0, 0, 0, time.UTC)

	// two flat days at 10, except the 10:00 bucket which always reads 30;
	// history ends at 09:00 on the third day so the next step lands on 10:00
	vals := make([]float64, 58)
	for i := range vals {
		vals[i] = 10
		if start.Add(time.Duration(i)*interval).Hour() == 10 {
			vals[i] = 30
		}
	}
	h := seriesAt(t, start, interval, vals)
	last, err := h.Last()
	require.NoError(t, err)
	require.Equal(t, 9, last.Timestamp.Hour())

	opt := quiet()
	opt.BlendWeight = 1.0
	opt.BucketsPerDay = 24
	tr, err := NewTrend(opt)
	require.NoError(t, err)

	points, err := forecast.Forecast(h, 1, interval, tr, nil)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, points[0].Predicted, 1e-9)
}

func TestTrendWorkdayProfile(t *testing.T) {
	interval := 24 * time.Hour
	// Monday through Sunday, one reading a day at noon; weekends read 100
	start := time.Date(2024, 9, 23, 12, 0, 0, 0, time.UTC)
	vals := []float64{0, 0, 0, 0, 0, 100, 100}
	h := seriesAt(t, start, interval, vals)

	mk := func(workday bool) float64 {
		opt := quiet()
		opt.BlendWeight = 1.0
		opt.Damping = 1.0
		opt.BucketsPerDay = 24
		opt.WorkdayProfile = workday
		tr, err := NewTrend(opt)
		require.NoError(t, err)

		// next step lands on Monday noon
		points, err := forecast.Forecast(h, 1, interval, tr, nil)
		require.NoError(t, err)
		return points[0].Predicted
	}

	// with the profile only workday readings feed Monday's bucket mean
	assert.InDelta(t, 0.0, mk(true), 1e-9)
	// without it the weekend spikes bleed into the mean
	assert.InDelta(t, 200.0/7.0, mk(false), 1e-9)
}

func TestTrendNoiseDeterministicPerSeed(t *testing.T) {
	interval := 5 * time.Minute
	start := time.Date(2024, 9, 24, 0, 0, 0, 0, time.UTC)
	h := seriesAt(t, start, interval, []float64{20, 23, 19, 25, 18, 24, 21, 26})

	opt := quiet()
	opt.NoiseScale = 1.0
	tr, err := NewTrend(opt)
	require.NoError(t, err)

	run := func(seed uint64) []float64 {
		points, err := forecast.Forecast(h, 12, interval, tr, &forecast.Options{
			Rand: rand.New(rand.NewPCG(seed, 0)),
		})
		require.NoError(t, err)
		out := make([]float64, len(points))
		for i, p := range points {
			out[i] = p.Predicted
		}
		return out
	}

	assert.Equal(t, run(42), run(42))
	assert.NotEqual(t, run(42), run(43))
}

func TestConstant(t *testing.T) {
	interval := 5 * time.Minute
	start := time.Date(2024, 9, 24, 0, 0, 0, 0, time.UTC)
	h := seriesAt(t, start, interval, []float64{20, 25, 23.5})

	points, err := forecast.Forecast(h, 4, interval, NewConstant(), nil)
	require.NoError(t, err)
	for _, p := range points {
		assert.Equal(t, 23.5, p.Predicted)
	}
}
