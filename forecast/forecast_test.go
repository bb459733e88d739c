package forecast

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/senselab/hindcast/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historySeries(tb testing.TB, vals []float64, interval time.Duration) *timeseries.Series {
	tb.Helper()
	start := time.Date(2024, 9, 24, 0, 0, 0, 0, time.UTC)
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

func echoLast(c *Context) (float64, error) {
	last, err := c.LastObserved()
	if err != nil {
		return 0, err
	}
	return last.Value, nil
}

func TestForecastStepLaw(t *testing.T) {
	interval := 5 * time.Minute
	h := historySeries(t, []float64{20.0, 20.5, 21.0}, interval)

	testData := map[string]struct {
		horizon  int
		cap      int
		expected int
	}{
		"within cap":       {horizon: 3, cap: 72, expected: 3},
		"truncated to cap": {horizon: 100, cap: 72, expected: 72},
		"small custom cap": {horizon: 10, cap: 4, expected: 4},
		"zero horizon":     {horizon: 0, cap: 72, expected: 0},
		"negative horizon": {horizon: -3, cap: 72, expected: 0},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			points, err := Forecast(h, td.horizon, interval, PredictorFunc(echoLast), &Options{HorizonCap: td.cap})
			require.NoError(t, err)
			require.Len(t, points, td.expected)

			cutoff := h.Observations[h.Len()-1].Timestamp
			for k, p := range points {
				assert.Equal(t, k, p.Step)
				assert.Equal(t, cutoff.Add(time.Duration(k+1)*interval), p.Timestamp)
			}
		})
	}
}

func TestForecastInsufficientHistory(t *testing.T) {
	interval := 5 * time.Minute
	testData := map[string]struct {
		vals []float64
	}{
		"empty":        {vals: nil},
		"single point": {vals: []float64{20.0}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			h := historySeries(t, td.vals, interval)
			_, err := Forecast(h, 3, interval, PredictorFunc(echoLast), nil)
			assert.ErrorIs(t, err, ErrInsufficientHistory)
		})
	}
}

func TestForecastArgumentErrors(t *testing.T) {
	interval := 5 * time.Minute
	h := historySeries(t, []float64{1, 2}, interval)

	_, err := Forecast(h, 3, interval, nil, nil)
	assert.ErrorIs(t, err, ErrNoPredictor)

	_, err = Forecast(h, 3, 0, PredictorFunc(echoLast), nil)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = Forecast(h, 3, interval, PredictorFunc(echoLast), &Options{HorizonCap: -1})
	assert.ErrorIs(t, err, ErrBadHorizonCap)
}

func TestForecastAutoregressiveChaining(t *testing.T) {
	interval := 5 * time.Minute
	h := historySeries(t, []float64{1, 2}, interval)

	// each step adds one to the previous emitted value
	increment := PredictorFunc(func(c *Context) (float64, error) {
		vals := c.EffectiveValues()
		return vals[len(vals)-1] + 1, nil
	})

	points, err := Forecast(h, 4, interval, increment, nil)
	require.NoError(t, err)
	got := make([]float64, len(points))
	for i, p := range points {
		got[i] = p.Predicted
	}
	assert.Equal(t, []float64{3, 4, 5, 6}, got)
}

func TestForecastToleratesPredictorFailure(t *testing.T) {
	interval := 5 * time.Minute
	h := historySeries(t, []float64{10, 11}, interval)
	boom := errors.New("boom")

	testData := map[string]struct {
		p        Predictor
		expected []float64
	}{
		"error on every step holds last observed": {
			p: PredictorFunc(func(_ *Context) (float64, error) {
				return 0, boom
			}),
			expected: []float64{11, 11, 11},
		},
		"error after first step holds last emitted": {
			p: PredictorFunc(func(c *Context) (float64, error) {
				if c.Step == 0 {
					return 42, nil
				}
				return 0, boom
			}),
			expected: []float64{42, 42, 42},
		},
		"NaN is treated as failure": {
			p: PredictorFunc(func(_ *Context) (float64, error) {
				return math.NaN(), nil
			}),
			expected: []float64{11, 11, 11},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			points, err := Forecast(h, 3, interval, td.p, nil)
			require.NoError(t, err)
			got := make([]float64, len(points))
			for i, p := range points {
				got[i] = p.Predicted
			}
			assert.Equal(t, td.expected, got)
		})
	}
}

func TestForecastIdempotentWithFixedSeed(t *testing.T) {
	interval := 5 * time.Minute
	h := historySeries(t, []float64{20, 21, 19, 22, 20, 23}, interval)

	noisy := PredictorFunc(func(c *Context) (float64, error) {
		last, err := c.LastObserved()
		if err != nil {
			return 0, err
		}
		return last.Value + c.Rand.NormFloat64(), nil
	})

	run := func() []Point {
		opt := &Options{Rand: rand.New(rand.NewPCG(42, 0))}
		points, err := Forecast(h, 10, interval, noisy, opt)
		require.NoError(t, err)
		return points
	}

	assert.Equal(t, run(), run())
}

func TestFlat(t *testing.T) {
	interval := 5 * time.Minute

	t.Run("single point flat line", func(t *testing.T) {
		h := historySeries(t, []float64{21.5}, interval)
		points, err := Flat(h, 3, interval, nil)
		require.NoError(t, err)
		require.Len(t, points, 3)
		for k, p := range points {
			assert.Equal(t, 21.5, p.Predicted)
			assert.Equal(t, k, p.Step)
			assert.Equal(t, h.Observations[0].Timestamp.Add(time.Duration(k+1)*interval), p.Timestamp)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		h := historySeries(t, nil, interval)
		_, err := Flat(h, 3, interval, nil)
		assert.ErrorIs(t, err, timeseries.ErrEmptySeries)
	})

	t.Run("cap applies", func(t *testing.T) {
		h := historySeries(t, []float64{1}, interval)
		points, err := Flat(h, 100, interval, nil)
		require.NoError(t, err)
		assert.Len(t, points, DefaultHorizonCap)
	})
}
