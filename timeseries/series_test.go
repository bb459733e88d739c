package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obsAt(t time.Time, val float64) Observation {
	return Observation{
		Timestamp: t,
		Value:     val,
		SensorID:  "co2",
		RoomID:    "lab",
	}
}

func seriesFrom(tb testing.TB, vals []float64, interval time.Duration) *Series {
	tb.Helper()
	start := time.Date(2024, 9, 24, 0, 0, 0, 0, time.UTC)
	obs := make([]Observation, 0, len(vals))
	for i, v := range vals {
		obs = append(obs, obsAt(start.Add(time.Duration(i)*interval), v))
	}
	s, err := NewSeries("lab", "co2", obs)
	require.NoError(tb, err)
	return s
}

func TestNewSeries(t *testing.T) {
	t0 := time.Date(2024, 9, 24, 0, 0, 0, 0, time.UTC)
	testData := map[string]struct {
		obs []Observation
		err error
	}{
		"empty": {},
		"valid": {
			obs: []Observation{
				obsAt(t0, 20.0),
				obsAt(t0.Add(5*time.Minute), 20.5),
			},
		},
		"identity mismatch": {
			obs: []Observation{
				{Timestamp: t0, Value: 1.0, SensorID: "co2", RoomID: "kitchen"},
			},
			err: ErrInvalidObservation,
		},
		"non increasing time": {
			obs: []Observation{
				obsAt(t0.Add(5*time.Minute), 20.5),
				obsAt(t0, 20.0),
			},
			err: ErrInvalidSeries,
		},
		"duplicate timestamp": {
			obs: []Observation{
				obsAt(t0, 20.0),
				obsAt(t0, 20.5),
			},
			err: ErrInvalidSeries,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s, err := NewSeries("lab", "co2", td.obs)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(td.obs), s.Len())
		})
	}
}

func TestSeriesCopyIsIndependent(t *testing.T) {
	s := seriesFrom(t, []float64{1, 2, 3}, 5*time.Minute)
	cp := s.Copy()
	require.Equal(t, s, cp)

	s.Observations[0].Value = 99
	assert.NotEqual(t, cp.Observations[0].Value, s.Observations[0].Value)
}

func TestSeriesLast(t *testing.T) {
	s := seriesFrom(t, []float64{1, 2, 3}, 5*time.Minute)
	last, err := s.Last()
	require.NoError(t, err)
	assert.Equal(t, 3.0, last.Value)

	_, err = Empty("lab", "co2").Last()
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestSeriesInterval(t *testing.T) {
	t0 := time.Date(2024, 9, 24, 0, 0, 0, 0, time.UTC)
	testData := map[string]struct {
		offsets  []time.Duration
		expected time.Duration
		err      error
	}{
		"single point": {
			offsets: []time.Duration{0},
			err:     ErrCannotInferInterval,
		},
		"uniform": {
			offsets:  []time.Duration{0, 5 * time.Minute, 10 * time.Minute},
			expected: 5 * time.Minute,
		},
		"majority wins over gap": {
			offsets: []time.Duration{
				0,
				5 * time.Minute,
				10 * time.Minute,
				40 * time.Minute,
				45 * time.Minute,
			},
			expected: 5 * time.Minute,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			obs := make([]Observation, 0, len(td.offsets))
			for _, off := range td.offsets {
				obs = append(obs, obsAt(t0.Add(off), 1.0))
			}
			s, err := NewSeries("lab", "co2", obs)
			require.NoError(t, err)

			interval, err := s.Interval()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, interval)
		})
	}
}
