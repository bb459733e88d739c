// Package timeseries holds ordered sensor observations for a single
// (room, sensor) pair and provides the cutoff partitioning used by
// retrospective validation views.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidObservation  = errors.New("observation does not belong to this series")
	ErrEmptySeries         = errors.New("series has no observations")
	ErrInvalidSeries       = errors.New("series is empty or not sorted by timestamp")
	ErrCannotInferInterval = errors.New("cannot infer sampling interval from series")
)

// Observation is a single timestamped sensor reading. Immutable once created.
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	SensorID  string    `json:"sensor_id"`
	RoomID    string    `json:"room_id"`
}

// Series is an ordered sequence of observations sharing one (room, sensor)
// identity with strictly increasing timestamps.
type Series struct {
	RoomID       string        `json:"room_id"`
	SensorID     string        `json:"sensor_id"`
	Observations []Observation `json:"observations"`
}

// NewSeries returns a Series from the given observations. Observations must
// be strictly increasing by timestamp and carry the series identity. The
// input slice is copied.
func NewSeries(roomID, sensorID string, obs []Observation) (*Series, error) {
	var lastT time.Time
	for i, o := range obs {
		if o.RoomID != roomID || o.SensorID != sensorID {
			return nil, fmt.Errorf("observation %d has identity (%s, %s), want (%s, %s), %w",
				i, o.RoomID, o.SensorID, roomID, sensorID, ErrInvalidObservation)
		}
		if !o.Timestamp.After(lastT) {
			return nil, fmt.Errorf("non-monotonic timestamp at %d, %w", i, ErrInvalidSeries)
		}
		lastT = o.Timestamp
	}

	cp := make([]Observation, len(obs))
	copy(cp, obs)
	return &Series{
		RoomID:       roomID,
		SensorID:     sensorID,
		Observations: cp,
	}, nil
}

// Empty returns a Series with the given identity and no observations.
func Empty(roomID, sensorID string) *Series {
	return &Series{RoomID: roomID, SensorID: sensorID}
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Observations)
}

// Copy returns a deep copy of the series.
func (s *Series) Copy() *Series {
	if s == nil {
		return nil
	}
	cp := make([]Observation, len(s.Observations))
	copy(cp, s.Observations)
	return &Series{
		RoomID:       s.RoomID,
		SensorID:     s.SensorID,
		Observations: cp,
	}
}

// First returns the earliest observation.
func (s *Series) First() (Observation, error) {
	if s.Len() == 0 {
		return Observation{}, ErrEmptySeries
	}
	return s.Observations[0], nil
}

// Last returns the most recent observation.
func (s *Series) Last() (Observation, error) {
	if s.Len() == 0 {
		return Observation{}, ErrEmptySeries
	}
	return s.Observations[len(s.Observations)-1], nil
}

// Times returns the observation timestamps as a new slice.
func (s *Series) Times() []time.Time {
	t := make([]time.Time, s.Len())
	for i, o := range s.Observations {
		t[i] = o.Timestamp
	}
	return t
}

// Values returns the observation values as a new slice.
func (s *Series) Values() []float64 {
	y := make([]float64, s.Len())
	for i, o := range s.Observations {
		y[i] = o.Value
	}
	return y
}

// sorted reports whether timestamps are strictly increasing.
func (s *Series) sorted() bool {
	for i := 1; i < s.Len(); i++ {
		if !s.Observations[i].Timestamp.After(s.Observations[i-1].Timestamp) {
			return false
		}
	}
	return true
}

// Interval infers the sampling interval as the most common gap between
// consecutive observations, preferring the smaller gap on ties.
func (s *Series) Interval() (time.Duration, error) {
	if s.Len() < 2 {
		return 0, ErrCannotInferInterval
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < s.Len(); i++ {
		delta := s.Observations[i].Timestamp.Sub(s.Observations[i-1].Timestamp)
		frequencies[delta]++
	}

	var maxCnt int
	maxDelta := time.Duration(math.MaxInt64)
	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return maxDelta, nil
}
