package timeseries

import (
	"fmt"
	"sort"
	"time"
)

// Store owns the observations of one (room, sensor) pair for the duration of
// a dashboard session. Inserts keep sort order and later inserts win on
// timestamp collisions.
type Store struct {
	roomID   string
	sensorID string
	obs      []Observation
}

// NewStore returns an empty store bound to the given identity.
func NewStore(roomID, sensorID string) *Store {
	return &Store{
		roomID:   roomID,
		sensorID: sensorID,
	}
}

// NewStoreFromSeries seeds a store with an existing series.
func NewStoreFromSeries(s *Series) (*Store, error) {
	if s == nil || !s.sorted() {
		return nil, ErrInvalidSeries
	}
	st := NewStore(s.RoomID, s.SensorID)
	st.obs = append(st.obs, s.Observations...)
	return st, nil
}

func (s *Store) RoomID() string   { return s.roomID }
func (s *Store) SensorID() string { return s.sensorID }
func (s *Store) Len() int         { return len(s.obs) }

// Append inserts an observation maintaining sort order. An observation at an
// already present timestamp replaces the stored value.
func (s *Store) Append(o Observation) error {
	if o.RoomID != s.roomID || o.SensorID != s.sensorID {
		return fmt.Errorf("got identity (%s, %s), want (%s, %s), %w",
			o.RoomID, o.SensorID, s.roomID, s.sensorID, ErrInvalidObservation)
	}
	if o.Timestamp.IsZero() {
		return fmt.Errorf("observation has zero timestamp, %w", ErrInvalidObservation)
	}

	i := sort.Search(len(s.obs), func(i int) bool {
		return !s.obs[i].Timestamp.Before(o.Timestamp)
	})
	if i < len(s.obs) && s.obs[i].Timestamp.Equal(o.Timestamp) {
		s.obs[i] = o
		return nil
	}
	s.obs = append(s.obs, Observation{})
	copy(s.obs[i+1:], s.obs[i:])
	s.obs[i] = o
	return nil
}

// Slice returns a new Series with observations in [start, end]. An empty
// range yields an empty series, not an error.
func (s *Store) Slice(start, end time.Time) *Series {
	lo := sort.Search(len(s.obs), func(i int) bool {
		return !s.obs[i].Timestamp.Before(start)
	})
	hi := sort.Search(len(s.obs), func(i int) bool {
		return s.obs[i].Timestamp.After(end)
	})
	if lo >= hi {
		return Empty(s.roomID, s.sensorID)
	}

	cp := make([]Observation, hi-lo)
	copy(cp, s.obs[lo:hi])
	return &Series{
		RoomID:       s.roomID,
		SensorID:     s.sensorID,
		Observations: cp,
	}
}

// Latest returns the most recent observation.
func (s *Store) Latest() (Observation, error) {
	if len(s.obs) == 0 {
		return Observation{}, ErrEmptySeries
	}
	return s.obs[len(s.obs)-1], nil
}

// Series returns a snapshot of everything in the store.
func (s *Store) Series() *Series {
	cp := make([]Observation, len(s.obs))
	copy(cp, s.obs)
	return &Series{
		RoomID:       s.roomID,
		SensorID:     s.sensorID,
		Observations: cp,
	}
}
