package timeseries

import (
	"sort"
	"time"
)

// CutoffSplit partitions a series at a cutoff timestamp. History holds every
// observation at or before the cutoff, ActualFuture everything after. The two
// partitions reconstruct the source series exactly.
type CutoffSplit struct {
	History      *Series   `json:"history"`
	ActualFuture *Series   `json:"actual_future"`
	Cutoff       time.Time `json:"cutoff"`
}

// Split partitions s at cutoff. The series must be non-empty and sorted. A
// cutoff before the first or after the last observation still succeeds with
// the corresponding partition empty, which backs the draggable cutoff edge
// cases in the dashboard.
func Split(s *Series, cutoff time.Time) (*CutoffSplit, error) {
	if s == nil || s.Len() == 0 || !s.sorted() {
		return nil, ErrInvalidSeries
	}

	i := sort.Search(s.Len(), func(i int) bool {
		return s.Observations[i].Timestamp.After(cutoff)
	})

	history := make([]Observation, i)
	copy(history, s.Observations[:i])
	future := make([]Observation, s.Len()-i)
	copy(future, s.Observations[i:])

	return &CutoffSplit{
		History: &Series{
			RoomID:       s.RoomID,
			SensorID:     s.SensorID,
			Observations: history,
		},
		ActualFuture: &Series{
			RoomID:       s.RoomID,
			SensorID:     s.SensorID,
			Observations: future,
		},
		Cutoff: cutoff,
	}, nil
}
