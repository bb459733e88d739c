package dashboard

import (
	"fmt"
	"sync"
	"time"

	"github.com/senselab/hindcast/timeseries"
)

// seriesCache holds fetched history per (room, sensor, range) so cutoff drags
// replay against cached data instead of hammering the source.
type seriesCache struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	entries map[string]cacheEntry
}

type cacheEntry struct {
	series    *timeseries.Series
	fetchedAt time.Time
}

func newSeriesCache(ttl time.Duration) *seriesCache {
	return &seriesCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(roomID, sensorID string, start, end time.Time) string {
	return fmt.Sprintf("%s|%s|%d|%d", roomID, sensorID, start.Unix(), end.Unix())
}

func (c *seriesCache) get(key string) (*timeseries.Series, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.series, true
}

func (c *seriesCache) put(key string, s *timeseries.Series) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{series: s, fetchedAt: c.now()}
}

func (c *seriesCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
