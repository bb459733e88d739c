package datasource

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/senselab/hindcast/timeseries"
)

// DefaultMockInterval matches the 5-minute sampling of the real sensors.
const DefaultMockInterval = 5 * time.Minute

// mockBaseValues are plausible resting levels per parameter; unknown
// parameters fall back to 50.
var mockBaseValues = map[string]float64{
	"co2":         400,
	"temperature": 22,
	"humidity":    45,
	"pressure":    1013,
	"iaq":         50,
	"voc":         100,
}

// MockOptions configures the synthetic generator.
type MockOptions struct {
	Seed     uint64
	Interval time.Duration

	Rooms      []string
	Parameters []string
}

// Mock generates synthetic sensor data: a per-parameter base level with a
// daily sine cycle and seeded Gaussian noise. The same request always yields
// the same series, so a dashboard session stays coherent across refreshes.
type Mock struct {
	opt MockOptions
}

func NewMock(opt MockOptions) *Mock {
	if opt.Interval <= 0 {
		opt.Interval = DefaultMockInterval
	}
	if len(opt.Rooms) == 0 {
		opt.Rooms = []string{"Conference Space", "Experience Hub"}
	}
	if len(opt.Parameters) == 0 {
		opt.Parameters = []string{"co2", "humidity", "iaq", "pressure", "temperature", "voc"}
	}
	return &Mock{opt: opt}
}

func (m *Mock) FetchSeries(_ context.Context, roomID, sensorID string, start, end time.Time) (*timeseries.Series, error) {
	base, ok := mockBaseValues[sensorID]
	if !ok {
		base = 50
	}

	rng := rand.New(rand.NewPCG(m.requestSeed(roomID, sensorID, start), m.opt.Seed))

	st := timeseries.NewStore(roomID, sensorID)
	for ts := start; !ts.After(end); ts = ts.Add(m.opt.Interval) {
		hours := ts.Sub(start).Hours()
		dailyCycle := 0.1 * math.Sin(2.0*math.Pi*hours/24.0)
		noise := rng.NormFloat64() * 0.05

		obs := timeseries.Observation{
			Timestamp: ts,
			Value:     base * (1 + dailyCycle + noise),
			SensorID:  sensorID,
			RoomID:    roomID,
		}
		if err := st.Append(obs); err != nil {
			return nil, err
		}
	}
	return st.Series(), nil
}

func (m *Mock) Rooms(_ context.Context) ([]string, error) {
	rooms := append([]string{}, m.opt.Rooms...)
	sort.Strings(rooms)
	return rooms, nil
}

func (m *Mock) Parameters(_ context.Context, _ string) ([]string, error) {
	params := append([]string{}, m.opt.Parameters...)
	sort.Strings(params)
	return params, nil
}

func (m *Mock) Connected(_ context.Context) bool {
	return true
}

// requestSeed derives a stable stream seed per (room, sensor, start) so
// distinct queries get distinct but reproducible noise.
func (m *Mock) requestSeed(roomID, sensorID string, start time.Time) uint64 {
	h := fnv.New64a()
	h.Write([]byte(roomID))
	h.Write([]byte{0})
	h.Write([]byte(sensorID))
	var buf [8]byte
	u := uint64(start.Unix())
	for i := range buf {
		buf[i] = byte(u >> (8 * i))
	}
	h.Write(buf[:])
	return h.Sum64() ^ m.opt.Seed
}
