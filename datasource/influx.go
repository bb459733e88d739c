package datasource

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"
	"github.com/senselab/hindcast/timeseries"
)

// InfluxOptions configures the InfluxDB history source.
type InfluxOptions struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string

	Rooms      []string
	Parameters []string
}

// Influx reads sensor history from an InfluxDB bucket fed by the
// home-automation recorder. Rooms are stored as tags and parameters as
// fields on a single measurement.
type Influx struct {
	opt      InfluxOptions
	client   influxdb2.Client
	queryAPI api.QueryAPI
	log      zerolog.Logger
}

func NewInflux(opt InfluxOptions, log zerolog.Logger) *Influx {
	if opt.Measurement == "" {
		opt.Measurement = "sensor_data"
	}
	client := influxdb2.NewClient(opt.URL, opt.Token)
	return &Influx{
		opt:      opt,
		client:   client,
		queryAPI: client.QueryAPI(opt.Org),
		log:      log,
	}
}

func (in *Influx) FetchSeries(ctx context.Context, roomID, sensorID string, start, end time.Time) (*timeseries.Series, error) {
	flux := fmt.Sprintf(`
		from(bucket: %q)
		|> range(start: %s, stop: %s)
		|> filter(fn: (r) => r["_measurement"] == %q)
		|> filter(fn: (r) => r["room"] == %q)
		|> filter(fn: (r) => r["_field"] == %q)
		|> sort(columns: ["_time"])`,
		in.opt.Bucket,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
		in.opt.Measurement,
		roomID,
		sensorID,
	)

	result, err := in.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("influx query failed: %v, %w", err, ErrSourceUnavailable)
	}

	st := timeseries.NewStore(roomID, sensorID)
	for result.Next() {
		record := result.Record()
		v, ok := record.Value().(float64)
		if !ok {
			continue
		}
		obs := timeseries.Observation{
			Timestamp: record.Time(),
			Value:     v,
			SensorID:  sensorID,
			RoomID:    roomID,
		}
		if err := st.Append(obs); err != nil {
			return nil, err
		}
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("influx result stream: %v, %w", result.Err(), ErrSourceUnavailable)
	}

	in.log.Debug().
		Str("room", roomID).
		Str("sensor", sensorID).
		Int("observations", st.Len()).
		Msg("fetched influx history")
	return st.Series(), nil
}

func (in *Influx) Rooms(ctx context.Context) ([]string, error) {
	if !in.Connected(ctx) {
		return nil, ErrSourceUnavailable
	}
	return append([]string{}, in.opt.Rooms...), nil
}

func (in *Influx) Parameters(ctx context.Context, _ string) ([]string, error) {
	if !in.Connected(ctx) {
		return nil, ErrSourceUnavailable
	}
	return append([]string{}, in.opt.Parameters...), nil
}

func (in *Influx) Connected(ctx context.Context) bool {
	ok, err := in.client.Ping(ctx)
	return err == nil && ok
}

func (in *Influx) Close() {
	in.client.Close()
}
