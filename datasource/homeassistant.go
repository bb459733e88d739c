package datasource

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/senselab/hindcast/timeseries"
)

// HomeAssistantOptions configures the Home Assistant history client.
type HomeAssistantOptions struct {
	Host    string
	Port    int
	Token   string
	Timeout time.Duration

	// Rooms and Parameters enumerate what the dashboard may select; the
	// history API has no cheap discovery endpoint for either.
	Rooms      []string
	Parameters []string
}

// HomeAssistant fetches sensor history over the Home Assistant REST API.
type HomeAssistant struct {
	opt     HomeAssistantOptions
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func NewHomeAssistant(opt HomeAssistantOptions, log zerolog.Logger) *HomeAssistant {
	if opt.Timeout == 0 {
		opt.Timeout = 30 * time.Second
	}
	return &HomeAssistant{
		opt:     opt,
		baseURL: fmt.Sprintf("http://%s:%d/api", opt.Host, opt.Port),
		client:  &http.Client{Timeout: opt.Timeout},
		log:     log,
	}
}

// haState is one state change entry from the history API.
type haState struct {
	EntityID    string    `json:"entity_id"`
	State       string    `json:"state"`
	LastChanged time.Time `json:"last_changed"`
}

func (h *HomeAssistant) FetchSeries(ctx context.Context, roomID, sensorID string, start, end time.Time) (*timeseries.Series, error) {
	url := fmt.Sprintf("%s/history/period/%s?end_time=%s&filter_entity_id=%s",
		h.baseURL,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
		entityID(roomID, sensorID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+h.opt.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history request failed: %v, %w", err, ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history request returned %d, %w", resp.StatusCode, ErrSourceUnavailable)
	}

	// one inner slice per entity; we filtered to a single entity
	var batches [][]haState
	if err := json.NewDecoder(resp.Body).Decode(&batches); err != nil {
		return nil, fmt.Errorf("decoding history response: %w", err)
	}

	st := timeseries.NewStore(roomID, sensorID)
	for _, batch := range batches {
		for _, state := range batch {
			v, err := strconv.ParseFloat(state.State, 64)
			if err != nil {
				// non-numeric states like "unknown" or "unavailable"
				continue
			}
			obs := timeseries.Observation{
				Timestamp: state.LastChanged,
				Value:     v,
				SensorID:  sensorID,
				RoomID:    roomID,
			}
			if err := st.Append(obs); err != nil {
				return nil, err
			}
		}
	}

	h.log.Debug().
		Str("room", roomID).
		Str("sensor", sensorID).
		Int("observations", st.Len()).
		Msg("fetched home assistant history")
	return st.Series(), nil
}

func (h *HomeAssistant) Rooms(ctx context.Context) ([]string, error) {
	if !h.Connected(ctx) {
		return nil, ErrSourceUnavailable
	}
	return append([]string{}, h.opt.Rooms...), nil
}

func (h *HomeAssistant) Parameters(ctx context.Context, _ string) ([]string, error) {
	if !h.Connected(ctx) {
		return nil, ErrSourceUnavailable
	}
	return append([]string{}, h.opt.Parameters...), nil
}

// Connected pings the API root, which answers for any authenticated client.
func (h *HomeAssistant) Connected(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+h.opt.Token)

	resp, err := h.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// entityID maps a (room, parameter) pair onto the home assistant entity
// naming convention, e.g. ("Experience Hub", "co2") -> sensor.experience_hub_co2.
func entityID(roomID, sensorID string) string {
	slug := strings.ToLower(strings.ReplaceAll(roomID, " ", "_"))
	return fmt.Sprintf("sensor.%s_%s", slug, sensorID)
}
