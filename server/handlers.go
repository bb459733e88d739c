package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/senselab/hindcast/dashboard"
	"github.com/senselab/hindcast/datasource"
	"github.com/senselab/hindcast/models"
)

type Handler struct {
	svc *dashboard.Service
	log zerolog.Logger
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Timestamp string `json:"timestamp"`
}

type listResponse struct {
	Items []string `json:"items"`
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(healthResponse{
		Status:    "healthy",
		Connected: h.svc.Connected(c.UserContext()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) Rooms(c *fiber.Ctx) error {
	rooms, err := h.svc.Rooms(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(listResponse{Items: rooms})
}

func (h *Handler) Parameters(c *fiber.Ctx) error {
	params, err := h.svc.Parameters(c.UserContext(), c.Params("room"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(listResponse{Items: params})
}

func (h *Handler) Models(c *fiber.Ctx) error {
	return c.JSON(listResponse{Items: h.svc.Models()})
}

// Series returns the raw history for a range, without forecasting.
func (h *Handler) Series(c *fiber.Ctx) error {
	req, err := overlayRequest(c)
	if err != nil {
		return badRequest(c, err)
	}

	series, err := h.svc.Series(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(series)
}

// Forecast runs the overlay pipeline and returns the full view as JSON.
func (h *Handler) Forecast(c *fiber.Ctx) error {
	req, err := overlayRequest(c)
	if err != nil {
		return badRequest(c, err)
	}

	view, err := h.svc.Overlay(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(view)
}

// Dashboard renders the overlay as an HTML line chart.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	req, err := overlayRequest(c)
	if err != nil {
		return badRequest(c, err)
	}

	view, err := h.svc.Overlay(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}

	c.Type("html")
	return overlayChart(view).Render(c.Response().BodyWriter())
}

func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(errorResponse{
		Error: errorDetail{Code: "NOT_FOUND", Message: "route not found", Path: c.Path()},
	})
}

// overlayRequest decodes the shared query parameters of the overlay and
// dashboard routes. Times are RFC 3339.
func overlayRequest(c *fiber.Ctx) (dashboard.Request, error) {
	req := dashboard.Request{
		Room:      c.Query("room"),
		Parameter: c.Query("parameter"),
		Model:     c.Query("model"),
	}

	var err error
	if req.Start, err = queryTime(c, "start"); err != nil {
		return req, err
	}
	if req.End, err = queryTime(c, "end"); err != nil {
		return req, err
	}
	if req.Cutoff, err = queryTime(c, "cutoff"); err != nil {
		return req, err
	}
	if raw := c.Query("horizon"); raw != "" {
		if req.Horizon, err = strconv.Atoi(raw); err != nil {
			return req, errors.New("horizon must be an integer")
		}
	}
	if raw := c.Query("seed"); raw != "" {
		if req.Seed, err = strconv.ParseUint(raw, 10, 64); err != nil {
			return req, errors.New("seed must be an unsigned integer")
		}
	}
	return req, nil
}

func queryTime(c *fiber.Ctx, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New(name + " must be RFC 3339")
	}
	return ts, nil
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
		Error: errorDetail{Code: "BAD_REQUEST", Message: err.Error()},
	})
}

// fail maps pipeline errors onto HTTP statuses.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, dashboard.ErrBadRequest),
		errors.Is(err, dashboard.ErrBadCutoff),
		errors.Is(err, models.ErrUnknownModel):
		return badRequest(c, err)
	case errors.Is(err, dashboard.ErrNoData):
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{
			Error: errorDetail{Code: "NO_DATA", Message: err.Error()},
		})
	case errors.Is(err, datasource.ErrSourceUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{
			Error: errorDetail{Code: "SOURCE_UNAVAILABLE", Message: err.Error()},
		})
	}
	h.log.Error().Err(err).Str("path", c.Path()).Msg("overlay pipeline failed")
	return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{
		Error: errorDetail{Code: "ERROR", Message: "internal error"},
	})
}
