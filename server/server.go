// Package server exposes the dashboard over HTTP: a small JSON API for the
// overlay pipeline plus a rendered chart page.
package server

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/senselab/hindcast/dashboard"
)

// New builds the Fiber app with all routes and middleware attached.
func New(svc *dashboard.Service, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "hindcastd",
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          errorHandler(log),
	})

	h := &Handler{svc: svc, log: log}

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))
	app.Use(requestLogger(log))

	app.Get("/health", h.Health)

	v1 := app.Group("/v1")
	v1.Get("/rooms", h.Rooms)
	v1.Get("/rooms/:room/parameters", h.Parameters)
	v1.Get("/models", h.Models)
	v1.Get("/series", h.Series)
	v1.Get("/forecast", h.Forecast)

	app.Get("/dashboard", h.Dashboard)

	app.Use(h.NotFound)

	return app
}

func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		log.Error().
			Str("path", c.Path()).
			Str("method", c.Method()).
			Int("status", code).
			Err(err).
			Msg("request error")

		return c.Status(code).JSON(errorResponse{
			Error: errorDetail{Code: "ERROR", Message: message, Path: c.Path()},
		})
	}
}
