package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the fiber app with middleware and routes.
func NewApp(reports Reports, recorder Recorder) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "crossing-simulator",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	SetupRoutes(app, NewHandler(reports, recorder))
	return app
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler) {
	app.Get("/health", handler.HealthCheck)

	api := app.Group("/api/v1")
	{
		api.Get("/junctions", handler.ListJunctions)

		j := api.Group("/junctions/:id")
		j.Get("/report", handler.GetReport)
		j.Get("/suggestions", handler.GetSuggestions)
		j.Get("/crossings/:crossing/segments", handler.GetSegments)
		j.Get("/journeys", handler.GetJourneys)
		j.Get("/chart", handler.GetChart)
		j.Get("/chart.png", handler.GetChartPNG)

		j.Post("/transitions", handler.PostTransitions)
		j.Put("/cycle", handler.PutCycle)
		j.Put("/journeys", handler.PutJourneys)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
