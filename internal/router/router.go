package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/aijudge-go-api/internal/config"
	"github.com/noah-isme/aijudge-go-api/internal/handler"
	"github.com/noah-isme/aijudge-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CaseHandler       *handler.CaseHandler
	DocumentHandler   *handler.DocumentHandler
	JudgmentHandler   *handler.JudgmentHandler
	CaseEventsHandler *handler.CaseEventsHandler
	SeedHandler       *handler.SeedHandler
	AdminGuards       []fiber.Handler
	JudgmentLimiter   fiber.Handler
	ReadinessProbes   []handler.ReadinessProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Root-level operational endpoints
	app.Get("/healthz", handler.HealthCheck(cfg))
	app.Get("/readyz", handler.ReadinessCheck(deps.ReadinessProbes...))
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for API routes & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	// Cases (CRUD, documents, judgment)
	if deps.CaseHandler != nil {
		cases := api.Group("/cases")
		deps.CaseHandler.Register(cases, deps.AdminGuards...)

		if deps.DocumentHandler != nil {
			deps.DocumentHandler.Register(cases)
		}

		if deps.JudgmentHandler != nil {
			deps.JudgmentHandler.Register(cases, deps.JudgmentLimiter)
		}
	}

	// Demo data seeding
	if deps.SeedHandler != nil {
		seed := api.Group("/seed")
		deps.SeedHandler.Register(seed)
	}

	// Case event stream
	if deps.CaseEventsHandler != nil {
		deps.CaseEventsHandler.Register(app)
	}
}
