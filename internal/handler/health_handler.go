package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/aijudge-go-api/internal/config"
	"github.com/noah-isme/aijudge-go-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

// ReadinessProbe reports whether a dependency is ready to serve traffic.
type ReadinessProbe struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

// ReadinessCheck returns a handler that runs each probe and reports 503 when
// any dependency is unavailable.
func ReadinessCheck(probes ...ReadinessProbe) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		checks := make(map[string]string, len(probes))
		ready := true
		for _, probe := range probes {
			if probe.Check == nil {
				continue
			}
			if err := probe.Check(ctx); err != nil {
				checks[probe.Name] = err.Error()
				ready = false
				continue
			}
			checks[probe.Name] = "ok"
		}

		if !ready {
			return utils.Fail(c, fiber.StatusServiceUnavailable, "service not ready", checks)
		}

		return utils.SendSuccess(c, "service ready", checks)
	}
}
