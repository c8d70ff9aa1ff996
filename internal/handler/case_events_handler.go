package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aijudge-go-api/internal/middleware"
	"github.com/noah-isme/aijudge-go-api/internal/service"
)

// CaseEventsHandler wires the websocket endpoint for case event subscriptions.
type CaseEventsHandler struct {
	events service.CaseEventsService
	cases  service.CaseService
	logger zerolog.Logger
}

// NewCaseEventsHandler creates a case events handler instance.
func NewCaseEventsHandler(events service.CaseEventsService, cases service.CaseService, logger zerolog.Logger) *CaseEventsHandler {
	return &CaseEventsHandler{
		events: events,
		cases:  cases,
		logger: logger.With().Str("component", "case_events_handler").Logger(),
	}
}

// Register binds the websocket route under the provided router group.
func (h *CaseEventsHandler) Register(router fiber.Router) {
	router.Use("/ws/cases", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws/cases", websocket.New(h.handleConnection))
}

func (h *CaseEventsHandler) handleConnection(conn *websocket.Conn) {
	caseID := strings.TrimSpace(conn.Query("case_id"))
	if caseID == "" {
		closeConnection(conn, fiber.StatusBadRequest, "case_id required")
		return
	}

	id, err := uuid.Parse(caseID)
	if err != nil {
		closeConnection(conn, fiber.StatusBadRequest, "invalid case_id")
		return
	}

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	if _, err := h.cases.Get(baseCtx, id); err != nil {
		if errors.Is(err, service.ErrCaseNotFound) {
			closeConnection(conn, fiber.StatusNotFound, "case not found")
			return
		}
		closeConnection(conn, fiber.StatusInternalServerError, "case lookup failed")
		return
	}

	correlation := ""
	if value, ok := conn.Locals("correlation_id").(string); ok {
		correlation = value
	}

	opts := service.EventConnectionOptions{
		CaseID:        id.String(),
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	h.logger.Info().Str("case_id", id.String()).Msg("case events websocket connected")
	h.events.ServeConnection(conn, opts)
	h.logger.Info().Str("case_id", id.String()).Msg("case events websocket disconnected")
}

func closeConnection(conn *websocket.Conn, status int, reason string) {
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(status, reason))
	_ = conn.Close()
}
