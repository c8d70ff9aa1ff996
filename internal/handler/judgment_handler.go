package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aijudge-go-api/internal/dto"
	"github.com/noah-isme/aijudge-go-api/internal/service"
	"github.com/noah-isme/aijudge-go-api/internal/utils"
)

// JudgmentHandler manages verdict and argument endpoints.
type JudgmentHandler struct {
	service   service.JudgmentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewJudgmentHandler builds a judgment handler instance.
func NewJudgmentHandler(service service.JudgmentService, validator *validator.Validate, logger zerolog.Logger) *JudgmentHandler {
	return &JudgmentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "judgment_handler").Logger(),
	}
}

// Register attaches the case-scoped judgment routes. The limiter guards the
// AI-backed endpoints when provided.
func (h *JudgmentHandler) Register(router fiber.Router, limiter fiber.Handler) {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Post("/:id/verdict", limiter, h.requestVerdict)
	router.Post("/:id/arguments", limiter, h.submitArgument)
}

func (h *JudgmentHandler) requestVerdict(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	verdict, err := h.service.RequestVerdict(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "verdict rendered", verdict)
}

func (h *JudgmentHandler) submitArgument(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ArgumentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	argument, err := h.service.SubmitArgument(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "argument answered", argument)
}

func (h *JudgmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCaseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "case not found")
	case errors.Is(err, service.ErrCaseNotReady):
		return utils.SendError(c, fiber.StatusConflict, "both sides must present content before judgment")
	case errors.Is(err, service.ErrVerdictMissing):
		return utils.SendError(c, fiber.StatusConflict, "no verdict has been rendered for this case")
	case errors.Is(err, service.ErrArgumentLimit):
		return utils.SendError(c, fiber.StatusConflict, "argument limit reached for this side")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
