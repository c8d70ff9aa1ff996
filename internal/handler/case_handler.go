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

// CaseHandler manages the case CRUD endpoints.
type CaseHandler struct {
	service   service.CaseService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCaseHandler builds a case handler instance.
func NewCaseHandler(service service.CaseService, validator *validator.Validate, logger zerolog.Logger) *CaseHandler {
	return &CaseHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "case_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. The delete route
// additionally runs the supplied guards, if any.
func (h *CaseHandler) Register(router fiber.Router, deleteGuards ...fiber.Handler) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/stats", h.stats)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)

	deleteChain := append(append([]fiber.Handler{}, deleteGuards...), h.delete)
	router.Delete("/:id", deleteChain...)
}

func (h *CaseHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateCaseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "case created", response)
}

func (h *CaseHandler) list(c *fiber.Ctx) error {
	filter := dto.CaseFilter{}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if country := c.Query("country"); country != "" {
		filter.Country = &country
	}
	if caseType := c.Query("case_type"); caseType != "" {
		filter.CaseType = &caseType
	}
	if search := c.Query("q"); search != "" {
		filter.Search = &search
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}
	filter.Limit = limit
	filter.Offset = offset

	cases, meta, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, cases, "cases retrieved", meta)
}

func (h *CaseHandler) stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "case stats", stats)
}

func (h *CaseHandler) get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "case retrieved", response)
}

func (h *CaseHandler) update(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.UpdateCaseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "case updated", response)
}

func (h *CaseHandler) delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "case deleted", nil)
}

func (h *CaseHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCaseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "case not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
