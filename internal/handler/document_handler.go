package handler

import (
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aijudge-go-api/internal/service"
	"github.com/noah-isme/aijudge-go-api/internal/utils"
)

// DocumentHandler manages evidence upload and download endpoints.
type DocumentHandler struct {
	service   service.DocumentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewDocumentHandler builds a document handler instance.
func NewDocumentHandler(service service.DocumentService, validator *validator.Validate, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "document_handler").Logger(),
	}
}

// Register attaches the case-scoped document routes to the provided group.
func (h *DocumentHandler) Register(router fiber.Router) {
	router.Post("/:id/sides/:side/documents", h.upload)
	router.Get("/:id/documents/:docId/download", h.download)
}

func (h *DocumentHandler) upload(c *fiber.Ctx) error {
	caseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	side, ok := sideFromParam(c.Params("side"))
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "side must be a or b")
	}

	files := h.formFiles(c)

	response, err := h.service.UploadDocuments(c.Context(), caseID, side, files)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "documents uploaded", response)
}

func (h *DocumentHandler) download(c *fiber.Ctx) error {
	caseID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	documentID, err := parseUUIDParam(c, "docId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	download, err := h.service.Download(c.Context(), caseID, documentID)
	if err != nil {
		return h.handleError(c, err)
	}

	if download.RedirectURL != "" {
		return c.Redirect(download.RedirectURL, fiber.StatusFound)
	}

	c.Set(fiber.HeaderContentType, download.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", download.FileName))
	return c.SendStream(download.Body)
}

// formFiles collects the uploaded files, accepting both the documents and
// files multipart field names.
func (h *DocumentHandler) formFiles(c *fiber.Ctx) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}

	if files, ok := form.File["documents"]; ok && len(files) > 0 {
		return files
	}
	return form.File["files"]
}

func (h *DocumentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCaseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "case not found")
	case errors.Is(err, service.ErrDocumentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "document not found")
	case errors.Is(err, service.ErrDocumentNotArchived):
		return utils.SendError(c, fiber.StatusNotFound, "document original not archived")
	case errors.Is(err, service.ErrNoDocuments):
		return utils.SendError(c, fiber.StatusBadRequest, "at least one document is required")
	case errors.Is(err, service.ErrInvalidSide):
		return utils.SendError(c, fiber.StatusBadRequest, "side must be a or b")
	case errors.Is(err, service.ErrDocumentTypeNotAllowed):
		return utils.SendError(c, fiber.StatusBadRequest, "document type not allowed")
	case errors.Is(err, service.ErrDocumentUnreadable):
		return utils.SendError(c, fiber.StatusBadRequest, "document text could not be extracted")
	case errors.Is(err, service.ErrDocumentTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "document exceeds maximum allowed size")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
