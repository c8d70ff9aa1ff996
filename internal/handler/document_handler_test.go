package handler_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aijudge-go-api/internal/dto"
	"github.com/noah-isme/aijudge-go-api/internal/handler"
	"github.com/noah-isme/aijudge-go-api/internal/models"
	"github.com/noah-isme/aijudge-go-api/internal/service"
)

type mockDocumentService struct {
	lastCaseID uuid.UUID
	lastSide   string
	lastFiles  []*multipart.FileHeader
	lastDocID  uuid.UUID

	uploadResponse dto.UploadDocumentsResponse
	download       service.DocumentDownload
	err            error
}

func (m *mockDocumentService) UploadDocuments(_ context.Context, caseID uuid.UUID, side string, files []*multipart.FileHeader) (dto.UploadDocumentsResponse, error) {
	m.lastCaseID = caseID
	m.lastSide = side
	m.lastFiles = files
	if m.err != nil {
		return dto.UploadDocumentsResponse{}, m.err
	}
	return m.uploadResponse, nil
}

func (m *mockDocumentService) Download(_ context.Context, caseID, documentID uuid.UUID) (service.DocumentDownload, error) {
	m.lastCaseID = caseID
	m.lastDocID = documentID
	if m.err != nil {
		return service.DocumentDownload{}, m.err
	}
	return m.download, nil
}

func (m *mockDocumentService) PurgeCaseDocuments(context.Context, *models.Case) {}

func newDocumentApp(svc service.DocumentService) *fiber.App {
	app := fiber.New()
	validate := validator.New(validator.WithRequiredStructEnabled())
	group := app.Group("/api/v1/cases")
	handler.NewDocumentHandler(svc, validate, zerolog.New(io.Discard)).Register(group)
	return app
}

func multipartRequest(t *testing.T, target, fieldName string, filenames ...string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range filenames {
		part, err := writer.CreateFormFile(fieldName, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("Handover protocol: apartment returned without damage."))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestDocumentHandler_UploadSuccess(t *testing.T) {
	caseID := uuid.New()
	svc := &mockDocumentService{
		uploadResponse: dto.UploadDocumentsResponse{
			CaseID:     caseID.String(),
			Side:       models.SideA,
			CaseStatus: models.CaseStatusAwaitingDocuments,
			Documents:  []dto.DocumentResponse{{ID: uuid.New(), FileName: "protocol.txt"}},
		},
	}
	app := newDocumentApp(svc)

	target := "/api/v1/cases/" + caseID.String() + "/sides/a/documents"
	resp, err := app.Test(multipartRequest(t, target, "documents", "protocol.txt"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool                        `json:"success"`
		Data    dto.UploadDocumentsResponse `json:"data"`
		Message string                      `json:"message"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, "documents uploaded", response.Message)
	require.Equal(t, models.CaseStatusAwaitingDocuments, response.Data.CaseStatus)
	require.Equal(t, caseID, svc.lastCaseID)
	require.Equal(t, models.SideA, svc.lastSide)
	require.Len(t, svc.lastFiles, 1)
}

func TestDocumentHandler_UploadAcceptsFilesFieldName(t *testing.T) {
	caseID := uuid.New()
	svc := &mockDocumentService{}
	app := newDocumentApp(svc)

	target := "/api/v1/cases/" + caseID.String() + "/sides/side_b/documents"
	resp, err := app.Test(multipartRequest(t, target, "files", "contract.txt", "photos.txt"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	require.Equal(t, models.SideB, svc.lastSide)
	require.Len(t, svc.lastFiles, 2)
}

func TestDocumentHandler_UploadRejectsUnknownSide(t *testing.T) {
	svc := &mockDocumentService{}
	app := newDocumentApp(svc)

	target := "/api/v1/cases/" + uuid.NewString() + "/sides/c/documents"
	resp, err := app.Test(multipartRequest(t, target, "documents", "protocol.txt"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var response struct {
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, "side must be a or b", response.Message)
	require.Nil(t, svc.lastFiles)
}

func TestDocumentHandler_UploadErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "unknown case", err: service.ErrCaseNotFound, statusCode: fiber.StatusNotFound},
		{name: "no documents", err: service.ErrNoDocuments, statusCode: fiber.StatusBadRequest},
		{name: "type not allowed", err: service.ErrDocumentTypeNotAllowed, statusCode: fiber.StatusBadRequest},
		{name: "unreadable", err: service.ErrDocumentUnreadable, statusCode: fiber.StatusBadRequest},
		{name: "too large", err: service.ErrDocumentTooLarge, statusCode: fiber.StatusRequestEntityTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockDocumentService{err: tc.err}
			app := newDocumentApp(svc)

			target := "/api/v1/cases/" + uuid.NewString() + "/sides/a/documents"
			resp, err := app.Test(multipartRequest(t, target, "documents", "evidence.txt"))
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
			require.NoError(t, resp.Body.Close())
		})
	}
}

func TestDocumentHandler_DownloadStreamsArchivedOriginal(t *testing.T) {
	content := "Handover protocol: no damage recorded."
	svc := &mockDocumentService{
		download: service.DocumentDownload{
			FileName: "protocol.txt",
			MimeType: "text/plain",
			Body:     io.NopCloser(strings.NewReader(content)),
		},
	}
	app := newDocumentApp(svc)

	target := "/api/v1/cases/" + uuid.NewString() + "/documents/" + uuid.NewString() + "/download"
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "text/plain", resp.Header.Get(fiber.HeaderContentType))
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `filename="protocol.txt"`)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, content, string(body))
}

func TestDocumentHandler_DownloadRedirectsToRemoteArchive(t *testing.T) {
	svc := &mockDocumentService{
		download: service.DocumentDownload{RedirectURL: "https://res.cloudinary.com/demo/raw/upload/protocol.txt"},
	}
	app := newDocumentApp(svc)

	target := "/api/v1/cases/" + uuid.NewString() + "/documents/" + uuid.NewString() + "/download"
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, svc.download.RedirectURL, resp.Header.Get(fiber.HeaderLocation))
	require.NoError(t, resp.Body.Close())
}

func TestDocumentHandler_DownloadErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
		message    string
	}{
		{name: "document missing", err: service.ErrDocumentNotFound, statusCode: fiber.StatusNotFound, message: "document not found"},
		{name: "not archived", err: service.ErrDocumentNotArchived, statusCode: fiber.StatusNotFound, message: "document original not archived"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockDocumentService{err: tc.err}
			app := newDocumentApp(svc)

			target := "/api/v1/cases/" + uuid.NewString() + "/documents/" + uuid.NewString() + "/download"
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)

			var response struct {
				Message string `json:"message"`
			}
			decodeResponse(t, resp, &response)
			require.Equal(t, tc.message, response.Message)
		})
	}
}

func TestDocumentHandler_DownloadInvalidDocumentID(t *testing.T) {
	svc := &mockDocumentService{}
	app := newDocumentApp(svc)

	target := "/api/v1/cases/" + uuid.NewString() + "/documents/not-a-uuid/download"
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var response struct {
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, "invalid docId", response.Message)
}
