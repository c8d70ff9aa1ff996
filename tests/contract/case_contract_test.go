package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aijudge-go-api/internal/dto"
	"github.com/noah-isme/aijudge-go-api/internal/handler"
	"github.com/noah-isme/aijudge-go-api/internal/models"
)

type stubCaseService struct {
	response dto.CaseResponse
}

func (s stubCaseService) Create(context.Context, dto.CreateCaseRequest) (dto.CaseResponse, error) {
	return s.response, nil
}

func (s stubCaseService) Get(context.Context, uuid.UUID) (dto.CaseResponse, error) {
	return s.response, nil
}

func (s stubCaseService) List(context.Context, dto.CaseFilter) ([]dto.CaseSummaryResponse, dto.CaseListMeta, error) {
	return nil, dto.CaseListMeta{}, nil
}

func (s stubCaseService) Update(context.Context, uuid.UUID, dto.UpdateCaseRequest) (dto.CaseResponse, error) {
	return s.response, nil
}

func (s stubCaseService) Delete(context.Context, uuid.UUID) error {
	return nil
}

func (s stubCaseService) Stats(context.Context) (dto.StatsResponse, error) {
	return dto.StatsResponse{}, nil
}

func TestCaseEnvelopeContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "case_envelope.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	record := dto.CaseResponse{
		ID:          uuid.New(),
		Title:       "Security deposit withheld",
		Description: "Landlord kept the deposit after an uneventful handover.",
		Country:     "germany",
		CaseType:    "civil",
		Status:      models.CaseStatusArgumentsPhase,
		SideA: dto.SideResponse{
			Description: "Tenant returned the flat clean and documented.",
			Documents: []dto.DocumentResponse{
				{
					ID:            uuid.New(),
					FileName:      "protocol.txt",
					MimeType:      "text/plain",
					SizeBytes:     512,
					Checksum:      "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
					ExtractedText: "Handover protocol: no damage recorded.",
					UploadedAt:    now,
				},
			},
		},
		SideB: dto.SideResponse{
			Description: "Landlord claims repainting costs.",
			Documents:   []dto.DocumentResponse{},
		},
		Verdict: &dto.VerdictResponse{
			Winner:     models.WinnerSideA,
			Summary:    "The deposit must be returned.",
			Reasoning:  "No damage was documented at handover.",
			Confidence: 82,
			Model:      "gpt-4o-mini",
			RenderedAt: now,
		},
		Arguments: []dto.ArgumentResponse{
			{
				ID:         uuid.New(),
				Side:       models.SideB,
				Text:       "Repainting was contractually owed.",
				AIResponse: "The clause is void under the cited tenancy law.",
				CreatedAt:  now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	caseHandler := handler.NewCaseHandler(stubCaseService{response: record}, validate, zerolog.Nop())

	app := fiber.New()
	caseHandler.Register(app.Group("/api/v1/cases"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases/"+record.ID.String(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
