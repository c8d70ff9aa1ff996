package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aijudge-go-api/internal/handler"
	"github.com/noah-isme/aijudge-go-api/internal/service"
)

type mockSeedService struct {
	lastToken string
	created   int
	err       error
}

func (m *mockSeedService) SeedDemoCases(_ context.Context, token string) (int, error) {
	m.lastToken = token
	if m.err != nil {
		return 0, m.err
	}
	return m.created, nil
}

func TestSeedHandler_DemoCasesSuccess(t *testing.T) {
	svc := &mockSeedService{created: 3}
	app := fiber.New()
	handler.NewSeedHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/seed"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed/demo-cases", nil)
	req.Header.Set("X-Seed-Token", "secret")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Cases int `json:"cases"`
		} `json:"data"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, "demo cases seeded", response.Message)
	require.Equal(t, 3, response.Data.Cases)
	require.Equal(t, "secret", svc.lastToken)
}

func TestSeedHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
		message    string
	}{
		{name: "disabled", err: service.ErrSeedDisabled, statusCode: fiber.StatusForbidden, message: "seeding disabled"},
		{name: "unauthorized", err: service.ErrSeedUnauthorized, statusCode: fiber.StatusForbidden, message: "invalid token"},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError, message: "seed operation failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSeedService{err: tc.err}
			app := fiber.New()
			handler.NewSeedHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/seed"))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/seed/demo-cases", nil)
			req.Header.Set("X-Seed-Token", "whatever")

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)

			var response struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			decodeResponse(t, resp, &response)
			require.False(t, response.Success)
			require.Equal(t, tc.message, response.Message)
		})
	}
}
