package service

import (
	"context"
	"io"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aijudge-go-api/internal/dto"
	"github.com/noah-isme/aijudge-go-api/internal/models"
	"github.com/noah-isme/aijudge-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newStore(t *testing.T) repository.CaseStore {
	t.Helper()
	store, err := repository.NewFileCaseStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func newTestCache(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}

type purgerStub struct {
	calls int
	last  *models.Case
}

func (p *purgerStub) PurgeCaseDocuments(_ context.Context, c *models.Case) {
	p.calls++
	p.last = c
}

func createRequest() dto.CreateCaseRequest {
	return dto.CreateCaseRequest{
		Title:       "Security deposit withheld",
		Description: "Landlord retained the full deposit after the flat was vacated in good condition.",
		Country:     "Germany",
		CaseType:    "Civil",
	}
}

func TestCaseServiceCreateAndGet(t *testing.T) {
	svc := NewCaseService(newStore(t), nil, validator.New(), nil, 0, testLogger())

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, models.CaseStatusCreated, created.Status)
	require.Equal(t, "civil", created.CaseType)
	require.Empty(t, created.Arguments)
	require.Nil(t, created.Verdict)

	loaded, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Title, loaded.Title)
	require.Equal(t, created.Country, loaded.Country)
}

func TestCaseServiceCreateStripsMarkup(t *testing.T) {
	svc := NewCaseService(newStore(t), nil, validator.New(), nil, 0, testLogger())

	req := createRequest()
	req.Title = "Deposit <b>dispute</b> after move-out"
	req.SideADescription = "<p>Flat was handed over clean.</p>"

	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "Deposit dispute after move-out", created.Title)
	require.Equal(t, "Flat was handed over clean.", created.SideA.Description)
}

func TestCaseServiceCreateValidation(t *testing.T) {
	svc := NewCaseService(newStore(t), nil, validator.New(), nil, 0, testLogger())

	req := createRequest()
	req.Title = "no"

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)

	var fieldErrors validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrors)
}

func TestCaseServiceGetMissing(t *testing.T) {
	svc := NewCaseService(newStore(t), nil, validator.New(), nil, 0, testLogger())

	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrCaseNotFound)
}

func TestCaseServiceListFiltersAndPaginates(t *testing.T) {
	svc := NewCaseService(newStore(t), nil, validator.New(), nil, 0, testLogger())

	fixtures := []struct {
		title    string
		country  string
		caseType string
	}{
		{"Deposit withheld after handover", "Germany", "civil"},
		{"Unpaid invoice for delivered site", "Netherlands", "commercial"},
		{"Fence crosses the property line", "Austria", "property"},
	}
	for _, fixture := range fixtures {
		req := createRequest()
		req.Title = fixture.title
		req.Country = fixture.country
		req.CaseType = fixture.caseType
		_, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	all, meta, err := svc.List(context.Background(), dto.CaseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, 3, meta.Total)
	require.Equal(t, "Fence crosses the property line", all[0].Title)

	country := "netherlands"
	byCountry, meta, err := svc.List(context.Background(), dto.CaseFilter{Country: &country})
	require.NoError(t, err)
	require.Len(t, byCountry, 1)
	require.Equal(t, 1, meta.Total)
	require.Equal(t, "commercial", byCountry[0].CaseType)

	search := "fence"
	found, _, err := svc.List(context.Background(), dto.CaseFilter{Search: &search})
	require.NoError(t, err)
	require.Len(t, found, 1)

	page, meta, err := svc.List(context.Background(), dto.CaseFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, 3, meta.Total)
	require.Equal(t, 2, meta.Offset)

	bad := "unknown_status"
	_, _, err = svc.List(context.Background(), dto.CaseFilter{Status: &bad})
	require.Error(t, err)
}

func TestCaseServiceUpdateKeepsStatus(t *testing.T) {
	store := newStore(t)
	svc := NewCaseService(store, nil, validator.New(), nil, 0, testLogger())

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	record, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	record.Status = models.CaseStatusReadyForJudgment
	require.NoError(t, store.Save(context.Background(), record))

	title := "Amended title for the deposit case"
	sideB := "Landlord claims repainting was necessary."
	updated, err := svc.Update(context.Background(), created.ID, dto.UpdateCaseRequest{
		Title:            &title,
		SideBDescription: &sideB,
	})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, sideB, updated.SideB.Description)
	require.Equal(t, models.CaseStatusReadyForJudgment, updated.Status)
}

func TestCaseServiceUpdateMissing(t *testing.T) {
	svc := NewCaseService(newStore(t), nil, validator.New(), nil, 0, testLogger())

	title := "A title that fits"
	_, err := svc.Update(context.Background(), uuid.New(), dto.UpdateCaseRequest{Title: &title})
	require.ErrorIs(t, err, ErrCaseNotFound)
}

func TestCaseServiceDeletePurgesDocuments(t *testing.T) {
	store := newStore(t)
	purger := &purgerStub{}
	svc := NewCaseService(store, nil, validator.New(), purger, 0, testLogger())

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	require.Equal(t, 1, purger.calls)
	require.Equal(t, created.ID, purger.last.ID)

	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrCaseNotFound)

	require.ErrorIs(t, svc.Delete(context.Background(), created.ID), ErrCaseNotFound)
}

func TestCaseServiceStatsCachesAndInvalidates(t *testing.T) {
	store := newStore(t)
	cache, _ := newTestCache(t)
	svc := NewCaseService(store, cache, validator.New(), nil, time.Minute, testLogger())

	_, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalCases)
	require.Equal(t, 1, stats.ByStatus[models.CaseStatusCreated])

	// A write that bypasses the service is invisible while the cache is warm.
	hidden := models.Case{
		ID:        uuid.New(),
		Title:     "Planted directly in the store",
		Status:    models.CaseStatusCreated,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Save(context.Background(), &hidden))

	cached, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, cached.TotalCases)

	_, err = svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	fresh, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, fresh.TotalCases)
}

func TestCaseServiceStatsCountsVerdictsAndDocuments(t *testing.T) {
	store := newStore(t)
	svc := NewCaseService(store, nil, validator.New(), nil, 0, testLogger())

	record := models.Case{
		ID:       uuid.New(),
		Title:    "Judged case",
		Country:  "Germany",
		CaseType: "civil",
		Status:   models.CaseStatusVerdictRendered,
		SideA: models.Side{Documents: []models.Document{
			{ID: uuid.New(), FileName: "a.txt", MimeType: "text/plain"},
		}},
		SideB: models.Side{Documents: []models.Document{
			{ID: uuid.New(), FileName: "b.txt", MimeType: "text/plain"},
		}},
		Verdict: &models.Verdict{Winner: models.WinnerSideA, Summary: "Side A prevails", Reasoning: "Stronger evidence"},
		Arguments: []models.Argument{
			{ID: uuid.New(), Side: models.SideA, Text: "The protocol is binding"},
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Save(context.Background(), &record))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalCases)
	require.Equal(t, 2, stats.DocumentsUploaded)
	require.Equal(t, 1, stats.VerdictsRendered)
	require.Equal(t, 1, stats.ArgumentsSubmitted)
	require.Equal(t, 1, stats.ByCountry["Germany"])
	require.Equal(t, 1, stats.ByCaseType["civil"])
}
