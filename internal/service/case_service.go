package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/aijudge-go-api/internal/dto"
	"github.com/noah-isme/aijudge-go-api/internal/models"
	"github.com/noah-isme/aijudge-go-api/internal/observability"
	"github.com/noah-isme/aijudge-go-api/internal/repository"
)

// ErrCaseNotFound indicates the requested case does not exist.
var ErrCaseNotFound = errors.New("case not found")

const (
	statsCacheKey    = "cases:stats"
	defaultListLimit = 20
	maxListLimit     = 100
)

// DocumentPurger removes archived document payloads belonging to a case.
type DocumentPurger interface {
	PurgeCaseDocuments(ctx context.Context, c *models.Case)
}

// CaseService exposes the case lifecycle CRUD surface.
type CaseService interface {
	Create(ctx context.Context, req dto.CreateCaseRequest) (dto.CaseResponse, error)
	Get(ctx context.Context, id uuid.UUID) (dto.CaseResponse, error)
	List(ctx context.Context, filter dto.CaseFilter) ([]dto.CaseSummaryResponse, dto.CaseListMeta, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateCaseRequest) (dto.CaseResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (dto.StatsResponse, error)
}

type caseService struct {
	store     repository.CaseStore
	cache     *redis.Client
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	purger    DocumentPurger
	logger    zerolog.Logger
	statsTTL  time.Duration
	tracer    trace.Tracer
}

// NewCaseService constructs a case service.
func NewCaseService(store repository.CaseStore, cache *redis.Client, validator *validator.Validate, purger DocumentPurger, statsTTL time.Duration, logger zerolog.Logger) CaseService {
	if statsTTL <= 0 {
		statsTTL = 2 * time.Minute
	}
	return &caseService{
		store:     store,
		cache:     cache,
		validator: validator,
		sanitizer: bluemonday.StrictPolicy(),
		purger:    purger,
		logger:    logger.With().Str("component", "case_service").Logger(),
		statsTTL:  statsTTL,
		tracer:    otel.Tracer("github.com/noah-isme/aijudge-go-api/internal/service/case"),
	}
}

func (s *caseService) Create(ctx context.Context, req dto.CreateCaseRequest) (dto.CaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "case.create")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.CaseResponse{}, err
	}

	now := time.Now().UTC()
	record := models.Case{
		ID:          uuid.New(),
		Title:       s.clean(req.Title),
		Description: s.clean(req.Description),
		Country:     s.clean(req.Country),
		CaseType:    strings.ToLower(s.clean(req.CaseType)),
		Status:      models.CaseStatusCreated,
		SideA:       models.Side{Description: s.clean(req.SideADescription), Documents: []models.Document{}},
		SideB:       models.Side{Description: s.clean(req.SideBDescription), Documents: []models.Document{}},
		Arguments:   []models.Argument{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Save(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.CaseResponse{}, err
	}

	observability.CasesCreated().Inc()
	invalidateStatsCache(ctx, s.cache, s.logger)

	span.SetAttributes(attribute.String("case.id", record.ID.String()))
	span.SetStatus(codes.Ok, "created")
	s.logger.Info().Str("case_id", record.ID.String()).Str("case_type", record.CaseType).Msg("case created")

	return dto.NewCaseResponse(&record), nil
}

func (s *caseService) Get(ctx context.Context, id uuid.UUID) (dto.CaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "case.get")
	defer span.End()
	span.SetAttributes(attribute.String("case.id", id.String()))

	record, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return dto.CaseResponse{}, err
	}

	span.SetStatus(codes.Ok, "loaded")
	return dto.NewCaseResponse(record), nil
}

func (s *caseService) List(ctx context.Context, filter dto.CaseFilter) ([]dto.CaseSummaryResponse, dto.CaseListMeta, error) {
	ctx, span := s.tracer.Start(ctx, "case.list")
	defer span.End()

	if err := s.validator.Struct(filter); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return nil, dto.CaseListMeta{}, err
	}

	cases, err := s.store.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, dto.CaseListMeta{}, err
	}

	filtered := make([]*models.Case, 0, len(cases))
	for _, c := range cases {
		if matchesFilter(c, filter) {
			filtered = append(filtered, c)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	total := len(filtered)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	meta := dto.CaseListMeta{Total: total, Limit: limit, Offset: offset}
	span.SetAttributes(attribute.Int("case.total", total))
	span.SetStatus(codes.Ok, "listed")

	return dto.NewCaseSummaryResponseSlice(filtered[offset:end]), meta, nil
}

func (s *caseService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateCaseRequest) (dto.CaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "case.update")
	defer span.End()
	span.SetAttributes(attribute.String("case.id", id.String()))

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.CaseResponse{}, err
	}

	record, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return dto.CaseResponse{}, err
	}

	if req.Title != nil {
		record.Title = s.clean(*req.Title)
	}
	if req.Description != nil {
		record.Description = s.clean(*req.Description)
	}
	if req.Country != nil {
		record.Country = s.clean(*req.Country)
	}
	if req.CaseType != nil {
		record.CaseType = strings.ToLower(s.clean(*req.CaseType))
	}
	if req.SideADescription != nil {
		record.SideA.Description = s.clean(*req.SideADescription)
	}
	if req.SideBDescription != nil {
		record.SideB.Description = s.clean(*req.SideBDescription)
	}
	record.UpdatedAt = time.Now().UTC()

	if err := s.store.Save(ctx, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.CaseResponse{}, err
	}

	invalidateStatsCache(ctx, s.cache, s.logger)
	span.SetStatus(codes.Ok, "updated")
	s.logger.Info().Str("case_id", id.String()).Msg("case updated")

	return dto.NewCaseResponse(record), nil
}

func (s *caseService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "case.delete")
	defer span.End()
	span.SetAttributes(attribute.String("case.id", id.String()))

	record, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return err
	}

	if s.purger != nil {
		s.purger.PurgeCaseDocuments(ctx, record)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			return ErrCaseNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}

	observability.CasesDeleted().Inc()
	invalidateStatsCache(ctx, s.cache, s.logger)

	span.SetStatus(codes.Ok, "deleted")
	s.logger.Info().Str("case_id", id.String()).Msg("case deleted")

	return nil
}

func (s *caseService) Stats(ctx context.Context) (dto.StatsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "case.stats")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, statsCacheKey).Result()
		if err == nil {
			var stats dto.StatsResponse
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				span.SetStatus(codes.Ok, "cache hit")
				return stats, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("stats cache read failed")
		}
	}

	cases, err := s.store.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return dto.StatsResponse{}, err
	}

	stats := dto.StatsResponse{
		TotalCases: len(cases),
		ByStatus:   map[string]int{},
		ByCountry:  map[string]int{},
		ByCaseType: map[string]int{},
	}
	for _, c := range cases {
		stats.ByStatus[c.Status]++
		if c.Country != "" {
			stats.ByCountry[c.Country]++
		}
		if c.CaseType != "" {
			stats.ByCaseType[c.CaseType]++
		}
		stats.DocumentsUploaded += c.DocumentCount()
		stats.ArgumentsSubmitted += len(c.Arguments)
		if c.HasVerdict() {
			stats.VerdictsRendered++
		}
	}

	if s.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, payload, s.statsTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("stats cache write failed")
			}
		}
	}

	span.SetAttributes(attribute.Int("case.total", stats.TotalCases))
	span.SetStatus(codes.Ok, "computed")

	return stats, nil
}

func (s *caseService) load(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *caseService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

func matchesFilter(c *models.Case, filter dto.CaseFilter) bool {
	if filter.Status != nil && c.Status != *filter.Status {
		return false
	}
	if filter.Country != nil && !strings.EqualFold(c.Country, *filter.Country) {
		return false
	}
	if filter.CaseType != nil && !strings.EqualFold(c.CaseType, *filter.CaseType) {
		return false
	}
	if filter.Search != nil {
		needle := strings.ToLower(strings.TrimSpace(*filter.Search))
		if needle != "" {
			haystack := strings.ToLower(c.Title + " " + c.Description)
			if !strings.Contains(haystack, needle) {
				return false
			}
		}
	}
	return true
}

func invalidateStatsCache(ctx context.Context, cache *redis.Client, logger zerolog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Del(ctx, statsCacheKey).Err(); err != nil {
		logger.Warn().Err(err).Str("key", statsCacheKey).Msg("failed to invalidate stats cache")
	}
}
