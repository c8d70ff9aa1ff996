package service

import (
	"context"
	"errors"
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
	"github.com/noah-isme/aijudge-go-api/pkg/ai"
)

var (
	// ErrCaseNotReady indicates a verdict was requested before both sides filed content.
	ErrCaseNotReady = errors.New("both sides must present content before judgment")
	// ErrVerdictMissing indicates an argument was submitted before any verdict exists.
	ErrVerdictMissing = errors.New("no verdict has been rendered for this case")
	// ErrArgumentLimit indicates the submitting side exhausted its argument quota.
	ErrArgumentLimit = errors.New("argument limit reached for this side")
)

// JudgmentService drives the AI verdict and post-verdict argument flow.
type JudgmentService interface {
	RequestVerdict(ctx context.Context, caseID uuid.UUID) (dto.VerdictResponse, error)
	SubmitArgument(ctx context.Context, caseID uuid.UUID, req dto.ArgumentCreateRequest) (dto.ArgumentResponse, error)
}

type judgmentService struct {
	store     repository.CaseStore
	judge     ai.Judge
	events    EventPublisher
	cache     *redis.Client
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewJudgmentService constructs a judgment service.
func NewJudgmentService(store repository.CaseStore, judge ai.Judge, events EventPublisher, cache *redis.Client, validator *validator.Validate, logger zerolog.Logger) JudgmentService {
	return &judgmentService{
		store:     store,
		judge:     judge,
		events:    events,
		cache:     cache,
		validator: validator,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "judgment_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/aijudge-go-api/internal/service/judgment"),
	}
}

func (s *judgmentService) RequestVerdict(ctx context.Context, caseID uuid.UUID) (dto.VerdictResponse, error) {
	ctx, span := s.tracer.Start(ctx, "judgment.request_verdict")
	defer span.End()
	span.SetAttributes(attribute.String("case.id", caseID.String()))

	record, err := s.load(ctx, caseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return dto.VerdictResponse{}, err
	}

	if !record.ReadyForJudgment() {
		span.SetStatus(codes.Error, "case not ready")
		return dto.VerdictResponse{}, ErrCaseNotReady
	}

	result, err := s.judge.JudgeCase(ctx, buildVerdictRequest(record))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "judge call failed")
		return dto.VerdictResponse{}, err
	}

	verdict := models.Verdict{
		Winner:       result.Winner,
		Summary:      result.Summary,
		Reasoning:    result.Reasoning,
		Confidence:   result.Confidence,
		Model:        result.Model,
		FullResponse: result.FullResponse,
		RenderedAt:   time.Now().UTC(),
	}
	record.Verdict = &verdict
	record.Status = models.CaseStatusVerdictRendered
	record.UpdatedAt = verdict.RenderedAt

	if err := s.store.Save(ctx, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.VerdictResponse{}, err
	}

	observability.VerdictsRendered().WithLabelValues(result.Model).Inc()
	invalidateStatsCache(ctx, s.cache, s.logger)

	response := dto.NewVerdictResponse(verdict)
	if s.events != nil {
		s.events.Publish(ctx, models.CaseEvent{
			Type:    models.EventVerdictRendered,
			CaseID:  record.ID.String(),
			Payload: response,
			TS:      time.Now().UTC(),
		})
	}

	s.logger.Info().
		Str("case_id", record.ID.String()).
		Str("winner", verdict.Winner).
		Int("confidence", verdict.Confidence).
		Bool("fallback", result.Fallback).
		Msg("verdict rendered")
	span.SetAttributes(attribute.String("verdict.winner", verdict.Winner))
	span.SetStatus(codes.Ok, "rendered")

	return response, nil
}

func (s *judgmentService) SubmitArgument(ctx context.Context, caseID uuid.UUID, req dto.ArgumentCreateRequest) (dto.ArgumentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "judgment.submit_argument")
	defer span.End()
	span.SetAttributes(
		attribute.String("case.id", caseID.String()),
		attribute.String("argument.side", req.Side),
	)

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.ArgumentResponse{}, err
	}

	record, err := s.load(ctx, caseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return dto.ArgumentResponse{}, err
	}

	if !record.HasVerdict() {
		span.SetStatus(codes.Error, "verdict missing")
		return dto.ArgumentResponse{}, ErrVerdictMissing
	}
	if record.ArgumentCount(req.Side) >= models.MaxArgumentsPerSide {
		span.SetStatus(codes.Error, "argument limit")
		return dto.ArgumentResponse{}, ErrArgumentLimit
	}

	text := strings.TrimSpace(s.sanitizer.Sanitize(req.Text))

	result, err := s.judge.AnswerArgument(ctx, buildArgumentRequest(record, req.Side, text))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "judge call failed")
		return dto.ArgumentResponse{}, err
	}

	argument := models.Argument{
		ID:         uuid.New(),
		Side:       req.Side,
		Text:       text,
		AIResponse: result.Response,
		CreatedAt:  time.Now().UTC(),
	}
	record.Arguments = append(record.Arguments, argument)
	record.Status = models.CaseStatusArgumentsPhase
	record.UpdatedAt = argument.CreatedAt

	if err := s.store.Save(ctx, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.ArgumentResponse{}, err
	}

	observability.ArgumentsSubmitted().Inc()
	invalidateStatsCache(ctx, s.cache, s.logger)

	response := dto.NewArgumentResponse(argument)
	if s.events != nil {
		s.events.Publish(ctx, models.CaseEvent{
			Type:    models.EventArgumentSubmitted,
			CaseID:  record.ID.String(),
			Payload: response,
			TS:      time.Now().UTC(),
		})
	}

	s.logger.Info().
		Str("case_id", record.ID.String()).
		Str("side", req.Side).
		Int("arguments_total", len(record.Arguments)).
		Msg("argument answered")
	span.SetStatus(codes.Ok, "answered")

	return response, nil
}

func (s *judgmentService) load(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	return record, nil
}

func buildVerdictRequest(record *models.Case) ai.VerdictRequest {
	return ai.VerdictRequest{
		Title:       record.Title,
		Description: record.Description,
		Country:     record.Country,
		CaseType:    record.CaseType,
		SideA:       buildSideInput(record.SideA),
		SideB:       buildSideInput(record.SideB),
	}
}

func buildSideInput(side models.Side) ai.SideInput {
	documents := make([]ai.DocumentInput, 0, len(side.Documents))
	for _, doc := range side.Documents {
		documents = append(documents, ai.DocumentInput{
			FileName: doc.FileName,
			Text:     doc.ExtractedText,
		})
	}
	return ai.SideInput{
		Description: side.Description,
		Documents:   documents,
	}
}

func buildArgumentRequest(record *models.Case, side, text string) ai.ArgumentRequest {
	history := make([]ai.ArgumentTurn, 0, len(record.Arguments))
	for _, argument := range record.Arguments {
		history = append(history, ai.ArgumentTurn{
			Side:     argument.Side,
			Text:     argument.Text,
			Response: argument.AIResponse,
		})
	}

	return ai.ArgumentRequest{
		Title:          record.Title,
		CaseType:       record.CaseType,
		Country:        record.Country,
		VerdictWinner:  record.Verdict.Winner,
		VerdictSummary: record.Verdict.Summary,
		History:        history,
		Side:           side,
		Argument:       text,
	}
}
