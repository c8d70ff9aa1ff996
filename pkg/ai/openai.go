package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OpenAIConfig defines configuration options for the OpenAI judge.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIJudge implements Judge against the OpenAI chat completion API.
type OpenAIJudge struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIJudge builds a new judge using the provided configuration.
func NewOpenAIJudge(cfg OpenAIConfig) (*OpenAIJudge, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	tracer := otel.Tracer("github.com/noah-isme/aijudge-go-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIJudge{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// JudgeCase sends the case to OpenAI and parses the verdict from the response.
func (j *OpenAIJudge) JudgeCase(parent context.Context, req VerdictRequest) (VerdictResult, error) {
	ctx, span := j.tracer.Start(parent, "openai.judge_case", trace.WithAttributes(
		attribute.String("model", j.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       j.cfg.Model,
		MaxTokens:   j.cfg.MaxTokens,
		Temperature: j.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: judgeSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildVerdictPrompt(req),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := j.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(j.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(j.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return VerdictResult{}, fmt.Errorf("openai judge case: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(j.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return VerdictResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result := parseVerdictResponse(content)
	result.Model = j.cfg.Model
	if result.Fallback {
		aiFallbacks.WithLabelValues(j.cfg.Model).Inc()
		span.SetAttributes(attribute.Bool("verdict.fallback", true))
		j.logger.Warn().Str("model", j.cfg.Model).Msg("verdict response unparseable, using fallback object")
	}

	return result, nil
}

// AnswerArgument asks OpenAI to rule on a follow-up argument.
func (j *OpenAIJudge) AnswerArgument(parent context.Context, req ArgumentRequest) (ArgumentResult, error) {
	ctx, span := j.tracer.Start(parent, "openai.answer_argument", trace.WithAttributes(
		attribute.String("model", j.cfg.Model),
		attribute.String("argument.side", req.Side),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       j.cfg.Model,
		MaxTokens:   j.cfg.MaxTokens,
		Temperature: j.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: argumentSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildArgumentPrompt(req),
			},
		},
	}

	resp, err := j.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(j.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(j.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ArgumentResult{}, fmt.Errorf("openai answer argument: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(j.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ArgumentResult{}, err
	}

	return ArgumentResult{
		Response: strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:    j.cfg.Model,
	}, nil
}
