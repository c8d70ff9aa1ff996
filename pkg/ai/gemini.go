package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
)

// GeminiConfig defines configuration options for the Gemini judge.
type GeminiConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int32
	Temperature float32
	Logger      zerolog.Logger
}

// GeminiJudge implements Judge against the Google Generative AI API.
type GeminiJudge struct {
	client    *genai.Client
	jsonModel *genai.GenerativeModel
	textModel *genai.GenerativeModel
	cfg       GeminiConfig
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewGeminiJudge builds a new judge backed by the Gemini API.
func NewGeminiJudge(ctx context.Context, cfg GeminiConfig) (*GeminiJudge, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	jsonModel := client.GenerativeModel(cfg.Model)
	jsonModel.SetTemperature(cfg.Temperature)
	jsonModel.SetMaxOutputTokens(cfg.MaxTokens)
	jsonModel.ResponseMIMEType = "application/json"
	jsonModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(judgeSystemPrompt())}}

	textModel := client.GenerativeModel(cfg.Model)
	textModel.SetTemperature(cfg.Temperature)
	textModel.SetMaxOutputTokens(cfg.MaxTokens)
	textModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(argumentSystemPrompt())}}

	return &GeminiJudge{
		client:    client,
		jsonModel: jsonModel,
		textModel: textModel,
		cfg:       cfg,
		tracer:    otel.Tracer("github.com/noah-isme/aijudge-go-api/pkg/ai/gemini"),
		logger:    logger,
	}, nil
}

// Close releases the underlying API client.
func (j *GeminiJudge) Close() error {
	return j.client.Close()
}

// JudgeCase sends the case to Gemini and parses the verdict from the response.
func (j *GeminiJudge) JudgeCase(parent context.Context, req VerdictRequest) (VerdictResult, error) {
	ctx, span := j.tracer.Start(parent, "gemini.judge_case", trace.WithAttributes(
		attribute.String("model", j.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	resp, err := j.jsonModel.GenerateContent(ctx, genai.Text(buildVerdictPrompt(req)))
	aiDuration.WithLabelValues(j.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(j.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return VerdictResult{}, fmt.Errorf("gemini judge case: %w", err)
	}

	content := responseText(resp)
	if content == "" {
		err := fmt.Errorf("no candidates returned from gemini")
		aiFailures.WithLabelValues(j.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return VerdictResult{}, err
	}

	result := parseVerdictResponse(content)
	result.Model = j.cfg.Model
	if result.Fallback {
		aiFallbacks.WithLabelValues(j.cfg.Model).Inc()
		span.SetAttributes(attribute.Bool("verdict.fallback", true))
		j.logger.Warn().Str("model", j.cfg.Model).Msg("verdict response unparseable, using fallback object")
	}

	return result, nil
}

// AnswerArgument asks Gemini to rule on a follow-up argument.
func (j *GeminiJudge) AnswerArgument(parent context.Context, req ArgumentRequest) (ArgumentResult, error) {
	ctx, span := j.tracer.Start(parent, "gemini.answer_argument", trace.WithAttributes(
		attribute.String("model", j.cfg.Model),
		attribute.String("argument.side", req.Side),
	))
	defer span.End()

	start := time.Now()
	resp, err := j.textModel.GenerateContent(ctx, genai.Text(buildArgumentPrompt(req)))
	aiDuration.WithLabelValues(j.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(j.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ArgumentResult{}, fmt.Errorf("gemini answer argument: %w", err)
	}

	content := responseText(resp)
	if content == "" {
		err := fmt.Errorf("no candidates returned from gemini")
		aiFailures.WithLabelValues(j.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ArgumentResult{}, err
	}

	return ArgumentResult{
		Response: content,
		Model:    j.cfg.Model,
	}, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	builder := strings.Builder{}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
	}

	return strings.TrimSpace(builder.String())
}
