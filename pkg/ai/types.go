package ai

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aijudge",
		Subsystem: "ai",
		Name:      "judgment_duration_seconds",
		Help:      "Duration of AI judgment requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aijudge",
		Subsystem: "ai",
		Name:      "judgment_failures_total",
		Help:      "Number of AI judgment failures",
	}, []string{"model"})

	aiFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aijudge",
		Subsystem: "ai",
		Name:      "verdict_fallbacks_total",
		Help:      "Number of verdicts substituted with the fallback object after an unparseable model response",
	}, []string{"model"})
)

// DocumentInput carries one extracted document into prompt construction.
type DocumentInput struct {
	FileName string
	Text     string
}

// SideInput describes one party's position.
type SideInput struct {
	Description string
	Documents   []DocumentInput
}

// VerdictRequest contains the case material submitted for judgment.
type VerdictRequest struct {
	Title       string
	Description string
	Country     string
	CaseType    string
	SideA       SideInput
	SideB       SideInput
}

// VerdictResult is the structured decision extracted from the model response.
type VerdictResult struct {
	Winner       string `json:"winner"`
	Summary      string `json:"summary"`
	Reasoning    string `json:"reasoning"`
	Confidence   int    `json:"confidence"`
	Model        string `json:"-"`
	FullResponse string `json:"-"`
	Fallback     bool   `json:"-"`
}

// ArgumentTurn is one prior exchange replayed to the model for context.
type ArgumentTurn struct {
	Side     string
	Text     string
	Response string
}

// ArgumentRequest carries a follow-up argument for the judge to answer.
type ArgumentRequest struct {
	Title          string
	CaseType       string
	Country        string
	VerdictWinner  string
	VerdictSummary string
	History        []ArgumentTurn
	Side           string
	Argument       string
}

// ArgumentResult is the judge's reply to a follow-up argument.
type ArgumentResult struct {
	Response string
	Model    string
}

// Judge describes an AI model acting as the court for simulated disputes.
type Judge interface {
	JudgeCase(ctx context.Context, req VerdictRequest) (VerdictResult, error)
	AnswerArgument(ctx context.Context, req ArgumentRequest) (ArgumentResult, error)
}
