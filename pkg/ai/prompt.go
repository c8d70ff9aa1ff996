package ai

import (
	"fmt"
	"strings"
)

// maxPromptChars bounds the combined document text included in a prompt.
// Oversized cases are truncated, never rejected.
const maxPromptChars = 30000

func judgeSystemPrompt() string {
	return "You are an impartial judge presiding over a simulated dispute. Weigh both parties' positions and documents under th" +
		"e stated jurisdiction, then respond with a JSON object containing winner (one of side_a, side_b, tie), summary (one p" +
		"aragraph), reasoning (detailed), and confidence (integer 0-100)."
}

func argumentSystemPrompt() string {
	return "You are the judge who already delivered the verdict in this simulated dispute. A party now raises a follow-up argu" +
		"ment. Address it directly in a short ruling: state whether it changes your assessment and why. Respond in plain text."
}

func buildVerdictPrompt(req VerdictRequest) string {
	builder := strings.Builder{}
	builder.WriteString("# Case\n")
	builder.WriteString(req.Title)
	builder.WriteString("\n\n## Background\n")
	builder.WriteString(req.Description)
	builder.WriteString("\n\n## Jurisdiction\n")
	builder.WriteString(req.Country)
	builder.WriteString("\n\n## Case Type\n")
	builder.WriteString(req.CaseType)

	budget := maxPromptChars
	builder.WriteString("\n\n## Side A\n")
	budget = writeSide(&builder, req.SideA, budget)
	builder.WriteString("\n\n## Side B\n")
	writeSide(&builder, req.SideB, budget)

	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func writeSide(builder *strings.Builder, side SideInput, budget int) int {
	builder.WriteString("### Position\n")
	builder.WriteString(side.Description)

	for _, doc := range side.Documents {
		if budget <= 0 {
			builder.WriteString("\n[remaining documents truncated]")
			break
		}

		text := doc.Text
		if len(text) > budget {
			text = text[:budget]
		}
		budget -= len(text)

		builder.WriteString(fmt.Sprintf("\n### Document: %s\n", doc.FileName))
		builder.WriteString(text)
	}

	return budget
}

func buildArgumentPrompt(req ArgumentRequest) string {
	builder := strings.Builder{}
	builder.WriteString("# Case\n")
	builder.WriteString(req.Title)
	builder.WriteString("\n\n## Case Type\n")
	builder.WriteString(req.CaseType)
	builder.WriteString("\n\n## Jurisdiction\n")
	builder.WriteString(req.Country)
	builder.WriteString("\n\n## Verdict Already Rendered\n")
	builder.WriteString(fmt.Sprintf("Winner: %s\n", req.VerdictWinner))
	builder.WriteString(req.VerdictSummary)

	if len(req.History) > 0 {
		builder.WriteString("\n\n## Prior Arguments\n")
		for _, turn := range req.History {
			builder.WriteString(fmt.Sprintf("- %s argued: %s\n", turn.Side, turn.Text))
			builder.WriteString(fmt.Sprintf("  The court answered: %s\n", turn.Response))
		}
	}

	builder.WriteString(fmt.Sprintf("\n\n## New Argument from %s\n", req.Side))
	builder.WriteString(req.Argument)
	builder.WriteString("\n\nRule on this argument.")
	return builder.String()
}
