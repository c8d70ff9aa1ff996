package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// CaseStatusCreated indicates the case exists but has no documents yet.
	CaseStatusCreated = "created"
	// CaseStatusAwaitingDocuments indicates at least one side still has nothing filed.
	CaseStatusAwaitingDocuments = "awaiting_documents"
	// CaseStatusReadyForJudgment indicates both sides have filed and a verdict can be requested.
	CaseStatusReadyForJudgment = "ready_for_judgment"
	// CaseStatusVerdictRendered indicates the AI verdict has been stored.
	CaseStatusVerdictRendered = "verdict_rendered"
	// CaseStatusArgumentsPhase indicates follow-up arguments are being exchanged.
	CaseStatusArgumentsPhase = "arguments_phase"
)

const (
	// SideA identifies the first party of a case.
	SideA = "side_a"
	// SideB identifies the second party of a case.
	SideB = "side_b"
)

const (
	// WinnerSideA marks a verdict in favour of the first party.
	WinnerSideA = "side_a"
	// WinnerSideB marks a verdict in favour of the second party.
	WinnerSideB = "side_b"
	// WinnerTie marks a verdict that favours neither party.
	WinnerTie = "tie"
	// WinnerUndecided is reserved for the fallback verdict used when the model
	// response could not be parsed.
	WinnerUndecided = "undecided"
)

// MaxArgumentsPerSide caps the follow-up arguments each party may submit.
const MaxArgumentsPerSide = 5

// Document is one uploaded file attached to a side, with its extracted text.
type Document struct {
	ID            uuid.UUID `json:"id"`
	FileName      string    `json:"file_name"`
	MimeType      string    `json:"mime_type"`
	SizeBytes     int64     `json:"size_bytes"`
	Checksum      string    `json:"checksum,omitempty"`
	ExtractedText string    `json:"extracted_text"`
	StoragePath   string    `json:"storage_path,omitempty"`
	FileURL       string    `json:"file_url,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// Side is one party of a case: a free-text position plus filed documents.
type Side struct {
	Description string     `json:"description"`
	Documents   []Document `json:"documents"`
}

// HasContent reports whether the party has presented anything to judge,
// either a document or a written position.
func (s Side) HasContent() bool {
	return len(s.Documents) > 0 || strings.TrimSpace(s.Description) != ""
}

// Verdict is the AI-generated decision for a case.
type Verdict struct {
	Winner       string    `json:"winner"`
	Summary      string    `json:"summary"`
	Reasoning    string    `json:"reasoning"`
	Confidence   int       `json:"confidence"`
	Model        string    `json:"model,omitempty"`
	FullResponse string    `json:"full_response,omitempty"`
	RenderedAt   time.Time `json:"rendered_at"`
}

// Argument is a follow-up submission from one side plus the AI reply.
type Argument struct {
	ID         uuid.UUID `json:"id"`
	Side       string    `json:"side"`
	Text       string    `json:"text"`
	AIResponse string    `json:"ai_response"`
	CreatedAt  time.Time `json:"created_at"`
}

// Case is the complete dispute record persisted as a single JSON document.
type Case struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Country     string     `json:"country"`
	CaseType    string     `json:"case_type"`
	Status      string     `json:"status"`
	SideA       Side       `json:"side_a"`
	SideB       Side       `json:"side_b"`
	Verdict     *Verdict   `json:"verdict,omitempty"`
	Arguments   []Argument `json:"arguments"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ValidSide reports whether key names one of the two parties.
func ValidSide(key string) bool {
	return key == SideA || key == SideB
}

// SideByKey returns a pointer to the named side so callers can mutate it.
func (c *Case) SideByKey(key string) (*Side, bool) {
	switch key {
	case SideA:
		return &c.SideA, true
	case SideB:
		return &c.SideB, true
	default:
		return nil, false
	}
}

// ReadyForJudgment reports whether both parties have presented content.
func (c Case) ReadyForJudgment() bool {
	return c.SideA.HasContent() && c.SideB.HasContent()
}

// HasVerdict reports whether a verdict has been rendered.
func (c Case) HasVerdict() bool {
	return c.Verdict != nil
}

// ArgumentCount returns how many arguments the named side has submitted.
func (c Case) ArgumentCount(side string) int {
	count := 0
	for _, argument := range c.Arguments {
		if argument.Side == side {
			count++
		}
	}
	return count
}

// DocumentCount returns the number of documents filed across both sides.
func (c Case) DocumentCount() int {
	return len(c.SideA.Documents) + len(c.SideB.Documents)
}

// FindDocument locates a document on either side by its identifier.
func (c *Case) FindDocument(id uuid.UUID) *Document {
	for i := range c.SideA.Documents {
		if c.SideA.Documents[i].ID == id {
			return &c.SideA.Documents[i]
		}
	}
	for i := range c.SideB.Documents {
		if c.SideB.Documents[i].ID == id {
			return &c.SideB.Documents[i]
		}
	}
	return nil
}
