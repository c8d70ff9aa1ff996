package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/aijudge-go-api/internal/models"
)

// CreateCaseRequest describes the payload for opening a new case.
type CreateCaseRequest struct {
	Title            string `json:"title" validate:"required,min=3,max=200"`
	Description      string `json:"description" validate:"required,min=10,max=10000"`
	Country          string `json:"country" validate:"required,min=2,max=56"`
	CaseType         string `json:"case_type" validate:"required,min=3,max=50"`
	SideADescription string `json:"side_a_description" validate:"omitempty,max=10000"`
	SideBDescription string `json:"side_b_description" validate:"omitempty,max=10000"`
}

// UpdateCaseRequest is used to amend case metadata and side descriptions.
type UpdateCaseRequest struct {
	Title            *string `json:"title" validate:"omitempty,min=3,max=200"`
	Description      *string `json:"description" validate:"omitempty,min=10,max=10000"`
	Country          *string `json:"country" validate:"omitempty,min=2,max=56"`
	CaseType         *string `json:"case_type" validate:"omitempty,min=3,max=50"`
	SideADescription *string `json:"side_a_description" validate:"omitempty,max=10000"`
	SideBDescription *string `json:"side_b_description" validate:"omitempty,max=10000"`
}

// CaseFilter describes query string filters for listing cases.
type CaseFilter struct {
	Status   *string `query:"status" validate:"omitempty,oneof=created awaiting_documents ready_for_judgment verdict_rendered arguments_phase"`
	Country  *string `query:"country"`
	CaseType *string `query:"case_type"`
	Search   *string `query:"q"`
	Limit    int     `query:"limit" validate:"omitempty,gte=1,lte=100"`
	Offset   int     `query:"offset" validate:"omitempty,gte=0"`
}

// CaseListMeta carries paging counters for case listings.
type CaseListMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// CaseResponse is returned to API clients when viewing a full case record.
type CaseResponse struct {
	ID          uuid.UUID          `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Country     string             `json:"country"`
	CaseType    string             `json:"case_type"`
	Status      string             `json:"status"`
	SideA       SideResponse       `json:"side_a"`
	SideB       SideResponse       `json:"side_b"`
	Verdict     *VerdictResponse   `json:"verdict,omitempty"`
	Arguments   []ArgumentResponse `json:"arguments"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// CaseSummaryResponse is the compact listing view of a case.
type CaseSummaryResponse struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Country       string    `json:"country"`
	CaseType      string    `json:"case_type"`
	Status        string    `json:"status"`
	DocumentCount int       `json:"document_count"`
	ArgumentCount int       `json:"argument_count"`
	HasVerdict    bool      `json:"has_verdict"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SideResponse serializes one side of a case.
type SideResponse struct {
	Description string             `json:"description"`
	Documents   []DocumentResponse `json:"documents"`
}

// DocumentResponse serializes an uploaded case document.
type DocumentResponse struct {
	ID            uuid.UUID `json:"id"`
	FileName      string    `json:"file_name"`
	MimeType      string    `json:"mime_type"`
	SizeBytes     int64     `json:"size_bytes"`
	Checksum      string    `json:"checksum"`
	ExtractedText string    `json:"extracted_text"`
	FileURL       string    `json:"file_url,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// VerdictResponse serializes a rendered verdict.
type VerdictResponse struct {
	Winner     string    `json:"winner"`
	Summary    string    `json:"summary"`
	Reasoning  string    `json:"reasoning"`
	Confidence int       `json:"confidence"`
	Model      string    `json:"model"`
	RenderedAt time.Time `json:"rendered_at"`
}

// ArgumentResponse serializes a post-verdict argument exchange.
type ArgumentResponse struct {
	ID         uuid.UUID `json:"id"`
	Side       string    `json:"side"`
	Text       string    `json:"text"`
	AIResponse string    `json:"ai_response"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatsResponse aggregates corpus-wide case counters.
type StatsResponse struct {
	TotalCases         int            `json:"total_cases"`
	ByStatus           map[string]int `json:"by_status"`
	ByCountry          map[string]int `json:"by_country"`
	ByCaseType         map[string]int `json:"by_case_type"`
	DocumentsUploaded  int            `json:"documents_uploaded"`
	VerdictsRendered   int            `json:"verdicts_rendered"`
	ArgumentsSubmitted int            `json:"arguments_submitted"`
}

// NewCaseResponse converts a Case model into a DTO.
func NewCaseResponse(model *models.Case) CaseResponse {
	response := CaseResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Country:     model.Country,
		CaseType:    model.CaseType,
		Status:      model.Status,
		SideA:       NewSideResponse(model.SideA),
		SideB:       NewSideResponse(model.SideB),
		Arguments:   NewArgumentResponseSlice(model.Arguments),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}

	if model.Verdict != nil {
		verdict := NewVerdictResponse(*model.Verdict)
		response.Verdict = &verdict
	}

	return response
}

// NewCaseSummaryResponse converts a Case model into its listing view.
func NewCaseSummaryResponse(model *models.Case) CaseSummaryResponse {
	return CaseSummaryResponse{
		ID:            model.ID,
		Title:         model.Title,
		Country:       model.Country,
		CaseType:      model.CaseType,
		Status:        model.Status,
		DocumentCount: model.DocumentCount(),
		ArgumentCount: len(model.Arguments),
		HasVerdict:    model.HasVerdict(),
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewCaseSummaryResponseSlice converts case models into listing DTOs.
func NewCaseSummaryResponseSlice(cases []*models.Case) []CaseSummaryResponse {
	responses := make([]CaseSummaryResponse, 0, len(cases))
	for _, c := range cases {
		responses = append(responses, NewCaseSummaryResponse(c))
	}

	return responses
}

// NewSideResponse converts a Side model into a DTO.
func NewSideResponse(side models.Side) SideResponse {
	return SideResponse{
		Description: side.Description,
		Documents:   NewDocumentResponseSlice(side.Documents),
	}
}

// NewDocumentResponse converts a Document model into a DTO.
func NewDocumentResponse(doc models.Document) DocumentResponse {
	return DocumentResponse{
		ID:            doc.ID,
		FileName:      doc.FileName,
		MimeType:      doc.MimeType,
		SizeBytes:     doc.SizeBytes,
		Checksum:      doc.Checksum,
		ExtractedText: doc.ExtractedText,
		FileURL:       doc.FileURL,
		UploadedAt:    doc.UploadedAt,
	}
}

// NewDocumentResponseSlice converts document models into DTOs.
func NewDocumentResponseSlice(docs []models.Document) []DocumentResponse {
	responses := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		responses = append(responses, NewDocumentResponse(doc))
	}

	return responses
}

// NewVerdictResponse converts a Verdict model into a DTO.
func NewVerdictResponse(verdict models.Verdict) VerdictResponse {
	return VerdictResponse{
		Winner:     verdict.Winner,
		Summary:    verdict.Summary,
		Reasoning:  verdict.Reasoning,
		Confidence: verdict.Confidence,
		Model:      verdict.Model,
		RenderedAt: verdict.RenderedAt,
	}
}

// NewArgumentResponse converts an Argument model into a DTO.
func NewArgumentResponse(argument models.Argument) ArgumentResponse {
	return ArgumentResponse{
		ID:         argument.ID,
		Side:       argument.Side,
		Text:       argument.Text,
		AIResponse: argument.AIResponse,
		CreatedAt:  argument.CreatedAt,
	}
}

// NewArgumentResponseSlice converts argument models into DTOs.
func NewArgumentResponseSlice(arguments []models.Argument) []ArgumentResponse {
	responses := make([]ArgumentResponse, 0, len(arguments))
	for _, argument := range arguments {
		responses = append(responses, NewArgumentResponse(argument))
	}

	return responses
}
