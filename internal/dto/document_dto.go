package dto

// UploadDocumentsResponse reports the outcome of a multipart side upload.
type UploadDocumentsResponse struct {
	CaseID     string             `json:"case_id"`
	Side       string             `json:"side"`
	CaseStatus string             `json:"case_status"`
	Documents  []DocumentResponse `json:"documents"`
}
