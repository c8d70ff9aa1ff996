package models

import "time"

// Case event types broadcast to WebSocket listeners.
const (
	EventDocumentUploaded  = "document.uploaded"
	EventVerdictRendered   = "verdict.rendered"
	EventArgumentSubmitted = "argument.submitted"
)

// CaseEvent is the envelope delivered to case room subscribers.
type CaseEvent struct {
	Type    string      `json:"type"`
	CaseID  string      `json:"case_id"`
	Payload interface{} `json:"payload,omitempty"`
	TS      time.Time   `json:"ts"`
}
