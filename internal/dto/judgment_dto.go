package dto

// ArgumentCreateRequest describes a post-verdict argument submission.
type ArgumentCreateRequest struct {
	Side string `json:"side" validate:"required,oneof=side_a side_b"`
	Text string `json:"text" validate:"required,min=3,max=5000"`
}
