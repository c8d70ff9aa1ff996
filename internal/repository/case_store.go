package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/noah-isme/aijudge-go-api/internal/models"
)

// ErrCaseNotFound is returned when no record exists for the requested case id.
var ErrCaseNotFound = errors.New("case not found")

// CaseStore persists whole case records keyed by case id. Writes replace the
// stored record; concurrent writers follow last-write-wins semantics.
type CaseStore interface {
	Save(ctx context.Context, c *models.Case) error
	Get(ctx context.Context, id uuid.UUID) (*models.Case, error)
	List(ctx context.Context) ([]*models.Case, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
