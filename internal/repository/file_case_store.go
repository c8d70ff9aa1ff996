package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/aijudge-go-api/internal/models"
)

const caseFileExt = ".json"

type fileCaseStore struct {
	dir string
}

// NewFileCaseStore constructs a case store that keeps one JSON file per case
// under dir, creating the directory if needed.
func NewFileCaseStore(dir string) (CaseStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("case store directory must be provided")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create case store directory: %w", err)
	}

	return &fileCaseStore{dir: dir}, nil
}

func (s *fileCaseStore) Save(ctx context.Context, c *models.Case) error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("case id must be set")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode case: %w", err)
	}

	if err := os.WriteFile(s.path(c.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write case file: %w", err)
	}

	return nil
}

func (s *fileCaseStore) Get(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}

	var c models.Case
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode case file: %w", err)
	}

	return &c, nil
}

func (s *fileCaseStore) List(ctx context.Context) ([]*models.Case, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read case store directory: %w", err)
	}

	cases := make([]*models.Case, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), caseFileExt) {
			continue
		}

		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), caseFileExt))
		if err != nil {
			continue
		}

		c, err := s.Get(ctx, id)
		if err != nil {
			// Skip records that vanished or no longer decode; listings stay usable.
			continue
		}

		cases = append(cases, c)
	}

	return cases, nil
}

func (s *fileCaseStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrCaseNotFound
		}
		return fmt.Errorf("failed to delete case file: %w", err)
	}

	return nil
}

func (s *fileCaseStore) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+caseFileExt)
}
