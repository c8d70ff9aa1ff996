package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/noah-isme/aijudge-go-api/internal/models"
)

const s3CasePrefix = "cases/"

type s3CaseStore struct {
	client *s3.Client
	bucket string
}

// NewS3CaseStore constructs a case store that keeps one JSON object per case
// under the cases/ prefix of the given bucket.
func NewS3CaseStore(client *s3.Client, bucket string) (CaseStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket must be provided")
	}

	return &s3CaseStore{client: client, bucket: bucket}, nil
}

func (s *s3CaseStore) Save(ctx context.Context, c *models.Case) error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("case id must be set")
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode case: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(c.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to write case object: %w", err)
	}

	return nil
}

func (s *s3CaseStore) Get(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to read case object: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read case object body: %w", err)
	}

	var c models.Case
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode case object: %w", err)
	}

	return &c, nil
}

func (s *s3CaseStore) List(ctx context.Context) ([]*models.Case, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s3CasePrefix),
	})

	var cases []*models.Case
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list case objects: %w", err)
		}

		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			name := strings.TrimPrefix(key, s3CasePrefix)
			id, err := uuid.Parse(strings.TrimSuffix(name, caseFileExt))
			if err != nil {
				continue
			}

			c, err := s.Get(ctx, id)
			if err != nil {
				continue
			}

			cases = append(cases, c)
		}
	}

	return cases, nil
}

func (s *s3CaseStore) Delete(ctx context.Context, id uuid.UUID) error {
	// S3 deletes are idempotent, so probe first to report missing cases.
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete case object: %w", err)
	}

	return nil
}

func (s *s3CaseStore) key(id uuid.UUID) string {
	return s3CasePrefix + id.String() + caseFileExt
}
