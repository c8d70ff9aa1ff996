package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aijudge-go-api/internal/models"
	"github.com/noah-isme/aijudge-go-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService loads demo cases for local development and showcases.
type SeedService interface {
	SeedDemoCases(ctx context.Context, token string) (int, error)
}

type seedService struct {
	store   repository.CaseStore
	cache   *redis.Client
	enabled bool
	token   string
	logger  zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(store repository.CaseStore, cache *redis.Client, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		store:   store,
		cache:   cache,
		enabled: enabled,
		token:   token,
		logger:  logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedDemoCases(ctx context.Context, token string) (int, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}

	cases := demoCases()
	for i := range cases {
		if err := s.store.Save(ctx, &cases[i]); err != nil {
			return 0, err
		}
	}

	invalidateStatsCache(ctx, s.cache, s.logger)
	s.logger.Info().Int("cases", len(cases)).Msg("demo cases seeded")

	return len(cases), nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtleConstantTimeCompare(expected, strings.TrimSpace(token))
}

func subtleConstantTimeCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	mismatch := byte(0)
	for i := 0; i < len(a); i++ {
		mismatch |= a[i] ^ b[i]
	}
	return mismatch == 0
}

func demoCases() []models.Case {
	now := time.Now().UTC()

	tenancy := models.Case{
		ID:          uuid.New(),
		Title:       "Tenancy deposit withheld after move-out",
		Description: "Tenant vacated a two-bedroom flat. The landlord kept the full deposit citing repainting costs.",
		Country:     "Germany",
		CaseType:    "civil",
		Status:      models.CaseStatusReadyForJudgment,
		SideA: models.Side{
			Description: "Tenant: the flat was handed back clean and only shows normal wear after four years.",
			Documents: []models.Document{
				demoDocument("handover-protocol.txt",
					"Handover protocol signed by both parties. All rooms broom clean, no damage beyond normal wear recorded. Keys returned in full."),
			},
		},
		SideB: models.Side{
			Description: "Landlord: walls required full repainting and the bathroom sealant was mouldy.",
			Documents: []models.Document{
				demoDocument("painter-invoice.txt",
					"Invoice 2024-118: repainting of three rooms including materials, 1,840 EUR. Mould removal in bathroom, 220 EUR."),
			},
		},
		Arguments: []models.Argument{},
		CreatedAt: now.Add(-48 * time.Hour),
		UpdatedAt: now.Add(-2 * time.Hour),
	}

	freelance := models.Case{
		ID:          uuid.New(),
		Title:       "Unpaid freelance invoice for delivered website",
		Description: "A freelance developer delivered a marketing website. The client refuses the final invoice claiming missing features.",
		Country:     "Netherlands",
		CaseType:    "commercial",
		Status:      models.CaseStatusAwaitingDocuments,
		SideA: models.Side{
			Description: "Developer: all milestones in the statement of work were delivered and accepted in writing.",
			Documents: []models.Document{
				demoDocument("statement-of-work.txt",
					"Statement of work: five page marketing site, contact form, deployment to client hosting. Acceptance within 14 days of delivery."),
			},
		},
		SideB:     models.Side{Documents: []models.Document{}},
		Arguments: []models.Argument{},
		CreatedAt: now.Add(-24 * time.Hour),
		UpdatedAt: now.Add(-24 * time.Hour),
	}

	fence := models.Case{
		ID:          uuid.New(),
		Title:       "Boundary fence placed on neighbouring parcel",
		Description: "A newly built garden fence allegedly crosses the property line by roughly forty centimetres.",
		Country:     "Austria",
		CaseType:    "property",
		Status:      models.CaseStatusCreated,
		SideA:       models.Side{Documents: []models.Document{}},
		SideB:       models.Side{Documents: []models.Document{}},
		Arguments:   []models.Argument{},
		CreatedAt:   now.Add(-1 * time.Hour),
		UpdatedAt:   now.Add(-1 * time.Hour),
	}

	return []models.Case{tenancy, freelance, fence}
}

func demoDocument(name, text string) models.Document {
	sum := sha256.Sum256([]byte(text))
	return models.Document{
		ID:            uuid.New(),
		FileName:      name,
		MimeType:      "text/plain",
		SizeBytes:     int64(len(text)),
		Checksum:      hex.EncodeToString(sum[:]),
		ExtractedText: text,
		UploadedAt:    time.Now().UTC(),
	}
}
