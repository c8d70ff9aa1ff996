package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/aijudge-go-api/internal/dto"
	"github.com/noah-isme/aijudge-go-api/internal/models"
	"github.com/noah-isme/aijudge-go-api/internal/observability"
	"github.com/noah-isme/aijudge-go-api/internal/repository"
	"github.com/noah-isme/aijudge-go-api/pkg/cloudinary"
	"github.com/noah-isme/aijudge-go-api/pkg/extract"
	"github.com/noah-isme/aijudge-go-api/pkg/storage"
)

var (
	// ErrNoDocuments indicates an upload request without any files.
	ErrNoDocuments = errors.New("no documents provided")
	// ErrDocumentTooLarge indicates a file exceeded the configured size limit.
	ErrDocumentTooLarge = errors.New("document exceeds maximum allowed size")
	// ErrDocumentTypeNotAllowed indicates the detected MIME type is not judgeable.
	ErrDocumentTypeNotAllowed = errors.New("document type not allowed")
	// ErrDocumentUnreadable indicates text extraction failed for the payload.
	ErrDocumentUnreadable = errors.New("document text could not be extracted")
	// ErrDocumentNotFound indicates the requested document does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentNotArchived indicates no archived original exists for download.
	ErrDocumentNotArchived = errors.New("document original not archived")
	// ErrInvalidSide indicates the side selector was neither side_a nor side_b.
	ErrInvalidSide = errors.New("unknown case side")
)

// EventPublisher broadcasts case events to connected listeners.
type EventPublisher interface {
	Publish(ctx context.Context, event models.CaseEvent)
}

// DocumentDownload carries an archived original ready for streaming, or the
// remote URL when the archive backend is remote-only.
type DocumentDownload struct {
	FileName    string
	MimeType    string
	Body        io.ReadCloser
	RedirectURL string
}

// DocumentService handles evidence uploads, extraction and archived originals.
type DocumentService interface {
	UploadDocuments(ctx context.Context, caseID uuid.UUID, side string, files []*multipart.FileHeader) (dto.UploadDocumentsResponse, error)
	Download(ctx context.Context, caseID, documentID uuid.UUID) (DocumentDownload, error)
	PurgeCaseDocuments(ctx context.Context, c *models.Case)
}

type documentService struct {
	store   repository.CaseStore
	archive storage.Storage
	cloud   *cloudinary.Service
	events  EventPublisher
	cache   *redis.Client
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewDocumentService constructs a document service. The archive and cloud
// backends are optional; extracted text alone is enough for judging.
func NewDocumentService(store repository.CaseStore, archive storage.Storage, cloud *cloudinary.Service, events EventPublisher, cache *redis.Client, maxSizeMB int, logger zerolog.Logger) DocumentService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &documentService{
		store:   store,
		archive: archive,
		cloud:   cloud,
		events:  events,
		cache:   cache,
		logger:  logger.With().Str("component", "document_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/aijudge-go-api/internal/service/document"),
	}
}

func (s *documentService) UploadDocuments(ctx context.Context, caseID uuid.UUID, side string, files []*multipart.FileHeader) (dto.UploadDocumentsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "document.upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("case.id", caseID.String()),
		attribute.String("case.side", side),
		attribute.Int("upload.file_count", len(files)),
	)

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if !models.ValidSide(side) {
		span.SetStatus(codes.Error, "invalid side")
		return dto.UploadDocumentsResponse{}, ErrInvalidSide
	}
	if len(files) == 0 {
		observability.UploadRejected().WithLabelValues("empty").Inc()
		span.SetStatus(codes.Error, "no files")
		return dto.UploadDocumentsResponse{}, ErrNoDocuments
	}

	record, err := s.store.Get(ctx, caseID)
	if err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			span.SetStatus(codes.Error, "case missing")
			return dto.UploadDocumentsResponse{}, ErrCaseNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return dto.UploadDocumentsResponse{}, err
	}

	target, _ := record.SideByKey(side)
	uploaded := make([]models.Document, 0, len(files))
	for _, file := range files {
		doc, err := s.processFile(ctx, span, file)
		if err != nil {
			return dto.UploadDocumentsResponse{}, err
		}
		target.Documents = append(target.Documents, doc)
		uploaded = append(uploaded, doc)
	}

	if record.ReadyForJudgment() {
		record.Status = models.CaseStatusReadyForJudgment
	} else {
		record.Status = models.CaseStatusAwaitingDocuments
	}
	record.UpdatedAt = time.Now().UTC()

	if err := s.store.Save(ctx, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.UploadDocumentsResponse{}, err
	}

	invalidateStatsCache(ctx, s.cache, s.logger)
	if s.events != nil {
		s.events.Publish(ctx, models.CaseEvent{
			Type:   models.EventDocumentUploaded,
			CaseID: record.ID.String(),
			Payload: dto.UploadDocumentsResponse{
				CaseID:     record.ID.String(),
				Side:       side,
				CaseStatus: record.Status,
				Documents:  dto.NewDocumentResponseSlice(uploaded),
			},
			TS: time.Now().UTC(),
		})
	}

	s.logger.Info().
		Str("case_id", record.ID.String()).
		Str("side", side).
		Int("documents", len(uploaded)).
		Str("status", record.Status).
		Msg("documents uploaded")
	span.SetStatus(codes.Ok, "stored")

	return dto.UploadDocumentsResponse{
		CaseID:     record.ID.String(),
		Side:       side,
		CaseStatus: record.Status,
		Documents:  dto.NewDocumentResponseSlice(uploaded),
	}, nil
}

func (s *documentService) processFile(ctx context.Context, span trace.Span, file *multipart.FileHeader) (models.Document, error) {
	if file == nil {
		return models.Document{}, ErrNoDocuments
	}
	if file.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrDocumentTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return models.Document{}, ErrDocumentTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return models.Document{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return models.Document{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrDocumentTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return models.Document{}, ErrDocumentTooLarge
	}

	detected := normalizeDocumentMime(mimetype.Detect(buf.Bytes()).String())
	span.SetAttributes(attribute.String("upload.detected_mime", detected))
	if !extract.Supported(detected) {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.RecordError(ErrDocumentTypeNotAllowed)
		span.SetStatus(codes.Error, "type not allowed")
		return models.Document{}, ErrDocumentTypeNotAllowed
	}

	text, err := extract.Text(detected, buf.Bytes())
	if err != nil {
		observability.UploadRejected().WithLabelValues("extract").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		s.logger.Warn().Err(err).Str("file", file.Filename).Msg("document extraction failed")
		return models.Document{}, ErrDocumentUnreadable
	}

	checksum := sha256.Sum256(buf.Bytes())
	doc := models.Document{
		ID:            uuid.New(),
		FileName:      strings.TrimSpace(file.Filename),
		MimeType:      detected,
		SizeBytes:     int64(buf.Len()),
		Checksum:      hex.EncodeToString(checksum[:]),
		ExtractedText: text,
		UploadedAt:    time.Now().UTC(),
	}
	if doc.FileName == "" {
		doc.FileName = doc.ID.String()
	}

	if s.cloud != nil {
		result, err := s.cloud.Upload(ctx, doc.ID, doc.FileName, bytes.NewReader(buf.Bytes()))
		if err != nil {
			observability.UploadRejected().WithLabelValues("storage").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "archive failed")
			return models.Document{}, err
		}
		doc.StoragePath = result.PublicID
		doc.FileURL = result.URL
	} else if s.archive != nil {
		path, err := s.archive.Upload(ctx, doc.ID, doc.FileName, bytes.NewReader(buf.Bytes()))
		if err != nil {
			observability.UploadRejected().WithLabelValues("storage").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "archive failed")
			return models.Document{}, err
		}
		doc.StoragePath = path
	}

	observability.DocumentsUploaded().WithLabelValues(detected).Inc()

	return doc, nil
}

func (s *documentService) Download(ctx context.Context, caseID, documentID uuid.UUID) (DocumentDownload, error) {
	ctx, span := s.tracer.Start(ctx, "document.download")
	defer span.End()
	span.SetAttributes(
		attribute.String("case.id", caseID.String()),
		attribute.String("document.id", documentID.String()),
	)

	record, err := s.store.Get(ctx, caseID)
	if err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			span.SetStatus(codes.Error, "case missing")
			return DocumentDownload{}, ErrCaseNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return DocumentDownload{}, err
	}

	doc := record.FindDocument(documentID)
	if doc == nil {
		span.SetStatus(codes.Error, "document missing")
		return DocumentDownload{}, ErrDocumentNotFound
	}

	if doc.FileURL != "" {
		span.SetStatus(codes.Ok, "redirect")
		return DocumentDownload{
			FileName:    doc.FileName,
			MimeType:    doc.MimeType,
			RedirectURL: doc.FileURL,
		}, nil
	}

	if doc.StoragePath == "" || s.archive == nil {
		span.SetStatus(codes.Error, "not archived")
		return DocumentDownload{}, ErrDocumentNotArchived
	}

	body, err := s.archive.Download(ctx, doc.StoragePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive read failed")
		return DocumentDownload{}, err
	}

	span.SetStatus(codes.Ok, "streamed")
	return DocumentDownload{
		FileName: doc.FileName,
		MimeType: doc.MimeType,
		Body:     body,
	}, nil
}

// PurgeCaseDocuments removes archived originals best-effort; failures are
// logged and do not block case deletion.
func (s *documentService) PurgeCaseDocuments(ctx context.Context, c *models.Case) {
	if c == nil {
		return
	}

	for _, side := range []*models.Side{&c.SideA, &c.SideB} {
		for _, doc := range side.Documents {
			if doc.StoragePath == "" {
				continue
			}

			var err error
			if doc.FileURL != "" && s.cloud != nil {
				err = s.cloud.Destroy(ctx, doc.StoragePath)
			} else if s.archive != nil {
				err = s.archive.Delete(ctx, doc.StoragePath)
			}
			if err != nil {
				s.logger.Warn().Err(err).
					Str("case_id", c.ID.String()).
					Str("document_id", doc.ID.String()).
					Msg("failed to delete archived document")
			}
		}
	}
}

func normalizeDocumentMime(m string) string {
	lower := strings.ToLower(strings.TrimSpace(m))
	if idx := strings.Index(lower, ";"); idx >= 0 {
		lower = strings.TrimSpace(lower[:idx])
	}
	return lower
}
