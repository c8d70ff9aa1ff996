package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aijudge-go-api/internal/models"
	"github.com/noah-isme/aijudge-go-api/internal/repository"
	"github.com/noah-isme/aijudge-go-api/pkg/storage"
)

type eventRecorder struct {
	events []models.CaseEvent
}

func (r *eventRecorder) Publish(_ context.Context, event models.CaseEvent) {
	r.events = append(r.events, event)
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"documents\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["documents"]
	require.Len(t, files, 1)
	return files[0]
}

func seedCase(t *testing.T, store repository.CaseStore) *models.Case {
	t.Helper()
	now := time.Now().UTC()
	record := models.Case{
		ID:          uuid.New(),
		Title:       "Deposit withheld after move-out",
		Description: "The landlord kept the deposit citing repainting costs.",
		Country:     "Germany",
		CaseType:    "civil",
		Status:      models.CaseStatusCreated,
		SideA:       models.Side{Documents: []models.Document{}},
		SideB:       models.Side{Documents: []models.Document{}},
		Arguments:   []models.Argument{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.Save(context.Background(), &record))
	return &record
}

func TestDocumentServiceUploadRequiresFiles(t *testing.T) {
	store := newStore(t)
	record := seedCase(t, store)
	svc := NewDocumentService(store, nil, nil, nil, nil, 10, testLogger())

	_, err := svc.UploadDocuments(context.Background(), record.ID, models.SideA, nil)
	require.ErrorIs(t, err, ErrNoDocuments)
}

func TestDocumentServiceUploadValidatesSide(t *testing.T) {
	store := newStore(t)
	record := seedCase(t, store)
	svc := NewDocumentService(store, nil, nil, nil, nil, 10, testLogger())

	file := buildFileHeader(t, "note.txt", []byte("some evidence"))
	_, err := svc.UploadDocuments(context.Background(), record.ID, "side_c", []*multipart.FileHeader{file})
	require.ErrorIs(t, err, ErrInvalidSide)
}

func TestDocumentServiceUploadUnknownCase(t *testing.T) {
	svc := NewDocumentService(newStore(t), nil, nil, nil, nil, 10, testLogger())

	file := buildFileHeader(t, "note.txt", []byte("some evidence"))
	_, err := svc.UploadDocuments(context.Background(), uuid.New(), models.SideA, []*multipart.FileHeader{file})
	require.ErrorIs(t, err, ErrCaseNotFound)
}

func TestDocumentServiceUploadRejectsOversizedFile(t *testing.T) {
	store := newStore(t)
	record := seedCase(t, store)
	svc := NewDocumentService(store, nil, nil, nil, nil, 1, testLogger())

	file := buildFileHeader(t, "huge.txt", bytes.Repeat([]byte("a"), 2*1024*1024))
	_, err := svc.UploadDocuments(context.Background(), record.ID, models.SideA, []*multipart.FileHeader{file})
	require.ErrorIs(t, err, ErrDocumentTooLarge)

	reloaded, err := store.Get(context.Background(), record.ID)
	require.NoError(t, err)
	require.Zero(t, reloaded.DocumentCount())
}

func TestDocumentServiceUploadRejectsUnsupportedType(t *testing.T) {
	store := newStore(t)
	record := seedCase(t, store)
	svc := NewDocumentService(store, nil, nil, nil, nil, 10, testLogger())

	pngHeader := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	file := buildFileHeader(t, "photo.png", pngHeader)
	_, err := svc.UploadDocuments(context.Background(), record.ID, models.SideA, []*multipart.FileHeader{file})
	require.ErrorIs(t, err, ErrDocumentTypeNotAllowed)
}

func TestDocumentServiceUploadExtractsTextAndTransitionsStatus(t *testing.T) {
	store := newStore(t)
	record := seedCase(t, store)
	events := &eventRecorder{}
	svc := NewDocumentService(store, nil, nil, events, nil, 10, testLogger())

	content := []byte("Handover protocol signed by both parties. No damage recorded.")
	file := buildFileHeader(t, "protocol.txt", content)

	resp, err := svc.UploadDocuments(context.Background(), record.ID, models.SideA, []*multipart.FileHeader{file})
	require.NoError(t, err)
	require.Equal(t, models.CaseStatusAwaitingDocuments, resp.CaseStatus)
	require.Len(t, resp.Documents, 1)

	doc := resp.Documents[0]
	require.Equal(t, "protocol.txt", doc.FileName)
	require.Equal(t, "text/plain", doc.MimeType)
	require.Equal(t, int64(len(content)), doc.SizeBytes)
	require.Equal(t, string(content), doc.ExtractedText)

	sum := sha256.Sum256(content)
	require.Equal(t, hex.EncodeToString(sum[:]), doc.Checksum)

	other := buildFileHeader(t, "invoice.txt", []byte("Invoice 2024-118: repainting of three rooms, 1840 EUR."))
	resp, err = svc.UploadDocuments(context.Background(), record.ID, models.SideB, []*multipart.FileHeader{other})
	require.NoError(t, err)
	require.Equal(t, models.CaseStatusReadyForJudgment, resp.CaseStatus)

	require.Len(t, events.events, 2)
	require.Equal(t, models.EventDocumentUploaded, events.events[0].Type)
	require.Equal(t, record.ID.String(), events.events[0].CaseID)
}

func TestDocumentServiceSideDescriptionCountsAsContent(t *testing.T) {
	store := newStore(t)
	record := seedCase(t, store)
	record.SideB.Description = "Landlord: full repainting was required."
	require.NoError(t, store.Save(context.Background(), record))

	svc := NewDocumentService(store, nil, nil, nil, nil, 10, testLogger())

	file := buildFileHeader(t, "protocol.txt", []byte("All rooms broom clean."))
	resp, err := svc.UploadDocuments(context.Background(), record.ID, models.SideA, []*multipart.FileHeader{file})
	require.NoError(t, err)
	require.Equal(t, models.CaseStatusReadyForJudgment, resp.CaseStatus)
}

func TestDocumentServiceUploadArchivesOriginal(t *testing.T) {
	store := newStore(t)
	record := seedCase(t, store)
	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewDocumentService(store, archive, nil, nil, nil, 10, testLogger())

	content := []byte("Original payload to archive.")
	file := buildFileHeader(t, "original.txt", content)

	resp, err := svc.UploadDocuments(context.Background(), record.ID, models.SideA, []*multipart.FileHeader{file})
	require.NoError(t, err)

	download, err := svc.Download(context.Background(), record.ID, resp.Documents[0].ID)
	require.NoError(t, err)
	require.Equal(t, "original.txt", download.FileName)
	require.NotNil(t, download.Body)
	defer download.Body.Close()

	data, err := io.ReadAll(download.Body)
	require.NoError(t, err)
	require.Equal(t, content, data)
}

func TestDocumentServiceDownloadWithoutArchive(t *testing.T) {
	store := newStore(t)
	record := seedCase(t, store)
	svc := NewDocumentService(store, nil, nil, nil, nil, 10, testLogger())

	file := buildFileHeader(t, "note.txt", []byte("extracted only"))
	resp, err := svc.UploadDocuments(context.Background(), record.ID, models.SideA, []*multipart.FileHeader{file})
	require.NoError(t, err)

	_, err = svc.Download(context.Background(), record.ID, resp.Documents[0].ID)
	require.ErrorIs(t, err, ErrDocumentNotArchived)

	_, err = svc.Download(context.Background(), record.ID, uuid.New())
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocumentServicePurgeRemovesArchivedPayloads(t *testing.T) {
	store := newStore(t)
	record := seedCase(t, store)
	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewDocumentService(store, archive, nil, nil, nil, 10, testLogger())

	file := buildFileHeader(t, "original.txt", []byte("Archived payload."))
	_, err = svc.UploadDocuments(context.Background(), record.ID, models.SideA, []*multipart.FileHeader{file})
	require.NoError(t, err)

	reloaded, err := store.Get(context.Background(), record.ID)
	require.NoError(t, err)
	path := reloaded.SideA.Documents[0].StoragePath
	require.NotEmpty(t, path)

	svc.PurgeCaseDocuments(context.Background(), reloaded)

	_, err = archive.Download(context.Background(), path)
	require.Error(t, err)
}
