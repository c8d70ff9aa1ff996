package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// MIME types handled by the extractor.
const (
	MimePDF  = "application/pdf"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

// ErrUnsupportedType indicates the payload has no registered extractor.
var ErrUnsupportedType = errors.New("unsupported document type")

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	xmlTagRE     = regexp.MustCompile(`<[^>]+>`)
)

var xmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

// Supported reports whether documents of the given MIME type can be extracted.
func Supported(mime string) bool {
	switch mime {
	case MimePDF, MimeDocx, MimeText:
		return true
	}
	return strings.HasPrefix(mime, "text/")
}

// Text extracts the plain text of a document payload, dispatching on MIME type.
// The result is whitespace-normalized.
func Text(mime string, payload []byte) (string, error) {
	switch {
	case mime == MimePDF:
		return pdfText(payload)
	case mime == MimeDocx:
		return docxText(payload)
	case mime == MimeText || strings.HasPrefix(mime, "text/"):
		return Normalize(string(payload)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}
}

func pdfText(payload []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, content); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return Normalize(buf.String()), nil
}

func docxText(payload []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	// GetContent yields the raw document XML, so markup is stripped before
	// normalization.
	content := xmlTagRE.ReplaceAllString(doc.Editable().GetContent(), " ")
	content = xmlEntities.Replace(content)

	return Normalize(content), nil
}

// Normalize collapses every whitespace run to a single space and trims the ends.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
}
