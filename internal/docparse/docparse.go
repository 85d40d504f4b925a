// Package docparse turns uploaded resume files into plain text.
package docparse

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"cvsnap/internal/errors"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// MIME types accepted for resume uploads
const (
	MIMETypeText = "text/plain"
	MIMETypePDF  = "application/pdf"
	MIMETypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DetectMIMEType guesses a document's MIME type from its filename,
// used when the upload does not carry a usable Content-Type.
func DetectMIMEType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return MIMETypePDF
	case ".docx":
		return MIMETypeDocx
	case ".txt", ".text", ".md":
		return MIMETypeText
	default:
		return ""
	}
}

// ExtractText converts document bytes to plain text based on MIME type.
// Unsupported types and corrupt files return an io error classified for
// per-file reporting; they are never fatal to a whole job.
func ExtractText(mimeType string, data []byte) (string, error) {
	switch mimeType {
	case MIMETypeText:
		return string(data), nil

	case MIMETypePDF:
		return extractPDFText(data)

	case MIMETypeDocx:
		return extractDocxText(data)

	default:
		return "", errors.NewIOError(errors.ErrCodeUnsupportedFormat,
			"Unsupported document type: "+mimeType, nil)
	}
}

// extractPDFText reads every page of a PDF and concatenates its plain text
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeDocumentParse,
			"Failed to read PDF document", err)
	}

	var textBuilder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages rather than failing the document
			continue
		}
		textBuilder.WriteString(text)
	}

	return textBuilder.String(), nil
}

// extractDocxText reads the editable content of a DOCX document
func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeDocumentParse,
			"Failed to parse DOCX document", err)
	}
	defer doc.Close()

	return doc.Editable().GetContent(), nil
}

// ReadAll drains a multipart file into memory, bounded by maxSize bytes
func ReadAll(r io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			"Failed to read uploaded file", err)
	}
	if int64(len(data)) > maxSize {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Uploaded file exceeds the maximum allowed size", nil)
	}
	return data, nil
}
