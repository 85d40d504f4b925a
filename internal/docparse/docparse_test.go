package docparse

import (
	"strings"
	"testing"

	appErrors "cvsnap/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"resume.pdf", MIMETypePDF},
		{"Resume.PDF", MIMETypePDF},
		{"resume.docx", MIMETypeDocx},
		{"resume.txt", MIMETypeText},
		{"notes.md", MIMETypeText},
		{"resume.doc", ""},
		{"resume", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectMIMEType(tt.filename))
		})
	}
}

func TestExtractTextPlain(t *testing.T) {
	text, err := ExtractText(MIMETypeText, []byte("Jane Doe\nSoftware Engineer"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSoftware Engineer", text)
}

func TestExtractTextUnsupported(t *testing.T) {
	_, err := ExtractText("image/png", []byte{0x89, 0x50})
	require.Error(t, err)

	appErr, ok := err.(*appErrors.AppError)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeUnsupportedFormat, appErr.Code)
}

func TestExtractTextCorruptPDF(t *testing.T) {
	_, err := ExtractText(MIMETypePDF, []byte("not a pdf at all"))
	require.Error(t, err)

	appErr, ok := err.(*appErrors.AppError)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeDocumentParse, appErr.Code)
}

func TestReadAll(t *testing.T) {
	data, err := ReadAll(strings.NewReader("hello"), 100)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestReadAllTooLarge(t *testing.T) {
	_, err := ReadAll(strings.NewReader("hello world"), 5)
	require.Error(t, err)

	appErr, ok := err.(*appErrors.AppError)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeInvalidRequest, appErr.Code)
}
