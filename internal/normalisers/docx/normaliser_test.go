package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

// createTestDOCX creates a minimal DOCX file in memory.
func createTestDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create(documentPart)
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

const twoParagraphs = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
</w:body>
</w:document>`

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"docx"}, n.SupportedFormats())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_Paragraphs(t *testing.T) {
	got, err := New().Normalise(context.Background(), createTestDOCX(t, twoParagraphs))
	require.NoError(t, err)
	assert.Equal(t, "Hello World\nSecond paragraph.", got)
}

func TestNormalise_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"not a zip", []byte("plain text pretending to be docx")},
		{"missing document part", createTestDOCX(t, "")},
		{"malformed xml", createTestDOCX(t, "<w:document><w:body><w:p>")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Normalise(context.Background(), tt.raw)
			assert.ErrorIs(t, err, domain.ErrCorruptInput)
		})
	}
}
