package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid summary URI", "intellidocs://documents/doc-456/summary", "doc-456"},
		{"invalid prefix", "file://documents/doc-456/summary", ""},
		{"missing suffix", "intellidocs://documents/doc-456", ""},
		{"nested path", "intellidocs://documents/a/b/summary", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists documents", func(t *testing.T) {
		docs := &mockDocumentService{documents: []domain.Document{
			{ID: "doc-1", Filename: "notes.md", Status: domain.StatusReady},
			{ID: "doc-2", Filename: "scan.pdf", Status: domain.StatusFailed},
		}}
		server, err := NewServer(&Ports{QA: &mockQAService{}, Document: docs})
		require.NoError(t, err)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("intellidocs://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		text := result.Contents[0].Text
		assert.Contains(t, text, `"filename": "notes.md"`)
		assert.Contains(t, text, `"status": "failed"`)
		assert.Contains(t, text, "intellidocs://documents/doc-1/summary")
	})

	t.Run("list failure", func(t *testing.T) {
		docs := &mockDocumentService{err: errors.New("database error")}
		server, err := NewServer(&Ports{QA: &mockQAService{}, Document: docs})
		require.NoError(t, err)

		_, err = server.handleDocumentsResource(ctx, makeReadResourceRequest("intellidocs://documents"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleSummaryResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns markdown", func(t *testing.T) {
		docs := &mockDocumentService{summary: []byte("# Summary - notes.md\n\nShort.\n")}
		server, err := NewServer(&Ports{QA: &mockQAService{}, Document: docs})
		require.NoError(t, err)

		result, err := server.handleSummaryResource(ctx, makeReadResourceRequest("intellidocs://documents/doc-1/summary"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "text/markdown", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "Short.")
	})

	t.Run("invalid URI", func(t *testing.T) {
		server, err := NewServer(&Ports{QA: &mockQAService{}, Document: &mockDocumentService{}})
		require.NoError(t, err)

		_, err = server.handleSummaryResource(ctx, makeReadResourceRequest("intellidocs://other"))

		require.Error(t, err)
	})

	t.Run("no summary", func(t *testing.T) {
		docs := &mockDocumentService{err: domain.ErrNotFound}
		server, err := NewServer(&Ports{QA: &mockQAService{}, Document: docs})
		require.NoError(t, err)

		_, err = server.handleSummaryResource(ctx, makeReadResourceRequest("intellidocs://documents/doc-1/summary"))

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
