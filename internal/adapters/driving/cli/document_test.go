package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

func TestDocumentCommands_Registered(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"upload", "list", "status", "versions", "reindex", "delete",
		"summary", "entities", "export", "search", "ask", "history", "watch", "mcp", "settings", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestDocumentCommands_RequireService(t *testing.T) {
	prev := documentService
	documentService = nil
	defer func() { documentService = prev }()

	for _, args := range [][]string{
		{"upload", "a.txt"},
		{"list"},
		{"status", "x"},
		{"versions", "x"},
		{"reindex", "x"},
		{"delete", "x"},
	} {
		_, err := execute(t, "", args...)
		require.Error(t, err, args)
		assert.ErrorIs(t, err, errNoDocumentService)
	}
}

func TestUploadCmd_RequiresArgs(t *testing.T) {
	_, err := execute(t, "", "upload")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestUploadCmd_Queues(t *testing.T) {
	s := setupTestServices(t)
	path := writeTempFile(t, "contract.txt", contractText)

	out, err := execute(t, "", "upload", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Queued contract.txt as ")
	s.pipeline.Wait()
	docs, err := s.docs.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "contract.txt", docs[0].Filename)
}

func TestUploadCmd_Wait(t *testing.T) {
	setupTestServices(t)
	a := writeTempFile(t, "a.txt", contractText)
	b := writeTempFile(t, "b.md", "# Notes\n\nThe pilot starts in May and runs for six weeks.")

	out, err := execute(t, "", "upload", "--wait", a, b)

	require.NoError(t, err)
	assert.Contains(t, out, "Queued a.txt")
	assert.Contains(t, out, "Queued b.md")
	assert.Contains(t, out, "ready (")
}

func TestUploadCmd_UnsupportedFormat(t *testing.T) {
	setupTestServices(t)
	path := writeTempFile(t, "image.png", "not text")

	_, err := execute(t, "", "upload", path)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestUploadCmd_MissingFile(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "upload", "/does/not/exist.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestUploadCmd_WaitReportsFailure(t *testing.T) {
	setupTestServices(t)
	path := writeTempFile(t, "blank.txt", "   \n\t")

	out, err := execute(t, "", "upload", "--wait", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 documents failed")
	assert.Contains(t, out, "failed:")
}

func TestListCmd_Empty(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents uploaded.")
}

func TestListCmd_ShowsDocuments(t *testing.T) {
	s := setupTestServices(t)
	doc := s.ingest(t, "contract.txt", contractText)

	out, err := execute(t, "", "list")

	require.NoError(t, err)
	assert.Contains(t, out, doc.ID)
	assert.Contains(t, out, "ready")
	assert.Contains(t, out, "contract.txt")
	assert.Contains(t, out, "Total: 1 documents")
}

func TestListCmd_JSON(t *testing.T) {
	s := setupTestServices(t)
	doc := s.ingest(t, "contract.txt", contractText)

	out, err := execute(t, "", "list", "--json")

	require.NoError(t, err)
	var rows []documentJSON
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, doc.ID, rows[0].ID)
	assert.Equal(t, domain.StatusReady, rows[0].Status)
	assert.Equal(t, 1, rows[0].Versions)
}

func TestStatusCmd(t *testing.T) {
	s := setupTestServices(t)
	doc := s.ingest(t, "contract.txt", contractText)

	out, err := execute(t, "", "status", doc.ID)

	require.NoError(t, err)
	assert.Contains(t, out, "Document: "+doc.ID)
	assert.Contains(t, out, "Status:   ready")
	assert.Contains(t, out, "Summary:  version 0 of 1")
}

func TestStatusCmd_JSON(t *testing.T) {
	s := setupTestServices(t)
	doc := s.ingest(t, "contract.txt", contractText)

	out, err := execute(t, "", "status", "--json", doc.ID)

	require.NoError(t, err)
	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, doc.ID, st["id"])
	assert.Equal(t, "ready", st["status"])
}

func TestStatusCmd_NotFound(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "status", "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVersionsCmd_MarksCurrent(t *testing.T) {
	s := setupTestServices(t)
	doc := s.ingest(t, "contract.txt", contractText)
	_, err := s.docs.SaveSummary(context.Background(), doc.ID, "An edited summary of the supply agreement terms.")
	require.NoError(t, err)

	out, err := execute(t, "", "versions", doc.ID)

	require.NoError(t, err)
	assert.Contains(t, out, "  [0] ")
	assert.Contains(t, out, "* [1] ")
	assert.Contains(t, out, "user_edited")
}

func TestReindexCmd(t *testing.T) {
	s := setupTestServices(t)
	doc := s.ingest(t, "contract.txt", contractText)

	out, err := execute(t, "", "reindex", doc.ID)

	require.NoError(t, err)
	assert.Contains(t, out, "queued for re-indexing")
	s.pipeline.Wait()
	got, err := s.docs.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, got.Status)
}

func TestReindexCmd_NotReady(t *testing.T) {
	s := setupTestServices(t)
	doc, err := s.registry.Create(context.Background(), "pending.txt")
	require.NoError(t, err)

	_, err = execute(t, "", "reindex", doc.ID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reindex")
}

func TestDeleteCmd(t *testing.T) {
	s := setupTestServices(t)
	doc := s.ingest(t, "contract.txt", contractText)

	out, err := execute(t, "", "delete", doc.ID)

	require.NoError(t, err)
	assert.Contains(t, out, "deleted")
	_, err = s.docs.Get(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
