package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute(t, "", "search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_RequiresService(t *testing.T) {
	prev := qaService
	qaService = nil
	defer func() { qaService = prev }()

	_, err := execute(t, "", "search", "anything")

	assert.ErrorIs(t, err, errNoQAService)
}

func TestSearchCmd_EmptyCorpus(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "search", "invoices")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents are ready yet")
}

func TestSearchCmd_Table(t *testing.T) {
	s := setupTestServices(t)
	doc := s.ingest(t, "contract.txt", contractText)

	out, err := execute(t, "", "search", "when are invoices due", "-n", "2")

	require.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] "+doc.ID)
	assert.NotContains(t, out, "[3]")
}

func TestSearchCmd_JSONScoped(t *testing.T) {
	s := setupTestServices(t)
	contract := s.ingest(t, "contract.txt", contractText)
	s.ingest(t, "notes.md", "# Pilot\n\nThe pilot starts in May and runs for six weeks in Leeds.")

	out, err := execute(t, "", "search", "invoice date payment terms", "--json", "--doc", contract.ID)

	require.NoError(t, err)
	var hits []searchHitJSON
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	require.NotEmpty(t, hits)
	for _, h := range hits {
		assert.Equal(t, contract.ID, h.DocumentID)
		assert.NotEmpty(t, h.Text)
	}
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b c", oneLine("  a\n\tb   c \n"))
	assert.Empty(t, oneLine(" \n "))
}
