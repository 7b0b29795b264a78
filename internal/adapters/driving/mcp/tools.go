package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

// defaultSearchLimit is used when the caller omits k.
const defaultSearchLimit = 5

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question    string   `json:"question" jsonschema:"the question to answer from the uploaded documents"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict the answer to these document ids"`
}

// CitationOutput points an answer at a chunk.
type CitationOutput struct {
	DocumentID string `json:"document_id"`
	ChunkID    string `json:"chunk_id"`
	Sequence   int    `json:"sequence"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Snippet    string `json:"snippet"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Question  string           `json:"question"`
	Answer    string           `json:"answer"`
	Citations []CitationOutput `json:"citations"`
	Score     float64          `json:"score"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the text to find similar passages for"`
	K           int      `json:"k,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict the search to these document ids"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single passage.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Sequence   int     `json:"sequence"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// StatusInput is the input schema for the document_status tool.
type StatusInput struct {
	DocumentID string `json:"document_id" jsonschema:"the id returned when the document was uploaded"`
}

// StatusOutput is the output schema for the document_status tool.
type StatusOutput struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	Status         string `json:"status"`
	Summary        string `json:"summary"`
	VersionCount   int    `json:"version_count"`
	CurrentVersion int    `json:"current_version"`
	ChunkCount     int    `json:"chunk_count"`
	Error          string `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the uploaded documents, with citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the passages most similar to a query",
	}, s.handleSearch)

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "document_status",
			Description: "Report the processing status and current summary of a document",
		}, s.handleStatus)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	record, err := s.ports.QA.Ask(ctx, input.Question, input.DocumentIDs)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCorpus) {
			return nil, AskOutput{}, errors.New("no ready documents to answer from; upload a document and wait for it to become ready")
		}
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Question:  record.Question,
		Answer:    record.Answer,
		Citations: make([]CitationOutput, len(record.Citations)),
		Score:     record.Score,
	}
	for i, c := range record.Citations {
		output.Citations[i] = CitationOutput{
			DocumentID: c.DocumentID,
			ChunkID:    c.ChunkID,
			Sequence:   c.Sequence,
			Start:      c.Start,
			End:        c.End,
			Snippet:    c.Snippet,
		}
	}

	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, fmt.Errorf("%w: query is empty", domain.ErrValidation)
	}

	k := input.K
	if k <= 0 {
		k = defaultSearchLimit
	}

	hits, err := s.ports.QA.Search(ctx, input.Query, k, input.DocumentIDs)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(hits)),
		Count:   len(hits),
	}
	for i := range hits {
		output.Results[i] = SearchResultOutput{
			DocumentID: hits[i].DocumentID,
			ChunkID:    hits[i].ChunkID,
			Sequence:   hits[i].Sequence,
			Score:      hits[i].Score,
			Text:       hits[i].Metadata.Text,
		}
	}

	return nil, output, nil
}

// handleStatus handles the document_status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	status, err := s.ports.Document.Status(ctx, input.DocumentID)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	return nil, StatusOutput{
		ID:             status.ID,
		Filename:       status.Filename,
		Status:         status.Status.String(),
		Summary:        status.Summary,
		VersionCount:   status.VersionCount,
		CurrentVersion: status.CurrentVersion,
		ChunkCount:     status.ChunkCount,
		Error:          status.Error,
	}, nil
}
