package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for intellidocs resources.
	uriScheme = "intellidocs://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Document == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "List of uploaded documents with their status",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/summary",
		Name:        "document-summary",
		Description: "Current summary of a document as Markdown",
		MIMEType:    "text/markdown",
	}, s.handleSummaryResource)
}

// handleDocumentsResource returns every document.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		Status   string `json:"status"`
		URI      string `json:"uri"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{
			ID:       docs[i].ID,
			Filename: docs[i].Filename,
			Status:   docs[i].Status.String(),
			URI:      uriScheme + "documents/" + docs[i].ID + "/summary",
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleSummaryResource returns the exported summary of a document.
func (s *Server) handleSummaryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := s.ports.Document.ExportSummary(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("exporting summary: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like
// intellidocs://documents/{documentId}/summary.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"
	const suffix = "/summary"

	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, suffix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
