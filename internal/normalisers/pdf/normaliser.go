// Package pdf extracts text from PDF and EPUB files using MuPDF.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedFormats() []string {
	return []string{"pdf", "epub"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise returns the text of every non-empty page, separated by blank lines.
func (n *Normaliser) Normalise(ctx context.Context, raw []byte) (string, error) {
	if !bytes.Contains(head(raw), pdfMagic) && !bytes.HasPrefix(raw, zipMagic) {
		return "", fmt.Errorf("%w: pdf: missing file header", domain.ErrCorruptInput)
	}

	doc, err := fitz.NewFromMemory(raw)
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %w", domain.ErrCorruptInput, err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("%w: pdf: page %d: %w", domain.ErrCorruptInput, i+1, err)
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}

// head returns the first KiB, where readers accept the PDF header.
func head(raw []byte) []byte {
	if len(raw) > 1024 {
		return raw[:1024]
	}
	return raw
}
