package normalisers

import (
	"github.com/custodia-labs/intellidocs/internal/normalisers/docx"
	"github.com/custodia-labs/intellidocs/internal/normalisers/eml"
	"github.com/custodia-labs/intellidocs/internal/normalisers/html"
	"github.com/custodia-labs/intellidocs/internal/normalisers/markdown"
	"github.com/custodia-labs/intellidocs/internal/normalisers/pdf"
	"github.com/custodia-labs/intellidocs/internal/normalisers/plaintext"
)

// Default returns a registry with every built-in normaliser.
func Default() *Registry {
	return NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		docx.New(),
		pdf.New(),
		eml.New(),
	)
}
