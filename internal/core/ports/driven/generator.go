package driven

import (
	"context"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

// Generator produces summary or answer text from context.
// Errors are reported as domain.ErrGeneration.
type Generator interface {
	// Generate returns text for the given context passages and instructions.
	Generate(ctx context.Context, passages, instructions string) (string, error)

	// Name identifies the generator for logging.
	Name() string
}

// EntityExtractor produces a structured entity set from text.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) (domain.Entities, error)
}

// Validator scores generated text.
type Validator interface {
	// ValidateSummary checks a summary's shape and length.
	ValidateSummary(text string) domain.Validation

	// ValidateAnswer checks an answer against the contexts it was built from.
	ValidateAnswer(answer string, contexts []string) domain.Validation
}
