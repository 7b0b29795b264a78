package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible
	// default or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptSystem is the system prompt sent with every generation request.
	// It has no format placeholders.
	PromptSystem = "system"

	// PromptSummarise asks for a document summary.
	// The template expects a %d placeholder for the target word count.
	PromptSummarise = "summarise"

	// PromptAnswer asks for an answer to a question from context passages.
	// The template expects a %s placeholder for the question.
	PromptAnswer = "answer"
)
