package domain

import "time"

// Validation is a heuristic confidence check on a summary or answer.
type Validation struct {
	// Score is in [0,1].
	Score float64

	// OK is true when the text passes the validator's threshold.
	OK bool

	// Reasons lists the checks that lowered the score.
	Reasons []string

	// WordCount is the number of whitespace-separated words.
	WordCount int
}

// Clone returns a copy with its own Reasons slice.
func (v Validation) Clone() Validation {
	v.Reasons = append([]string(nil), v.Reasons...)
	return v
}

// QARecord is one answered question. History is append-only.
type QARecord struct {
	// ID is the unique identifier for the record.
	ID string

	// Question is the user's question.
	Question string

	// Scope lists the requested document ids. Nil means all documents.
	Scope []string

	// Answer is the generated text.
	Answer string

	// Citations lists the chunks used, in ranking order.
	Citations []Citation

	// Score is the validation score of the answer.
	Score float64

	// Validation is the full validator output.
	Validation *Validation

	// CreatedAt is when the question was answered.
	CreatedAt time.Time
}
