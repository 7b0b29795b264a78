// Package validate scores summaries and answers with cheap heuristics:
// word-count bounds, formatting, overlap with the retrieved context and a
// screen for sensitive terms.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// Default word bounds for summaries.
const (
	DefaultMinWords = 40
	DefaultMaxWords = 800
)

// Thresholds.
const (
	summaryPassScore = 0.6
	answerPassScore  = 0.7
	lowOverlap       = 0.15
)

var (
	wordPattern      = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	uncertainPattern = regexp.MustCompile(`(?i)\b(I think|maybe|not sure)\b`)
)

// sensitiveTerms must not appear in generated text.
var sensitiveTerms = []string{"password", "ssn", "credit card", "api key"}

// Ensure Validator implements the interface.
var _ driven.Validator = (*Validator)(nil)

// Validator scores generated text. Safe for concurrent use.
type Validator struct {
	minWords int
	maxWords int
}

// New creates a validator. Non-positive bounds fall back to the defaults.
func New(minWords, maxWords int) *Validator {
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	if maxWords <= 0 || maxWords < minWords {
		maxWords = DefaultMaxWords
	}
	return &Validator{minWords: minWords, maxWords: maxWords}
}

// WordCount returns the number of words in text.
func WordCount(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// ValidateSummary starts from 1.0 and subtracts 0.3 when too short, 0.2 when
// too long and 0.05 for doubled spaces. A summary passes with a score of at
// least 0.6, at least the minimum word count and no sensitive terms.
func (v *Validator) ValidateSummary(text string) domain.Validation {
	wc := WordCount(text)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.Validation{Reasons: []string{"empty summary"}, WordCount: wc}
	}

	var reasons []string
	score := 1.0
	if wc < v.minWords {
		reasons = append(reasons, fmt.Sprintf("summary too short: %d words (min %d)", wc, v.minWords))
		score -= 0.3
	}
	if wc > v.maxWords {
		reasons = append(reasons, fmt.Sprintf("summary too long: %d words (max %d)", wc, v.maxWords))
		score -= 0.2
	}
	if strings.Contains(text, "  ") {
		reasons = append(reasons, "contains doubled spaces")
		score -= 0.05
	}
	if !strings.HasSuffix(trimmed, ".") && !strings.HasSuffix(trimmed, "!") && !strings.HasSuffix(trimmed, "?") {
		reasons = append(reasons, "summary should end with a sentence terminator")
	}
	if strings.Contains(strings.ToLower(text), "lorem ipsum") {
		reasons = append(reasons, "looks like placeholder text")
	}
	sensitive := sensitiveReasons(text)
	reasons = append(reasons, sensitive...)

	score = round2(clamp(score))
	return domain.Validation{
		Score:     score,
		OK:        score >= summaryPassScore && wc >= v.minWords && len(sensitive) == 0,
		Reasons:   reasons,
		WordCount: wc,
	}
}

// ValidateAnswer scores an answer by the share of its words that occur in
// contexts: 0.6 + 0.4*overlap. It passes at 0.7 with no sensitive terms.
func (v *Validator) ValidateAnswer(answer string, contexts []string) domain.Validation {
	words := wordPattern.FindAllString(answer, -1)
	if len(words) == 0 {
		return domain.Validation{Reasons: []string{"empty answer"}}
	}

	known := make(map[string]struct{})
	for _, c := range contexts {
		for _, w := range wordPattern.FindAllString(c, -1) {
			known[strings.ToLower(w)] = struct{}{}
		}
	}
	overlap := 0
	for _, w := range words {
		if _, ok := known[strings.ToLower(w)]; ok {
			overlap++
		}
	}
	ratio := float64(overlap) / float64(len(words))

	var reasons []string
	if ratio < lowOverlap {
		reasons = append(reasons, "low overlap with retrieved context; answer may be hallucinated")
	}
	if uncertainPattern.MatchString(answer) {
		reasons = append(reasons, "uncertain phrasing detected")
	}
	sensitive := sensitiveReasons(answer)
	reasons = append(reasons, sensitive...)

	score := round2(0.6 + ratio*0.4)
	return domain.Validation{
		Score:     score,
		OK:        score >= answerPassScore && len(sensitive) == 0,
		Reasons:   reasons,
		WordCount: len(words),
	}
}

func sensitiveReasons(text string) []string {
	lower := strings.ToLower(text)
	var reasons []string
	for _, term := range sensitiveTerms {
		if strings.Contains(lower, term) {
			reasons = append(reasons, "contains sensitive term: "+term)
		}
	}
	return reasons
}

func clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
