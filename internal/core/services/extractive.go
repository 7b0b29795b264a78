package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Extractive fallbacks used when no generator is configured.

const (
	// answerFallbackWords bounds the extractive answer.
	answerFallbackWords = 200

	// maxSummarySentences bounds how many top-scored sentences are considered.
	maxSummarySentences = 30

	// fallbackPrefix introduces an extractive answer.
	fallbackPrefix = "Based on the most relevant passages:\n\n"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

var stopWords = map[string]bool{
	"the": true, "and": true, "a": true, "an": true, "of": true, "to": true, "in": true,
	"on": true, "for": true, "with": true, "by": true, "as": true, "is": true, "it": true,
	"that": true, "this": true, "are": true, "was": true, "were": true, "be": true, "or": true,
	"at": true, "from": true, "which": true, "but": true, "if": true, "then": true, "so": true,
}

func wordCount(s string) int {
	return len(wordPattern.FindAllStringIndex(s, -1))
}

// terms returns the lower-case content words of s.
func terms(s string) []string {
	var out []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		if len([]rune(w)) >= 3 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// splitSentences breaks text after '.', '!' or '?' when whitespace follows.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(strings.TrimSpace(text))
	start := 0
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(".!?", runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// extractiveSummary picks the sentences with the highest mean term
// frequency until targetWords is reached, then restores document order.
// Short results are padded with the remaining sentences in order.
func extractiveSummary(text string, targetWords int) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return truncateRunes(text, 200)
	}

	freqs := make(map[string]int)
	for _, t := range terms(text) {
		freqs[t]++
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		toks := terms(s)
		sum := 0
		for _, t := range toks {
			sum += freqs[t]
		}
		ranked[i] = scored{index: i, score: float64(sum) / (float64(len(toks)) + 1e-6)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > maxSummarySentences {
		ranked = ranked[:maxSummarySentences]
	}

	chosen := make(map[int]bool)
	total := 0
	for _, r := range ranked {
		chosen[r.index] = true
		total += wordCount(sentences[r.index])
		if total >= targetWords {
			break
		}
	}

	var parts []string
	for i, s := range sentences {
		if chosen[i] {
			parts = append(parts, s)
		}
	}
	result := strings.Join(parts, " ")

	for i := 0; i < len(sentences) && wordCount(result) < targetWords; i++ {
		if chosen[i] {
			continue
		}
		if result != "" {
			result += " "
		}
		result += sentences[i]
	}
	return result
}

// extractiveAnswer stitches the first words of the used contexts together.
func extractiveAnswer(contexts []string) string {
	joined := strings.Join(contexts, "\n")
	if words := strings.Fields(joined); len(words) > answerFallbackWords {
		joined = strings.Join(words[:answerFallbackWords], " ") + " ..."
	}
	return fallbackPrefix + joined
}

func truncateRunes(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
