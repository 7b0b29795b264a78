package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSentences(t *testing.T) {
	got := splitSentences("  First one. Second!  Third?\nFourth e.g.version 2.5 stays ")
	assert.Equal(t, []string{"First one.", "Second!", "Third?", "Fourth e.g.version 2.5 stays"}, got)
	assert.Empty(t, splitSentences("   "))
}

func TestExtractiveSummary_PicksFrequentSentences(t *testing.T) {
	text := "Revenue grew strongly. Revenue growth came from new revenue streams. " +
		"The office cat is orange. Revenue targets were raised."

	got := extractiveSummary(text, 10)

	assert.Contains(t, got, "Revenue growth came from new revenue streams.")
	assert.NotContains(t, got, "cat")
	// Document order is preserved.
	assert.Less(t, strings.Index(got, "Revenue grew"), strings.Index(got, "Revenue targets"))
}

func TestExtractiveSummary_PadsShortResults(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon zeta. Eta theta iota."
	got := extractiveSummary(text, 1000)
	assert.Equal(t, text, got)
}

func TestExtractiveSummary_NoSentences(t *testing.T) {
	assert.Equal(t, "", extractiveSummary("", 10))
}

func TestExtractiveAnswer(t *testing.T) {
	assert.Equal(t, fallbackPrefix+"one\ntwo", extractiveAnswer([]string{"one", "two"}))

	long := strings.Repeat("word ", 250)
	got := extractiveAnswer([]string{long})
	assert.True(t, strings.HasSuffix(got, " ..."))
	assert.Equal(t, answerFallbackWords+1, len(strings.Fields(strings.TrimPrefix(got, fallbackPrefix))))
}
