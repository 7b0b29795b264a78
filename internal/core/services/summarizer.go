package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

// Summary defaults.
const (
	DefaultTargetWords     = 350
	DefaultGenerateTimeout = 120 * time.Second

	// maxSummaryInput bounds the text handed to the generator, in runes.
	maxSummaryInput = 50000
)

const defaultSummarisePrompt = `Write a clear, well-structured summary of the document in ~%d words.
Prioritize key points, obligations, dates, parties, decisions, and definitions.
Use short paragraphs and keep it editable.`

// SummarizerConfig wires the collaborators a Summarizer uses.
// Every collaborator is optional.
type SummarizerConfig struct {
	Generator   driven.Generator
	Prompts     driven.PromptStore
	Validator   driven.Validator
	Extractor   driven.EntityExtractor
	TargetWords int
	Timeout     time.Duration
}

// Summarizer drafts, validates and mines summaries. Without a generator it
// falls back to an extractive summary.
type Summarizer struct {
	generator   driven.Generator
	prompts     driven.PromptStore
	validator   driven.Validator
	extractor   driven.EntityExtractor
	targetWords int
	timeout     time.Duration
}

// NewSummarizer creates a Summarizer. Zero config values select defaults.
func NewSummarizer(cfg SummarizerConfig) *Summarizer {
	s := &Summarizer{
		generator:   cfg.Generator,
		prompts:     cfg.Prompts,
		validator:   cfg.Validator,
		extractor:   cfg.Extractor,
		targetWords: cfg.TargetWords,
		timeout:     cfg.Timeout,
	}
	if s.targetWords <= 0 {
		s.targetWords = DefaultTargetWords
	}
	if s.timeout <= 0 {
		s.timeout = DefaultGenerateTimeout
	}
	return s
}

// Summarize drafts a summary of text and validates it. Generator failures
// and timeouts are reported as domain.ErrGeneration.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, *domain.Validation, error) {
	return s.SummarizeWords(ctx, text, s.targetWords)
}

// SummarizeWords is Summarize with an explicit target length. words <= 0
// uses the configured target.
func (s *Summarizer) SummarizeWords(ctx context.Context, text string, words int) (string, *domain.Validation, error) {
	if words <= 0 {
		words = s.targetWords
	}
	if strings.TrimSpace(text) == "" {
		return "", nil, fmt.Errorf("%w: nothing to summarise", domain.ErrGeneration)
	}

	var summary string
	if s.generator == nil {
		summary = extractiveSummary(text, words)
	} else {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		instructions := fmt.Sprintf(loadPrompt(s.prompts, driven.PromptSummarise, defaultSummarisePrompt), words)
		out, err := s.generator.Generate(ctx, truncateRunes(text, maxSummaryInput), instructions)
		if err != nil {
			if !errors.Is(err, domain.ErrGeneration) {
				err = fmt.Errorf("%w: %s: %w", domain.ErrGeneration, s.generator.Name(), err)
			}
			return "", nil, err
		}
		summary = strings.TrimSpace(out)
	}

	if summary == "" {
		return "", nil, fmt.Errorf("%w: empty summary", domain.ErrGeneration)
	}
	return summary, s.Validate(summary), nil
}

// Validate scores a summary, or returns nil when no validator is set.
func (s *Summarizer) Validate(text string) *domain.Validation {
	if s.validator == nil {
		return nil
	}
	v := s.validator.ValidateSummary(text)
	return &v
}

// Entities extracts entities from text. Returns nil without an extractor.
func (s *Summarizer) Entities(ctx context.Context, text string) (domain.Entities, error) {
	if s.extractor == nil || strings.TrimSpace(text) == "" {
		return nil, nil
	}
	entities, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract entities: %w", err)
	}
	return entities, nil
}

// HasExtractor reports whether entity extraction is available.
func (s *Summarizer) HasExtractor() bool {
	return s.extractor != nil
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func loadPrompt(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		logger.Debug("prompt %s: using built-in default", name)
		return fallback
	}
	return prompt
}
