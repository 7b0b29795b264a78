package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driving"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

// Ensure QAService implements the interface.
var _ driving.QAService = (*QAService)(nil)

// Q&A defaults.
const (
	DefaultTopK            = 5
	DefaultMaxContextChars = 6000

	// fallbackContexts is how many passages the extractive answer uses.
	fallbackContexts = 3

	// NoPassagesAnswer is returned when retrieval finds nothing.
	NoPassagesAnswer = "No relevant passages were found in the selected documents."
)

const defaultAnswerPrompt = `Use the context to answer the user's question.
Be concise and precise. If the context is insufficient, say so.

Question: %s`

// QAConfig tunes retrieval and generation.
type QAConfig struct {
	TopK            int
	MaxContextChars int
	Timeout         time.Duration
}

// QAService answers questions from the indexed corpus with citations.
// It only reads documents and vectors; its one write is to Q&A history.
type QAService struct {
	registry  *Registry
	vectors   driven.VectorStore
	embedder  *Embedder
	generator driven.Generator
	prompts   driven.PromptStore
	validator driven.Validator
	history   driven.QAHistoryStore
	cfg       QAConfig
	now       func() time.Time
}

// NewQAService creates a Q&A service. generator, prompts and validator are
// optional; without a generator answers are extractive.
func NewQAService(
	registry *Registry,
	vectors driven.VectorStore,
	embedder *Embedder,
	generator driven.Generator,
	prompts driven.PromptStore,
	validator driven.Validator,
	history driven.QAHistoryStore,
	cfg QAConfig,
) *QAService {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = DefaultMaxContextChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGenerateTimeout
	}
	return &QAService{
		registry:  registry,
		vectors:   vectors,
		embedder:  embedder,
		generator: generator,
		prompts:   prompts,
		validator: validator,
		history:   history,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Ask answers question from the ready documents in scope and records it.
func (s *QAService) Ask(ctx context.Context, question string, scope []string) (*domain.QARecord, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrValidation)
	}

	hits, err := s.retrieve(ctx, question, s.cfg.TopK, scope)
	if err != nil {
		return nil, err
	}

	used := s.assemble(hits)
	contexts := make([]string, len(used))
	for i, h := range used {
		contexts[i] = h.Metadata.Text
	}

	var answer string
	switch {
	case len(used) == 0:
		answer = NoPassagesAnswer
	case s.generator == nil:
		if len(used) > fallbackContexts {
			used, contexts = used[:fallbackContexts], contexts[:fallbackContexts]
		}
		answer = extractiveAnswer(contexts)
	default:
		answer, err = s.generate(ctx, question, contexts)
		if err != nil {
			return nil, err
		}
	}

	record := &domain.QARecord{
		ID:        uuid.NewString(),
		Question:  question,
		Scope:     append([]string(nil), scope...),
		Answer:    answer,
		Citations: make([]domain.Citation, len(used)),
		CreatedAt: s.now().UTC(),
	}
	if len(scope) == 0 {
		record.Scope = nil
	}
	for i, h := range used {
		record.Citations[i] = domain.CitationFromHit(h)
	}
	if s.validator != nil {
		v := s.validator.ValidateAnswer(answer, contexts)
		record.Validation = &v
		record.Score = v.Score
	}

	if err := s.history.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("record answer: %w", err)
	}
	logger.Debug("answered %q with %d citations (score %.2f)", question, len(record.Citations), record.Score)
	return record, nil
}

// Search returns the top k chunks for query among ready documents in scope.
// k <= 0 selects the configured default.
func (s *QAService) Search(ctx context.Context, query string, k int, scope []string) ([]domain.VectorHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if k <= 0 {
		k = s.cfg.TopK
	}
	return s.retrieve(ctx, query, k, scope)
}

// History returns up to limit answered questions, newest first.
func (s *QAService) History(ctx context.Context, limit int) ([]domain.QARecord, error) {
	records, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

// retrieve embeds text and searches the ready documents in scope.
func (s *QAService) retrieve(ctx context.Context, text string, k int, scope []string) ([]domain.VectorHit, error) {
	ready, err := s.readyInScope(ctx, scope)
	if err != nil {
		return nil, err
	}

	query, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.vectors.Search(ctx, query, k, domain.VectorFilter{DocumentIDs: ready})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return hits, nil
}

// readyInScope returns the ready document ids in scope. Ids that are
// unknown or not ready are dropped.
func (s *QAService) readyInScope(ctx context.Context, scope []string) ([]string, error) {
	ids, err := s.registry.ReadyIDs(ctx)
	if err != nil {
		return nil, err
	}

	ready := ids
	if len(scope) > 0 {
		wanted := make(map[string]bool, len(scope))
		for _, id := range scope {
			wanted[id] = true
		}
		ready = nil
		for _, id := range ids {
			if wanted[id] {
				ready = append(ready, id)
			}
		}
	}

	if len(ready) == 0 {
		if len(scope) > 0 {
			return nil, fmt.Errorf("%w: no ready documents among %d requested", domain.ErrEmptyCorpus, len(scope))
		}
		return nil, fmt.Errorf("%w: no ready documents", domain.ErrEmptyCorpus)
	}
	return ready, nil
}

// assemble keeps hits in ranking order until the context budget is spent.
// The first hit is always kept, truncated if needed.
func (s *QAService) assemble(hits []domain.VectorHit) []domain.VectorHit {
	var used []domain.VectorHit
	total := 0
	for _, h := range hits {
		n := len(h.Metadata.Text)
		if len(used) == 0 && n > s.cfg.MaxContextChars {
			cut := s.cfg.MaxContextChars
			for cut > 0 && !utf8.RuneStart(h.Metadata.Text[cut]) {
				cut--
			}
			h.Metadata.Text = h.Metadata.Text[:cut]
			h.Metadata.End = h.Metadata.Start + cut
			n = cut
		}
		if total+n > s.cfg.MaxContextChars {
			break
		}
		used = append(used, h)
		total += n
	}
	return used
}

func (s *QAService) generate(ctx context.Context, question string, contexts []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	instructions := fmt.Sprintf(loadPrompt(s.prompts, driven.PromptAnswer, defaultAnswerPrompt), question)
	answer, err := s.generator.Generate(ctx, strings.Join(contexts, "\n\n"), instructions)
	if err != nil {
		if !errors.Is(err, domain.ErrGeneration) {
			err = fmt.Errorf("%w: %s: %w", domain.ErrGeneration, s.generator.Name(), err)
		}
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer", domain.ErrGeneration)
	}
	return answer, nil
}
