package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

// Pipeline defaults.
const (
	DefaultWorkers      = 4
	DefaultQueueSize    = 64
	DefaultParseTimeout = 60 * time.Second
)

// Summary version notes written by the pipeline.
const (
	NoteIngestSummary  = "ingest_summary"
	NoteReindexSummary = "reindex_summary"
)

// ErrPipelineClosed is returned when work is submitted after Close.
var ErrPipelineClosed = errors.New("ingestion pipeline closed")

// PipelineConfig tunes an IngestionPipeline.
type PipelineConfig struct {
	// Workers is the number of documents ingested in parallel.
	Workers int

	// QueueSize bounds the number of waiting documents. Submit blocks
	// while the queue is full.
	QueueSize int

	// ParseTimeout bounds one parser call.
	ParseTimeout time.Duration
}

type ingestJob struct {
	documentID string
	format     string
	raw        []byte
	reindex    bool
}

// IngestionPipeline runs parse, chunk, embed, store and summarise for each
// document on a bounded pool of background workers. A document's status is
// the only progress signal; failures are stored as its error detail.
type IngestionPipeline struct {
	registry   *Registry
	docs       driven.DocumentStore
	vectors    driven.VectorStore
	parser     driven.Parser
	chunker    driven.PostProcessorPipeline
	embedder   *Embedder
	summarizer *Summarizer

	parseTimeout time.Duration

	jobs    chan ingestJob
	workers sync.WaitGroup
	pending sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.RWMutex
	closed  bool
	runMu   sync.Mutex
	running map[string]int
}

// NewIngestionPipeline creates a pipeline and starts its workers. The
// pipeline registers itself as the registry's task tracker.
// summarizer may be nil, in which case documents become ready without a summary.
func NewIngestionPipeline(
	registry *Registry,
	docs driven.DocumentStore,
	vectors driven.VectorStore,
	parser driven.Parser,
	chunker driven.PostProcessorPipeline,
	embedder *Embedder,
	summarizer *Summarizer,
	cfg PipelineConfig,
) *IngestionPipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.ParseTimeout <= 0 {
		cfg.ParseTimeout = DefaultParseTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &IngestionPipeline{
		registry:     registry,
		docs:         docs,
		vectors:      vectors,
		parser:       parser,
		chunker:      chunker,
		embedder:     embedder,
		summarizer:   summarizer,
		parseTimeout: cfg.ParseTimeout,
		jobs:         make(chan ingestJob, cfg.QueueSize),
		ctx:          ctx,
		cancel:       cancel,
		running:      make(map[string]int),
	}
	registry.SetTaskTracker(p)

	p.workers.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker()
	}
	return p
}

// Submit registers a pending document and schedules its ingestion.
// It returns as soon as the work is queued.
func (p *IngestionPipeline) Submit(ctx context.Context, filename string, raw []byte) (*domain.Document, error) {
	format := domain.FormatFromFilename(filename)
	if format == "" {
		return nil, fmt.Errorf("%w: %s has no file extension", domain.ErrUnsupportedFormat, filename)
	}
	if !p.parser.Supports(format) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}

	doc, err := p.registry.Create(ctx, filename)
	if err != nil {
		return nil, err
	}

	job := ingestJob{documentID: doc.ID, format: format, raw: raw}
	if err := p.enqueue(ctx, job); err != nil {
		if ferr := p.registry.Advance(context.WithoutCancel(ctx), doc.ID, domain.StatusFailed, err.Error()); ferr != nil {
			log.Printf("ingestion: failed to mark %s failed: %v", doc.ID, ferr)
		}
		return nil, err
	}
	logger.Debug("queued %s as %s", filename, doc.ID)
	return doc, nil
}

// Reindex moves a ready document back to indexing and schedules it to be
// re-chunked, re-embedded and re-summarised from its stored content.
func (p *IngestionPipeline) Reindex(ctx context.Context, id string) error {
	if err := p.registry.BeginReindex(ctx, id); err != nil {
		return err
	}
	if err := p.enqueue(ctx, ingestJob{documentID: id, reindex: true}); err != nil {
		if ferr := p.registry.Advance(context.WithoutCancel(ctx), id, domain.StatusFailed, err.Error()); ferr != nil {
			log.Printf("ingestion: failed to mark %s failed: %v", id, ferr)
		}
		return err
	}
	return nil
}

// Running reports whether work for a document is queued or in progress.
func (p *IngestionPipeline) Running(id string) bool {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	return p.running[id] > 0
}

// Wait blocks until every queued document has been processed.
func (p *IngestionPipeline) Wait() {
	p.pending.Wait()
}

// Close stops accepting work and drains the queue. When ctx ends first,
// in-flight work is cancelled and ctx's error returned.
func (p *IngestionPipeline) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

func (p *IngestionPipeline) enqueue(ctx context.Context, job ingestJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPipelineClosed
	}

	p.track(job.documentID, 1)
	p.pending.Add(1)
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		p.track(job.documentID, -1)
		p.pending.Done()
		return fmt.Errorf("queue ingestion: %w", ctx.Err())
	}
}

func (p *IngestionPipeline) track(id string, delta int) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	p.running[id] += delta
	if p.running[id] <= 0 {
		delete(p.running, id)
	}
}

func (p *IngestionPipeline) worker() {
	defer p.workers.Done()
	for job := range p.jobs {
		p.process(job)
	}
}

func (p *IngestionPipeline) process(job ingestJob) {
	defer p.pending.Done()
	defer p.track(job.documentID, -1)

	err := p.run(p.ctx, job)
	switch {
	case err == nil:
		return
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("document %s removed during ingestion", job.documentID)
		return
	}

	logger.Warn("ingestion of %s failed: %v", job.documentID, err)
	if ferr := p.registry.Advance(context.WithoutCancel(p.ctx), job.documentID, domain.StatusFailed, err.Error()); ferr != nil &&
		!errors.Is(ferr, domain.ErrNotFound) {
		log.Printf("ingestion: failed to mark %s failed: %v", job.documentID, ferr)
	}
}

func (p *IngestionPipeline) run(ctx context.Context, job ingestJob) error {
	id := job.documentID

	var text string
	if job.reindex {
		doc, err := p.registry.Get(ctx, id)
		if err != nil {
			return err
		}
		text = doc.Content
	} else {
		if err := p.registry.Advance(ctx, id, domain.StatusParsing, ""); err != nil {
			return err
		}
		parsed, err := p.parse(ctx, job)
		if err != nil {
			return err
		}
		text = parsed
		if _, err := p.registry.Update(ctx, id, func(d *domain.Document) error {
			d.Content = text
			return d.Advance(domain.StatusIndexing, "", p.registry.now().UTC())
		}); err != nil {
			return err
		}
	}

	if err := p.index(ctx, id, text); err != nil {
		return err
	}

	note := NoteIngestSummary
	if job.reindex {
		note = NoteReindexSummary
	}
	if err := p.summarise(ctx, id, text, note); err != nil {
		return err
	}

	if err := p.registry.Advance(ctx, id, domain.StatusReady, ""); err != nil {
		return err
	}
	logger.Info("Document %s ready", id)
	return nil
}

func (p *IngestionPipeline) parse(ctx context.Context, job ingestJob) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.parseTimeout)
	defer cancel()

	start := time.Now()
	text, err := p.parser.Parse(ctx, job.raw, job.format)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("parse: timed out after %s: %w", p.parseTimeout, err)
		}
		return "", fmt.Errorf("parse: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("parse: %w: no text content", domain.ErrCorruptInput)
	}
	logger.Debug("parsed %s (%s) in %s", job.documentID, job.format, time.Since(start))
	return text, nil
}

// index replaces a document's chunks and vectors. The index lock keeps
// concurrent re-index runs and deletes from interleaving.
func (p *IngestionPipeline) index(ctx context.Context, id, text string) error {
	unlock := p.registry.LockIndex(id)
	defer unlock()

	if _, err := p.registry.get(ctx, id); err != nil {
		return err
	}

	if err := p.vectors.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("clear vectors: %w", err)
	}

	chunks, err := p.chunker.Process(ctx, &domain.Document{ID: id, Content: text})
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("chunk: %w: no text content", domain.ErrCorruptInput)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	records := make([]domain.VectorRecord, len(chunks))
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
		records[i] = chunks[i].Record()
	}
	if err := p.vectors.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	if err := p.docs.SaveChunks(ctx, id, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}

	_, err = p.registry.Update(ctx, id, func(d *domain.Document) error {
		d.ChunkCount = len(chunks)
		return nil
	})
	if err == nil {
		logger.Debug("indexed %s: %d chunks", id, len(chunks))
	}
	return err
}

// summarise appends a generated summary. Generation failures are logged
// and leave the summary unchanged; registry failures are returned.
func (p *IngestionPipeline) summarise(ctx context.Context, id, text, note string) error {
	if p.summarizer == nil {
		return nil
	}

	summary, validation, err := p.summarizer.Summarize(ctx, text)
	if err != nil {
		logger.Warn("summary for %s skipped: %v", id, err)
		return nil
	}
	if _, err := p.registry.AppendSummaryVersion(ctx, id, summary, domain.SummaryGenerated, note, validation); err != nil {
		return err
	}

	entities, err := p.summarizer.Entities(ctx, summary)
	if err != nil {
		logger.Warn("entities for %s skipped: %v", id, err)
		return nil
	}
	if entities != nil {
		return p.registry.ReplaceEntities(ctx, id, entities)
	}
	return nil
}
