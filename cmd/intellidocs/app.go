package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/custodia-labs/intellidocs/internal/adapters/driven/ai"
	"github.com/custodia-labs/intellidocs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/intellidocs/internal/adapters/driven/extract"
	"github.com/custodia-labs/intellidocs/internal/adapters/driven/llm"
	"github.com/custodia-labs/intellidocs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/intellidocs/internal/adapters/driven/storage/pgvector"
	"github.com/custodia-labs/intellidocs/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/intellidocs/internal/adapters/driven/validate"
	"github.com/custodia-labs/intellidocs/internal/adapters/driving/cli"
	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/core/services"
	"github.com/custodia-labs/intellidocs/internal/logger"
	"github.com/custodia-labs/intellidocs/internal/normalisers"
	"github.com/custodia-labs/intellidocs/internal/postprocessors"
)

// app is the wired service graph.
type app struct {
	settings  *services.SettingsService
	documents *services.DocumentService
	qa        *services.QAService
	scheduler *services.Scheduler
	pipeline  *services.IngestionPipeline
	parser    *normalisers.Registry
	ai        *ai.InitResult
	closers   []io.Closer
}

// stores groups the persistence ports for one backend selection.
type stores struct {
	docs      driven.DocumentStore
	vectors   driven.VectorStore
	history   driven.QAHistoryStore
	scheduler driven.SchedulerStore
	closers   []io.Closer
}

func newApp(ctx context.Context, configStore driven.ConfigStore, configDir string) (*app, error) {
	settingsService := services.NewSettingsService(configStore, ai.NewProber(0))
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	logger.Section("startup")
	logger.Info("storage=%s vectors=%s embedding=%s llm=%q",
		settings.Storage.Backend, settings.Storage.VectorBackend, settings.Embedding.Provider, settings.LLM.Provider)

	aiResult, err := ai.Init(settings)
	if err != nil {
		return nil, err
	}
	for _, w := range aiResult.Warnings {
		logger.Warn("%s", w)
	}

	st, err := openStores(ctx, settings, aiResult.EmbeddingService.Dimensions())
	if err != nil {
		aiResult.Close()
		return nil, err
	}

	promptDir := ""
	if configDir != "" {
		promptDir = filepath.Join(configDir, "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		aiResult.Close()
		closeAll(st.closers)
		return nil, fmt.Errorf("prompt store: %w", err)
	}

	var generator driven.Generator
	if aiResult.LLMService != nil {
		generator = llm.NewGenerator(aiResult.LLMService, prompts)
	}

	chunkers := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(chunkers)
	chunks, err := chunkers.BuildPipeline([]string{postprocessors.ChunkerName}, map[string]map[string]any{
		postprocessors.ChunkerName: postprocessors.ChunkerConfig(settings.Chunker),
	})
	if err != nil {
		aiResult.Close()
		closeAll(st.closers)
		return nil, fmt.Errorf("chunker: %w", err)
	}

	validator := validate.New(settings.Summary.MinWords, settings.Summary.MaxWords)
	registry := services.NewRegistry(st.docs, st.vectors, services.WithStaleAfter(settings.Pipeline.StaleAfter))
	embedder := services.NewEmbedder(aiResult.EmbeddingService, services.EmbedderConfig{
		MaxBatch:          settings.Embedding.BatchSize,
		Timeout:           settings.Pipeline.EmbedTimeout,
		RequestsPerSecond: settings.Embedding.RequestsPerSecond,
	})
	summarizer := services.NewSummarizer(services.SummarizerConfig{
		Generator:   generator,
		Prompts:     prompts,
		Validator:   validator,
		Extractor:   extract.New(),
		TargetWords: settings.Summary.TargetWords,
		Timeout:     settings.Pipeline.GenerateTimeout,
	})
	parser := normalisers.Default()
	pipeline := services.NewIngestionPipeline(registry, st.docs, st.vectors, parser, chunks, embedder, summarizer,
		services.PipelineConfig{
			Workers:      settings.Pipeline.Workers,
			QueueSize:    settings.Pipeline.QueueSize,
			ParseTimeout: settings.Pipeline.ParseTimeout,
		})

	return &app{
		settings:  settingsService,
		documents: services.NewDocumentService(registry, pipeline, summarizer),
		qa: services.NewQAService(registry, st.vectors, embedder, generator, prompts, validator, st.history,
			services.QAConfig{
				TopK:            settings.QA.TopK,
				MaxContextChars: settings.QA.MaxContextChars,
				Timeout:         settings.Pipeline.GenerateTimeout,
			}),
		scheduler: services.NewScheduler(settingsService.GetSchedulerConfig(), st.scheduler, registry,
			st.history, settings.QA.HistoryMax),
		pipeline: pipeline,
		parser:   parser,
		ai:       aiResult,
		closers:  st.closers,
	}, nil
}

func (a *app) services() *cli.Services {
	return &cli.Services{
		Document:  a.documents,
		QA:        a.qa,
		Settings:  a.settings,
		Scheduler: a.scheduler,
		Supports:  a.parser.Supports,
	}
}

// Close drains queued ingestion work unless ctx is already cancelled,
// then releases stores and AI clients.
func (a *app) Close(ctx context.Context) {
	if err := a.pipeline.Close(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("closing pipeline: %v", err)
	}
	a.ai.Close()
	closeAll(a.closers)
}

// openStores builds the document and vector stores for the configured
// backends. SQLite is opened once and shared when both use it.
func openStores(ctx context.Context, settings *domain.AppSettings, dimensions int) (*stores, error) {
	st := &stores{}

	var db *sqlite.Store
	openSQLite := func() (*sqlite.Store, error) {
		if db != nil {
			return db, nil
		}
		s, err := sqlite.NewStore(settings.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		db = s
		st.closers = append(st.closers, s)
		logger.Debug("sqlite store at %s", s.Path())
		return s, nil
	}

	switch settings.Storage.Backend {
	case domain.StoreMemory:
		st.docs = memory.NewDocumentStore()
		st.history = memory.NewQAHistoryStore(settings.QA.HistoryMax)
		st.scheduler = memory.NewSchedulerStore()
	default:
		s, err := openSQLite()
		if err != nil {
			return nil, err
		}
		st.docs = s.DocumentStore()
		st.history = s.QAHistoryStore(settings.QA.HistoryMax)
		st.scheduler = s.SchedulerStore()
	}

	switch settings.Storage.VectorBackend {
	case domain.StoreMemory:
		st.vectors = memory.NewVectorStore()
	case domain.StorePgvector:
		pg, err := pgvector.New(ctx, pgvector.Config{
			DatabaseURL: settings.Storage.DatabaseURL,
			Dimensions:  dimensions,
			Oversample:  settings.Storage.Oversample,
		})
		if err != nil {
			closeAll(st.closers)
			return nil, fmt.Errorf("opening pgvector store: %w", err)
		}
		st.vectors = pg
		st.closers = append(st.closers, pg)
	default:
		s, err := openSQLite()
		if err != nil {
			closeAll(st.closers)
			return nil, err
		}
		st.vectors = s.VectorStore()
	}

	return st, nil
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Warn("close: %v", err)
		}
	}
}
