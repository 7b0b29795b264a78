package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intellidocs/internal/adapters/driven/embedding/hashed"
	"github.com/custodia-labs/intellidocs/internal/adapters/driven/extract"
	"github.com/custodia-labs/intellidocs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/intellidocs/internal/adapters/driven/validate"
	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/services"
	"github.com/custodia-labs/intellidocs/internal/normalisers"
	"github.com/custodia-labs/intellidocs/internal/normalisers/markdown"
	"github.com/custodia-labs/intellidocs/internal/normalisers/plaintext"
	"github.com/custodia-labs/intellidocs/internal/postprocessors"
	"github.com/custodia-labs/intellidocs/internal/postprocessors/chunker"
)

const contractText = "Acme Widgets Inc signed the supply agreement on 12 March 2024. " +
	"Jane Smith negotiated the pricing schedule for the first year. " +
	"Invoices are due within thirty days of the invoice date. " +
	"Either party may terminate with ninety days written notice."

// testStack is a fully wired in-memory service graph.
type testStack struct {
	pipeline *services.IngestionPipeline
	registry *services.Registry
	docs     *services.DocumentService
	qa       *services.QAService
	settings *services.SettingsService
	config   *memory.ConfigStore
}

// setupTestServices installs in-memory services and restores the previous
// ones when the test ends.
func setupTestServices(t *testing.T) *testStack {
	t.Helper()

	docStore := memory.NewDocumentStore()
	vectors := memory.NewVectorStore()
	registry := services.NewRegistry(docStore, vectors)
	parser := normalisers.NewRegistry(plaintext.New(), markdown.New())
	chunks := postprocessors.NewPipeline(chunker.New(chunker.WithChunkSize(80), chunker.WithOverlap(10)))
	embedder := services.NewEmbedder(hashed.NewEmbeddingService(0), services.EmbedderConfig{})
	validator := validate.New(5, 800)
	summarizer := services.NewSummarizer(services.SummarizerConfig{
		Validator:   validator,
		Extractor:   extract.New(),
		TargetWords: 20,
	})
	pipeline := services.NewIngestionPipeline(registry, docStore, vectors, parser, chunks, embedder, summarizer,
		services.PipelineConfig{Workers: 2, QueueSize: 8, ParseTimeout: time.Second})
	config := memory.NewConfigStore()

	stack := &testStack{
		pipeline: pipeline,
		registry: registry,
		docs:     services.NewDocumentService(registry, pipeline, summarizer),
		qa: services.NewQAService(registry, vectors, embedder, nil, nil, validator,
			memory.NewQAHistoryStore(10), services.QAConfig{}),
		settings: services.NewSettingsService(config, nil),
		config:   config,
	}

	prevDoc, prevQA, prevSettings, prevSched, prevSupports := documentService, qaService, settingsService, scheduler, supportsFormat
	prevPoll := waitPollInterval
	SetServices(&Services{
		Document: stack.docs,
		QA:       stack.qa,
		Settings: stack.settings,
		Supports: parser.Supports,
	})
	waitPollInterval = 5 * time.Millisecond

	t.Cleanup(func() {
		_ = pipeline.Close(context.Background())
		documentService, qaService, settingsService, scheduler, supportsFormat = prevDoc, prevQA, prevSettings, prevSched, prevSupports
		waitPollInterval = prevPoll
	})
	return stack
}

// ingest uploads text and waits for the pipeline to finish.
func (s *testStack) ingest(t *testing.T, filename, text string) *domain.Document {
	t.Helper()
	doc, err := s.docs.Upload(context.Background(), filename, []byte(text))
	require.NoError(t, err)
	s.pipeline.Wait()
	got, err := s.docs.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusReady, got.Status, got.Error)
	return got
}

// execute runs the root command with args and returns combined output.
// Flags are reset afterwards so tests do not leak state.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
