package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure storage, AI providers, and pipeline options.

Use subcommands to configure specific settings or run the interactive wizard.
Any key can also be set through the environment, e.g. INTELLIDOCS_QA_TOP_K=8.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure storage and AI providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used to index and search documents.
Changing it requires re-indexing existing documents.`,
	RunE: runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long: `Configure the LLM used for answers, summaries and entity extraction.
Without one, answers and summaries are extractive.`,
	RunE: runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	cmd.Printf("  Vectors: %s\n", settings.Storage.VectorBackend)
	if settings.Storage.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	}
	if settings.Storage.VectorBackend == domain.StorePgvector {
		cmd.Printf("  Database: %s\n", maskDSN(settings.Storage.DatabaseURL))
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	printProviderAccess(cmd, settings.Embedding.Provider, settings.Embedding.BaseURL, settings.Embedding.APIKey)
	cmd.Printf("  Status: %s\n", configuredLabel(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	if settings.LLM.Provider == "" {
		cmd.Println("  Provider: none (extractive answers and summaries)")
	} else {
		cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
		cmd.Printf("  Model: %s\n", settings.LLM.Model)
		printProviderAccess(cmd, settings.LLM.Provider, settings.LLM.BaseURL, settings.LLM.APIKey)
		cmd.Printf("  Status: %s\n", configuredLabel(settings.LLM.IsConfigured()))
	}
	cmd.Println()

	cmd.Println("[Pipeline]")
	cmd.Printf("  Chunk size: %d (overlap %d)\n", settings.Chunker.ChunkSize, settings.Chunker.Overlap)
	cmd.Printf("  Workers: %d, queue: %d\n", settings.Pipeline.Workers, settings.Pipeline.QueueSize)
	cmd.Printf("  Timeouts: parse %s, embed %s, generate %s\n",
		settings.Pipeline.ParseTimeout, settings.Pipeline.EmbedTimeout, settings.Pipeline.GenerateTimeout)
	cmd.Printf("  Stale after: %s\n", settings.Pipeline.StaleAfter)
	cmd.Println()

	cmd.Println("[Q&A]")
	cmd.Printf("  Top K: %d\n", settings.QA.TopK)
	cmd.Printf("  Context budget: %d chars\n", settings.QA.MaxContextChars)
	cmd.Printf("  History kept: %d\n", settings.QA.HistoryMax)
	cmd.Println()

	cmd.Println("[Summary]")
	cmd.Printf("  Target words: %d (accepted %d-%d)\n",
		settings.Summary.TargetWords, settings.Summary.MinWords, settings.Summary.MaxWords)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'intellidocs settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProviderAccess(cmd *cobra.Command, provider domain.AIProvider, baseURL, apiKey string) {
	if provider == domain.AIProviderOllama && baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
}

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	cmd.Println("intellidocs Settings Wizard")
	cmd.Println("===========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Storage")
	cmd.Println("---------------")
	if err := configureStorage(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Embedding Provider")
	cmd.Println("--------------------------")
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 3: LLM Provider")
	cmd.Println("--------------------")
	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	return configureEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

var storageBackends = []struct {
	backend     domain.StoreBackend
	description string
}{
	{domain.StoreSQLite, "SQLite (local file, default)"},
	{domain.StoreMemory, "Memory (nothing persisted)"},
	{domain.StorePgvector, "SQLite documents + PostgreSQL pgvector for vectors"},
}

func configureStorage(cmd *cobra.Command, reader *bufio.Reader) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Select Storage Backend")
	for i, b := range storageBackends {
		cmd.Printf("  %d. %s\n", i+1, b.description)
	}
	cmd.Print("\nEnter choice [1]: ")
	choice := storageBackends[parseChoice(readLine(reader), len(storageBackends), 1)-1].backend

	switch choice {
	case domain.StorePgvector:
		settings.Storage.Backend = domain.StoreSQLite
		settings.Storage.VectorBackend = domain.StorePgvector
		cmd.Printf("Enter PostgreSQL URL [%s]: ", maskDSN(settings.Storage.DatabaseURL))
		if dsn := readLine(reader); dsn != "" {
			settings.Storage.DatabaseURL = dsn
		}
		if settings.Storage.DatabaseURL == "" {
			return errors.New("a database URL is required for pgvector")
		}
	default:
		settings.Storage.Backend = choice
		settings.Storage.VectorBackend = choice
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save storage settings: %w", err)
	}
	cmd.Printf("Storage set to: %s (vectors: %s)\n\n", settings.Storage.Backend, settings.Storage.VectorBackend)
	return nil
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaultModel := domain.DefaultEmbeddingModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key (blank to use the environment): ")
		apiKey = readPassword(cmd, reader)
		cmd.Println()
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	cmd.Println("Existing documents must be re-indexed to use the new embeddings.")
	cmd.Println()
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	none := len(providers) + 1
	cmd.Printf("  %d. None (extractive answers and summaries)\n", none)
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), none, 1)
	if idx == none {
		if err := settingsService.SetLLMProvider("", "", ""); err != nil {
			return fmt.Errorf("failed to disable LLM: %w", err)
		}
		cmd.Println("LLM disabled.")
		cmd.Println()
		return nil
	}
	selectedProvider := providers[idx-1]

	defaultModel := domain.DefaultLLMModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key (blank to use the environment): ")
		apiKey = readPassword(cmd, reader)
		cmd.Println()
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when the command reads a terminal stdin.
func readPassword(cmd *cobra.Command, reader *bufio.Reader) string {
	if in, ok := cmd.InOrStdin().(*os.File); ok && in == os.Stdin && term.IsTerminal(int(in.Fd())) {
		password, err := term.ReadPassword(int(in.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password of a connection URL.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if user, _, ok := strings.Cut(creds, ":"); ok {
		return dsn[:scheme+3] + user + ":****" + dsn[at:]
	}
	return dsn
}
