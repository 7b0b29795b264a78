// Package cli implements the intellidocs command line interface using cobra.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intellidocs/internal/core/ports/driving"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

// version is set by SetVersion from the build.
var version = "dev"

var verbose bool

// Services wired by the composition root.
var (
	documentService driving.DocumentService
	qaService       driving.QAService
	settingsService driving.SettingsService
	scheduler       driving.Scheduler
	supportsFormat  func(format string) bool
)

// Services holds the driving ports the commands operate on.
type Services struct {
	Document  driving.DocumentService
	QA        driving.QAService
	Settings  driving.SettingsService
	Scheduler driving.Scheduler

	// Supports reports whether a format (extension without the dot) can
	// be parsed. The watch command uses it to skip files early.
	Supports func(format string) bool
}

var rootCmd = &cobra.Command{
	Use:   "intellidocs",
	Short: "Document ingestion, summaries and grounded Q&A",
	Long: `intellidocs ingests documents (PDF, DOCX, Markdown, HTML, text and more),
indexes them into a vector store, keeps a versioned summary and entity set
per document, and answers questions with citations back to the source text.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetServices installs the services used by all commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	documentService = s.Document
	qaService = s.QA
	settingsService = s.Settings
	scheduler = s.Scheduler
	supportsFormat = s.Supports
}

// Execute runs the root command with ctx as the command context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// startScheduler runs background maintenance for long-running commands.
// The returned stop function is safe to call when no scheduler is set.
func startScheduler(ctx context.Context) (func(), error) {
	if scheduler == nil {
		return func() {}, nil
	}
	if err := scheduler.Start(ctx); err != nil {
		return nil, err
	}
	return func() {
		if err := scheduler.Stop(); err != nil {
			logger.Warn("scheduler stop: %v", err)
		}
	}, nil
}

var (
	errNoDocumentService = errors.New("document service not configured")
	errNoQAService       = errors.New("q&a service not configured")
	errNoSettingsService = errors.New("settings service not configured")
)
