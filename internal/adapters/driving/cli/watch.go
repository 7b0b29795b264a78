package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intellidocs/internal/adapters/driving/watch"
	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Upload files as they appear in a directory",
	Long: `Watches a directory and uploads every new or changed file with a supported
format. Hidden files are ignored. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is uploaded")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	logger.SetTimestamps(true)
	ctx := commandContext(cmd)
	stop, err := startScheduler(ctx)
	if err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer stop()

	opts := []watch.Option{
		watch.WithDebounce(watchDebounce),
		watch.WithOnUpload(func(path string, doc *domain.Document, err error) {
			if err != nil {
				cmd.PrintErrf("Failed to upload %s: %v\n", filepath.Base(path), err)
				return
			}
			cmd.Printf("Queued %s as %s\n", filepath.Base(path), doc.ID)
		}),
	}
	if supportsFormat != nil {
		opts = append(opts, watch.WithSupports(supportsFormat))
	}

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", args[0])
	return watch.New(args[0], documentService, opts...).Run(ctx)
}
