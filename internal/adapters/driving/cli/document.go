package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driving"
)

// waitPollInterval is how often upload --wait polls document status.
var waitPollInterval = 200 * time.Millisecond

var (
	uploadWait    bool
	uploadTimeout time.Duration
	listJSON      bool
	statusJSON    bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]...",
	Short: "Upload documents for ingestion",
	Long: `Registers each file and queues it for parsing, chunking, embedding and
summarisation. The command returns as soon as the files are queued unless
--wait is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var statusCmd = &cobra.Command{
	Use:   "status [doc-id]",
	Short: "Show document status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var versionsCmd = &cobra.Command{
	Use:   "versions [doc-id]",
	Short: "List summary versions",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersions,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex [doc-id]",
	Short: "Re-chunk and re-embed a ready document",
	Args:  cobra.ExactArgs(1),
	RunE:  runReindex,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its vectors",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadWait, "wait", "w", false, "wait until every document is ready or failed")
	uploadCmd.Flags().DurationVar(&uploadTimeout, "timeout", 10*time.Minute, "maximum time to wait with --wait")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output documents as JSON")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	ctx := commandContext(cmd)
	ids := make([]string, 0, len(args))
	for _, path := range args {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		doc, err := documentService.Upload(ctx, filepath.Base(path), raw)
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", path, err)
		}
		ids = append(ids, doc.ID)
		cmd.Printf("Queued %s as %s\n", filepath.Base(path), doc.ID)
	}

	if !uploadWait {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	failed := 0
	for _, id := range ids {
		st, err := waitForTerminal(waitCtx, id)
		if err != nil {
			return fmt.Errorf("waiting for %s: %w", id, err)
		}
		if st.Status == domain.StatusFailed {
			failed++
			cmd.Printf("  %s  failed: %s\n", st.ID, st.Error)
			continue
		}
		cmd.Printf("  %s  ready (%d chunks)\n", st.ID, st.ChunkCount)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(ids))
	}
	return nil
}

// waitForTerminal polls until the document is ready or failed.
func waitForTerminal(ctx context.Context, id string) (*driving.DocumentStatus, error) {
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		st, err := documentService.Status(ctx, id)
		if err != nil {
			return nil, err
		}
		if st.Status.IsTerminal() {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	docs, err := documentService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if listJSON {
		out := make([]documentJSON, 0, len(docs))
		for i := range docs {
			out = append(out, newDocumentJSON(&docs[i]))
		}
		return printJSON(cmd, out)
	}

	if len(docs) == 0 {
		cmd.Println("No documents uploaded.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		d := &docs[i]
		cmd.Printf("  %s  %-9s  %s\n", d.ID, d.Status, d.Filename)
		if d.Status == domain.StatusFailed && d.Error != "" {
			cmd.Printf("      Error: %s\n", d.Error)
		}
	}
	cmd.Println()
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	st, err := documentService.Status(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if statusJSON {
		return printJSON(cmd, st)
	}

	cmd.Printf("Document: %s\n\n", st.ID)
	cmd.Printf("  Filename: %s\n", st.Filename)
	cmd.Printf("  Status:   %s\n", st.Status)
	if st.Error != "" {
		cmd.Printf("  Error:    %s\n", st.Error)
	}
	cmd.Printf("  Chunks:   %d\n", st.ChunkCount)
	if st.VersionCount > 0 {
		cmd.Printf("  Summary:  version %d of %d\n", st.CurrentVersion, st.VersionCount)
	}
	cmd.Printf("  Updated:  %s\n", st.UpdatedAt.Format("2006-01-02 15:04:05"))
	if st.Summary != "" {
		cmd.Println()
		cmd.Println(st.Summary)
	}
	return nil
}

func runVersions(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	ctx := commandContext(cmd)
	doc, err := documentService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	versions, err := documentService.Versions(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}

	if len(versions) == 0 {
		cmd.Println("No summary versions.")
		return nil
	}

	for i := range versions {
		v := &versions[i]
		marker := " "
		if v.Index == doc.Current {
			marker = "*"
		}
		cmd.Printf("%s [%d] %s  %-11s %s", marker, v.Index, v.CreatedAt.Format("2006-01-02 15:04:05"), v.Source, v.Note)
		if v.Validation != nil {
			cmd.Printf("  score=%.2f", v.Validation.Score)
		}
		cmd.Println()
	}
	return nil
}

func runReindex(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	if err := documentService.Reindex(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to reindex document: %w", err)
	}

	cmd.Printf("Document %s queued for re-indexing.\n", args[0])
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	if err := documentService.Delete(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

// documentJSON is the list --json row.
type documentJSON struct {
	ID         string        `json:"id"`
	Filename   string        `json:"filename"`
	Format     string        `json:"format"`
	Status     domain.Status `json:"status"`
	Error      string        `json:"error,omitempty"`
	ChunkCount int           `json:"chunk_count"`
	Versions   int           `json:"versions"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func newDocumentJSON(d *domain.Document) documentJSON {
	return documentJSON{
		ID:         d.ID,
		Filename:   d.Filename,
		Format:     d.Format,
		Status:     d.Status,
		Error:      d.Error,
		ChunkCount: d.ChunkCount,
		Versions:   len(d.Versions),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
