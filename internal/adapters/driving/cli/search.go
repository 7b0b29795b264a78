package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
	searchDocs  []string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Ranks chunks of ready documents by semantic similarity to the query.
Use --doc to restrict the search to specific documents.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringSliceVarP(&searchDocs, "doc", "d", nil, "restrict to document id (repeatable)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if qaService == nil {
		return errNoQAService
	}

	hits, err := qaService.Search(commandContext(cmd), query, searchLimit, searchDocs)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCorpus) {
			cmd.Println("No documents are ready yet. Upload one with 'intellidocs upload'.")
			return nil
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}

	return outputSearchTable(cmd, hits)
}

// searchHitJSON is one search --json row.
type searchHitJSON struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Sequence   int     `json:"sequence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.VectorHit) error {
	out := make([]searchHitJSON, 0, len(hits))
	for i := range hits {
		h := &hits[i]
		out = append(out, searchHitJSON{
			DocumentID: h.DocumentID,
			ChunkID:    h.ChunkID,
			Sequence:   h.Sequence,
			Start:      h.Metadata.Start,
			End:        h.Metadata.End,
			Score:      h.Score,
			Text:       h.Metadata.Text,
		})
	}
	return printJSON(cmd, out)
}

func outputSearchTable(cmd *cobra.Command, hits []domain.VectorHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range hits {
		h := &hits[i]
		cmd.Printf("  [%d] %s #%d (%.2f)\n", i+1, h.DocumentID, h.Sequence, h.Score)
		if snippet := domain.CitationFromHit(*h).Snippet; snippet != "" {
			cmd.Printf("      %s\n", oneLine(snippet))
		}
		cmd.Println()
	}

	return nil
}

// oneLine collapses whitespace runs so snippets print on one line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
