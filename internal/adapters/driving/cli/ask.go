package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

var (
	askDocs     []string
	askJSON     bool
	historyN    int
	historyJSON bool
)

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Answers a question from the indexed documents, citing the chunks used.
Without an argument on a terminal, starts an interactive session; type
"exit" or press Ctrl-D to leave.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent questions and answers",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askDocs, "doc", "d", nil, "restrict to document id (repeatable)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	historyCmd.Flags().IntVarP(&historyN, "limit", "n", 20, "number of records to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output records as JSON")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if qaService == nil {
		return errNoQAService
	}

	if len(args) == 1 {
		return askOnce(cmd, args[0])
	}
	if !stdinIsTerminal() {
		return errors.New("a question is required when stdin is not a terminal")
	}
	return askInteractive(cmd)
}

func askOnce(cmd *cobra.Command, question string) error {
	rec, err := qaService.Ask(commandContext(cmd), question, askDocs)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCorpus) {
			return fmt.Errorf("no documents are ready yet, upload one with 'intellidocs upload': %w", err)
		}
		return fmt.Errorf("failed to answer: %w", err)
	}

	if askJSON {
		return printJSON(cmd, newQARecordJSON(rec))
	}
	printAnswer(cmd, rec)
	return nil
}

func askInteractive(cmd *cobra.Command) error {
	cmd.Println("Ask a question (\"exit\" to quit).")
	reader := bufio.NewReader(cmd.InOrStdin())
	for {
		cmd.Print("\n> ")
		line, err := reader.ReadString('\n')
		question := strings.TrimSpace(line)
		if question == "exit" || question == "quit" {
			return nil
		}
		if question != "" {
			if askErr := askOnce(cmd, question); askErr != nil {
				cmd.PrintErrln("Error:", askErr)
			}
		}
		if err != nil {
			cmd.Println()
			return nil
		}
	}
}

func printAnswer(cmd *cobra.Command, rec *domain.QARecord) {
	cmd.Println(rec.Answer)
	if len(rec.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, c := range rec.Citations {
			cmd.Printf("  [%d] %s #%d (%d-%d)\n", i+1, c.DocumentID, c.Sequence, c.Start, c.End)
		}
	}
	if rec.Validation != nil && !rec.Validation.OK {
		cmd.Printf("\nLow confidence (%.2f): %s\n", rec.Score, strings.Join(rec.Validation.Reasons, "; "))
	}
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if qaService == nil {
		return errNoQAService
	}

	records, err := qaService.History(commandContext(cmd), historyN)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if historyJSON {
		out := make([]qaRecordJSON, 0, len(records))
		for i := range records {
			out = append(out, newQARecordJSON(&records[i]))
		}
		return printJSON(cmd, out)
	}

	if len(records) == 0 {
		cmd.Println("No questions asked yet.")
		return nil
	}
	for i := range records {
		r := &records[i]
		cmd.Printf("%s  Q: %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"), r.Question)
		cmd.Printf("    A: %s\n", oneLine(r.Answer))
		cmd.Printf("    score %.2f, %d citations\n\n", r.Score, len(r.Citations))
	}
	return nil
}

// qaRecordJSON is the JSON form of an answered question.
type qaRecordJSON struct {
	ID        string         `json:"id"`
	Question  string         `json:"question"`
	Scope     []string       `json:"scope,omitempty"`
	Answer    string         `json:"answer"`
	Citations []citationJSON `json:"citations"`
	Score     float64        `json:"score"`
	Reasons   []string       `json:"reasons,omitempty"`
	CreatedAt string         `json:"created_at"`
}

type citationJSON struct {
	DocumentID string `json:"document_id"`
	ChunkID    string `json:"chunk_id"`
	Sequence   int    `json:"sequence"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Snippet    string `json:"snippet"`
}

func newQARecordJSON(r *domain.QARecord) qaRecordJSON {
	out := qaRecordJSON{
		ID:        r.ID,
		Question:  r.Question,
		Scope:     r.Scope,
		Answer:    r.Answer,
		Citations: make([]citationJSON, 0, len(r.Citations)),
		Score:     r.Score,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
	if r.Validation != nil {
		out.Reasons = r.Validation.Reasons
	}
	for _, c := range r.Citations {
		out.Citations = append(out.Citations, citationJSON(c))
	}
	return out
}
