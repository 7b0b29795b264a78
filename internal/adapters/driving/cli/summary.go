package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

var (
	summaryFile string
	summaryText string
	entitiesSet string
	entitiesRaw bool
	exportOut   string
	targetWords int
)

var summaryCmd = &cobra.Command{
	Use:   "summary [doc-id]",
	Short: "Show or edit a document summary",
	Long: `Prints the current summary of a document. Use the subcommands to save an
edited version, regenerate one from the indexed text, or move the current
pointer back to an earlier version.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummaryShow,
}

var summarySaveCmd = &cobra.Command{
	Use:   "save [doc-id]",
	Short: "Save an edited summary as a new version",
	Long:  `Reads the summary from --text, --file, or stdin when neither is given.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarySave,
}

var summaryRegenerateCmd = &cobra.Command{
	Use:   "regenerate [doc-id]",
	Short: "Generate a fresh summary version",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummaryRegenerate,
}

var summaryValidateCmd = &cobra.Command{
	Use:   "validate [doc-id]",
	Short: "Score the current summary",
	Long:  `Runs the summary validator on the current version. Nothing is saved.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSummaryValidate,
}

var summaryRollbackCmd = &cobra.Command{
	Use:   "rollback [doc-id] [version]",
	Short: "Make an earlier version current",
	Long:  `Moves the current pointer. No version is deleted.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSummaryRollback,
}

var entitiesCmd = &cobra.Command{
	Use:   "entities [doc-id]",
	Short: "Show or replace extracted entities",
	Long: `Prints the entity set of a document. With --set, replaces it with the
JSON object in the given file ("-" for stdin), e.g. {"names": ["Ada"]}.`,
	Args: cobra.ExactArgs(1),
	RunE: runEntities,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a summary or entity set",
}

var exportSummaryCmd = &cobra.Command{
	Use:   "summary [doc-id]",
	Short: "Export the current summary as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runExportSummary,
}

var exportEntitiesCmd = &cobra.Command{
	Use:   "entities [doc-id]",
	Short: "Export the entity set as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExportEntities,
}

func init() {
	summarySaveCmd.Flags().StringVarP(&summaryFile, "file", "f", "", "read the summary from a file")
	summarySaveCmd.Flags().StringVarP(&summaryText, "text", "t", "", "summary text")
	summarySaveCmd.MarkFlagsMutuallyExclusive("file", "text")
	summaryRegenerateCmd.Flags().IntVarP(&targetWords, "words", "w", 0, "target summary length in words (0 uses the configured target)")
	entitiesCmd.Flags().StringVar(&entitiesSet, "set", "", "replace entities from a JSON file (- for stdin)")
	entitiesCmd.Flags().BoolVar(&entitiesRaw, "json", false, "output entities as JSON")
	exportCmd.PersistentFlags().StringVarP(&exportOut, "output", "o", "", "write to a file instead of stdout")

	summaryCmd.AddCommand(summarySaveCmd)
	summaryCmd.AddCommand(summaryRegenerateCmd)
	summaryCmd.AddCommand(summaryRollbackCmd)
	summaryCmd.AddCommand(summaryValidateCmd)
	exportCmd.AddCommand(exportSummaryCmd)
	exportCmd.AddCommand(exportEntitiesCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(entitiesCmd)
	rootCmd.AddCommand(exportCmd)
}

func runSummaryShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	st, err := documentService.Status(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get summary: %w", err)
	}
	if st.VersionCount == 0 {
		cmd.Printf("Document %s has no summary yet (status: %s).\n", st.ID, st.Status)
		return nil
	}

	cmd.Printf("Summary of %s (version %d of %d)\n\n", st.Filename, st.CurrentVersion, st.VersionCount)
	cmd.Println(st.Summary)
	return nil
}

func runSummarySave(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	text, err := summaryInput(cmd)
	if err != nil {
		return err
	}

	v, err := documentService.SaveSummary(commandContext(cmd), args[0], text)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}

	cmd.Printf("Saved summary version %d.\n", v.Index)
	printValidation(cmd, v.Validation)
	return nil
}

// summaryInput resolves --text, --file, then stdin.
func summaryInput(cmd *cobra.Command) (string, error) {
	switch {
	case summaryText != "":
		return summaryText, nil
	case summaryFile != "":
		data, err := os.ReadFile(summaryFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", summaryFile, err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
}

func runSummaryRegenerate(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	cmd.Printf("Regenerating summary for %s...\n", args[0])
	v, err := documentService.RegenerateSummary(commandContext(cmd), args[0], targetWords)
	if err != nil {
		return fmt.Errorf("failed to regenerate summary: %w", err)
	}

	cmd.Printf("Created summary version %d.\n\n", v.Index)
	cmd.Println(v.Text)
	printValidation(cmd, v.Validation)
	return nil
}

func runSummaryValidate(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	v, err := documentService.ValidateSummary(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to validate summary: %w", err)
	}

	cmd.Printf("Current summary of %s", args[0])
	printValidation(cmd, v)
	return nil
}

func runSummaryRollback(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: version must be a number: %q", domain.ErrValidation, args[1])
	}

	if err := documentService.Rollback(commandContext(cmd), args[0], index); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}

	cmd.Printf("Document %s now uses summary version %d.\n", args[0], index)
	return nil
}

func printValidation(cmd *cobra.Command, v *domain.Validation) {
	if v == nil {
		return
	}
	cmd.Printf("\nValidation: score %.2f, %d words", v.Score, v.WordCount)
	if !v.OK {
		cmd.Print(" (needs review)")
	}
	cmd.Println()
	for _, r := range v.Reasons {
		cmd.Printf("  - %s\n", r)
	}
}

func runEntities(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	ctx := commandContext(cmd)
	if entitiesSet != "" {
		entities, err := readEntities(cmd, entitiesSet)
		if err != nil {
			return err
		}
		if err := documentService.ReplaceEntities(ctx, args[0], entities); err != nil {
			return fmt.Errorf("failed to replace entities: %w", err)
		}
		cmd.Printf("Entities of %s replaced.\n", args[0])
		return nil
	}

	entities, err := documentService.Entities(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get entities: %w", err)
	}

	if entitiesRaw {
		return printJSON(cmd, entities)
	}
	if len(entities) == 0 {
		cmd.Println("No entities.")
		return nil
	}
	for _, kind := range entities.Kinds() {
		cmd.Printf("%s:\n", kind)
		for _, v := range entities[kind] {
			cmd.Printf("  - %s\n", v)
		}
	}
	return nil
}

func readEntities(cmd *cobra.Command, path string) (domain.Entities, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read entities: %w", err)
	}

	var entities domain.Entities
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("%w: entities must be a JSON object of string lists: %w", domain.ErrValidation, err)
	}
	return entities, nil
}

func runExportSummary(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	data, err := documentService.ExportSummary(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to export summary: %w", err)
	}
	return writeExport(cmd, data)
}

func runExportEntities(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNoDocumentService
	}

	data, err := documentService.ExportEntities(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to export entities: %w", err)
	}
	return writeExport(cmd, data)
}

func writeExport(cmd *cobra.Command, data []byte) error {
	if exportOut == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOut, err)
	}
	cmd.Printf("Wrote %s\n", exportOut)
	return nil
}
