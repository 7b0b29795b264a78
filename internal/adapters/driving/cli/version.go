package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and active providers",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("intellidocs version %s (%s)\n", version, runtime.Version())
		if short, _ := cmd.Flags().GetBool("short"); short || settingsService == nil {
			return
		}
		settings, err := settingsService.Get()
		if err != nil {
			return
		}
		llm := "none"
		if settings.LLM.Provider != "" {
			llm = settings.LLM.Provider.String() + " (" + settings.LLM.Model + ")"
		}
		cmd.Printf("  storage:    %s, vectors: %s\n", settings.Storage.Backend, settings.Storage.VectorBackend)
		cmd.Printf("  embeddings: %s (%s, %d dims)\n",
			settings.Embedding.Provider, settings.Embedding.Model, settings.Embedding.Dimensions)
		cmd.Printf("  llm:        %s\n", llm)
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "Print only the version")
	rootCmd.AddCommand(versionCmd)
}
