package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sanjeevkumarraob/askyourdoc/internal/document"
	"github.com/sanjeevkumarraob/askyourdoc/internal/search"
)

var (
	askTopK    int
	askContext int
	askType    string
)

var askCmd = &cobra.Command{
	Use:   "ask [file] [question]",
	Short: "Find the paragraphs of a document that answer a question",
	Long: `Extracts the document and ranks its paragraphs against the question with
TF-IDF cosine similarity, falling back to keyword overlap when no weighting
model can be built. Each match is shown with its neighbouring paragraphs.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	defaults := search.DefaultConfig()
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", defaults.TopK, "maximum number of matches")
	askCmd.Flags().IntVarP(&askContext, "context", "c", defaults.ContextWindow, "paragraphs of context on each side")
	askCmd.Flags().StringVarP(&askType, "type", "t", "", "media type (default: from extension or content)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync() //nolint:errcheck

	res, _, err := extractFile(cmd.Context(), logger, args[0], askType)
	if err != nil {
		return err
	}

	question := strings.Join(args[1:], " ")
	engine := search.NewEngine(logger, search.DefaultConfig())
	results := engine.Search(question, res.Paragraphs, askTopK, askContext)

	if len(results) == 0 {
		cmd.Println("No relevant paragraphs found.")
		return nil
	}

	cmd.Printf("Searched %d paragraphs.\n\n", len(res.Paragraphs))
	for i, r := range results {
		cmd.Printf("[%d] page %d, paragraph %d (%.3f, %s)\n",
			i+1, r.Paragraph.Page, r.Paragraph.ParagraphIndex, r.SimilarityScore, r.Method)
		printContext(cmd, r.ContextBefore)
		cmd.Printf("  > %s\n", r.Paragraph.Text)
		printContext(cmd, r.ContextAfter)
		cmd.Println()
	}
	return nil
}

func printContext(cmd *cobra.Command, ps []document.Paragraph) {
	for _, p := range ps {
		cmd.Printf("    %s\n", p.Text)
	}
}
