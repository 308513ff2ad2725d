package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sanjeevkumarraob/askyourdoc/internal/document"
)

type extractionJSON struct {
	Title      string               `json:"title"`
	TotalPages int                  `json:"total_pages"`
	Paragraphs []document.Paragraph `json:"paragraphs"`
	FullText   string               `json:"full_text"`
}

var (
	extractType string
	extractJSON bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract paragraphs from a document",
	Long: `Extracts the paragraphs of a PDF, DOCX, DOC or text file with their page,
paragraph index and character positions.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractType, "type", "t", "", "media type (default: from extension or content)")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output the extraction result as JSON")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync() //nolint:errcheck

	res, processor, err := extractFile(cmd.Context(), logger, args[0], extractType)
	if err != nil {
		return err
	}

	if extractJSON {
		data, err := json.MarshalIndent(extractionJSON{
			Title:      processor.Title(res.FullText),
			TotalPages: res.TotalPages,
			Paragraphs: res.Paragraphs,
			FullText:   res.FullText,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Title: %s\n", processor.Title(res.FullText))
	cmd.Printf("Pages: %d  Paragraphs: %d\n", res.TotalPages, len(res.Paragraphs))
	cmd.Println()
	for _, p := range res.Paragraphs {
		cmd.Printf("  [p%d #%d %d-%d] %s\n", p.Page, p.ParagraphIndex, p.StartPosition, p.EndPosition, p.Text)
	}
	return nil
}
