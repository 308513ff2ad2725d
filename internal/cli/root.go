// Package cli implements the askdoc command line, which runs extraction and
// search against local files without the HTTP service.
package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/askyourdoc/internal/document"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "askdoc",
	Short: "Ask questions about local documents",
	Long: `askdoc extracts paragraphs from PDF, Word and plain text files and
finds the paragraphs most relevant to a question using TF-IDF similarity.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log extraction and search details to stderr")
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// extractFile reads and extracts path, resolving the media type from the
// override, the extension or the content.
func extractFile(ctx context.Context, logger *zap.Logger, path, mediaType string) (*document.ExtractionResult, *document.Processor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", path, document.ErrEmptyFile)
	}

	mediaType = document.ResolveMediaType(path, mediaType, data)
	processor := document.NewProcessor(logger, document.DefaultOptions())
	res, err := processor.Extract(ctx, bytes.NewReader(data), mediaType)
	if err != nil {
		return nil, nil, err
	}
	return res, processor, nil
}
