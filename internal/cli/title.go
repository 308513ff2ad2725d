package cli

import (
	"github.com/spf13/cobra"
)

var titleType string

var titleCmd = &cobra.Command{
	Use:   "title [file]",
	Short: "Print the title derived from a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		res, processor, err := extractFile(cmd.Context(), logger, args[0], titleType)
		if err != nil {
			return err
		}
		cmd.Println(processor.Title(res.FullText))
		return nil
	},
}

func init() {
	titleCmd.Flags().StringVarP(&titleType, "type", "t", "", "media type (default: from extension or content)")
	rootCmd.AddCommand(titleCmd)
}
