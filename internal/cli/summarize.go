package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stillwater/pulse/internal/assistant"
)

func newSummarizeCmd() *cobra.Command {
	var maxLength int
	cmd := &cobra.Command{
		Use:   "summarize [file]",
		Short: "Summarize a caption or other text from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			summary, err := backendFor(cmd).Summarize(cmd.Context(), text, maxLength)
			if err != nil {
				return fmt.Errorf("summarize: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), summary)
			return err
		},
	}
	cmd.Flags().IntVar(&maxLength, "max", assistant.DefaultSummaryMaxLength, "approximate maximum summary length in characters")
	return cmd
}
