package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newFormatCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Render **bold**, *italic* and line breaks from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := textOutput(cmd, output)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return writeFormatted(cmd.OutOrStdout(), text, mode)
		},
	}
	registerTextOutputFlag(cmd, &output)
	return cmd
}

// readInput returns the named file, or stdin when no file (or "-") is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}
