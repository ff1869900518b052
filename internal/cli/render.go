package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stillwater/pulse/internal/markup"
)

var textOutputs = []string{"ansi", "text", "html", "json", "raw"}

// textOutput resolves --output for formatted text: ansi on a terminal,
// plain text otherwise.
func textOutput(cmd *cobra.Command, requested string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(requested))
	if mode == "" {
		if isTerminal(cmd.OutOrStdout()) {
			return "ansi", nil
		}
		return "text", nil
	}
	for _, m := range textOutputs {
		if m == mode {
			return mode, nil
		}
	}
	return "", fmt.Errorf("invalid --output: %s (want %s)", requested, strings.Join(textOutputs, "|"))
}

// writeFormatted renders text in mode, ending with a newline.
func writeFormatted(w io.Writer, text, mode string) error {
	doc := markup.Format(text)
	var out string
	switch mode {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "html":
		out = markup.HTML(doc)
	case "ansi":
		out = markup.ANSI(doc, markup.DefaultStyles())
	case "raw":
		out = text
	default:
		out = markup.Text(doc)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}

func registerTextOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", "", "output: "+strings.Join(textOutputs, "|")+" (default ansi on a terminal, text otherwise)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return textOutputs, cobra.ShellCompDirectiveNoFileComp
	})
}
