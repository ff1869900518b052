package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stillwater/pulse/internal/keys"
)

func newConfigSetKeyCmd() *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:       "set-key <gemini|elevenlabs>",
		Short:     "Store an API key in the system keyring",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{keys.Gemini, keys.ElevenLabs},
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.ToLower(args[0])
			if !keys.ValidProvider(provider) {
				return fmt.Errorf("unknown provider %q (want %s or %s)", args[0], keys.Gemini, keys.ElevenLabs)
			}
			store := &keys.KeyringStore{Service: getApp(cmd).Cfg.GetString("keyring.service")}
			if remove {
				if err := store.Delete(provider); err != nil {
					return fmt.Errorf("keyring: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s key\n", provider)
				return nil
			}
			secret, err := readSecret(cmd, provider)
			if err != nil {
				return err
			}
			if secret == "" {
				return fmt.Errorf("empty key")
			}
			if err := store.Put(provider, secret); err != nil {
				return fmt.Errorf("keyring: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored %s key in the system keyring\n", provider)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "delete", false, "remove the stored key")
	return cmd
}

// readSecret prompts without echo on a terminal and reads one line otherwise.
func readSecret(cmd *cobra.Command, provider string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s API key: ", provider)
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
