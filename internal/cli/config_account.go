package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stillwater/pulse/internal/config"
)

func newConfigAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the [accounts] table in the config file",
	}
	cmd.AddCommand(newConfigAccountAddCmd())
	cmd.AddCommand(newConfigAccountRemoveCmd())
	return cmd
}

func newConfigAccountAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <username> <rss-url>",
		Short: "Add or update an account feed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimPrefix(strings.TrimSpace(args[0]), "@")
			if name == "" {
				return errors.New("username is required")
			}
			u, err := url.Parse(args[1])
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("invalid feed url %q", args[1])
			}
			return editConfig(cmd, func(existing string) (string, bool) {
				return config.UpsertAccountConfig(existing, name, u.String())
			}, fmt.Sprintf("Account %s saved", name))
		},
	}
}

func newConfigAccountRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <username>",
		Aliases: []string{"rm"},
		Short:   "Remove an account feed",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimPrefix(strings.TrimSpace(args[0]), "@")
			return editConfig(cmd, func(existing string) (string, bool) {
				return config.DeleteAccountConfig(existing, name)
			}, fmt.Sprintf("Account %s removed", name))
		},
	}
}

func editConfig(cmd *cobra.Command, edit func(string) (string, bool), done string) error {
	path := configFileFor(cmd)
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	updated, changed := edit(string(data))
	if !changed {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No change: %s\n", path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s in %s\n", done, path)
	return nil
}
