package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stillwater/pulse/internal/editor"
	"github.com/stillwater/pulse/pkg/api"
)

func newAskCmd() *cobra.Command {
	var output string
	var accounts []string
	var noPosts bool
	var edit bool
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask the assistant about recent posts",
		Args: func(cmd *cobra.Command, args []string) error {
			if edit {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := textOutput(cmd, output)
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")
			if edit {
				accounts, question, err = editQuestion(accounts, question)
				if err != nil {
					return err
				}
			}
			b := backendFor(cmd)
			ctx := cmd.Context()

			var posts []api.Post
			if !noPosts {
				posts, err = b.Feed(ctx, accounts...)
				if err != nil {
					// The assistant still answers without context.
					getApp(cmd).Log.Warn("feed unavailable", zap.Error(err))
				}
			}
			reply, err := b.Ask(ctx, question, posts)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			return writeFormatted(cmd.OutOrStdout(), reply, mode)
		},
	}
	registerTextOutputFlag(cmd, &output)
	cmd.Flags().StringSliceVarP(&accounts, "account", "a", nil, "only use posts from these accounts")
	cmd.Flags().BoolVar(&noPosts, "no-posts", false, "ask without post context")
	cmd.Flags().BoolVarP(&edit, "edit", "e", false, "compose the question in $EDITOR")
	return cmd
}

func editQuestion(accounts []string, question string) ([]string, string, error) {
	path, err := editor.TempPath()
	if err != nil {
		return nil, "", err
	}
	out, _, err := editor.OpenAt(path, []byte(editor.ComposeQuestion(accounts, question)))
	if err != nil {
		return nil, "", fmt.Errorf("editor: %w", err)
	}
	accounts, question = editor.ParseQuestion(string(out))
	if question == "" {
		return nil, "", errors.New("empty question; nothing asked")
	}
	return accounts, question, nil
}
