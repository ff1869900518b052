package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stillwater/pulse/internal/feeds"
	"github.com/stillwater/pulse/internal/present"
	"github.com/stillwater/pulse/pkg/api"
)

func newPostsCmd() *cobra.Command {
	var accounts []string
	var outputMode string
	var noHeaders bool
	var indent bool
	var since, until string
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Show recent posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputMode == "" {
				outputMode = "plain"
				if isTerminal(cmd.OutOrStdout()) {
					outputMode = "tui"
				}
			}
			mode, ok := present.ParseMode(strings.ToLower(outputMode))
			if !ok {
				return fmt.Errorf("invalid --output: %s", outputMode)
			}
			from, to, err := timeWindow(since, until, timeNow())
			if err != nil {
				return err
			}
			b := backendFor(cmd)
			ctx := cmd.Context()
			load := func(ctx context.Context) ([]api.Post, error) {
				posts, err := b.Feed(ctx, accounts...)
				if err != nil {
					return nil, err
				}
				return feeds.Window(posts, from, to), nil
			}
			posts, err := load(ctx)
			if err != nil {
				return err
			}
			opts := present.Options{
				Mode:       mode,
				JSONIndent: indent,
				Headers:    !noHeaders,
			}
			if mode == present.ModeTUI {
				all, err := b.Accounts(ctx)
				if err != nil {
					return err
				}
				opts.Accounts = all
				opts.Reload = load
				return present.RenderPosts(ctx, cmd.OutOrStdout(), posts, opts)
			}
			return withPager(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				return present.RenderPosts(ctx, w, posts, opts)
			})
		},
	}
	cmd.Flags().StringSliceVarP(&accounts, "account", "a", nil, "only these accounts (repeatable)")
	cmd.Flags().StringVarP(&outputMode, "output", "o", "", "output mode: plain|pretty|json|ndjson|tui (default tui on a terminal)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"plain", "pretty", "json", "ndjson", "tui"}, cobra.ShellCompDirectiveNoFileComp
	})
	cmd.Flags().BoolVar(&noHeaders, "noheaders", false, "hide column headers (plain/tui)")
	cmd.Flags().BoolVar(&indent, "indent", false, "indent JSON output")
	cmd.Flags().StringVar(&since, "since", "", "only posts newer than this (e.g. 2h, 3d, 2w, 1mo, 2025-10-01)")
	cmd.Flags().StringVar(&until, "until", "", "only posts older than this")
	return cmd
}

var timeNow = time.Now

// timeWindow parses --since/--until. Empty values leave that side open.
func timeWindow(since, until string, now time.Time) (from, to time.Time, err error) {
	if since != "" {
		if from, err = feeds.ParseTime(since, now); err != nil {
			return from, to, fmt.Errorf("invalid --since: %w", err)
		}
	}
	if until != "" {
		if to, err = feeds.ParseTime(until, now); err != nil {
			return from, to, fmt.Errorf("invalid --until: %w", err)
		}
	}
	return from, to, nil
}
