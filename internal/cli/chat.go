package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stillwater/pulse/internal/config"
	"github.com/stillwater/pulse/internal/present/tui"
	"github.com/stillwater/pulse/pkg/api"
)

func newChatCmd() *cobra.Command {
	var accounts []string
	var audioDir string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant about recent posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			b := backendFor(cmd)
			if audioDir == "" {
				audioDir = filepath.Join(config.DefaultCacheDir(), "audio")
			}
			voice := app.Cfg.GetString("tts.voice_id")

			// The feed is fetched once per session, on the first question.
			var (
				once  sync.Once
				posts []api.Post
			)
			ask := func(ctx context.Context, message string) (string, error) {
				once.Do(func() {
					var err error
					posts, err = b.Feed(ctx, accounts...)
					if err != nil {
						app.Log.Warn("feed unavailable", zap.Error(err))
					}
				})
				return b.Ask(ctx, message, posts)
			}
			speak := func(ctx context.Context, text string) (string, error) {
				audio, err := b.Speak(ctx, text, voice)
				if err != nil {
					return "", err
				}
				return saveAudio(audioDir, audio)
			}
			return tui.RunChat(cmd.Context(), tui.ChatOptions{
				Ask:      ask,
				Speak:    speak,
				Subtitle: b.Name(),
			})
		},
	}
	cmd.Flags().StringSliceVarP(&accounts, "account", "a", nil, "only use posts from these accounts")
	cmd.Flags().StringVar(&audioDir, "audio-dir", "", "where spoken replies are saved (default cache dir)")
	return cmd
}

func saveAudio(dir string, audio []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, "reply-*.mp3")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(audio); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write audio: %w", err)
	}
	return f.Name(), f.Close()
}
