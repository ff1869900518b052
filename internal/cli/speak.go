package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSpeakCmd() *cobra.Command {
	var out string
	var voice string
	var file string
	cmd := &cobra.Command{
		Use:   "speak [text...]",
		Short: "Convert text to speech (MP3)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if file != "" || len(args) == 0 {
				var in []string
				if file != "" {
					in = []string{file}
				}
				var err error
				if text, err = readInput(cmd, in); err != nil {
					return err
				}
			}
			if voice == "" {
				voice = getApp(cmd).Cfg.GetString("tts.voice_id")
			}
			audio, err := backendFor(cmd).Speak(cmd.Context(), text, voice)
			if err != nil {
				return fmt.Errorf("speak: %w", err)
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(audio)
				return err
			}
			if err := os.WriteFile(out, audio, 0o644); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes)\n", out, len(audio))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "O", "speech.mp3", "output file, or - for stdout")
	cmd.Flags().StringVar(&voice, "voice", "", "ElevenLabs voice id (default tts.voice_id)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read text from a file")
	return cmd
}

func newVoicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List available ElevenLabs voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			voices, err := backendFor(cmd).Voices(cmd.Context())
			if err != nil {
				return fmt.Errorf("voices: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "voice_id\tname\tcategory")
			for _, v := range voices {
				cat := ""
				if v.Category != nil {
					cat = *v.Category
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", v.VoiceID, v.Name, cat)
			}
			return tw.Flush()
		},
	}
}
