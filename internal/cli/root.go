package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/stillwater/pulse/internal/config"
	"github.com/stillwater/pulse/internal/wire"
)

type ctxKey string

const appKey ctxKey = "app"

// Execute is the entrypoint: it builds the root cobra.Command
// and calls its Execute() method to run the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the Cobra root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var cfgPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:           "pulse",
		Short:         "Stillwater Pulse: local Instagram posts, an AI assistant and speech",
		SilenceUsage:  true, // don't show usage on runtime errors
		SilenceErrors: true, // let main print errors once
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			if verbose {
				v.Set("log.level", "debug")
			}
			log, err := wire.NewLogger(v.GetString("log.level"), v.GetString("log.format"))
			if err != nil {
				return err
			}
			if err := config.CheckConfigValidity(v); err != nil {
				log.Warn("configuration problems", zap.Error(err))
			}
			app, err := wire.BuildApp(cmd.Context(), v, log)
			if err != nil {
				return err
			}
			ctx := context.WithValue(cmd.Context(), appKey, app)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app, ok := cmd.Context().Value(appKey).(*wire.App); ok {
				_ = app.Log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (toml|yaml|json)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().String("remote", "", "use a running pulse API at this URL instead of local services")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newFormatCmd())
	cmd.AddCommand(newAccountsCmd())
	cmd.AddCommand(newPostsCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newSummarizeCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newSpeakCmd())
	cmd.AddCommand(newVoicesCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newCompletionCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func getApp(cmd *cobra.Command) *wire.App {
	v := cmd.Context().Value(appKey)
	if v == nil {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return v.(*wire.App)
}
