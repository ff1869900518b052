package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stillwater/pulse/internal/config"
	"github.com/stillwater/pulse/internal/feeds"
	"github.com/stillwater/pulse/internal/server"
	"github.com/stillwater/pulse/internal/wire"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			applyConfigFlagOverrides(cmd, app.Cfg, map[string]string{"listen": "http_addr"})
			if err := config.CheckConfigValidity(app.Cfg); err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			out := cmd.OutOrStdout()
			return serve(ctx, app, app.Cfg.GetString("http_addr"), func(scheme string, addr net.Addr) {
				announce(out, app, scheme, addr)
			})
		},
	}
	cmd.Flags().String("listen", "", "listen address (override config http_addr)")
	cmd.Flags().StringSlice("server.cors_origins", nil, "origins allowed to call the API")
	cmd.Flags().String("feeds.refresh_interval", "", "refetch feeds on this interval while serving (e.g. 5m)")
	return cmd
}

func announce(w io.Writer, app *wire.App, scheme string, addr net.Addr) {
	_, _ = fmt.Fprintf(w, "%s v%s\n", server.Title, server.Version)
	_, _ = fmt.Fprintf(w, "Serving on %s://%s (%d accounts from %s)\n", scheme, addr, len(app.Feeds.Accounts()), app.FeedSource)
}

// serve runs the API until ctx is done, then drains in-flight requests.
// ready is called once the listener is bound.
func serve(ctx context.Context, app *wire.App, addr string, ready func(scheme string, addr net.Addr)) error {
	srv := &http.Server{
		Handler:           app.Server().Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var challenge *http.Server
	tlsCfg := server.TLSConfig{
		Domain:     app.Cfg.GetString("server.tls.domain"),
		Email:      app.Cfg.GetString("server.tls.email"),
		StorageDir: app.Cfg.GetString("server.tls.storage_dir"),
	}
	scheme := "http"
	if tlsCfg.Enabled() {
		tc, h, err := server.BuildTLS(ctx, tlsCfg, http.HandlerFunc(redirectHTTPS))
		if err != nil {
			return fmt.Errorf("tls: %w", err)
		}
		srv.TLSConfig = tc
		challenge = &http.Server{Addr: ":80", Handler: h, ReadHeaderTimeout: 10 * time.Second}
		scheme = "https"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if ready != nil {
		ready(scheme, ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if srv.TLSConfig != nil {
			err = srv.ServeTLS(ln, "", "")
		} else {
			err = srv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	if challenge != nil {
		g.Go(func() error {
			err := challenge.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		return feeds.Refresher{Every: config.Duration(app.Cfg, "feeds.refresh_interval")}.Run(gctx, app.Feeds)
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := config.Duration(app.Cfg, "server.shutdown_timeout")
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		app.Log.Info("shutting down", zap.Duration("timeout", timeout))
		if challenge != nil {
			_ = challenge.Shutdown(sctx)
		}
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func redirectHTTPS(w http.ResponseWriter, r *http.Request) {
	target := "https://" + r.Host + r.URL.RequestURI()
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}
