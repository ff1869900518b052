package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/caddyserver/certmagic"
)

// TLSConfig configures automatic certificate management with CertMagic.
type TLSConfig struct {
	Domain     string
	Email      string
	StorageDir string // optional; defaults to XDG or ~/.cache/pulse/certmagic
	CA         string // optional; defaults to Let's Encrypt prod
}

// Enabled reports whether HTTPS was requested.
func (c TLSConfig) Enabled() bool { return c.Domain != "" }

func (c TLSConfig) storageDir() string {
	if c.StorageDir != "" {
		return c.StorageDir
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "pulse", "certmagic")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "pulse", "certmagic")
}

// BuildTLS provisions or loads the certificate for cfg.Domain and returns a
// TLS config for the API listener plus a handler answering HTTP-01 challenges
// (it forwards everything else to fallback).
func BuildTLS(ctx context.Context, cfg TLSConfig, fallback http.Handler) (*tls.Config, http.Handler, error) {
	if cfg.Domain == "" {
		return nil, nil, errors.New("domain is required")
	}
	dir := cfg.storageDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("cert storage: %w", err)
	}

	cm := certmagic.NewDefault()
	cm.Storage = &certmagic.FileStorage{Path: dir}
	issuer := certmagic.NewACMEIssuer(cm, certmagic.ACMEIssuer{
		CA:     ifEmpty(cfg.CA, certmagic.LetsEncryptProductionCA),
		Email:  cfg.Email,
		Agreed: true,
	})
	cm.Issuers = []certmagic.Issuer{issuer}

	if err := cm.ManageSync(ctx, []string{cfg.Domain}); err != nil {
		return nil, nil, err
	}

	tlsConf := cm.TLSConfig()
	tlsConf.NextProtos = append([]string{"h2", "http/1.1"}, tlsConf.NextProtos...)
	tlsConf.MinVersion = tls.VersionTLS12
	return tlsConf, issuer.HTTPChallengeHandler(fallback), nil
}

func ifEmpty(s, d string) string {
	if s == "" {
		return d
	}
	return s
}
