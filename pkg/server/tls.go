package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpcgate/rpcgate/pkg/config"
)

// certExpiryWarning is how close to expiry a certificate is logged at warn.
const certExpiryWarning = 30 * 24 * time.Hour

// LoadTLSConfig loads the PEM certificate and key named by cfg and checks
// that the leaf certificate is currently valid.
func LoadTLSConfig(cfg config.TLSConfig, logger *slog.Logger) (*tls.Config, error) {
	if cfg.CertFile == "" {
		return nil, fmt.Errorf("cert_file is required when TLS is enabled")
	}
	if cfg.KeyFile == "" {
		return nil, fmt.Errorf("key_file is required when TLS is enabled")
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	if err := validateValidity(leaf, time.Now()); err != nil {
		return nil, err
	}

	if remaining := time.Until(leaf.NotAfter); remaining < certExpiryWarning && logger != nil {
		logger.Warn("TLS certificate expires soon",
			"subject", leaf.Subject.String(),
			"not_after", leaf.NotAfter.Format(time.RFC3339),
		)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func validateValidity(cert *x509.Certificate, now time.Time) error {
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("certificate is not yet valid (valid from %s)", cert.NotBefore.Format(time.RFC3339))
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("certificate expired on %s", cert.NotAfter.Format(time.RFC3339))
	}
	return nil
}
