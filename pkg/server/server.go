package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/rpcgate/rpcgate/pkg/config"
)

// Server is the HTTP listener.
type Server struct {
	config     config.ProxyConfig
	tlsConfig  config.TLSConfig
	httpServer *http.Server
	logger     *slog.Logger

	mu           sync.RWMutex
	listener     net.Listener
	shutdownOnce sync.Once
}

// NewServer creates a server for handler.
func NewServer(cfg config.ProxyConfig, tlsCfg config.TLSConfig, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:    cfg,
		tlsConfig: tlsCfg,
		logger:    logger.With("component", "server"),
		httpServer: &http.Server{
			Addr:           cfg.ListenAddress,
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			IdleTimeout:    cfg.IdleTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
	}
}

// Listen binds the listen address. Start calls it when needed; calling it
// first lets the caller learn the bound address.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	if s.tlsConfig.Enabled {
		tlsConfig, err := LoadTLSConfig(s.tlsConfig, s.logger)
		if err != nil {
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
		s.httpServer.TLSConfig = tlsConfig
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.ListenAddress, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start serves until Shutdown is called. It returns nil after a graceful
// shutdown.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.RLock()
	ln := s.listener
	s.mu.RUnlock()

	s.logger.Info("starting proxy server",
		"address", ln.Addr().String(),
		"tls_enabled", s.tlsConfig.Enabled,
	)

	var err error
	if s.tlsConfig.Enabled {
		err = s.httpServer.ServeTLS(ln, "", "")
	} else {
		err = s.httpServer.Serve(ln)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests until
// ctx ends. Only the first call has an effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info("shutting down proxy server")
		if err := s.httpServer.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
	})

	return shutdownErr
}
