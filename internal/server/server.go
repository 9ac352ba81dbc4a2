package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dshills/acra/internal/config"
	"github.com/dshills/acra/internal/logging"
	"github.com/gin-gonic/gin"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Server owns the HTTP listener for the API.
type Server struct {
	cfg     config.ServerConfig
	handler http.Handler
	log     *slog.Logger

	mu       sync.RWMutex
	server   *http.Server
	listener net.Listener
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger overrides the default discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// New builds the router for api and returns a server that has not started
// listening yet.
func New(cfg config.ServerConfig, api *API, opts ...Option) (*Server, error) {
	s := &Server{cfg: cfg, log: logging.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	router, err := NewRouter(cfg, api, s.log)
	if err != nil {
		return nil, err
	}
	s.handler = router
	return s, nil
}

// NewRouter returns a gin engine with recovery, request logging, CORS and
// the API routes installed.
func NewRouter(cfg config.ServerConfig, api *API, log *slog.Logger) (*gin.Engine, error) {
	if log == nil {
		log = logging.Discard()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	c, err := corsMiddleware(cfg.CORSOrigins)
	if err != nil {
		return nil, err
	}
	if c != nil {
		router.Use(c)
	}
	api.SetupRoutes(router)
	return router, nil
}

// Handler returns the HTTP handler, for use with httptest.
func (s *Server) Handler() http.Handler { return s.handler }

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("server already started")
	}
	addr := s.cfg.Addr
	if addr == "" {
		addr = config.Default().Server.Addr
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.listener = listener
	s.server = server
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve failed", "error", err)
		}
	}()
	s.log.Info("listening", "addr", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests.
// A nil ctx waits at most five seconds.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the http base URL of the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr
}
