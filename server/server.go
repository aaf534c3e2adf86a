package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/reindex"
)

// Batch limits for the reindex route.
const (
	DefaultBatchLimit = 5
	MaxBatchLimit     = 50
)

// Searcher answers search requests.
type Searcher interface {
	Search(ctx context.Context, query string, episodeID core.ID) ([]*core.SearchResult, error)
}

// Reindexer runs one reindex batch.
type Reindexer interface {
	ProcessBatch(ctx context.Context, offset, limit int) (*reindex.BatchResult, error)
}

// Server routes HTTP requests to the search and reindex services.
type Server struct {
	router        *mux.Router
	searcher      Searcher
	reindexer     Reindexer
	cronSecret    string
	maxBatchLimit int
	logger        *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCronSecret sets the credential required by the reindex route.
// Without one the route answers 500.
func WithCronSecret(secret string) Option {
	return func(s *Server) {
		s.cronSecret = secret
	}
}

// WithMaxBatchLimit caps the limit accepted by the reindex route.
func WithMaxBatchLimit(limit int) Option {
	return func(s *Server) {
		if limit > 0 {
			s.maxBatchLimit = limit
		}
	}
}

// New creates a Server.
func New(searcher Searcher, reindexer Reindexer, opts ...Option) *Server {
	s := &Server{
		searcher:      searcher,
		reindexer:     reindexer,
		maxBatchLimit: MaxBatchLimit,
		logger:        slog.Default().With("component", "http"),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(corsMiddleware)

	r.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/reindex", s.handleReindex).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
