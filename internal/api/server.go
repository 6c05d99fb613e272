// Package api provides the HTTP API server and handlers for the Hive server.
package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hivereads/hive-server/internal/http/response"
	"github.com/hivereads/hive-server/internal/importer"
	"github.com/hivereads/hive-server/internal/ratelimit"
	"github.com/hivereads/hive-server/internal/search"
	"github.com/hivereads/hive-server/internal/sse"
	"github.com/hivereads/hive-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store         *store.Store
	search        *search.SearchIndex
	importService *importer.Service
	sseHandler    *sse.Handler
	sseManager    *sse.Manager
	importLimiter *ratelimit.KeyedRateLimiter
	router        *chi.Mux
	logger        *slog.Logger

	// One active import per user; concurrent imports by the same user are
	// rejected rather than reconciled.
	activeMu      sync.Mutex
	activeImports map[string]struct{}
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *store.Store, searchIndex *search.SearchIndex, importService *importer.Service, sseHandler *sse.Handler, sseManager *sse.Manager, importLimiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Server {
	s := &Server{
		store:         store,
		search:        searchIndex,
		importService: importService,
		sseHandler:    sseHandler,
		sseManager:    sseManager,
		importLimiter: importLimiter,
		router:        chi.NewRouter(),
		logger:        logger,
		activeImports: make(map[string]struct{}),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	// Compress skips text/event-stream, so progress streams stay unbuffered.
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", userHeader},
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Event stream (user filter optional).
		r.Get("/events", s.sseHandler.ServeHTTP)

		// Catalog.
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/search", s.handleCatalogSearch)
			r.Get("/{id}", s.handleGetBook)
			r.Post("/", s.handleCreateBook)
		})

		// Per-user endpoints.
		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Post("/import/{format}", s.handleImport)
			r.Get("/shelf", s.handleListShelf)
			r.Get("/shelf/{bookID}", s.handleGetShelfRecord)
		})
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	docs, err := s.search.DocumentCount()
	if err != nil {
		s.logger.Warn("search doc count failed", slog.String("error", err.Error()))
	}
	response.Success(w, map[string]any{
		"status":        "healthy",
		"indexed_books": docs,
	}, s.logger)
}
