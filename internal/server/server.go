// Package server exposes the query router over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/retail-query-kernel/internal/cache"
	"github.com/retail-query-kernel/internal/catalog"
	"github.com/retail-query-kernel/internal/keywords"
	"github.com/retail-query-kernel/internal/nlu"
)

// Config holds the server's own knobs; routing and catalog configuration
// live with their packages.
type Config struct {
	JWTSecret   string
	AuthEnabled bool
	// VocabularyPath backs the reload endpoint; empty reloads the built-in
	// vocabulary.
	VocabularyPath string
}

// Server wires the router, catalog and cache behind a mux.Router.
type Server struct {
	cfg        Config
	router     *nlu.Router
	index      *catalog.Index
	lookups    *catalog.CachedLookup
	routeCache *cache.RouteCache
	dict       *keywords.Holder
	logger     *zap.Logger
	mux        *mux.Router
	started    time.Time
}

// New assembles the HTTP surface. routeCache and lookups may be nil when
// caching is disabled.
func New(cfg Config, router *nlu.Router, index *catalog.Index, lookups *catalog.CachedLookup, routeCache *cache.RouteCache, dict *keywords.Holder, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:        cfg,
		router:     router,
		index:      index,
		lookups:    lookups,
		routeCache: routeCache,
		dict:       dict,
		logger:     logger.Named("http"),
		mux:        mux.NewRouter(),
		started:    time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Use(s.requestIDMiddleware, s.loggingMiddleware, s.recoveryMiddleware)

	s.mux.HandleFunc("/health", s.handleHealth).Methods("GET")

	v1 := s.mux.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/query/route", s.handleRoute).Methods("POST")
	v1.HandleFunc("/query/route/batch", s.handleRouteBatch).Methods("POST")
	v1.HandleFunc("/query/explain", s.handleExplain).Methods("GET")
	v1.HandleFunc("/stats", s.handleStats).Methods("GET")

	admin := v1.PathPrefix("/catalog").Subrouter()
	if s.cfg.AuthEnabled {
		admin.Use(s.jwtMiddleware)
	}
	admin.HandleFunc("/products", s.handlePutProduct).Methods("PUT")
	admin.HandleFunc("/products/{id}", s.handleGetProduct).Methods("GET")
	admin.HandleFunc("/products/{id}", s.handleDeleteProduct).Methods("DELETE")

	vocab := v1.PathPrefix("/vocabulary").Subrouter()
	if s.cfg.AuthEnabled {
		vocab.Use(s.jwtMiddleware)
	}
	vocab.HandleFunc("/reload", s.handleReloadVocabulary).Methods("POST")
}

// Handler returns the root handler with CORS applied.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	return cors(s.mux)
}
