package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/retail-query-kernel/internal/catalog"
	"github.com/retail-query-kernel/internal/jsonx"
	"github.com/retail-query-kernel/internal/keywords"
	"github.com/retail-query-kernel/internal/nlu"
	"github.com/retail-query-kernel/internal/textnorm"
)

type routeRequest struct {
	Query string `json:"query"`
}

type batchRequest struct {
	Queries []string `json:"queries"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := jsonx.DecodeFrom(r.Body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	// Repeated queries are common from voice frontends that retry; serve
	// them from the route cache keyed by normalized text. The cached entry
	// carries no query echo so a hit never replays another caller's raw text.
	if s.routeCache != nil {
		key := "route:" + textnorm.Normalize(req.Query)
		data, err := s.routeCache.GetOrCompute(r.Context(), key, func() ([]byte, error) {
			res, err := s.router.Route(r.Context(), req.Query)
			if err != nil {
				return nil, err
			}
			res.Query = ""
			return jsonx.Marshal(res)
		})
		if err != nil {
			s.routeError(w, err)
			return
		}
		var res nlu.Result
		if err := jsonx.Unmarshal(data, &res); err != nil {
			s.logger.Error("cached route entry corrupt", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "routing failed")
			return
		}
		res.Query = req.Query
		s.writeJSON(w, http.StatusOK, res)
		return
	}

	res, err := s.router.Route(r.Context(), req.Query)
	if err != nil {
		s.routeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRouteBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := jsonx.DecodeFrom(r.Body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Queries) == 0 {
		s.writeError(w, http.StatusBadRequest, "queries must not be empty")
		return
	}

	results, err := s.router.RouteBatch(r.Context(), req.Queries)
	if err != nil {
		s.routeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]nlu.Result{"results": results})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "q parameter required")
		return
	}

	exp, err := s.router.Explain(r.Context(), query)
	if err != nil {
		s.routeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, exp)
}

func (s *Server) handlePutProduct(w http.ResponseWriter, r *http.Request) {
	var entry catalog.Entry
	if err := jsonx.DecodeFrom(r.Body, &entry); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid product body")
		return
	}

	if err := s.index.Add(r.Context(), entry); err != nil {
		s.logger.Error("product upsert failed", zap.String("product_id", entry.ID), zap.Error(err))
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.invalidateCaches()

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "stored", "product_id": entry.ID})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entry := s.index.Get(id)
	if entry == nil {
		s.writeError(w, http.StatusNotFound, "product not found")
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.index.Remove(r.Context(), id); err != nil {
		s.logger.Error("product delete failed", zap.String("product_id", id), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	s.invalidateCaches()

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "product_id": id})
}

// handleReloadVocabulary rebuilds the keyword dictionary from disk and swaps
// it in atomically; in-flight queries finish on the old snapshot.
func (s *Server) handleReloadVocabulary(w http.ResponseWriter, r *http.Request) {
	dictionary := keywords.Default()
	if s.cfg.VocabularyPath != "" {
		var err error
		dictionary, err = keywords.Load(s.cfg.VocabularyPath)
		if err != nil {
			s.logger.Error("vocabulary reload failed", zap.Error(err))
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	s.dict.Swap(dictionary)
	s.invalidateCaches()

	loc, info, neg := dictionary.Counts()
	s.logger.Info("vocabulary reloaded",
		zap.Int("location_terms", loc),
		zap.Int("information_terms", info),
		zap.Int("negation_terms", neg))
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "reloaded",
		"location_terms":    loc,
		"information_terms": info,
		"negation_terms":    neg,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	loc, info, neg := s.dict.Get().Counts()
	stats := map[string]interface{}{
		"routing":  s.router.GetStats(),
		"products": s.index.Len(),
		"vocabulary": map[string]int{
			"location_terms":    loc,
			"information_terms": info,
			"negation_terms":    neg,
		},
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if s.routeCache != nil {
		stats["route_cache"] = s.routeCache.Stats()
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// invalidateCaches drops memoized lookups and routed results after a
// catalog mutation so stale candidates never outlive the product data.
func (s *Server) invalidateCaches() {
	if s.lookups != nil {
		s.lookups.Purge()
	}
	if s.routeCache != nil {
		s.routeCache.Clear()
	}
}

// routeError maps a routing failure to a status code. A catalog outage is
// the caller's retry signal and gets 503; anything else is a server bug.
func (s *Server) routeError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrUnavailable) {
		s.logger.Warn("catalog unavailable", zap.Error(err))
		s.writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	s.logger.Error("routing failed", zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "routing failed")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsonx.EncodeTo(w, v); err != nil {
		s.logger.Error("response encoding failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
