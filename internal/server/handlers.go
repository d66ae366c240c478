package server

import (
	"encoding/json"
	"net/http"

	"github.com/hyperjump/osusume/internal/models"
	"go.uber.org/zap"
)

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("recommend request", zap.String("query", req.Query), zap.Int("top_k", req.TopK))
	response, err := s.engine.Recommend(r.Context(), &req)
	if err != nil {
		s.logger.Error("recommend failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	idx := s.handle.Current()
	resp := map[string]interface{}{
		"records": 0,
	}
	if idx != nil {
		resp["records"] = idx.Len()
		resp["vector_dimensions"] = idx.Dimensions()
		resp["lexical_vocabulary"] = idx.Lexical().VocabSize()
	}
	resp["config"] = map[string]interface{}{
		"records_path":     s.config.Catalog.RecordsPath,
		"vectors_path":     s.config.Catalog.VectorsPath,
		"top_k_candidates": s.config.Retrieval.TopKCandidates,
		"vector_weight":    s.config.Retrieval.VectorWeight,
		"lexical_weight":   s.config.Retrieval.LexicalWeight,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil {
		s.respondError(w, http.StatusServiceUnavailable, "catalog reload not configured")
		return
	}
	if err := s.reloader.Reload(); err != nil {
		s.logger.Error("catalog reload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "reloaded",
		"records": s.handle.Current().Len(),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
