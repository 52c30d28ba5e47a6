// Package chi exposes the HTTP API: grounded chat, admin ingestion and
// reindex triggers, health and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/compliwire/compliwire/internal/domain"
	answeruc "github.com/compliwire/compliwire/internal/usecase/answer"
	healthuc "github.com/compliwire/compliwire/internal/usecase/health"
	ingestuc "github.com/compliwire/compliwire/internal/usecase/ingest"
	"github.com/compliwire/compliwire/internal/usecase/retrieval"
)

// Server holds the HTTP handlers.
type Server struct {
	answer *answeruc.Service
	ingest *ingestuc.Service
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	answer *answeruc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{answer: answer, ingest: ingest, health: health, logger: logger}
}

// Routes mounts all handlers on r. Middleware is applied by the caller.
func (s *Server) Routes(r chi.Router) {
	r.Post("/chat", s.Chat)
	r.Post("/admin/ingest", s.TriggerIngest)
	r.Post("/admin/reindex", s.TriggerReindex)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// chatRequest keeps message raw so a non-string value is rejected with
// 400 instead of a decode panic or silent coercion.
type chatRequest struct {
	Message json.RawMessage `json:"message"`
	TopK    int             `json:"topK"`
	Mode    string          `json:"mode"`
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var message string
	if len(req.Message) == 0 || json.Unmarshal(req.Message, &message) != nil || message == "" {
		writeError(w, http.StatusBadRequest, "message is required and must be a string")
		return
	}

	resp, err := s.answer.Answer(r.Context(), message, req.TopK, retrieval.ParseMode(req.Mode))
	if err != nil {
		s.logger.Error("chat request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate answer")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// TriggerIngest handles POST /admin/ingest. Runs a full ingestion pass
// synchronously; a concurrent run answers 409 without side effects.
func (s *Server) TriggerIngest(w http.ResponseWriter, r *http.Request) {
	counts, err := s.ingest.Run(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			writeJSON(w, http.StatusConflict, map[string]string{"status": "already running"})
			return
		}
		s.logger.Error("ingestion run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "completed",
		"ingested": counts.Ingested,
		"skipped":  counts.Skipped,
		"failed":   counts.Failed,
	})
}

// TriggerReindex handles POST /admin/reindex.
func (s *Server) TriggerReindex(w http.ResponseWriter, r *http.Request) {
	count, err := s.ingest.Reindex(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			writeJSON(w, http.StatusConflict, map[string]string{"status": "already running"})
			return
		}
		s.logger.Error("reindex failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "reindex failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "reindex complete",
		"count":   count,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    report.Status,
		"checks":    report.Checks,
		"articles":  report.Articles,
		"ingesting": report.Ingesting,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
