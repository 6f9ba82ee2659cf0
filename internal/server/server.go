// Package server exposes the analyzer's HTTP surface: receipt intake,
// analysis triggers, list reads, and the XLSX export.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/famcart/receipt-analyzer/internal/async"
	"github.com/famcart/receipt-analyzer/internal/common"
	"github.com/famcart/receipt-analyzer/internal/entity"
	"github.com/famcart/receipt-analyzer/internal/export"
	"github.com/famcart/receipt-analyzer/internal/repository"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker func(ctx context.Context) error

type Server struct {
	queue    async.Queue
	receipts repository.ReceiptRepository
	lists    repository.ListRepository
	exporter *export.Service
	health   HealthChecker
	logger   *slog.Logger
	mux      *http.ServeMux
}

func NewServer(
	queue async.Queue,
	receipts repository.ReceiptRepository,
	lists repository.ListRepository,
	exporter *export.Service,
	health HealthChecker,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		queue:    queue,
		receipts: receipts,
		lists:    lists,
		exporter: exporter,
		health:   health,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /v1/analyses", s.handleCreateAnalysis)
	s.mux.HandleFunc("POST /v1/receipts", s.handleCreateReceipt)
	s.mux.HandleFunc("GET /v1/lists/{familyID}/export", s.handleExportList)
	s.mux.HandleFunc("GET /v1/lists/{familyID}", s.handleGetList)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req entity.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.FamilyID) == "" {
		s.writeError(w, http.StatusBadRequest, common.ErrMissingFamilyID.Error())
		return
	}

	if err := s.queue.Enqueue(r.Context(), req); err != nil {
		s.logger.Error("http.analyses.enqueue_failed", "family_id", req.FamilyID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to queue analysis")
		return
	}
	s.logger.Info("http.analyses.queued", "family_id", req.FamilyID)
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":   "queued",
		"familyId": req.FamilyID,
	})
}

type createReceiptRequest struct {
	FamilyID  string `json:"FamilyId"`
	UserEmail string `json:"UserEmail"`
	OCRText   string `json:"OcrText"`
	SourceRef string `json:"SourceRef"`
}

func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req createReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.FamilyID) == "" {
		s.writeError(w, http.StatusBadRequest, common.ErrMissingFamilyID.Error())
		return
	}
	if strings.TrimSpace(req.OCRText) == "" {
		s.writeError(w, http.StatusBadRequest, "receipt text is required")
		return
	}

	rec := &entity.ReceiptRecord{
		FamilyID:   req.FamilyID,
		UserEmail:  req.UserEmail,
		OCRText:    req.OCRText,
		SourceRef:  req.SourceRef,
		UploadDate: time.Now().UTC(),
	}
	if err := s.receipts.Create(r.Context(), rec); err != nil {
		s.logger.Error("http.receipts.create_failed", "family_id", req.FamilyID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to store receipt")
		return
	}
	s.logger.Info("http.receipts.created", "family_id", req.FamilyID, "receipt_id", rec.ID)
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": rec.ID.String()})
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("familyID")
	list, err := s.lists.Get(r.Context(), familyID)
	if errors.Is(err, common.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "shopping list not found")
		return
	}
	if err != nil {
		s.logger.Error("http.lists.get_failed", "family_id", familyID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load shopping list")
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleExportList(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("familyID")
	data, err := s.exporter.ExportListXLSX(r.Context(), familyID)
	if errors.Is(err, common.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "shopping list not found")
		return
	}
	if err != nil {
		s.logger.Error("http.lists.export_failed", "family_id", familyID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to build export")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="shopping-list-%s.xlsx"`, familyID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Error("http.healthz.failed", "error", err)
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("http.response.encode_failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
