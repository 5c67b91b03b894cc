package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"soc-audit/internal/engine"
	"soc-audit/internal/models"
	"soc-audit/internal/repository/redis"
	"soc-audit/internal/service"
)

// defaultWindow is how far back a run looks when the request omits one.
const defaultWindow = 24 * time.Hour

// AuditHandler handles HTTP requests for audit operations
type AuditHandler struct {
	auditService *service.AuditService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func successResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func errorResponse(err error, message string) Response {
	return Response{
		Success: false,
		Error:   err.Error(),
		Message: message,
	}
}

// RegisterRoutes registers all audit routes
func (h *AuditHandler) RegisterRoutes(router chi.Router) {
	router.Route("/audit", func(r chi.Router) {
		r.Post("/run", h.RunAudit)
		r.Get("/latest", h.LatestReport)
	})
}

// runRequest is the optional run body. Both bounds default when absent:
// To to now, From to To minus the default window.
type runRequest struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// RunAudit triggers a full audit over the requested event window.
func (h *AuditHandler) RunAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req runRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeJSON(w, http.StatusBadRequest, errorResponse(err, "invalid request body"))
			return
		}
	}

	window := resolveWindow(req)
	if !window.To.After(window.From) {
		h.writeJSON(w, http.StatusBadRequest, errorResponse(
			errors.New("'to' must be after 'from'"), "invalid event window"))
		return
	}

	report, err := h.auditService.RunAudit(ctx, window)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRunInProgress):
			h.writeJSON(w, http.StatusConflict, errorResponse(err, "audit run already in progress"))
		case errors.Is(err, engine.ErrNoSnapshotData):
			h.writeJSON(w, http.StatusServiceUnavailable, errorResponse(err, "no data source available"))
		default:
			h.logger.Error("audit run failed", zap.Error(err))
			h.writeJSON(w, http.StatusInternalServerError, errorResponse(err, "audit run failed"))
		}
		return
	}

	h.writeJSON(w, http.StatusOK, successResponse(report, "audit run completed"))
}

// LatestReport returns the most recently generated report.
func (h *AuditHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.auditService.LatestReport(r.Context())
	if err != nil {
		if errors.Is(err, redis.ErrNoCachedReport) {
			h.writeJSON(w, http.StatusNotFound, errorResponse(err, "no report available yet"))
			return
		}
		h.logger.Error("failed to load latest report", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse(err, "failed to load latest report"))
		return
	}
	h.writeJSON(w, http.StatusOK, successResponse(report, "latest audit report"))
}

func resolveWindow(req runRequest) models.TimeRange {
	to := time.Now().UTC()
	if req.To != nil {
		to = req.To.UTC()
	}
	from := to.Add(-defaultWindow)
	if req.From != nil {
		from = req.From.UTC()
	}
	return models.TimeRange{From: from, To: to}
}

func (h *AuditHandler) writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
