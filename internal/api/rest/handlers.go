package rest

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storesync/reconciliation-backend/internal/domain/errors"
	reconservice "github.com/storesync/reconciliation-backend/internal/service/reconciliation"
)

// Handler exposes the reconciliation admin surface over JSON
type Handler struct {
	service reconservice.Service
	logger  *slog.Logger
}

// NewHandler creates the API handler
func NewHandler(service reconservice.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes builds the request mux
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/reconciliation/runs", h.triggerRun)
	mux.HandleFunc("GET /api/v1/reconciliation/reports", h.listReports)
	mux.HandleFunc("DELETE /api/v1/reconciliation/reports", h.deleteAllReports)
	mux.HandleFunc("GET /api/v1/reconciliation/reports/latest", h.latestReport)
	mux.HandleFunc("GET /api/v1/reconciliation/reports/{id}", h.getReport)
	mux.HandleFunc("DELETE /api/v1/reconciliation/reports/{id}", h.deleteReport)

	mux.HandleFunc("GET /healthz", h.health)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

type runRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (h *Handler) triggerRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_BODY", "request body must be JSON"))
		return
	}

	start, err := parseDate(req.Start)
	if err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_START", err.Error()))
		return
	}
	end, err := parseDate(req.End)
	if err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_END", err.Error()))
		return
	}

	report, err := h.service.Run(r.Context(), start, end)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	result, err := h.service.ListReports(r.Context(), page, perPage)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) latestReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.GetLatestReport(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_REPORT_ID", "report id must be a UUID"))
		return
	}

	report, err := h.service.GetReport(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if wantsCSV(r) {
		filename := fmt.Sprintf("reconciliation-%s.csv", report.PeriodStart.Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := reconservice.WriteCSV(w, report); err != nil {
			h.logger.ErrorContext(r.Context(), "csv export failed",
				"report_id", report.ID, "error", err)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) deleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_REPORT_ID", "report id must be a UUID"))
		return
	}

	if err := h.service.DeleteReport(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteAllReports(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.DeleteAllReports(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"deleted": removed})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.GetStatusCode(err)

	var resp errorResponse
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		resp.Error.Code = appErr.Code
		resp.Error.Message = appErr.Message
	} else {
		resp.Error.Code = "INTERNAL_ERROR"
		resp.Error.Message = "An internal error occurred"
	}

	if errors.IsRetryable(err) {
		w.Header().Set("Retry-After", "30")
	}
	if status >= 500 {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}

	h.writeJSON(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// parseDate accepts a bare date or full RFC 3339 timestamp
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func wantsCSV(r *http.Request) bool {
	if r.URL.Query().Get("format") == "csv" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/csv")
}
