package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/phone-insight/internal/model"
	"github.com/sells-group/phone-insight/internal/store"
)

// Response bodies for rejected or failed enrich requests.
const (
	MsgProcessingError = "API processing error."
	MsgInvalidFormat   = "Invalid request format."
	MsgPhoneRequired   = "Valid phone number (string) is required."
	MsgEndpointActive  = `API endpoint active. Use POST with { "phone": "number" }.`
)

// ErrorResponse is the body of every non-200 answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// EnrichRequest is the body of POST /api/enrich.
type EnrichRequest struct {
	Phone string `json:"phone"`
}

// parseEnrichRequest decodes an enrich body. It returns the 400 response to
// send when the body is not JSON or carries no usable phone.
func parseEnrichRequest(body []byte) (EnrichRequest, *ErrorResponse) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return EnrichRequest{}, &ErrorResponse{Error: MsgProcessingError, Details: MsgInvalidFormat}
	}

	obj, _ := raw.(map[string]any)
	phone, ok := obj["phone"].(string)
	if !ok || strings.TrimSpace(phone) == "" {
		return EnrichRequest{}, &ErrorResponse{Error: MsgPhoneRequired}
	}
	return EnrichRequest{Phone: phone}, nil
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: MsgProcessingError, Details: MsgInvalidFormat})
		return
	}

	req, reject := parseEnrichRequest(body)
	if reject != nil {
		writeJSON(w, http.StatusBadRequest, reject)
		return
	}

	result := s.enricher.Run(r.Context(), req.Phone)
	if result == nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   MsgProcessingError,
			Details: "An internal server error occurred.",
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEnrichInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": MsgEndpointActive})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Store    string            `json:"store,omitempty"`
	Circuits map[string]string `json:"circuits,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	code := http.StatusOK

	if s.store != nil {
		resp.Store = "ok"
		if err := s.store.Ping(r.Context()); err != nil {
			zap.L().Warn("api: store ping failed", zap.Error(err))
			resp.Store = "unavailable"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	if s.guards != nil {
		resp.Circuits = s.guards.States()
		if len(s.guards.Open()) > 0 && resp.Status == "ok" {
			resp.Status = "degraded"
		}
	}

	writeJSON(w, code, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter, err := runFilterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list runs", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list runs"})
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "run not found"})
		return
	}
	if err != nil {
		zap.L().Error("api: get run", zap.String("run_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to get run"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func runFilterFromQuery(r *http.Request) (store.RunFilter, error) {
	q := r.URL.Query()
	filter := store.RunFilter{
		Status:       model.RunStatus(q.Get("status")),
		ReportStatus: model.ReportStatus(q.Get("report_status")),
		Phone:        q.Get("phone"),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errors.New("limit must be a non-negative integer")
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errors.New("offset must be a non-negative integer")
		}
		filter.Offset = n
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("since must be an RFC 3339 timestamp")
		}
		filter.CreatedAfter = t
	}
	return filter, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}
