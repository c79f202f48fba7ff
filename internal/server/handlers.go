package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"mixdown/internal/api"
	"mixdown/internal/history"
	"mixdown/internal/logging"
	"mixdown/internal/services"
	"mixdown/internal/workflow"
)

const (
	defaultJobLimit = 50
	maxJobLimit     = 500
)

func (s *Server) handleCombine(w http.ResponseWriter, r *http.Request) {
	var req api.CombineRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, api.ErrorResponse{
			Error: fmt.Sprintf("invalid request body: %v", err),
			Kind:  string(services.KindValidation),
		})
		return
	}

	out, err := s.runner.Run(r.Context(), workflow.Request{SourceA: req.SourceA, SourceB: req.SourceB})
	if err != nil {
		kind := services.KindOf(err)
		s.writeError(w, statusForKind(kind), api.ErrorResponse{
			Error: err.Error(),
			Kind:  string(kind),
			JobID: out.JobID,
		})
		return
	}

	res := out.Result
	h := w.Header()
	h.Set("Content-Type", out.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(res.Audio)))
	h.Set(api.HeaderJobID, out.JobID)
	h.Set(api.HeaderDuration, formatSeconds(res.Duration))
	h.Set(api.HeaderDurationA, formatSeconds(res.DurationA))
	h.Set(api.HeaderDurationB, formatSeconds(res.DurationB))
	if len(res.Warnings) > 0 {
		h.Set(api.HeaderWarnings, strconv.Itoa(len(res.Warnings)))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Audio); err != nil {
		logging.WithContext(r.Context(), s.logger).Warn("combined audio not delivered",
			logging.String(logging.FieldEventType, "response_write_failed"),
			logging.String(logging.FieldJobID, out.JobID),
			logging.Error(err),
		)
	}
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: nil})
		return
	}
	query := r.URL.Query()

	limit := defaultJobLimit
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, api.ErrorResponse{
				Error: "limit must be a positive integer",
				Kind:  string(services.KindValidation),
			})
			return
		}
		limit = min(n, maxJobLimit)
	}

	var statuses []history.Status
	for _, value := range query["status"] {
		trimmed := strings.ToLower(strings.TrimSpace(value))
		if trimmed == "" {
			continue
		}
		statuses = append(statuses, history.Status(trimmed))
	}

	jobs, err := s.jobs.List(r.Context(), limit, statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: jobs})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" || s.jobs == nil {
		s.writeError(w, http.StatusNotFound, api.ErrorResponse{Error: "job not found"})
		return
	}
	job, err := s.jobs.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, api.ErrorResponse{Error: "job not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{Job: *job})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	payload := api.ServiceStatus{Version: s.version}
	if s.engine != nil {
		payload.EngineReady = s.engine.Ready()
	}
	if s.engineVersion != nil {
		payload.EngineVersion = s.engineVersion()
	}
	if s.statusFn != nil {
		payload.Dependencies, payload.Checks = s.statusFn(r.Context())
	}

	counts, err := s.jobs.Counts(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}
	payload.JobCounts = counts
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, resp api.ErrorResponse) {
	s.writeJSON(w, status, resp)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
