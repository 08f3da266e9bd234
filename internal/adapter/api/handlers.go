package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"ufunda-orchestrator/internal/application/port/input"
	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/domain/entity"
	"ufunda-orchestrator/internal/usecase/status"
)

// StatusService is the part of the status tracker the handlers use.
type StatusService interface {
	Notify(ctx context.Context, n entity.Notification) (entity.Application, error)
	Applications(status entity.ApplicationStatus) []entity.Application
	Application(id string) (entity.Application, error)
	UpdateStatus(id string, status entity.ApplicationStatus, errorMessage string) (entity.Application, error)
	SetBotStatus(s entity.BotStatus) (entity.BotStatus, error)
	BotStatuses() []entity.BotStatus
	LatestReport() (entity.Report, bool)
}

type Handler struct {
	status     StatusService
	dispatcher input.Dispatcher
	limiter    *Limiter
	logger     output.LoggerPort
}

func NewHandler(tracker StatusService, dispatcher input.Dispatcher, limiter *Limiter, logger output.LoggerPort) *Handler {
	return &Handler{
		status:     tracker,
		dispatcher: dispatcher,
		limiter:    limiter,
		logger:     logger,
	}
}

// CreateNotification handles POST /v1/notifications
func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var n entity.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if h.limiter.PerHour() > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.limiter.PerHour()))
		if !h.limiter.Allow(n.UniversityName) {
			w.Header().Set("X-RateLimit-Remaining", "0")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded for "+n.UniversityName)
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(h.limiter.Remaining(n.UniversityName)))
	}

	app, err := h.status.Notify(r.Context(), n)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// ListApplications handles GET /v1/applications
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	filter := entity.ApplicationStatus(r.URL.Query().Get("status"))
	if filter != "" && !filter.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status: "+string(filter))
		return
	}
	writeJSON(w, http.StatusOK, h.status.Applications(filter))
}

// GetApplication handles GET /v1/applications/{id}
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.status.Application(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// UpdateApplication handles POST /v1/applications/{id}/update?status=&error_message=
func (h *Handler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	app, err := h.status.UpdateStatus(
		mux.Vars(r)["id"],
		entity.ApplicationStatus(q.Get("status")),
		q.Get("error_message"),
	)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// UpdateBotStatus handles POST /v1/bot/status
func (h *Handler) UpdateBotStatus(w http.ResponseWriter, r *http.Request) {
	var s entity.BotStatus
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	stored, err := h.status.SetBotStatus(s)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// ListBots handles GET /v1/bots
func (h *Handler) ListBots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status.BotStatuses())
}

type runRequest struct {
	Applicant map[string]any `json:"applicant"`
	Bots      []string       `json:"bots"`
}

// CreateRun handles POST /v1/runs. The run is synchronous; the response is the Report.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Applicant == nil {
		writeError(w, http.StatusBadRequest, "applicant is required")
		return
	}

	applicant, err := entity.ContextFromMap(req.Applicant)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.dispatcher.RunParallelBots(r.Context(), applicant, req.Bots)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	h.logger.Info("Run finished", "run_id", report.RunID, "failed", len(report.Failed()))
	writeJSON(w, http.StatusOK, report)
}

// LatestRun handles GET /v1/runs/latest
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	report, ok := h.status.LatestReport()
	if !ok {
		writeError(w, http.StatusNotFound, "no run recorded yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, status.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, status.ErrInvalidStatus),
		errors.Is(err, status.ErrInvalidNotification),
		errors.Is(err, status.ErrInvalidBotStatus),
		errors.Is(err, entity.ErrUnknownBot):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
