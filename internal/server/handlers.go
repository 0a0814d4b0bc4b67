package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/roach88/balanza/internal/engine"
	"github.com/roach88/balanza/internal/reminder"
)

type handler struct {
	scheduler Scheduler
	logger    *slog.Logger
}

type reminderRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	TriggerTime time.Time `json:"trigger_time"`
	TaskID      *int64    `json:"task_id,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"owner_id": h.scheduler.OwnerID(),
		"running":  h.scheduler.Running(),
	})
}

func (h *handler) listReminders(w http.ResponseWriter, r *http.Request) {
	reminders := h.scheduler.GetAllReminders(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"reminders": reminders,
		"count":     len(reminders),
	})
}

func (h *handler) addReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errorBody{
				Code:    "request_too_large",
				Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		writeError(w, http.StatusBadRequest, errorBody{Code: "invalid_request", Message: err.Error()})
		return
	}

	rem := reminder.Reminder{
		Title:       req.Title,
		Description: req.Description,
		TriggerTime: req.TriggerTime,
		TaskID:      req.TaskID,
	}
	err := h.scheduler.AddReminder(r.Context(), &rem)

	var verr *reminder.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, rem)
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, errorBody{Code: string(verr.Code), Message: verr.Message, Field: verr.Field})
	case engine.IsPersistenceError(err):
		writeError(w, http.StatusServiceUnavailable, errorBody{Code: "persistence_failed", Message: "reminder could not be saved"})
	default:
		h.logger.Error("add reminder failed", "error", err)
		writeError(w, http.StatusInternalServerError, errorBody{Code: "internal_error", Message: "internal error"})
	}
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.RefreshData(r.Context()); err != nil {
		h.logger.Warn("manual refresh failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, errorBody{Code: "refresh_failed", Message: "store unavailable"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, errorResponse{Error: body})
}
