package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/PunchlogHQ/punchlog-web/internal/auth"
	"github.com/PunchlogHQ/punchlog-web/internal/db"
	"github.com/PunchlogHQ/punchlog-web/internal/logger"
	"github.com/PunchlogHQ/punchlog-web/internal/models"
	"github.com/PunchlogHQ/punchlog-web/internal/notify"
	"github.com/PunchlogHQ/punchlog-web/internal/validation"
)

// maxTargetHours bounds a monthly target. 744 is every hour of a 31-day
// month; anything above is a client bug.
var maxTargetHours = decimal.NewFromInt(744)

// handleGetTarget returns the hour target for a month, falling back to
// the default when none is set.
func (s *Server) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	month := chi.URLParam(r, "month")
	if err := validation.ValidateMonth(month); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	target, err := s.db.GetMonthlyTargetOrDefault(ctx, userID, month)
	if err != nil {
		logger.Ctx(r.Context()).Error("failed to get target", "error", err, "user_id", userID, "month", month)
		respondError(w, http.StatusInternalServerError, "Failed to get target")
		return
	}

	respondJSON(w, http.StatusOK, target)
}

// handleSetTarget creates or replaces the hour target for a month.
func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	month := chi.URLParam(r, "month")
	if err := validation.ValidateMonth(month); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.SetTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.TargetHours.LessThanOrEqual(decimal.Zero) {
		respondError(w, http.StatusBadRequest, "target_hours must be positive")
		return
	}
	if req.TargetHours.GreaterThan(maxTargetHours) {
		respondError(w, http.StatusBadRequest, "target_hours is too large")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	target, err := s.db.UpsertMonthlyTarget(ctx, userID, month, req.TargetHours)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		logger.Ctx(r.Context()).Error("failed to set target", "error", err, "user_id", userID, "month", month)
		respondError(w, http.StatusInternalServerError, "Failed to set target")
		return
	}

	s.hub.Publish(userID, notify.Event{
		Type:  notify.EventTargetChanged,
		Month: month,
	})

	respondJSON(w, http.StatusOK, target)
}
