package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PunchlogHQ/punchlog-web/internal/auth"
	"github.com/PunchlogHQ/punchlog-web/internal/db"
	"github.com/PunchlogHQ/punchlog-web/internal/logger"
	"github.com/PunchlogHQ/punchlog-web/internal/models"
	"github.com/PunchlogHQ/punchlog-web/internal/notify"
	"github.com/PunchlogHQ/punchlog-web/internal/validation"
)

// handlePunchIn opens a session for the authenticated user. At most one
// session can be open at a time.
func (s *Server) handlePunchIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.PunchInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validation.ValidateWorkDate(req.WorkDate); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateNote(req.Note); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	session, err := s.db.PunchIn(ctx, userID, req.WorkDate, time.Now().UTC(), req.Note)
	if err != nil {
		if errors.Is(err, db.ErrActiveSessionExists) {
			respondError(w, http.StatusConflict, "A session is already open")
			return
		}
		logger.Ctx(r.Context()).Error("failed to punch in", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "Failed to punch in")
		return
	}

	s.hub.Publish(userID, notify.Event{
		Type:      notify.EventSessionChanged,
		Action:    "created",
		SessionID: session.ID,
		WorkDate:  session.WorkDate,
	})

	respondJSON(w, http.StatusCreated, session)
}

// handlePunchOut closes the open session and reports its duration.
func (s *Server) handlePunchOut(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	session, err := s.db.PunchOut(ctx, userID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, db.ErrNoActiveSession) {
			respondError(w, http.StatusConflict, "No open session to close")
			return
		}
		logger.Ctx(r.Context()).Error("failed to punch out", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "Failed to punch out")
		return
	}

	s.hub.Publish(userID, notify.Event{
		Type:      notify.EventSessionChanged,
		Action:    "updated",
		SessionID: session.ID,
		WorkDate:  session.WorkDate,
	})

	respondJSON(w, http.StatusOK, models.PunchOutResponse{
		Session:         session,
		DurationMinutes: session.DurationMinutes,
	})
}

// handleListSessions lists the user's sessions for a month.
// Query parameters:
//   - month: YYYY-MM (defaults to the current UTC month)
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}
	if err := validation.ValidateMonth(month); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	sessions, err := s.db.ListSessionsForMonth(ctx, userID, month)
	if err != nil {
		logger.Ctx(r.Context()).Error("failed to list sessions", "error", err, "user_id", userID, "month", month)
		respondError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	if sessions == nil {
		sessions = []models.Session{}
	}
	respondJSON(w, http.StatusOK, sessions)
}

// handleGetActiveSession returns the open session, or 404 if none.
func (s *Server) handleGetActiveSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	session, err := s.db.GetActiveSession(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNoActiveSession) {
			respondError(w, http.StatusNotFound, "No open session")
			return
		}
		logger.Ctx(r.Context()).Error("failed to get active session", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "Failed to get active session")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// handleUpdateSession edits a session's punch times or note. Duration is
// recomputed server-side; punch_out before punch_in is rejected.
func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if err := validation.ValidateSessionID(sessionID); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.ValidateNote(req.Note); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	session, err := s.db.UpdateSession(ctx, userID, sessionID, &req)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, db.ErrPunchOutBeforeIn):
			respondError(w, http.StatusBadRequest, "punch_out must be after punch_in")
		default:
			logger.Ctx(r.Context()).Error("failed to update session", "error", err, "user_id", userID, "session_id", sessionID)
			respondError(w, http.StatusInternalServerError, "Failed to update session")
		}
		return
	}

	s.hub.Publish(userID, notify.Event{
		Type:      notify.EventSessionChanged,
		Action:    "updated",
		SessionID: session.ID,
		WorkDate:  session.WorkDate,
	})

	respondJSON(w, http.StatusOK, session)
}

// handleDeleteSession removes a session.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if err := validation.ValidateSessionID(sessionID); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	if err := s.db.DeleteSession(ctx, userID, sessionID); err != nil {
		if errors.Is(err, db.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "Session not found")
			return
		}
		logger.Ctx(r.Context()).Error("failed to delete session", "error", err, "user_id", userID, "session_id", sessionID)
		respondError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	s.hub.Publish(userID, notify.Event{
		Type:      notify.EventSessionChanged,
		Action:    "deleted",
		SessionID: sessionID,
	})

	w.WriteHeader(http.StatusNoContent)
}

// handleImportSessions bulk-loads closed sessions, deduplicating on
// punch-in timestamp. The body may be zstd-compressed.
func (s *Server) handleImportSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.ImportSessionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Sessions) == 0 {
		respondError(w, http.StatusBadRequest, "No sessions to import")
		return
	}
	if len(req.Sessions) > validation.MaxImportBatchSize {
		respondError(w, http.StatusRequestEntityTooLarge, "Import batch too large")
		return
	}
	for i := range req.Sessions {
		rec := &req.Sessions[i]
		if err := validation.ValidateWorkDate(rec.WorkDate); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if rec.PunchOut != nil && rec.PunchOut.Before(rec.PunchIn) {
			respondError(w, http.StatusBadRequest, "punch_out must be after punch_in")
			return
		}
		if err := validation.ValidateNote(rec.Note); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	// Imports can be large; give them a longer budget than single-row ops.
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	imported, skipped, err := s.db.ImportSessions(ctx, userID, req.Sessions)
	if err != nil {
		logger.Ctx(r.Context()).Error("failed to import sessions", "error", err, "user_id", userID, "count", len(req.Sessions))
		respondError(w, http.StatusInternalServerError, "Failed to import sessions")
		return
	}

	logger.Ctx(r.Context()).Info("sessions imported", "user_id", userID, "imported", imported, "skipped", skipped)

	if imported > 0 {
		s.hub.Publish(userID, notify.Event{
			Type:   notify.EventSessionChanged,
			Action: "created",
		})
	}

	respondJSON(w, http.StatusOK, models.ImportSessionsResponse{
		Imported: imported,
		Skipped:  skipped,
	})
}
