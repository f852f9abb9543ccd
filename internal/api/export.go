package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/PunchlogHQ/punchlog-web/internal/auth"
	"github.com/PunchlogHQ/punchlog-web/internal/export"
	"github.com/PunchlogHQ/punchlog-web/internal/logger"
	"github.com/PunchlogHQ/punchlog-web/internal/validation"
)

// monthBounds returns the first and last work date of a YYYY-MM month.
// The month is validated before this is called.
func monthBounds(month string) (from, to string) {
	first, _ := time.Parse("2006-01", month)
	return first.Format("2006-01-02"), first.AddDate(0, 1, -1).Format("2006-01-02")
}

// handleExportCSV streams a month's sessions as a CSV download.
// Rows are ordered oldest first, the way a person reads a timesheet.
// Query parameters:
//   - month: YYYY-MM (defaults to the current UTC month)
//   - tz_offset: client offset in minutes, JS convention; timestamps in
//     the file are rendered in that zone
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
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

	loc := time.UTC
	if raw := r.URL.Query().Get("tz_offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < -tzOffsetBound || parsed > tzOffsetBound {
			respondError(w, http.StatusBadRequest, "Invalid tz_offset")
			return
		}
		loc = time.FixedZone("client", -parsed*60)
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	from, to := monthBounds(month)
	sessions, err := s.db.ListSessionsForRange(ctx, userID, from, to)
	if err != nil {
		logger.Ctx(r.Context()).Error("failed to load sessions for export", "error", err, "user_id", userID, "month", month)
		respondError(w, http.StatusInternalServerError, "Failed to export sessions")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", month+".csv"))
	if err := export.WriteSessionsCSV(w, sessions, loc); err != nil {
		// Headers are already out; all we can do is log.
		logger.Ctx(r.Context()).Error("failed to write export", "error", err, "user_id", userID, "month", month)
	}
}

// handleArchiveExport renders a month's CSV and stores it in object
// storage, returning a time-limited download link.
func (s *Server) handleArchiveExport(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if s.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "Archive storage is not configured")
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

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	from, to := monthBounds(month)
	sessions, err := s.db.ListSessionsForRange(ctx, userID, from, to)
	if err != nil {
		logger.Ctx(r.Context()).Error("failed to load sessions for archive", "error", err, "user_id", userID, "month", month)
		respondError(w, http.StatusInternalServerError, "Failed to archive export")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteSessionsCSV(&buf, sessions, time.UTC); err != nil {
		logger.Ctx(r.Context()).Error("failed to render archive", "error", err, "user_id", userID, "month", month)
		respondError(w, http.StatusInternalServerError, "Failed to archive export")
		return
	}

	key := export.FileName(userID, month)
	if err := s.storage.UploadExport(ctx, key, buf.Bytes()); err != nil {
		logger.Ctx(r.Context()).Error("failed to upload archive", "error", err, "user_id", userID, "key", key)
		respondError(w, http.StatusInternalServerError, "Failed to archive export")
		return
	}

	url, err := s.storage.PresignedExportURL(ctx, key)
	if err != nil {
		logger.Ctx(r.Context()).Error("failed to presign archive", "error", err, "user_id", userID, "key", key)
		respondError(w, http.StatusInternalServerError, "Failed to archive export")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"key":           key,
		"download_url":  url,
		"session_count": len(sessions),
	})
}

// handleListArchives lists the user's stored export archives.
func (s *Server) handleListArchives(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if s.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "Archive storage is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	keys, err := s.storage.ListExports(ctx, userID)
	if err != nil {
		logger.Ctx(r.Context()).Error("failed to list archives", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "Failed to list archives")
		return
	}

	if keys == nil {
		keys = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"archives": keys,
	})
}
