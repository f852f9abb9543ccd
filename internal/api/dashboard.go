package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/PunchlogHQ/punchlog-web/internal/analytics"
	"github.com/PunchlogHQ/punchlog-web/internal/auth"
	"github.com/PunchlogHQ/punchlog-web/internal/logger"
	"github.com/PunchlogHQ/punchlog-web/internal/validation"
)

// tzOffsetBound is the widest real UTC offset in minutes (UTC-12..UTC+14).
const tzOffsetBound = 14 * 60

// handleDashboard computes the analytics dashboard for a month.
// Query parameters:
//   - month: YYYY-MM (defaults to the current month in the client zone)
//   - tz_offset: client offset in minutes, as JS Date.getTimezoneOffset()
//     reports it (positive when behind UTC)
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	month := r.URL.Query().Get("month")
	if month != "" {
		if err := validation.ValidateMonth(month); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	tzOffset := 0
	if raw := r.URL.Query().Get("tz_offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < -tzOffsetBound || parsed > tzOffsetBound {
			respondError(w, http.StatusBadRequest, "Invalid tz_offset")
			return
		}
		tzOffset = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	dashboard, err := s.analytics.GetDashboard(ctx, userID, analytics.DashboardRequest{
		Month:    month,
		TZOffset: tzOffset,
	})
	if err != nil {
		logger.Ctx(r.Context()).Error("failed to compute dashboard", "error", err, "user_id", userID, "month", month)
		respondError(w, http.StatusInternalServerError, "Failed to compute dashboard")
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}
