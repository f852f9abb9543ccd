package api

import (
	"net/http"

	"github.com/PunchlogHQ/punchlog-web/internal/auth"
	"github.com/PunchlogHQ/punchlog-web/internal/logger"
	"github.com/PunchlogHQ/punchlog-web/internal/notify"
)

// handleEvents upgrades to a WebSocket carrying the user's change
// events. The connection stays open until the client leaves.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := notify.ServeWS(r.Context(), s.hub, w, r, userID); err != nil {
		// Upgrade failed before any frames were exchanged; the upgrader
		// already wrote an HTTP error.
		logger.Ctx(r.Context()).Warn("websocket upgrade failed", "error", err, "user_id", userID)
	}
}
