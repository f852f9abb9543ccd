package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/PunchlogHQ/punchlog-web/internal/analytics"
	"github.com/PunchlogHQ/punchlog-web/internal/auth"
	"github.com/PunchlogHQ/punchlog-web/internal/db"
	"github.com/PunchlogHQ/punchlog-web/internal/logger"
	"github.com/PunchlogHQ/punchlog-web/internal/notify"
	"github.com/PunchlogHQ/punchlog-web/internal/ratelimit"
	"github.com/PunchlogHQ/punchlog-web/internal/storage"
)

// DatabaseTimeout bounds every per-request database operation.
const DatabaseTimeout = 5 * time.Second

// MaxRequestBodySize caps request bodies. Import payloads are the largest
// thing we accept; 10MB is far above a year of sessions.
const MaxRequestBodySize = 10 << 20

// Server holds dependencies for API handlers
type Server struct {
	db        *db.DB
	analytics *analytics.Store
	hub       *notify.Hub
	storage   *storage.S3Storage // nil when archive storage is not configured
	limiter   ratelimit.Limiter
	origins   []string
	version   string
}

// NewServer creates a new API server. store may be nil, in which case the
// archive endpoints respond 503.
func NewServer(database *db.DB, hub *notify.Hub, store *storage.S3Storage, limiter ratelimit.Limiter, allowedOrigins []string, version string) *Server {
	return &Server{
		db:        database,
		analytics: analytics.NewStore(database),
		hub:       hub,
		storage:   store,
		limiter:   limiter,
		origins:   allowedOrigins,
		version:   version,
	}
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)

	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Encoding"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleRoot)

	// API v1 routes, all behind device-token auth
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(s.db))
		r.Use(maxBodySize(MaxRequestBodySize))

		r.Get("/me", s.handleGetMe)

		// Punch operations are rate limited: a client stuck in a retry
		// loop must not fill the session log.
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(s.limiter))
			r.Post("/punch/in", s.handlePunchIn)
			r.Post("/punch/out", s.handlePunchOut)
		})

		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/active", s.handleGetActiveSession)
		r.With(decompressMiddleware()).Post("/sessions/import", s.handleImportSessions)
		r.Patch("/sessions/{sessionID}", s.handleUpdateSession)
		r.Delete("/sessions/{sessionID}", s.handleDeleteSession)

		r.Get("/targets/{month}", s.handleGetTarget)
		r.Put("/targets/{month}", s.handleSetTarget)

		r.Get("/analytics/dashboard", s.handleDashboard)

		r.Get("/export", s.handleExportCSV)
		r.Post("/export/archive", s.handleArchiveExport)
		r.Get("/export/archives", s.handleListArchives)

		r.Get("/events", s.handleEvents)
	})

	return r
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleRoot returns API info
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "punchlog-backend",
		"version": s.version,
	})
}

// maxBodySize rejects request bodies larger than limit.
func maxBodySize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
