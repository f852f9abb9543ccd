package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/PunchlogHQ/punchlog-web/internal/api"
	"github.com/PunchlogHQ/punchlog-web/internal/db"
	"github.com/PunchlogHQ/punchlog-web/internal/logger"
	"github.com/PunchlogHQ/punchlog-web/internal/notify"
	"github.com/PunchlogHQ/punchlog-web/internal/ratelimit"
	"github.com/PunchlogHQ/punchlog-web/internal/storage"
)

var version string

func main() {
	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	// Start pprof debug server if enabled (for memory/CPU profiling)
	if os.Getenv("ENABLE_PPROF") == "true" {
		go startPprofServer()
	}

	// Initialize OpenTelemetry. Configured via env vars:
	// OTEL_SERVICE_NAME, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_HEADERS
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		// Non-fatal: continue without tracing if OTEL env vars not set
		logger.Warn("failed to configure OpenTelemetry", "error", err)
	} else {
		defer otelShutdown()
	}

	config := loadConfig()

	// Migrations are run separately via CLI before starting the server:
	// migrate -database "$DATABASE_URL" -path internal/db/migrations up
	database, err := db.Connect(config.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer database.Close()

	// Archive storage is optional; without it the archive endpoints
	// respond 503 and everything else works.
	var store *storage.S3Storage
	if config.S3Enabled {
		store, err = storage.NewS3Storage(config.S3Config)
		if err != nil {
			logger.Fatal("failed to initialize storage", "error", err)
		}
		logger.Info("archive storage configured", "bucket", config.S3Config.BucketName)
	} else {
		logger.Info("archive storage disabled (S3_ENDPOINT not set)")
	}

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	hub := notify.NewHub()
	go hub.Run(hubCtx)

	limiter := ratelimit.NewInMemoryLimiter(config.PunchRPS, config.PunchBurst)
	defer limiter.Stop()

	server := api.NewServer(database, hub, store, limiter, config.AllowedOrigins, version)
	router := server.SetupRoutes()

	// Trace all incoming HTTP requests.
	handler := otelhttp.NewHandler(router, "punchlog-backend")

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", config.Port, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	hubCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

type Config struct {
	Port           int
	DatabaseURL    string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	PunchRPS       float64
	PunchBurst     int
	S3Enabled      bool
	S3Config       storage.S3Config
}

func loadConfig() Config {
	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		fmt.Sscanf(p, "%d", &port)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	readTimeout := 30 * time.Second
	if rt := os.Getenv("HTTP_READ_TIMEOUT"); rt != "" {
		if parsed, err := time.ParseDuration(rt); err == nil {
			readTimeout = parsed
		}
	}

	writeTimeout := 30 * time.Second
	if wt := os.Getenv("HTTP_WRITE_TIMEOUT"); wt != "" {
		if parsed, err := time.ParseDuration(wt); err == nil {
			writeTimeout = parsed
		}
	}

	var origins []string
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	// Punch endpoints: 1 request/sec sustained, small burst for retries.
	punchRPS := 1.0
	if raw := os.Getenv("PUNCH_RATE_LIMIT_RPS"); raw != "" {
		fmt.Sscanf(raw, "%f", &punchRPS)
	}
	punchBurst := 5
	if raw := os.Getenv("PUNCH_RATE_LIMIT_BURST"); raw != "" {
		fmt.Sscanf(raw, "%d", &punchBurst)
	}

	config := Config{
		Port:           port,
		DatabaseURL:    databaseURL,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		AllowedOrigins: origins,
		PunchRPS:       punchRPS,
		PunchBurst:     punchBurst,
	}

	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		bucket := os.Getenv("S3_BUCKET")
		accessKey := os.Getenv("S3_ACCESS_KEY_ID")
		secretKey := os.Getenv("S3_SECRET_ACCESS_KEY")
		if bucket == "" || accessKey == "" || secretKey == "" {
			logger.Fatal("S3_ENDPOINT is set but S3_BUCKET, S3_ACCESS_KEY_ID, or S3_SECRET_ACCESS_KEY is missing")
		}
		config.S3Enabled = true
		config.S3Config = storage.S3Config{
			Endpoint:        endpoint,
			AccessKeyID:     accessKey,
			SecretAccessKey: secretKey,
			BucketName:      bucket,
			UseSSL:          os.Getenv("S3_USE_SSL") != "false",
		}
	}

	return config
}

// startPprofServer runs the pprof debug endpoints on a separate port so
// they are never exposed through the public listener.
func startPprofServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	logger.Info("starting pprof server", "addr", "localhost:6060")
	if err := http.ListenAndServe("localhost:6060", mux); err != nil {
		logger.Error("pprof server failed", "error", err)
	}
}
