package api

import (
	"context"
	"testing"

	"github.com/PunchlogHQ/punchlog-web/internal/notify"
	"github.com/PunchlogHQ/punchlog-web/internal/ratelimit"
	"github.com/PunchlogHQ/punchlog-web/internal/testutil"
)

// setupTestServerWithEnv builds a full server around the environment's
// database and starts it on a random port. Archive storage is attached
// only when the environment has one.
func setupTestServerWithEnv(t *testing.T, env *testutil.TestEnvironment) *testutil.TestServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := notify.NewHub()
	go hub.Run(ctx)

	// Generous limits so only the rate-limit tests hit them.
	limiter := ratelimit.NewInMemoryLimiter(100, 100)
	t.Cleanup(limiter.Stop)

	server := NewServer(env.DB, hub, env.Storage, limiter, nil, "test")
	return testutil.StartTestServer(t, env, server.SetupRoutes())
}
