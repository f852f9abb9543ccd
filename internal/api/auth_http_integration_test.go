package api

import (
	"net/http"
	"testing"

	"github.com/PunchlogHQ/punchlog-web/internal/auth"
	"github.com/PunchlogHQ/punchlog-web/internal/models"
	"github.com/PunchlogHQ/punchlog-web/internal/testutil"
)

func TestDeviceAuth_HTTP_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping HTTP integration test in short mode")
	}

	env := testutil.SetupTestEnvironment(t)

	t.Run("fresh token registers a user on first request", func(t *testing.T) {
		env.CleanDB(t)

		rawToken, _, err := auth.GenerateDeviceToken()
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		ts := setupTestServerWithEnv(t, env)
		client := testutil.NewTestClient(t, ts).WithToken(rawToken)

		resp, err := client.Get("/api/v1/me")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		testutil.RequireStatus(t, resp, http.StatusOK)

		var user models.User
		testutil.ParseJSON(t, resp, &user)
		if user.ID == 0 {
			t.Error("expected a registered user id")
		}

		// The same token maps to the same user on later requests.
		resp2, err := client.Get("/api/v1/me")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp2.Body.Close()
		testutil.RequireStatus(t, resp2, http.StatusOK)

		var again models.User
		testutil.ParseJSON(t, resp2, &again)
		if again.ID != user.ID {
			t.Errorf("token resolved to user %d, then %d", user.ID, again.ID)
		}
	})

	t.Run("rejects malformed tokens", func(t *testing.T) {
		env.CleanDB(t)

		ts := setupTestServerWithEnv(t, env)

		for _, token := range []string{"not-a-token", "Bearer", "sk_123456"} {
			client := testutil.NewTestClient(t, ts).WithToken(token)
			resp, err := client.Get("/api/v1/me")
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("token %q: status = %d, want 401", token, resp.StatusCode)
			}
		}
	})
}
