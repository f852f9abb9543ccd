package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/PunchlogHQ/punchlog-web/internal/auth"
	"github.com/PunchlogHQ/punchlog-web/internal/models"
)

// AuthenticatedRequest creates an HTTP request with user authentication context
func AuthenticatedRequest(t *testing.T, method, url string, body interface{}, userID int64) *http.Request {
	t.Helper()

	var bodyReader *bytes.Reader
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyJSON)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	// Add user ID to context (simulating auth middleware)
	ctx := context.WithValue(req.Context(), auth.GetUserIDContextKey(), userID)
	return req.WithContext(ctx)
}

// ParseJSONResponse decodes JSON response body into v
func ParseJSONResponse(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, w.Body.String())
	}
}

// AssertStatus checks HTTP status code matches expected
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()

	if w.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertErrorResponse checks error response format and message
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedMessage string) {
	t.Helper()

	AssertStatus(t, w, expectedStatus)

	var resp map[string]string
	ParseJSONResponse(t, w, &resp)

	if resp["error"] != expectedMessage {
		t.Errorf("expected error message %q, got %q", expectedMessage, resp["error"])
	}
}

// CreateTestUser creates a user with a registered device token. It
// returns the user and the raw bearer token for requests that go
// through the real auth middleware.
func CreateTestUser(t *testing.T, env *TestEnvironment, displayName string) (*models.User, string) {
	t.Helper()

	var user models.User
	user.DisplayName = &displayName
	row := env.DB.QueryRow(env.Ctx, `
		INSERT INTO users (display_name, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, displayName)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	rawToken, tokenHash, err := auth.GenerateDeviceToken()
	if err != nil {
		t.Fatalf("failed to generate device token: %v", err)
	}

	if _, err := env.DB.Exec(env.Ctx, `
		INSERT INTO device_tokens (user_id, token_hash, created_at)
		VALUES ($1, $2, NOW())
	`, user.ID, tokenHash); err != nil {
		t.Fatalf("failed to create test device token: %v", err)
	}

	return &user, rawToken
}

// CreateClosedSession inserts a closed session with explicit punch times.
// Duration is derived from the times, matching production writes.
func CreateClosedSession(t *testing.T, env *TestEnvironment, userID int64, workDate string, punchIn, punchOut time.Time) string {
	t.Helper()

	sessionID := uuid.New().String()
	duration := int(punchOut.Sub(punchIn).Minutes())
	if duration < 0 {
		t.Fatalf("punch_out %v before punch_in %v", punchOut, punchIn)
	}

	if _, err := env.DB.Exec(env.Ctx, `
		INSERT INTO sessions (id, user_id, work_date, punch_in, punch_out, duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sessionID, userID, workDate, punchIn, punchOut, duration); err != nil {
		t.Fatalf("failed to create test session: %v", err)
	}

	return sessionID
}

// CreateOpenSession inserts a session with no punch-out.
func CreateOpenSession(t *testing.T, env *TestEnvironment, userID int64, workDate string, punchIn time.Time) string {
	t.Helper()

	sessionID := uuid.New().String()
	if _, err := env.DB.Exec(env.Ctx, `
		INSERT INTO sessions (id, user_id, work_date, punch_in)
		VALUES ($1, $2, $3, $4)
	`, sessionID, userID, workDate, punchIn); err != nil {
		t.Fatalf("failed to create open test session: %v", err)
	}

	return sessionID
}
