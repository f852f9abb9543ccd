package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PunchlogHQ/punchlog-web/internal/db"
	"github.com/PunchlogHQ/punchlog-web/internal/models"
	"github.com/PunchlogHQ/punchlog-web/internal/testutil"
)

func TestSessionStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := testutil.SetupTestEnvironment(t)
	ctx := context.Background()

	june := func(day, hour int) time.Time {
		return time.Date(2025, 6, day, hour, 0, 0, 0, time.UTC)
	}
	ptr := func(ts time.Time) *time.Time { return &ts }

	t.Run("punch in then out computes duration", func(t *testing.T) {
		env.CleanDB(t)
		user, _ := testutil.CreateTestUser(t, env, "Test User")

		session, err := env.DB.PunchIn(ctx, user.ID, "2025-06-02", june(2, 9), nil)
		if err != nil {
			t.Fatalf("PunchIn() error = %v", err)
		}
		if !session.Active() {
			t.Error("new session should be active")
		}

		closed, err := env.DB.PunchOut(ctx, user.ID, june(2, 17).Add(30*time.Minute))
		if err != nil {
			t.Fatalf("PunchOut() error = %v", err)
		}
		if closed.DurationMinutes != 510 {
			t.Errorf("duration = %d, want 510", closed.DurationMinutes)
		}
		if closed.ID != session.ID {
			t.Errorf("closed a different session: %s vs %s", closed.ID, session.ID)
		}
	})

	t.Run("only one open session per user", func(t *testing.T) {
		env.CleanDB(t)
		user, _ := testutil.CreateTestUser(t, env, "Test User")

		if _, err := env.DB.PunchIn(ctx, user.ID, "2025-06-02", june(2, 9), nil); err != nil {
			t.Fatalf("PunchIn() error = %v", err)
		}
		_, err := env.DB.PunchIn(ctx, user.ID, "2025-06-02", june(2, 10), nil)
		if !errors.Is(err, db.ErrActiveSessionExists) {
			t.Errorf("second PunchIn() error = %v, want ErrActiveSessionExists", err)
		}
	})

	t.Run("punch out with nothing open", func(t *testing.T) {
		env.CleanDB(t)
		user, _ := testutil.CreateTestUser(t, env, "Test User")

		_, err := env.DB.PunchOut(ctx, user.ID, june(2, 17))
		if !errors.Is(err, db.ErrNoActiveSession) {
			t.Errorf("PunchOut() error = %v, want ErrNoActiveSession", err)
		}
	})

	t.Run("negative wall-clock deltas clamp to zero", func(t *testing.T) {
		env.CleanDB(t)
		user, _ := testutil.CreateTestUser(t, env, "Test User")

		if _, err := env.DB.PunchIn(ctx, user.ID, "2025-06-02", june(2, 9), nil); err != nil {
			t.Fatalf("PunchIn() error = %v", err)
		}
		closed, err := env.DB.PunchOut(ctx, user.ID, june(2, 8))
		if err != nil {
			t.Fatalf("PunchOut() error = %v", err)
		}
		if closed.DurationMinutes != 0 {
			t.Errorf("duration = %d, want 0", closed.DurationMinutes)
		}
	})

	t.Run("list sessions for month in descending punch order", func(t *testing.T) {
		env.CleanDB(t)
		user, _ := testutil.CreateTestUser(t, env, "Test User")
		testutil.CreateClosedSession(t, env, user.ID, "2025-06-02", june(2, 9), june(2, 17))
		testutil.CreateClosedSession(t, env, user.ID, "2025-06-05", june(5, 9), june(5, 17))
		testutil.CreateClosedSession(t, env, user.ID, "2025-07-01",
			time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC), time.Date(2025, 7, 1, 17, 0, 0, 0, time.UTC))

		sessions, err := env.DB.ListSessionsForMonth(ctx, user.ID, "2025-06")
		if err != nil {
			t.Fatalf("ListSessionsForMonth() error = %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("got %d sessions, want 2", len(sessions))
		}
		if sessions[0].WorkDate != "2025-06-05" || sessions[1].WorkDate != "2025-06-02" {
			t.Errorf("order = %s, %s; want newest first", sessions[0].WorkDate, sessions[1].WorkDate)
		}
	})

	t.Run("list sessions for range is inclusive and oldest first", func(t *testing.T) {
		env.CleanDB(t)
		user, _ := testutil.CreateTestUser(t, env, "Test User")
		other, _ := testutil.CreateTestUser(t, env, "Other User")
		testutil.CreateClosedSession(t, env, user.ID, "2025-06-01", june(1, 9), june(1, 17))
		testutil.CreateClosedSession(t, env, user.ID, "2025-06-15", june(15, 9), june(15, 17))
		testutil.CreateClosedSession(t, env, user.ID, "2025-06-30", june(30, 9), june(30, 17))
		testutil.CreateClosedSession(t, env, user.ID, "2025-07-01",
			time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC), time.Date(2025, 7, 1, 17, 0, 0, 0, time.UTC))
		testutil.CreateClosedSession(t, env, other.ID, "2025-06-15", june(15, 9), june(15, 17))

		sessions, err := env.DB.ListSessionsForRange(ctx, user.ID, "2025-06-01", "2025-06-30")
		if err != nil {
			t.Fatalf("ListSessionsForRange() error = %v", err)
		}
		if len(sessions) != 3 {
			t.Fatalf("got %d sessions, want 3", len(sessions))
		}
		want := []string{"2025-06-01", "2025-06-15", "2025-06-30"}
		for i, s := range sessions {
			if s.WorkDate != want[i] {
				t.Errorf("sessions[%d].WorkDate = %s, want %s", i, s.WorkDate, want[i])
			}
		}
	})

	t.Run("update recomputes duration and rejects inversions", func(t *testing.T) {
		env.CleanDB(t)
		user, _ := testutil.CreateTestUser(t, env, "Test User")
		sessionID := testutil.CreateClosedSession(t, env, user.ID, "2025-06-02", june(2, 9), june(2, 17))

		updated, err := env.DB.UpdateSession(ctx, user.ID, sessionID, &models.UpdateSessionRequest{
			PunchOut: ptr(june(2, 19)),
		})
		if err != nil {
			t.Fatalf("UpdateSession() error = %v", err)
		}
		if updated.DurationMinutes != 600 {
			t.Errorf("duration = %d, want 600", updated.DurationMinutes)
		}

		_, err = env.DB.UpdateSession(ctx, user.ID, sessionID, &models.UpdateSessionRequest{
			PunchOut: ptr(june(2, 8)),
		})
		if !errors.Is(err, db.ErrPunchOutBeforeIn) {
			t.Errorf("UpdateSession() error = %v, want ErrPunchOutBeforeIn", err)
		}
	})

	t.Run("delete is scoped to the owner", func(t *testing.T) {
		env.CleanDB(t)
		alice, _ := testutil.CreateTestUser(t, env, "Alice")
		bob, _ := testutil.CreateTestUser(t, env, "Bob")
		sessionID := testutil.CreateClosedSession(t, env, alice.ID, "2025-06-02", june(2, 9), june(2, 17))

		if err := env.DB.DeleteSession(ctx, bob.ID, sessionID); !errors.Is(err, db.ErrSessionNotFound) {
			t.Errorf("cross-user DeleteSession() error = %v, want ErrSessionNotFound", err)
		}
		if err := env.DB.DeleteSession(ctx, alice.ID, sessionID); err != nil {
			t.Errorf("owner DeleteSession() error = %v", err)
		}
	})

	t.Run("import skips duplicates and open records", func(t *testing.T) {
		env.CleanDB(t)
		user, _ := testutil.CreateTestUser(t, env, "Test User")
		testutil.CreateClosedSession(t, env, user.ID, "2025-06-02", june(2, 9), june(2, 17))

		imported, skipped, err := env.DB.ImportSessions(ctx, user.ID, []models.ImportSession{
			{WorkDate: "2025-06-02", PunchIn: june(2, 9), PunchOut: ptr(june(2, 17))}, // duplicate
			{WorkDate: "2025-06-03", PunchIn: june(3, 9), PunchOut: ptr(june(3, 17))},
			{WorkDate: "2025-06-04", PunchIn: june(4, 9)}, // open, skipped
		})
		if err != nil {
			t.Fatalf("ImportSessions() error = %v", err)
		}
		if imported != 1 {
			t.Errorf("imported = %d, want 1", imported)
		}
		if skipped != 2 {
			t.Errorf("skipped = %d, want 2", skipped)
		}
	})

	t.Run("import dedupes within a batch on the full timestamp", func(t *testing.T) {
		env.CleanDB(t)
		user, _ := testutil.CreateTestUser(t, env, "Test User")

		imported, skipped, err := env.DB.ImportSessions(ctx, user.ID, []models.ImportSession{
			{WorkDate: "2025-06-02", PunchIn: june(2, 9), PunchOut: ptr(june(2, 17))},
			{WorkDate: "2025-06-02", PunchIn: june(2, 9), PunchOut: ptr(june(2, 17))}, // repeated in batch
			// Half a second later: a distinct record, not a duplicate.
			{WorkDate: "2025-06-02", PunchIn: june(2, 9).Add(500 * time.Millisecond), PunchOut: ptr(june(2, 17))},
		})
		if err != nil {
			t.Fatalf("ImportSessions() error = %v", err)
		}
		if imported != 2 {
			t.Errorf("imported = %d, want 2", imported)
		}
		if skipped != 1 {
			t.Errorf("skipped = %d, want 1", skipped)
		}

		sessions, err := env.DB.ListSessionsForMonth(ctx, user.ID, "2025-06")
		if err != nil {
			t.Fatalf("ListSessionsForMonth() error = %v", err)
		}
		if len(sessions) != 2 {
			t.Errorf("stored %d sessions, want 2", len(sessions))
		}
	})
}
