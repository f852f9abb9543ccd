package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/PunchlogHQ/punchlog-web/internal/models"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// sessionColumns is the column list shared by all session queries.
const sessionColumns = `
	id, user_id, to_char(work_date, 'YYYY-MM-DD'), punch_in, punch_out,
	duration_minutes, note, created_at, updated_at`

func scanSession(row interface {
	Scan(dest ...interface{}) error
}) (*models.Session, error) {
	var s models.Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.WorkDate,
		&s.PunchIn,
		&s.PunchOut,
		&s.DurationMinutes,
		&s.Note,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// PunchIn opens a new session for the given work date. The partial unique
// index on (user_id) WHERE punch_out IS NULL guarantees at most one open
// session per user; a violation maps to ErrActiveSessionExists.
func (db *DB) PunchIn(ctx context.Context, userID int64, workDate string, punchIn time.Time, note *string) (*models.Session, error) {
	query := `
		INSERT INTO sessions (id, user_id, work_date, punch_in, note, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4, $5, NOW(), NOW())
		RETURNING ` + sessionColumns

	session, err := scanSession(db.conn.QueryRowContext(ctx, query,
		uuid.New().String(), userID, workDate, punchIn, note))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrActiveSessionExists
		}
		return nil, fmt.Errorf("failed to punch in: %w", err)
	}

	return session, nil
}

// PunchOut closes the user's open session at the given time. Duration is
// computed in SQL so it stays consistent with the stored timestamps.
func (db *DB) PunchOut(ctx context.Context, userID int64, punchOut time.Time) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET punch_out = $2,
		    duration_minutes = GREATEST(0, ROUND(EXTRACT(EPOCH FROM ($2 - punch_in)) / 60))::int,
		    updated_at = NOW()
		WHERE user_id = $1 AND punch_out IS NULL
		RETURNING ` + sessionColumns

	session, err := scanSession(db.conn.QueryRowContext(ctx, query, userID, punchOut))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("failed to punch out: %w", err)
	}

	return session, nil
}

// GetActiveSession returns the user's open session, or ErrNoActiveSession.
func (db *DB) GetActiveSession(ctx context.Context, userID int64) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1 AND punch_out IS NULL`

	session, err := scanSession(db.conn.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}

	return session, nil
}

// GetSession retrieves one session owned by the user.
func (db *DB) GetSession(ctx context.Context, userID int64, sessionID string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 AND user_id = $2`

	session, err := scanSession(db.conn.QueryRowContext(ctx, query, sessionID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// ListSessionsForMonth returns the user's sessions for a YYYY-MM month,
// newest first.
func (db *DB) ListSessionsForMonth(ctx context.Context, userID int64, month string) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1 AND to_char(work_date, 'YYYY-MM') = $2
		ORDER BY work_date DESC, punch_in DESC`

	return db.listSessions(ctx, query, userID, month)
}

// ListSessionsForRange returns the user's sessions with work dates in
// [from, to] inclusive (YYYY-MM-DD), oldest first. CSV export reads
// through this so rows come out in chronological order.
func (db *DB) ListSessionsForRange(ctx context.Context, userID int64, from, to string) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1 AND work_date >= $2::date AND work_date <= $3::date
		ORDER BY work_date ASC, punch_in ASC`

	return db.listSessions(ctx, query, userID, from, to)
}

func (db *DB) listSessions(ctx context.Context, query string, args ...interface{}) ([]models.Session, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

// UpdateSession edits a session's punch times and note. Duration is
// recomputed from the resulting timestamps. Rejects punch_out <= punch_in.
func (db *DB) UpdateSession(ctx context.Context, userID int64, sessionID string, req *models.UpdateSessionRequest) (*models.Session, error) {
	current, err := db.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	punchIn := current.PunchIn
	if req.PunchIn != nil {
		punchIn = *req.PunchIn
	}
	punchOut := current.PunchOut
	if req.PunchOut != nil {
		punchOut = req.PunchOut
	}
	note := current.Note
	if req.Note != nil {
		note = req.Note
	}

	if punchOut != nil && !punchOut.After(punchIn) {
		return nil, ErrPunchOutBeforeIn
	}

	query := `
		UPDATE sessions
		SET punch_in = $3,
		    punch_out = $4,
		    duration_minutes = CASE
		        WHEN $4::timestamptz IS NULL THEN 0
		        ELSE GREATEST(0, ROUND(EXTRACT(EPOCH FROM ($4::timestamptz - $3::timestamptz)) / 60))::int
		    END,
		    note = $5,
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + sessionColumns

	session, err := scanSession(db.conn.QueryRowContext(ctx, query, sessionID, userID, punchIn, punchOut, note))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return session, nil
}

// DeleteSession removes one session owned by the user.
func (db *DB) DeleteSession(ctx context.Context, userID int64, sessionID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// ImportSessions bulk-inserts closed sessions, skipping records whose
// punch-in timestamp already exists for the user or appeared earlier in
// the same batch (re-imports are common when a client replays its
// local log).
func (db *DB) ImportSessions(ctx context.Context, userID int64, records []models.ImportSession) (imported, skipped int, err error) {
	if len(records) == 0 {
		return 0, 0, nil
	}

	punchIns := make([]time.Time, len(records))
	for i, rec := range records {
		punchIns[i] = rec.PunchIn
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT punch_in FROM sessions WHERE user_id = $1 AND punch_in = ANY($2)`,
		userID, pq.Array(punchIns))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to check existing sessions: %w", err)
	}
	// Seen punch-ins are keyed on the full timestamp so records a
	// fraction of a second apart stay distinct.
	seen := make(map[int64]bool)
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("failed to scan existing punch-in: %w", err)
		}
		seen[t.UnixNano()] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("failed to iterate existing punch-ins: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO sessions (id, user_id, work_date, punch_in, punch_out, duration_minutes, note, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4, $5,
		        CASE WHEN $5::timestamptz IS NULL THEN 0
		             ELSE GREATEST(0, ROUND(EXTRACT(EPOCH FROM ($5::timestamptz - $4::timestamptz)) / 60))::int END,
		        $6, NOW(), NOW())`

	for _, rec := range records {
		if seen[rec.PunchIn.UnixNano()] {
			skipped++
			continue
		}
		// Open records are not importable; a replayed log only carries
		// closed intervals.
		if rec.PunchOut == nil {
			skipped++
			continue
		}
		if _, err := tx.ExecContext(ctx, insert,
			uuid.New().String(), userID, rec.WorkDate, rec.PunchIn, rec.PunchOut, rec.Note); err != nil {
			return 0, 0, fmt.Errorf("failed to import session: %w", err)
		}
		// A batch can repeat a record; only the first copy inserts.
		seen[rec.PunchIn.UnixNano()] = true
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit import: %w", err)
	}

	return imported, skipped, nil
}
