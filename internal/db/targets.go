package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/PunchlogHQ/punchlog-web/internal/models"
)

// pgForeignKeyViolation is the PostgreSQL error code for foreign key
// constraint violations.
const pgForeignKeyViolation = "23503"

// GetMonthlyTarget retrieves the target for a YYYY-MM month.
// Returns ErrTargetNotFound when the month has no explicit target.
func (db *DB) GetMonthlyTarget(ctx context.Context, userID int64, month string) (*models.MonthlyTarget, error) {
	query := `
		SELECT user_id, month, target_hours, created_at, updated_at
		FROM monthly_targets
		WHERE user_id = $1 AND month = $2`

	var target models.MonthlyTarget
	var hours string
	err := db.conn.QueryRowContext(ctx, query, userID, month).Scan(
		&target.UserID,
		&target.Month,
		&hours,
		&target.CreatedAt,
		&target.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("failed to get monthly target: %w", err)
	}

	target.TargetHours, err = decimal.NewFromString(hours)
	if err != nil {
		return nil, fmt.Errorf("failed to parse target hours: %w", err)
	}

	return &target, nil
}

// GetMonthlyTargetOrDefault is GetMonthlyTarget with the default target
// substituted when none is set.
func (db *DB) GetMonthlyTargetOrDefault(ctx context.Context, userID int64, month string) (*models.MonthlyTarget, error) {
	target, err := db.GetMonthlyTarget(ctx, userID, month)
	if err == nil {
		return target, nil
	}
	if errors.Is(err, ErrTargetNotFound) {
		return &models.MonthlyTarget{
			UserID:      userID,
			Month:       month,
			TargetHours: models.DefaultTargetHours,
		}, nil
	}
	return nil, err
}

// UpsertMonthlyTarget creates or replaces the target for a month.
// Returns ErrUserNotFound when the user row no longer exists.
func (db *DB) UpsertMonthlyTarget(ctx context.Context, userID int64, month string, hours decimal.Decimal) (*models.MonthlyTarget, error) {
	query := `
		INSERT INTO monthly_targets (user_id, month, target_hours, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id, month)
		DO UPDATE SET target_hours = EXCLUDED.target_hours, updated_at = NOW()
		RETURNING user_id, month, target_hours, created_at, updated_at`

	var target models.MonthlyTarget
	var stored string
	err := db.conn.QueryRowContext(ctx, query, userID, month, hours.String()).Scan(
		&target.UserID,
		&target.Month,
		&stored,
		&target.CreatedAt,
		&target.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to upsert monthly target: %w", err)
	}

	target.TargetHours, err = decimal.NewFromString(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to parse target hours: %w", err)
	}

	return &target, nil
}
