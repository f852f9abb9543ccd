package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/PunchlogHQ/punchlog-web/internal/models"
)

// DB wraps a PostgreSQL database connection
type DB struct {
	conn *sql.DB
}

// Connect establishes a connection to PostgreSQL
func Connect(dsn string) (*DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool. Single-tenant personal deployments see low
	// concurrency; these limits mainly guard against connection leaks.
	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(20 * time.Minute)

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Exec executes a query without returning rows (for testing/migrations)
func (db *DB) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.conn.ExecContext(ctx, query, args...)
}

// QueryRow executes a query that returns at most one row (for testing)
func (db *DB) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRowContext(ctx, query, args...)
}

// Conn returns the underlying *sql.DB connection.
// Used by testutil to run migrations in tests, and by the analytics store.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// GetUserByID retrieves a user by ID
func (db *DB) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT id, display_name, created_at, updated_at FROM users WHERE id = $1`

	var user models.User
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.DisplayName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// FindUserByDeviceToken resolves a device token hash to its user ID.
func (db *DB) FindUserByDeviceToken(ctx context.Context, tokenHash string) (int64, error) {
	query := `SELECT user_id FROM device_tokens WHERE token_hash = $1`

	var userID int64
	err := db.conn.QueryRowContext(ctx, query, tokenHash).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrDeviceTokenNotFound
		}
		return 0, fmt.Errorf("failed to look up device token: %w", err)
	}

	return userID, nil
}

// RegisterDevice creates a user and binds a device token to it in one
// transaction. Called on first contact from a fresh device.
func (db *DB) RegisterDevice(ctx context.Context, tokenHash string, displayName *string) (*models.User, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var user models.User
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (display_name, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING id, display_name, created_at, updated_at
	`, displayName).Scan(&user.ID, &user.DisplayName, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO device_tokens (user_id, token_hash, created_at)
		VALUES ($1, $2, NOW())
	`, user.ID, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to store device token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit device registration: %w", err)
	}

	return &user, nil
}

// TouchDeviceToken updates the last_seen_at timestamp for a device token
func (db *DB) TouchDeviceToken(ctx context.Context, tokenHash string) error {
	query := `UPDATE device_tokens SET last_seen_at = NOW() WHERE token_hash = $1`
	_, err := db.conn.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to touch device token: %w", err)
	}
	return nil
}
