package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a punchlog user. Identity is device-token based: the first
// request with a fresh token registers the user, there is no account flow.
type User struct {
	ID          int64     `json:"id"`
	DisplayName *string   `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Session represents one punch-in/punch-out interval. PunchOut is nil while
// the session is still open; DurationMinutes is 0 until punch-out.
type Session struct {
	ID              string     `json:"id"`
	UserID          int64      `json:"user_id"`
	WorkDate        string     `json:"work_date"` // YYYY-MM-DD, the day this session belongs to
	PunchIn         time.Time  `json:"punch_in"`
	PunchOut        *time.Time `json:"punch_out,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Note            *string    `json:"note,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Active reports whether the session is still open.
func (s *Session) Active() bool {
	return s.PunchOut == nil
}

// MonthlyTarget is the hour target for one user-month.
type MonthlyTarget struct {
	UserID      int64           `json:"user_id"`
	Month       string          `json:"month"` // YYYY-MM
	TargetHours decimal.Decimal `json:"target_hours"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DefaultTargetHours is used when a month has no explicit target.
var DefaultTargetHours = decimal.NewFromInt(160)

// PunchInRequest is the API request body for starting a session.
type PunchInRequest struct {
	// WorkDate is the caller's local date. Required because the server's
	// calendar day may differ from the client's.
	WorkDate string  `json:"work_date"`
	Note     *string `json:"note,omitempty"`
}

// PunchOutResponse is returned when a session is closed.
type PunchOutResponse struct {
	Session         *Session `json:"session"`
	DurationMinutes int      `json:"duration_minutes"`
}

// UpdateSessionRequest is the API request for editing a session.
// Nil fields are left unchanged; duration is recomputed server-side.
type UpdateSessionRequest struct {
	PunchIn  *time.Time `json:"punch_in,omitempty"`
	PunchOut *time.Time `json:"punch_out,omitempty"`
	Note     *string    `json:"note,omitempty"`
}

// ImportSessionsRequest is the API request for bulk session import.
type ImportSessionsRequest struct {
	Sessions []ImportSession `json:"sessions"`
}

// ImportSession is one record in a bulk import payload.
type ImportSession struct {
	WorkDate string     `json:"work_date"`
	PunchIn  time.Time  `json:"punch_in"`
	PunchOut *time.Time `json:"punch_out,omitempty"`
	Note     *string    `json:"note,omitempty"`
}

// ImportSessionsResponse reports how many records were written.
type ImportSessionsResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// SetTargetRequest is the API request for setting a monthly target.
type SetTargetRequest struct {
	TargetHours decimal.Decimal `json:"target_hours"`
}
