package validation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxImportBatchSize caps a single bulk-import request.
const MaxImportBatchSize = 1000

// MaxNoteLength caps a session note.
const MaxNoteLength = 500

// ValidateWorkDate validates a YYYY-MM-DD work date from request input.
// The fixed-width zero-padded format matters: date keys are compared
// lexicographically downstream.
func ValidateWorkDate(date string) error {
	if date == "" {
		return fmt.Errorf("work_date is required")
	}
	if len(date) != 10 {
		return fmt.Errorf("work_date must be YYYY-MM-DD")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("work_date must be a valid YYYY-MM-DD date")
	}
	return nil
}

// ValidateMonth validates a YYYY-MM month from URL or query parameters.
func ValidateMonth(month string) error {
	if month == "" {
		return fmt.Errorf("month is required")
	}
	if len(month) != 7 {
		return fmt.Errorf("month must be YYYY-MM")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return fmt.Errorf("month must be a valid YYYY-MM month")
	}
	return nil
}

// ValidateSessionID validates a session ID from URL parameters.
// Session IDs are UUIDs.
func ValidateSessionID(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return fmt.Errorf("session id must be a valid UUID")
	}
	return nil
}

// ValidateNote validates an optional session note.
func ValidateNote(note *string) error {
	if note == nil {
		return nil
	}
	if len(*note) > MaxNoteLength {
		return fmt.Errorf("note must be at most %d characters", MaxNoteLength)
	}
	return nil
}
