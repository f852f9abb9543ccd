package db

import "errors"

// Sentinel errors for type-safe error checking
// Use errors.Is() instead of string comparison
var (
	// Session errors
	ErrSessionNotFound      = errors.New("session not found")
	ErrActiveSessionExists  = errors.New("an active session already exists")
	ErrNoActiveSession      = errors.New("no active session")
	ErrPunchOutBeforeIn     = errors.New("punch out must be after punch in")

	// Target errors
	ErrTargetNotFound = errors.New("monthly target not found")

	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Device token errors
	ErrDeviceTokenNotFound = errors.New("device token not found")
)
