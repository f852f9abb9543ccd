// Package auth implements the device-token identity model: there are no
// accounts or passwords, a client generates an opaque token locally and the
// first authenticated request registers it.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PunchlogHQ/punchlog-web/internal/db"
	"github.com/PunchlogHQ/punchlog-web/internal/logger"
)

type contextKey string

const userIDContextKey contextKey = "userID"

// GetUserIDContextKey returns the context key for user ID
func GetUserIDContextKey() contextKey {
	return userIDContextKey
}

// GenerateDeviceToken generates a new random device token with plg_ prefix.
// Returns both the raw token (kept by the client) and the hash (stored in DB).
func GenerateDeviceToken() (string, string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := "plg_" + base64.URLEncoding.EncodeToString(bytes)[:40]
	return rawToken, HashDeviceToken(rawToken), nil
}

// HashDeviceToken hashes a device token for storage and lookup
func HashDeviceToken(rawToken string) string {
	hash := sha256.Sum256([]byte(rawToken))
	return fmt.Sprintf("%x", hash)
}

// Middleware returns an HTTP middleware that resolves device tokens to
// users. Unknown but well-formed tokens register a new user on first use.
func Middleware(database *db.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
				return
			}

			// Expected format: "Bearer <device-token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			rawToken := parts[1]
			if !strings.HasPrefix(rawToken, "plg_") || len(rawToken) < 20 {
				http.Error(w, "Invalid device token", http.StatusUnauthorized)
				return
			}
			tokenHash := HashDeviceToken(rawToken)

			userID, err := database.FindUserByDeviceToken(r.Context(), tokenHash)
			if err != nil {
				if !errors.Is(err, db.ErrDeviceTokenNotFound) {
					http.Error(w, "Authentication failed", http.StatusInternalServerError)
					return
				}
				// First contact from this device: register it.
				user, regErr := database.RegisterDevice(r.Context(), tokenHash, nil)
				if regErr != nil {
					logger.Error("failed to register device", "error", regErr)
					http.Error(w, "Authentication failed", http.StatusInternalServerError)
					return
				}
				userID = user.ID
			}

			// Update last seen timestamp (fire and forget - don't block the request)
			go func() {
				if err := database.TouchDeviceToken(context.Background(), tokenHash); err != nil {
					logger.Warn("failed to touch device token", "error", err)
				}
			}()

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the user ID from request context
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	return userID, ok
}
