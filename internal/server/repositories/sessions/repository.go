// Package sessions declares the server-side contract for session records
// created on login.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/jobhub/internal/server/models"
)

// Repository stores insert-only session rows keyed by token hash.
type Repository interface {
	// Create persists a new session. ID, TokenHash and ExpiresAt must be set.
	Create(ctx context.Context, session *models.Session) error

	// FindActive returns the session for userID and tokenHash that has not
	// lapsed as of now, or common.ErrorNotFound.
	FindActive(ctx context.Context, userID, tokenHash string, now time.Time) (*models.Session, error)

	// DeleteExpired removes sessions whose expiry is at or before the given
	// instant and returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
