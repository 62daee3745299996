// Package users declares and implements the user store consumed by the
// credential service.
package users

import (
	"context"

	"github.com/dmitrijs2005/jobhub/internal/server/models"
)

type Repository interface {
	// Create inserts user. A duplicate email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetByEmail is an exact, case-sensitive lookup; common.ErrorNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
