package users

import (
	"context"

	"github.com/dmitrijs2005/pms/internal/server/models"
)

// Repository is the credential store: it loads principals by id or login
// email and updates their password hash and status.
type Repository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SetPassword(ctx context.Context, id string, hash string) error
	SetPasswordByEmail(ctx context.Context, email string, hash string) (*models.User, error)
	SetStatus(ctx context.Context, id string, status models.UserStatus) error
}
