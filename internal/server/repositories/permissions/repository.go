package permissions

import (
	"context"

	"github.com/dmitrijs2005/pms/internal/server/models"
)

// Repository exposes the facts the effective role is derived from and the
// per-role permission lists.
type Repository interface {
	HasAdminMembership(ctx context.Context, userID string) (bool, error)
	HasCreatedProject(ctx context.Context, userID string) (bool, error)
	ListForRole(ctx context.Context, role models.Role) ([]string, error)
	ReplaceForRole(ctx context.Context, role models.Role, perms []string) error
}
