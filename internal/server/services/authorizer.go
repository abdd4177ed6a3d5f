package services

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/pms/internal/common"
	"github.com/dmitrijs2005/pms/internal/dbx"
	"github.com/dmitrijs2005/pms/internal/server/models"
	"github.com/dmitrijs2005/pms/internal/server/repositories/repomanager"
)

// RoleError is returned by RequireRole when the effective role is not in
// the allowed set. It matches common.ErrForbidden.
type RoleError struct {
	Role    models.Role
	Allowed []models.Role
}

func (e *RoleError) Error() string {
	names := make([]string, len(e.Allowed))
	for i, r := range e.Allowed {
		names[i] = string(r)
	}
	if len(names) == 0 {
		return "requires role"
	}
	return "requires role " + strings.Join(names, " or ")
}

func (e *RoleError) Unwrap() error { return common.ErrForbidden }

// Access is a principal's effective role with the permissions it grants.
type Access struct {
	Role        models.Role
	Permissions []string
}

// Authorizer derives effective roles. Every call reads the store; nothing
// is cached, so membership changes apply to the next check.
type Authorizer struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewAuthorizer(db *sql.DB, m repomanager.RepositoryManager) *Authorizer {
	return &Authorizer{db: db, repomanager: m}
}

// EffectiveRole returns ADMIN if the user is an admin member of any
// workspace, else OWNER if they created any project, else MEMBER.
func (a *Authorizer) EffectiveRole(ctx context.Context, userID string) (models.Role, error) {
	repo := a.repomanager.Permissions(a.db)

	admin, err := repo.HasAdminMembership(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load admin membership: %w", err)
	}
	if admin {
		return models.RoleAdmin, nil
	}

	owner, err := repo.HasCreatedProject(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load project authorship: %w", err)
	}
	if owner {
		return models.RoleOwner, nil
	}

	return models.RoleMember, nil
}

// PermissionsFor lists role's permissions alphabetically. The result is
// never nil.
func (a *Authorizer) PermissionsFor(ctx context.Context, role models.Role) ([]string, error) {
	perms, err := a.repomanager.Permissions(a.db).ListForRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	if perms == nil {
		return []string{}, nil
	}
	slices.Sort(perms)
	return perms, nil
}

// Resolve returns the effective role of userID and its permissions.
func (a *Authorizer) Resolve(ctx context.Context, userID string) (*Access, error) {
	role, err := a.EffectiveRole(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms, err := a.PermissionsFor(ctx, role)
	if err != nil {
		return nil, err
	}
	return &Access{Role: role, Permissions: perms}, nil
}

// RequireRole resolves the effective role and returns a *RoleError when it
// is not one of allowed. Store failures are returned unwrapped from
// RoleError so callers can tell them apart.
func (a *Authorizer) RequireRole(ctx context.Context, userID string, allowed ...models.Role) (models.Role, error) {
	role, err := a.EffectiveRole(ctx, userID)
	if err != nil {
		return "", err
	}
	if !slices.Contains(allowed, role) {
		return role, &RoleError{Role: role, Allowed: allowed}
	}
	return role, nil
}

// ReplacePermissions atomically replaces the permission list of role.
// Entries are trimmed, deduplicated and stored in sorted order.
func (a *Authorizer) ReplacePermissions(ctx context.Context, role models.Role, perms []string) ([]string, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrorValidation, role)
	}

	clean := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("%w: empty permission", common.ErrorValidation)
		}
		clean = append(clean, p)
	}
	slices.Sort(clean)
	clean = slices.Compact(clean)

	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return a.repomanager.Permissions(tx).ReplaceForRole(ctx, role, clean)
	})
	if err != nil {
		return nil, fmt.Errorf("replace permissions: %w", err)
	}
	return clean, nil
}
