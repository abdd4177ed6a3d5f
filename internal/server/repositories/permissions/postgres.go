package permissions

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pms/internal/dbx"
	"github.com/dmitrijs2005/pms/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) HasAdminMembership(ctx context.Context, userID string) (bool, error) {
	ok, err := dbx.Exists(ctx, r.db,
		`SELECT 1 FROM workspace_members WHERE user_id = $1 AND role = 'ADMIN'`, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) HasCreatedProject(ctx context.Context, userID string) (bool, error) {
	ok, err := dbx.Exists(ctx, r.db,
		`SELECT 1 FROM projects WHERE created_by = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

// ListForRole returns the role's permissions in alphabetical order. A role
// without rows yields an empty, non-nil slice.
func (r *PostgresRepository) ListForRole(ctx context.Context, role models.Role) ([]string, error) {
	query :=
		`SELECT permission FROM role_permissions
		 WHERE role = $1
		 ORDER BY permission
		 `

	rows, err := r.db.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	perms := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return perms, nil
}

// ReplaceForRole deletes the role's rows and inserts perms. Callers run it
// inside dbx.WithTx so readers never observe a partial list.
func (r *PostgresRepository) ReplaceForRole(ctx context.Context, role models.Role, perms []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM role_permissions WHERE role = $1`, string(role)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	for _, p := range perms {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO role_permissions (role, permission) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			string(role), p)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}
