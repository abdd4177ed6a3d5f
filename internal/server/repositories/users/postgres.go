package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pms/internal/common"
	"github.com/dmitrijs2005/pms/internal/dbx"
	"github.com/dmitrijs2005/pms/internal/server/models"
)

const userColumns = `id, name, email, status, password_hash, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var hash sql.NullString
	var status int16

	err := row.Scan(&user.ID, &user.Name, &user.Email, &status, &hash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Status = models.UserStatus(status)
	if hash.Valid {
		user.PasswordHash = &hash.String
	}
	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE lower(email) = lower($1)
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) SetPassword(ctx context.Context, id string, hash string) error {
	query :=
		`UPDATE users SET password_hash = $2, updated_at = now()
		 WHERE id = $1
		 `
	res, err := r.db.ExecContext(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *PostgresRepository) SetPasswordByEmail(ctx context.Context, email string, hash string) (*models.User, error) {
	query :=
		`UPDATE users SET password_hash = $2, updated_at = now()
		 WHERE lower(email) = lower($1)
		 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, email, hash))
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status models.UserStatus) error {
	query :=
		`UPDATE users SET status = $2, updated_at = now()
		 WHERE id = $1
		 `
	res, err := r.db.ExecContext(ctx, query, id, int16(status))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
