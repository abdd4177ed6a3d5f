package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/pms/internal/common"
	"github.com/dmitrijs2005/pms/internal/server/models"
)

var (
	selectByID    = `(?s)^SELECT\s+id,\s*name,\s*email,\s*status,\s*password_hash,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	selectByEmail = `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)\s*$`
	updatePwdByID = `(?s)^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s*$`
	updatePwdByEm = `(?s)^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2.*WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)\s+RETURNING\s+id,`
	updateStatus  = `(?s)^UPDATE\s+users\s+SET\s+status\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s*$`
	userCols      = []string{"id", "name", "email", "status", "password_hash", "created_at", "updated_at"}
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestFindByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows(userCols).
		AddRow("u-1", "Ann", "ann@example.com", int64(1), "pbkdf2$120000$aa$bb", now, now)
	mock.ExpectQuery(selectByID).WithArgs("u-1").WillReturnRows(rows)

	got, err := repo.FindByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if got.ID != "u-1" || got.Email != "ann@example.com" || got.Status != models.UserStatusActive {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.PasswordHash == nil || *got.PasswordHash != "pbkdf2$120000$aa$bb" {
		t.Fatalf("unexpected hash: %v", got.PasswordHash)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected created_at: %v", got.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindByID_NullHash(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(userCols).AddRow("u-2", "Bob", "bob@example.com", int64(0), nil, now, now)
	mock.ExpectQuery(selectByID).WithArgs("u-2").WillReturnRows(rows)

	got, err := repo.FindByID(context.Background(), "u-2")
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if got.PasswordHash != nil {
		t.Fatalf("want nil hash, got %q", *got.PasswordHash)
	}
	if got.Status != models.UserStatusInactive {
		t.Fatalf("unexpected status: %v", got.Status)
	}
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectByID).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFindByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectByID).WithArgs("u-1").WillReturnError(errors.New("db down"))

	_, err := repo.FindByID(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByEmail_CaseInsensitive(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(userCols).AddRow("u-1", "Ann", "ann@example.com", int64(1), nil, now, now)
	mock.ExpectQuery(selectByEmail).WithArgs("ANN@Example.com").WillReturnRows(rows)

	got, err := repo.FindByEmail(context.Background(), "ANN@Example.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got.ID != "u-1" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectByEmail).WithArgs("nobody@example.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestSetPassword(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(updatePwdByID).WithArgs("u-1", "pbkdf2$1$a$b").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.SetPassword(context.Background(), "u-1", "pbkdf2$1$a$b"); err != nil {
		t.Fatalf("SetPassword error: %v", err)
	}

	mock.ExpectExec(updatePwdByID).WithArgs("ghost", "h").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.SetPassword(context.Background(), "ghost", "h"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}

	mock.ExpectExec(updatePwdByID).WithArgs("u-1", "h").WillReturnError(errors.New("db err"))
	if err := repo.SetPassword(context.Background(), "u-1", "h"); err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSetPasswordByEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(userCols).AddRow("u-1", "Ann", "ann@example.com", int64(1), "h", now, now)
	mock.ExpectQuery(updatePwdByEm).WithArgs("ann@example.com", "h").WillReturnRows(rows)

	got, err := repo.SetPasswordByEmail(context.Background(), "ann@example.com", "h")
	if err != nil {
		t.Fatalf("SetPasswordByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.PasswordHash == nil || *got.PasswordHash != "h" {
		t.Fatalf("unexpected user: %+v", got)
	}

	mock.ExpectQuery(updatePwdByEm).WithArgs("ghost@example.com", "h").WillReturnError(sql.ErrNoRows)
	if _, err := repo.SetPasswordByEmail(context.Background(), "ghost@example.com", "h"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(updateStatus).WithArgs("u-1", int16(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.SetStatus(context.Background(), "u-1", models.UserStatusDisabled); err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}

	mock.ExpectExec(updateStatus).WithArgs("ghost", int16(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.SetStatus(context.Background(), "ghost", models.UserStatusActive); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}

	mock.ExpectExec(updateStatus).WithArgs("u-1", int16(1)).WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))
	if err := repo.SetStatus(context.Background(), "u-1", models.UserStatusActive); err == nil || !regexp.MustCompile(`db error: .*no count`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
