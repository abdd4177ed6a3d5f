package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/pms/internal/common"
	"github.com/dmitrijs2005/pms/internal/dbx"
	"github.com/dmitrijs2005/pms/internal/server/models"
	"github.com/dmitrijs2005/pms/internal/server/repositories/permissions"
	"github.com/dmitrijs2005/pms/internal/server/repositories/users"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	mu       sync.Mutex
	byID     map[string]*models.User
	findErr  error
	writeErr error
	block    bool
}

func newFakeUsers(us ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{byID: map[string]*models.User{}}
	for _, u := range us {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) SetPassword(ctx context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = &hash
	return nil
}

func (f *fakeUsersRepo) SetPasswordByEmail(ctx context.Context, email, hash string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			u.PasswordHash = &hash
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) SetStatus(ctx context.Context, id string, status models.UserStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Status = status
	return nil
}

type fakePermsRepo struct {
	mu         sync.Mutex
	admins     map[string]bool
	creators   map[string]bool
	perms      map[models.Role][]string
	adminErr   error
	projectErr error
	listErr    error
	replaceErr error
	reads      int
}

func newFakePerms() *fakePermsRepo {
	return &fakePermsRepo{
		admins:   map[string]bool{},
		creators: map[string]bool{},
		perms: map[models.Role][]string{
			models.RoleAdmin:  {"member:manage", "project:create", "project:delete", "project:update", "project:view", "task:manage", "user:manage", "workspace:delete", "workspace:update", "workspace:view"},
			models.RoleOwner:  {"member:manage", "project:create", "project:delete", "project:update", "project:view", "task:manage", "workspace:view"},
			models.RoleMember: {"project:view", "task:manage", "workspace:view"},
		},
	}
}

func (f *fakePermsRepo) HasAdminMembership(ctx context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.admins[userID], f.adminErr
}

func (f *fakePermsRepo) HasCreatedProject(ctx context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.creators[userID], f.projectErr
}

func (f *fakePermsRepo) ListForRole(ctx context.Context, role models.Role) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.perms[role]...), nil
}

func (f *fakePermsRepo) ReplaceForRole(ctx context.Context, role models.Role, perms []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.perms[role] = append([]string(nil), perms...)
	return nil
}

type fakeRepoManager struct {
	users *fakeUsersRepo
	perms *fakePermsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeRepoManager) Permissions(dbx.DBTX) permissions.Repository  { return m.perms }
