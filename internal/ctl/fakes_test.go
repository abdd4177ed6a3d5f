package ctl

import (
	"bytes"
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
	"github.com/dmitrijs2005/pms/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pms/internal/server/repositories/users"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (f *fakeUsers) find(email string) (*models.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(email)
}

func (f *fakeUsers) SetPassword(_ context.Context, id string, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = &hash
	return nil
}

func (f *fakeUsers) SetPasswordByEmail(_ context.Context, email string, hash string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, err := f.find(email)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = &hash
	return u, nil
}

func (f *fakeUsers) SetStatus(_ context.Context, id string, status models.UserStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Status = status
	return nil
}

type fakePerms struct {
	mu    sync.Mutex
	lists map[models.Role][]string
}

func (f *fakePerms) HasAdminMembership(context.Context, string) (bool, error) { return false, nil }
func (f *fakePerms) HasCreatedProject(context.Context, string) (bool, error)  { return false, nil }

func (f *fakePerms) ListForRole(_ context.Context, role models.Role) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lists[role]...), nil
}

func (f *fakePerms) ReplaceForRole(_ context.Context, role models.Role, perms []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[role] = append([]string(nil), perms...)
	return nil
}

type fakeManager struct {
	users      *fakeUsers
	perms      *fakePerms
	migrateErr error
	migrated   int
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error {
	m.migrated++
	return m.migrateErr
}
func (m *fakeManager) Users(dbx.DBTX) users.Repository             { return m.users }
func (m *fakeManager) Permissions(dbx.DBTX) permissions.Repository { return m.perms }

func newFakeManager(us ...*models.User) *fakeManager {
	fu := &fakeUsers{users: map[string]*models.User{}}
	for _, u := range us {
		fu.users[u.ID] = u
	}
	return &fakeManager{users: fu, perms: &fakePerms{lists: map[models.Role][]string{}}}
}

// withStore points the storage seams at a sqlmock pool and rm. The mock
// expects the pool to be closed when the command finishes.
func withStore(t *testing.T, rm repomanager.RepositoryManager) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}

	origOpen, origRM := openDB, newRepoManager
	t.Cleanup(func() { openDB, newRepoManager = origOpen, origRM })
	openDB = func(context.Context, string) (*sql.DB, error) { return db, nil }
	newRepoManager = func() repomanager.RepositoryManager { return rm }
	return mock
}

func notTerminal(t *testing.T) {
	t.Helper()
	orig := isTerminal
	t.Cleanup(func() { isTerminal = orig })
	isTerminal = func(int) bool { return false }
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp(&out, strings.NewReader(stdin))
	err := app.RunContext(context.Background(), append([]string{"pmsctl"}, args...))
	return out.String(), err
}
