package httpapi

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/pms/internal/common"
	"github.com/dmitrijs2005/pms/internal/server/models"
	"github.com/dmitrijs2005/pms/internal/server/services"
)

// fakeAuthn accepts tokens of the form "ok:<user-id>" and "idonly:<user-id>";
// "err" yields a store-independent failure and anything else is forbidden.
type fakeAuthn struct {
	mu   sync.Mutex
	seen []string
}

func (f *fakeAuthn) Authenticate(_ context.Context, raw string) (*services.Identity, error) {
	f.mu.Lock()
	f.seen = append(f.seen, raw)
	f.mu.Unlock()

	switch {
	case raw == "":
		return nil, common.ErrUnauthenticated
	case raw == "err":
		return nil, context.DeadlineExceeded
	case strings.HasPrefix(raw, "ok:"):
		id := strings.TrimPrefix(raw, "ok:")
		return &services.Identity{UserID: id, User: &models.User{ID: id, Email: id + "@example.com", Name: "N " + id, Status: models.UserStatusActive}}, nil
	case strings.HasPrefix(raw, "idonly:"):
		return &services.Identity{UserID: strings.TrimPrefix(raw, "idonly:")}, nil
	}
	return nil, common.ErrForbidden
}

func (f *fakeAuthn) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.seen) == 0 {
		return ""
	}
	return f.seen[len(f.seen)-1]
}

type fakeRoles struct {
	roles map[string]models.Role
	perms map[models.Role][]string
	err   error
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{
		roles: map[string]models.Role{"admin": models.RoleAdmin, "owner": models.RoleOwner},
		perms: map[models.Role][]string{
			models.RoleAdmin:  {"user:manage", "workspace:delete"},
			models.RoleOwner:  {"project:create", "project:view"},
			models.RoleMember: {"project:view", "task:manage", "workspace:view"},
		},
	}
}

func (f *fakeRoles) role(userID string) models.Role {
	if r, ok := f.roles[userID]; ok {
		return r
	}
	return models.RoleMember
}

func (f *fakeRoles) Resolve(_ context.Context, userID string) (*services.Access, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := f.role(userID)
	return &services.Access{Role: r, Permissions: f.perms[r]}, nil
}

func (f *fakeRoles) RequireRole(_ context.Context, userID string, allowed ...models.Role) (models.Role, error) {
	if f.err != nil {
		return "", f.err
	}
	r := f.role(userID)
	for _, a := range allowed {
		if a == r {
			return r, nil
		}
	}
	return r, &services.RoleError{Role: r, Allowed: allowed}
}

type fakeAccounts struct {
	mu        sync.Mutex
	passwords map[string]string
	statuses  map[string]models.UserStatus
	fail      error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		passwords: map[string]string{"u1": "correct-horse"},
		statuses:  map[string]models.UserStatus{"u1": models.UserStatusActive},
	}
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (*services.LoginResult, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	if email != "u1@example.com" || password != f.passwords["u1"] {
		return nil, common.ErrorUnauthorized
	}
	return &services.LoginResult{Token: "tok-u1", User: &models.User{ID: "u1", Email: email, Name: "Ann", Status: models.UserStatusActive}}, nil
}

func (f *fakeAccounts) ChangePassword(_ context.Context, userID, current, next string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(next) < 8 {
		return common.ErrorValidation
	}
	if f.passwords[userID] != current {
		return common.ErrorUnauthorized
	}
	f.passwords[userID] = next
	return nil
}

func (f *fakeAccounts) SetPassword(_ context.Context, userID, plain string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.passwords[userID]; !ok {
		return common.ErrorNotFound
	}
	f.passwords[userID] = plain
	return nil
}

func (f *fakeAccounts) SetStatus(_ context.Context, userID string, status models.UserStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.statuses[userID]; !ok {
		return common.ErrorNotFound
	}
	f.statuses[userID] = status
	return nil
}
