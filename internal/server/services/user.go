package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/pms/internal/common"
	"github.com/dmitrijs2005/pms/internal/logging"
	"github.com/dmitrijs2005/pms/internal/server/auth"
	"github.com/dmitrijs2005/pms/internal/server/models"
	"github.com/dmitrijs2005/pms/internal/server/repositories/repomanager"
)

// MinPasswordLength is enforced when a password is set or changed.
const MinPasswordLength = 8

// TokenIssuer is implemented by *auth.TokenCodec.
type TokenIssuer interface {
	Issue(claims auth.Claims) (string, error)
	IssueWithTTL(claims auth.Claims, ttl time.Duration) (string, error)
}

// PasswordHasher is implemented by *auth.PasswordHasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain string, stored *string) bool
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token string
	User  *models.User
}

// UserService provides the account operations: login, password changes
// and status updates.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      TokenIssuer
	hasher      PasswordHasher
	logger      logging.Logger

	dummyOnce sync.Once
	dummyHash *string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, issuer TokenIssuer, hasher PasswordHasher, l logging.Logger) *UserService {
	if l == nil {
		l = logging.Nop{}
	}
	return &UserService{db: db, repomanager: m, issuer: issuer, hasher: hasher, logger: l}
}

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", common.ErrorUnauthorized)

// Login checks email and password and issues a token. Unknown email,
// missing hash, wrong password and inactive status all return the same
// error.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn comparable time so response latency does not reveal the account
			s.hasher.Verify(password, s.placeholderHash())
			return nil, errInvalidCredentials
		}
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, user.PasswordHash) || !user.IsActive() {
		return nil, errInvalidCredentials
	}

	token, err := s.issuer.Issue(claimsFor(user))
	if err != nil {
		s.logger.Error(ctx, "issue token failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}
	return &LoginResult{Token: token, User: user}, nil
}

// ChangePassword replaces the caller's password after checking current.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return fmt.Errorf("%w: current password is incorrect", common.ErrorUnauthorized)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return repo.SetPassword(ctx, userID, hash)
}

// SetPassword sets userID's password without checking the old one.
func (s *UserService) SetPassword(ctx context.Context, userID, plain string) error {
	if err := validatePassword(plain); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return err
	}
	return s.repomanager.Users(s.db).SetPassword(ctx, userID, hash)
}

// SetPasswordByEmail is SetPassword keyed by login email.
func (s *UserService) SetPasswordByEmail(ctx context.Context, email, plain string) (*models.User, error) {
	if err := validatePassword(plain); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.db).SetPasswordByEmail(ctx, strings.TrimSpace(email), hash)
}

// SetStatus changes userID's lifecycle status. Only ACTIVE principals pass
// the authentication gate, so this is how accounts are deactivated.
func (s *UserService) SetStatus(ctx context.Context, userID string, status models.UserStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %d", common.ErrorValidation, int(status))
	}
	return s.repomanager.Users(s.db).SetStatus(ctx, userID, status)
}

// IssueToken mints a token for an active user. ttl <= 0 uses the codec
// default.
func (s *UserService) IssueToken(ctx context.Context, email string, ttl time.Duration) (string, error) {
	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", err
	}
	if !user.IsActive() {
		return "", fmt.Errorf("%w: user %s is %s", common.ErrorValidation, user.Email, user.Status)
	}
	if ttl <= 0 {
		return s.issuer.Issue(claimsFor(user))
	}
	return s.issuer.IssueWithTTL(claimsFor(user), ttl)
}

func (s *UserService) placeholderHash() *string {
	s.dummyOnce.Do(func() {
		if h, err := s.hasher.Hash("placeholder-password"); err == nil {
			s.dummyHash = &h
		}
	})
	return s.dummyHash
}

func claimsFor(u *models.User) auth.Claims {
	c := auth.Claims{Email: u.Email, Name: u.Name}
	c.Subject = u.ID
	return c
}

func validatePassword(p string) error {
	if len(p) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	return nil
}
