package models

import (
	"fmt"
	"time"
)

// UserStatus is the account lifecycle state stored in users.status.
type UserStatus int

const (
	UserStatusInactive UserStatus = iota
	UserStatusActive
	UserStatusDisabled
	UserStatusReactivated
)

var userStatusNames = map[UserStatus]string{
	UserStatusInactive:    "INACTIVE",
	UserStatusActive:      "ACTIVE",
	UserStatusDisabled:    "DISABLED",
	UserStatusReactivated: "REACTIVATED",
}

func (s UserStatus) String() string {
	if n, ok := userStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("UserStatus(%d)", int(s))
}

// Valid reports whether s is one of the known states.
func (s UserStatus) Valid() bool {
	_, ok := userStatusNames[s]
	return ok
}

// ParseUserStatus accepts the upper-case name of a state.
func ParseUserStatus(name string) (UserStatus, error) {
	for s, n := range userStatusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown user status %q", name)
}

// User is the principal behind a credential. PasswordHash is nil when the
// account has no usable password.
type User struct {
	ID           string
	Name         string
	Email        string
	Status       UserStatus
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}
