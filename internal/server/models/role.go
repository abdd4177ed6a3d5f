package models

import (
	"fmt"
	"strings"
)

// Role is the effective role of a principal. It is derived on demand from
// workspace membership and project authorship and is never stored on the
// user.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

// Roles lists every role in descending privilege order.
var Roles = []Role{RoleAdmin, RoleOwner, RoleMember}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleMember:
		return true
	}
	return false
}

// ParseRole is case-insensitive and ignores surrounding whitespace.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
