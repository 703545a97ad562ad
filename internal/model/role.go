package model

import "strings"

// Role is the authorization role of a user. The zero value is RoleUnknown.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleTeacher
	RoleStudent
)

var roleNames = [...]string{
	RoleUnknown: "",
	RoleAdmin:   "ROLE_ADMIN",
	RoleTeacher: "ROLE_TEACHER",
	RoleStudent: "ROLE_STUDENT",
}

// ParseRole maps a wire role ("ROLE_ADMIN", "admin", ...) to a Role.
// Unrecognized input yields RoleUnknown.
func ParseRole(s string) Role {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "ROLE_")
	switch s {
	case "ADMIN":
		return RoleAdmin
	case "TEACHER":
		return RoleTeacher
	case "STUDENT":
		return RoleStudent
	default:
		return RoleUnknown
	}
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return ""
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	*r = ParseRole(string(b))
	return nil
}

// RoleSet is a set of roles. The empty set means "no role requirement".
type RoleSet uint8

// Roles builds a RoleSet. RoleUnknown is never a member.
func Roles(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		if r != RoleUnknown && int(r) < len(roleNames) {
			s |= 1 << r
		}
	}
	return s
}

// Has reports whether r is a member of s.
func (s RoleSet) Has(r Role) bool {
	return r != RoleUnknown && s&(1<<r) != 0
}

func (s RoleSet) Empty() bool {
	return s == 0
}

// Slice lists the members of s in declaration order.
func (s RoleSet) Slice() []Role {
	var out []Role
	for r := RoleAdmin; int(r) < len(roleNames); r++ {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) String() string {
	roles := s.Slice()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, ",")
}
