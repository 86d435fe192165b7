// Package authz holds the request-scoped authorization context and the
// per-resource guards evaluated before mutations.
package authz

import "strings"

// Role is the closed set of actor roles understood by the guards.
type Role string

const (
	RoleNone        Role = ""
	RoleAdmin       Role = "admin"
	RoleAlumni      Role = "alumni"
	RoleProgramHead Role = "program_head"
)

// ParseRole maps a free-form role string onto the closed role set.
// Any spelling starting with "program" (program head, program-head, programhead)
// is a program head.
func ParseRole(raw string) (Role, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == string(RoleAdmin):
		return RoleAdmin, true
	case s == string(RoleAlumni):
		return RoleAlumni, true
	case strings.HasPrefix(s, "program"):
		return RoleProgramHead, true
	}
	return RoleNone, false
}

// ParseAccountType accepts the user_type values the login endpoint recognises.
func ParseAccountType(raw string) (Role, bool) {
	switch strings.ToLower(raw) {
	case "admin":
		return RoleAdmin, true
	case "alumni":
		return RoleAlumni, true
	case "programhead", "program_head":
		return RoleProgramHead, true
	}
	return RoleNone, false
}

func (r Role) String() string {
	return string(r)
}
