package model

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleManager   Role = "manager"
	RoleInspector Role = "inspector"
	RoleBuilder   Role = "builder"
)

var Roles = []Role{RoleCitizen, RoleManager, RoleInspector, RoleBuilder}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleCitizen, RoleManager, RoleInspector, RoleBuilder:
		return r, nil
	case "":
		return RoleCitizen, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanDraw reports whether the role may create roads.
func (r Role) CanDraw() bool {
	return r == RoleManager
}

// Scoped reports whether the role only sees roads assigned to an identifier.
func (r Role) Scoped() bool {
	return r == RoleInspector || r == RoleBuilder
}
