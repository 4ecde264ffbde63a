// Package identity carries the caller identity through the core. The engine
// never reads an ambient session; every operation receives an explicit Actor.
package identity

import "strings"

// Role is one of the three portal roles.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleBRINS  Role = "BRINS"
	RoleTUGURE Role = "TUGURE"
)

// Actor identifies the caller of a workflow operation.
type Actor struct {
	Email string
	Role  Role
}

// System is the engine identity for machine-driven transitions such as
// reconciliation recomputes. It is never parsed from a request header.
func System() Actor {
	return Actor{Email: "system@reinsadmin.local", Role: RoleAdmin}
}

// ParseRole normalizes a role string, returning false for unknown roles.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleBRINS:
		return RoleBRINS, true
	case RoleTUGURE:
		return RoleTUGURE, true
	}
	return "", false
}

// Satisfies reports whether the actor's role satisfies a required role.
// ADMIN satisfies any role requirement.
func (a Actor) Satisfies(required Role) bool {
	if a.Role == RoleAdmin {
		return true
	}
	return a.Role == required
}

// SatisfiesAny reports whether the actor's role matches any of the required roles.
func (a Actor) SatisfiesAny(required []Role) bool {
	if a.Role == RoleAdmin {
		return true
	}
	for _, r := range required {
		if a.Role == r {
			return true
		}
	}
	return false
}
