package auth

import (
	"fmt"
	"strings"
)

// Role is one of the four fixed privilege tiers.
type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleCompanyAdmin Role = "company_admin"
	RoleSupervisor   Role = "supervisor"
	RoleCollaborator Role = "collaborator"
)

// roleLevels orders roles for company-scoping bypass decisions only.
// Permission-flag checks never consult this ordering: a supervisor or
// collaborator may hold elevated flags independent of tier.
var roleLevels = map[Role]int{
	RoleSuperAdmin:   4,
	RoleCompanyAdmin: 3,
	RoleSupervisor:   2,
	RoleCollaborator: 1,
}

// Valid reports whether the role is one of the four known tiers.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// AtLeast reports whether r ranks equal to or above other.
func (r Role) AtLeast(other Role) bool {
	return roleLevels[r] >= roleLevels[other]
}

// ParseRole normalizes and validates a role string.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
	return role, nil
}
