package authz

import (
	"github.com/neuraform/neuraform/internal/policy"
)

// RoleProvider resolves role ids against the loaded role table.
type RoleProvider interface {
	GetRole(id string) (*policy.Role, bool)
}

// Checker evaluates role- and organization-scoped access decisions.
type Checker struct {
	roles RoleProvider
}

// NewChecker creates a Checker backed by the given role table.
func NewChecker(roles RoleProvider) *Checker {
	return &Checker{roles: roles}
}

// Authorize decides whether the requester may access the target
// division/department scope.
//
// Evaluation order:
//  1. unknown role: deny (fail closed)
//  2. super_admin: allow
//  3. division mismatch: deny
//  4. tier >= division_admin: allow
//  5. otherwise: allow iff the departments match
func (c *Checker) Authorize(roleID, requesterDivision, requesterDepartment, targetDivision, targetDepartment string) bool {
	role, ok := c.roles.GetRole(roleID)
	if !ok {
		return false
	}

	if role.Tier == policy.TierSuperAdmin {
		return true
	}

	if targetDivision != requesterDivision {
		return false
	}

	if role.Tier >= policy.TierDivisionAdmin {
		return true
	}

	// Department admins and standard roles are both pinned to their own
	// department.
	return targetDepartment == requesterDepartment
}
