// Package policy supplies the read-only tables the pipeline is governed
// by: role definitions, persona profiles, the backend catalog and the PII
// pattern list. Tables are loaded once at startup into an immutable
// snapshot; reload swaps the whole snapshot atomically.
package policy

import (
	"slices"

	"github.com/shopspring/decimal"
)

// RoleTier is the implicit organizational scope of a role. Tiers are
// totally ordered: Standard < DepartmentAdmin < DivisionAdmin < SuperAdmin.
type RoleTier int

const (
	TierStandard RoleTier = iota
	TierDepartmentAdmin
	TierDivisionAdmin
	TierSuperAdmin
)

// String returns the string representation of the tier.
func (t RoleTier) String() string {
	switch t {
	case TierSuperAdmin:
		return "super_admin"
	case TierDivisionAdmin:
		return "division_admin"
	case TierDepartmentAdmin:
		return "department_admin"
	case TierStandard:
		return "standard"
	default:
		return "standard"
	}
}

// ParseRoleTier parses a tier name. Unknown names map to TierStandard.
func ParseRoleTier(s string) RoleTier {
	switch s {
	case "super_admin":
		return TierSuperAdmin
	case "division_admin":
		return TierDivisionAdmin
	case "department_admin":
		return TierDepartmentAdmin
	default:
		return TierStandard
	}
}

// Role is a named permission set with an implicit scope tier.
type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Tier        RoleTier `json:"tier"`
	Permissions []string `json:"permissions,omitempty"`
}

// HasPermission reports whether the role grants the given permission.
func (r *Role) HasPermission(permission string) bool {
	return slices.Contains(r.Permissions, permission)
}

// HasAnyPermission reports whether the role grants at least one of the
// given permissions.
func (r *Role) HasAnyPermission(permissions ...string) bool {
	return slices.ContainsFunc(permissions, r.HasPermission)
}

// CanIngestData reports whether the role may feed data into the platform.
func (r *Role) CanIngestData() bool {
	return r.HasAnyPermission("ingest_files", "access_connectors")
}

// CanViewAuditLogs reports whether the role may read audit trails at any
// scope.
func (r *Role) CanViewAuditLogs() bool {
	return r.HasAnyPermission("view_audit_logs", "view_division_audit_logs", "view_department_audit_logs")
}

// CanManageUsers reports whether the role may administer users at any
// scope.
func (r *Role) CanManageUsers() bool {
	return r.HasAnyPermission("manage_users", "manage_division_users", "manage_department_users")
}

// PersonaProfile bundles a system prompt with an ordered list of allowed
// backend ids. An empty list means unrestricted.
type PersonaProfile struct {
	ID            string   `json:"id"`
	Name          string   `json:"name,omitempty"`
	SystemPrompt  string   `json:"system_prompt,omitempty"`
	AllowedModels []string `json:"allowed_models,omitempty"`
}

// Pricing is the per-1000-token price pair of a backend.
type Pricing struct {
	InputPer1K  decimal.Decimal `json:"input_per_1k_tokens"`
	OutputPer1K decimal.Decimal `json:"output_per_1k_tokens"`
}

// BackendDescriptor describes one entry of the backend catalog.
type BackendDescriptor struct {
	ID        string  `json:"id"`
	Provider  string  `json:"provider"`
	ModelName string  `json:"model_name,omitempty"`
	BaseURL   string  `json:"base_url,omitempty"`
	APIKey    string  `json:"-"`
	MaxTokens int64   `json:"max_tokens,omitempty"`
	Enabled   bool    `json:"enabled"`
	Pricing   Pricing `json:"pricing"`
}
