// Package objects holds the shared value objects exchanged between the
// pipeline components. They carry no behavior beyond convenience accessors
// and are safe to copy.
package objects

import (
	"github.com/shopspring/decimal"
)

// RequestContext is the identity context of one query. It is constructed
// once per request and never mutated afterwards.
type RequestContext struct {
	UserID       string `json:"user_id"`
	DivisionID   string `json:"division_id"`
	DepartmentID string `json:"department_id"`
	RoleID       string `json:"role_id"`
	PersonaID    string `json:"persona_id,omitempty"`

	// ModelID is an optional explicit backend override. When set it wins
	// over any persona preference.
	ModelID string `json:"model_id,omitempty"`

	// TargetDivisionID and TargetDepartmentID scope the data the query
	// runs against. Empty values default to the requester's own scope.
	TargetDivisionID   string `json:"target_division_id,omitempty"`
	TargetDepartmentID string `json:"target_department_id,omitempty"`
}

// TargetDivision returns the queried division, defaulting to the
// requester's own.
func (c RequestContext) TargetDivision() string {
	if c.TargetDivisionID != "" {
		return c.TargetDivisionID
	}

	return c.DivisionID
}

// TargetDepartment returns the queried department, defaulting to the
// requester's own.
func (c RequestContext) TargetDepartment() string {
	if c.TargetDepartmentID != "" {
		return c.TargetDepartmentID
	}

	return c.DepartmentID
}

// RedactedPII summarizes one detection reported back to the caller. The
// matched text itself is deliberately not included.
type RedactedPII struct {
	Type        string `json:"type"`
	Sensitivity string `json:"sensitivity"`
}

// QueryResult is the externally observable outcome of one processed query.
type QueryResult struct {
	Text         string          `json:"text"`
	ModelID      string          `json:"model_id"`
	Provider     string          `json:"provider"`
	InputTokens  int64           `json:"input_tokens"`
	OutputTokens int64           `json:"output_tokens"`
	TokensUsed   int64           `json:"tokens_used"`
	Cost         decimal.Decimal `json:"cost"`
	RedactedPII  []RedactedPII   `json:"redacted_pii,omitempty"`

	// Error marks a structured failure result. Message carries the
	// user-visible description; no raw fault crosses the process boundary.
	Error   bool   `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
