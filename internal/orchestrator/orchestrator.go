// Package orchestrator sequences one query through authorization,
// sensitive-data scanning, routing, generation, and redaction, and emits
// the audit record once the result is final.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neuraform/neuraform/internal/audit"
	"github.com/neuraform/neuraform/internal/authz"
	"github.com/neuraform/neuraform/internal/llm/backend"
	"github.com/neuraform/neuraform/internal/log"
	"github.com/neuraform/neuraform/internal/objects"
	"github.com/neuraform/neuraform/internal/pii"
	"github.com/neuraform/neuraform/internal/pkg/xcontext"
	"github.com/neuraform/neuraform/internal/policy"
	"github.com/neuraform/neuraform/internal/router"
)

// State is one phase of the query lifecycle. Transitions are linear;
// REJECTED and ERROR are terminal.
type State string

const (
	StateReceived    State = "RECEIVED"
	StateAuthorizing State = "AUTHORIZING"
	StateRejected    State = "REJECTED"
	StateRouting     State = "ROUTING"
	StateGenerating  State = "GENERATING"
	StateRedacting   State = "REDACTING"
	StateDone        State = "DONE"
	StateError       State = "ERROR"
)

// ErrInvalidInput marks a query rejected before authorization.
var ErrInvalidInput = errors.New("invalid input")

// Config configures the orchestrator.
type Config struct {
	// AuditTimeout bounds the detached audit emission after DONE.
	AuditTimeout time.Duration `conf:"audit_timeout" yaml:"audit_timeout" json:"audit_timeout"`
}

func DefaultConfig() Config {
	return Config{AuditTimeout: 5 * time.Second}
}

// AuditEmitter receives the usage record of a completed query.
type AuditEmitter interface {
	Emit(ctx context.Context, entry audit.Entry)
}

// Orchestrator runs the query pipeline. It holds no per-request state;
// independent requests run fully in parallel.
type Orchestrator struct {
	config  Config
	checker *authz.Checker
	scanner *pii.Scanner
	router  *router.Router
	audit   AuditEmitter
}

// New creates an orchestrator. The audit emitter may be nil, which
// disables usage emission.
func New(config Config, checker *authz.Checker, scanner *pii.Scanner, rt *router.Router, emitter AuditEmitter) *Orchestrator {
	if config.AuditTimeout <= 0 {
		config.AuditTimeout = DefaultConfig().AuditTimeout
	}

	return &Orchestrator{
		config:  config,
		checker: checker,
		scanner: scanner,
		router:  rt,
		audit:   emitter,
	}
}

// Process runs one query end to end. Every user-visible failure comes
// back as a structured result; the error return carries the typed cause
// for programmatic callers and is nil for an authorization rejection.
func (o *Orchestrator) Process(ctx context.Context, query string, reqCtx objects.RequestContext) (*objects.QueryResult, error) {
	state := StateReceived

	advance := func(next State) {
		if log.DebugEnabled(ctx) {
			log.Debug(ctx, "query state transition",
				log.String("from", string(state)),
				log.String("to", string(next)),
			)
		}

		state = next
	}

	if err := validate(query, reqCtx); err != nil {
		advance(StateError)
		return failureResult(err.Error()), err
	}

	advance(StateAuthorizing)

	allowed := o.checker.Authorize(
		reqCtx.RoleID,
		reqCtx.DivisionID,
		reqCtx.DepartmentID,
		reqCtx.TargetDivision(),
		reqCtx.TargetDepartment(),
	)
	if !allowed {
		advance(StateRejected)
		log.Warn(ctx, "query rejected",
			log.String("user_id", reqCtx.UserID),
			log.String("role_id", reqCtx.RoleID),
			log.String("target_division", reqCtx.TargetDivision()),
		)

		return failureResult("Authorization failed. You don't have permission to access this division/department."), nil
	}

	// Informational only: the query still runs, the detection is logged.
	if o.scanner.HasPII(ctx, query, policy.SensitivityMedium) {
		log.Info(ctx, "sensitive data detected in query", log.String("user_id", reqCtx.UserID))
	}

	advance(StateRouting)
	advance(StateGenerating)

	resp, err := o.router.Route(ctx, &router.RouteRequest{
		Prompt:    query,
		ModelID:   reqCtx.ModelID,
		PersonaID: reqCtx.PersonaID,
		Context:   reqCtx,
	})
	if err != nil {
		advance(StateError)
		log.Error(ctx, "generation failed", log.String("user_id", reqCtx.UserID), log.Cause(err))

		return failureResult(fmt.Sprintf("Error generating response: %s", err)), err
	}

	advance(StateRedacting)

	redacted, detections := o.scanner.Redact(ctx, resp.Text)
	if len(detections) > 0 {
		log.Warn(ctx, "redacted sensitive data in response", log.Int("detections", len(detections)))
	}

	result := &objects.QueryResult{
		Text:         redacted,
		ModelID:      resp.Model,
		Provider:     resp.Provider,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		TokensUsed:   resp.Usage.TotalTokens(),
		Cost:         o.router.CalculateCost(resp.Model, resp.Usage),
		RedactedPII:  reportDetections(detections),
	}

	advance(StateDone)

	o.emitAudit(ctx, reqCtx, result, len(detections))

	log.Info(ctx, "query processed",
		log.String("user_id", reqCtx.UserID),
		log.String("model_id", result.ModelID),
		log.Int64("tokens_used", result.TokensUsed),
		log.String("cost", result.Cost.String()),
	)

	return result, nil
}

func validate(query string, reqCtx objects.RequestContext) error {
	switch {
	case query == "":
		return fmt.Errorf("%w: empty query", ErrInvalidInput)
	case reqCtx.UserID == "":
		return fmt.Errorf("%w: missing user id", ErrInvalidInput)
	case reqCtx.DivisionID == "":
		return fmt.Errorf("%w: missing division id", ErrInvalidInput)
	case reqCtx.RoleID == "":
		return fmt.Errorf("%w: missing role id", ErrInvalidInput)
	default:
		return nil
	}
}

// emitAudit hands the usage record to the emitter on a context detached
// from the request. A cancelled caller no longer affects emission.
func (o *Orchestrator) emitAudit(ctx context.Context, reqCtx objects.RequestContext, result *objects.QueryResult, piiCount int) {
	if o.audit == nil {
		return
	}

	detached, cancel := xcontext.DetachWithTimeout(ctx, o.config.AuditTimeout)

	go func() {
		defer cancel()

		o.audit.Emit(detached, audit.Entry{
			Timestamp:    time.Now(),
			UserID:       reqCtx.UserID,
			DivisionID:   reqCtx.DivisionID,
			DepartmentID: reqCtx.DepartmentID,
			ModelID:      result.ModelID,
			TokensUsed:   result.TokensUsed,
			Cost:         result.Cost,
			PIICount:     piiCount,
		})
	}()
}

func reportDetections(detections []pii.Detection) []objects.RedactedPII {
	if len(detections) == 0 {
		return nil
	}

	report := make([]objects.RedactedPII, 0, len(detections))
	for _, detection := range detections {
		report = append(report, objects.RedactedPII{
			Type:        detection.Type,
			Sensitivity: detection.Sensitivity.String(),
		})
	}

	return report
}

// Failure classes of the generation step, re-exported so callers can
// discriminate them without importing the backend and router packages.
var (
	ErrBackendUnavailable = backend.ErrUnavailable
	ErrBackendTimeout     = backend.ErrTimeout
	ErrNoBackendAvailable = router.ErrNoBackendAvailable
)

func failureResult(message string) *objects.QueryResult {
	return &objects.QueryResult{
		Error:   true,
		Message: message,
	}
}
