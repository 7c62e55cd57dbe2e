// Package router selects a live backend for each query and carries the
// call to it: persona-aware model selection, prompt assembly, token
// accounting, and cost attribution.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/neuraform/neuraform/internal/llm"
	"github.com/neuraform/neuraform/internal/llm/backend"
	"github.com/neuraform/neuraform/internal/log"
	"github.com/neuraform/neuraform/internal/objects"
	"github.com/neuraform/neuraform/internal/pkg/streams"
	"github.com/neuraform/neuraform/internal/policy"
)

var (
	// ErrNoBackendAvailable is returned when the selection chain finds no
	// live backend.
	ErrNoBackendAvailable = errors.New("no backend available")

	// ErrUnknownModel is returned when an explicit model override names a
	// backend that is not in the catalog.
	ErrUnknownModel = errors.New("unknown model")
)

// PersonaProvider is the policy surface the router reads.
type PersonaProvider interface {
	GetPersona(id string) (*policy.PersonaProfile, bool)
	DefaultModel() string
}

// RouteRequest is one routed generation.
type RouteRequest struct {
	// Prompt is the raw user prompt before assembly.
	Prompt string

	// ModelID optionally pins a backend. An explicit override wins over
	// the persona allow-list.
	ModelID string

	// PersonaID optionally selects the persona whose system prompt and
	// allow-list apply.
	PersonaID string

	// Context scopes the query organizationally.
	Context objects.RequestContext

	// MaxTokens and Temperature pass through to the backend.
	MaxTokens   int64
	Temperature float64
}

// Router routes requests over the registry.
type Router struct {
	registry *Registry
	policies PersonaProvider
}

func NewRouter(registry *Registry, policies PersonaProvider) *Router {
	return &Router{registry: registry, policies: policies}
}

// Route selects a backend and generates a full completion. When the
// selected backend fails with an availability error, the next candidate
// in the chain is tried once before the error surfaces.
func (r *Router) Route(ctx context.Context, request *RouteRequest) (*llm.Response, error) {
	candidates, err := r.candidates(request)
	if err != nil {
		return nil, err
	}

	llmReq := r.buildRequest(request)

	var lastErr error

	for attempt, adapter := range candidates {
		llmReq.Model = adapter.Descriptor().ID

		resp, err := adapter.Generate(ctx, llmReq)
		if err == nil {
			fillUsage(resp, llmReq)
			return resp, nil
		}

		lastErr = err

		if !errors.Is(err, backend.ErrUnavailable) || attempt > 0 {
			return nil, err
		}

		r.registry.MarkDown(ctx, adapter.Descriptor().ID)
		log.Warn(ctx, "backend failed, trying next candidate",
			log.String("backend", adapter.Descriptor().ID),
			log.Cause(err),
		)
	}

	return nil, lastErr
}

// StreamRoute mirrors Route for streaming generation. Only establishing
// the stream is retried; a failure mid-stream surfaces on the stream.
func (r *Router) StreamRoute(ctx context.Context, request *RouteRequest) (streams.Stream[*llm.Chunk], error) {
	candidates, err := r.candidates(request)
	if err != nil {
		return nil, err
	}

	llmReq := r.buildRequest(request)

	var lastErr error

	for attempt, adapter := range candidates {
		llmReq.Model = adapter.Descriptor().ID

		stream, err := adapter.StreamGenerate(ctx, llmReq)
		if err == nil {
			return stream, nil
		}

		lastErr = err

		if !errors.Is(err, backend.ErrUnavailable) || attempt > 0 {
			return nil, err
		}

		r.registry.MarkDown(ctx, adapter.Descriptor().ID)
		log.Warn(ctx, "backend failed, trying next candidate",
			log.String("backend", adapter.Descriptor().ID),
			log.Cause(err),
		)
	}

	return nil, lastErr
}

// CalculateCost prices a usage report against a backend's catalog pricing.
func (r *Router) CalculateCost(modelID string, usage llm.Usage) decimal.Decimal {
	adapter, ok := r.registry.Adapter(modelID)
	if !ok {
		return decimal.Zero
	}

	return adapter.CalculateCost(usage.InputTokens, usage.OutputTokens)
}

// candidates resolves the selection chain into an ordered, de-duplicated
// candidate list. The first entry is the primary choice; at most two are
// kept since a failed call is retried once.
func (r *Router) candidates(request *RouteRequest) ([]backend.Adapter, error) {
	// An explicit override wins and is not validated against the persona
	// allow-list.
	if request.ModelID != "" {
		adapter, ok := r.registry.Adapter(request.ModelID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownModel, request.ModelID)
		}

		return []backend.Adapter{adapter}, nil
	}

	var chain []backend.Adapter

	if request.PersonaID != "" {
		if persona, ok := r.policies.GetPersona(request.PersonaID); ok && len(persona.AllowedModels) > 0 {
			for _, id := range persona.AllowedModels {
				if adapter, ok := r.registry.Adapter(id); ok && r.registry.IsLive(id) {
					chain = append(chain, adapter)
				}
			}
		}
	}

	if defaultModel := r.policies.DefaultModel(); defaultModel != "" {
		if adapter, ok := r.registry.Adapter(defaultModel); ok && r.registry.IsLive(defaultModel) {
			chain = append(chain, adapter)
		}
	}

	chain = append(chain, r.registry.LiveBackends()...)

	chain = lo.UniqBy(chain, func(adapter backend.Adapter) string {
		return adapter.Descriptor().ID
	})

	if len(chain) == 0 {
		return nil, ErrNoBackendAvailable
	}

	if len(chain) > 2 {
		chain = chain[:2]
	}

	return chain, nil
}

func (r *Router) buildRequest(request *RouteRequest) *llm.Request {
	var persona *policy.PersonaProfile
	if request.PersonaID != "" {
		persona, _ = r.policies.GetPersona(request.PersonaID)
	}

	return &llm.Request{
		Prompt:      AssemblePrompt(persona, request.Context, request.Prompt),
		MaxTokens:   request.MaxTokens,
		Temperature: request.Temperature,
	}
}

// AssemblePrompt builds the final prompt in fixed line order: persona
// system prompt, organizational context, then the user prompt.
func AssemblePrompt(persona *policy.PersonaProfile, reqCtx objects.RequestContext, prompt string) string {
	var parts []string

	if persona != nil && persona.SystemPrompt != "" {
		parts = append(parts, "SYSTEM: "+persona.SystemPrompt)
	}

	if reqCtx.DivisionID != "" || reqCtx.DepartmentID != "" {
		parts = append(parts, fmt.Sprintf("CONTEXT: Division=%s, Department=%s", reqCtx.DivisionID, reqCtx.DepartmentID))
	}

	parts = append(parts, "USER: "+prompt)

	return strings.Join(parts, "\n")
}

// fillUsage substitutes whitespace token estimates when the backend did
// not report counts.
func fillUsage(resp *llm.Response, request *llm.Request) {
	if resp.Usage.Reported() {
		return
	}

	resp.Usage = llm.Usage{
		InputTokens:  llm.EstimateTokens(request.Prompt),
		OutputTokens: llm.EstimateTokens(resp.Text),
	}
}
