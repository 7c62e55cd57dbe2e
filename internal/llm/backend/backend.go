// Package backend defines the uniform text-generation capability and its
// per-provider implementations. Each provider is one variant behind the
// Adapter interface; variants share no mutable state.
package backend

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/neuraform/neuraform/internal/llm"
	"github.com/neuraform/neuraform/internal/pkg/httpclient"
	"github.com/neuraform/neuraform/internal/pkg/streams"
	"github.com/neuraform/neuraform/internal/pkg/xmap"
	"github.com/neuraform/neuraform/internal/policy"
)

// Adapter is the uniform generation capability of one backend.
type Adapter interface {
	// Generate produces a full completion for the request.
	Generate(ctx context.Context, request *llm.Request) (*llm.Response, error)

	// StreamGenerate produces a finite, non-restartable stream of text
	// chunks. Cancelling ctx stops the stream.
	StreamGenerate(ctx context.Context, request *llm.Request) (streams.Stream[*llm.Chunk], error)

	// CalculateCost computes the usage cost from token counts using the
	// descriptor's pricing.
	CalculateCost(inputTokens, outputTokens int64) decimal.Decimal

	// IsAvailable probes whether the backend can currently serve
	// requests. Called at registry construction and on re-probe.
	IsAvailable(ctx context.Context) bool

	// Descriptor returns the catalog entry this adapter was built from.
	Descriptor() policy.BackendDescriptor
}

// Factory builds an adapter for one catalog descriptor.
type Factory func(desc policy.BackendDescriptor, client *httpclient.HttpClient) (Adapter, error)

var factories = xmap.New[string, Factory]()

// Register registers a provider factory. Providers are registered from a
// fixed, reviewed list at startup; there is no runtime discovery.
func Register(provider string, factory Factory) {
	factories.Store(provider, factory)
}

// New builds the adapter for the descriptor's provider.
func New(desc policy.BackendDescriptor, client *httpclient.HttpClient) (Adapter, error) {
	factory, ok := factories.Load(desc.Provider)
	if !ok {
		return nil, fmt.Errorf("backend: unknown provider %q for %q", desc.Provider, desc.ID)
	}

	return factory(desc, client)
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	var names []string

	factories.Range(func(name string, _ Factory) bool {
		names = append(names, name)
		return true
	})

	sort.Strings(names)

	return names
}

// CalculateCost is the shared pricing formula:
//
//	cost = (input/1000)*inputRate + (output/1000)*outputRate
func CalculateCost(pricing policy.Pricing, inputTokens, outputTokens int64) decimal.Decimal {
	thousand := decimal.NewFromInt(1000)

	input := decimal.NewFromInt(inputTokens).Div(thousand).Mul(pricing.InputPer1K)
	output := decimal.NewFromInt(outputTokens).Div(thousand).Mul(pricing.OutputPer1K)

	return input.Add(output)
}

// base carries the shared descriptor plumbing of the HTTP adapters.
type base struct {
	desc   policy.BackendDescriptor
	client *httpclient.HttpClient
}

func (b *base) Descriptor() policy.BackendDescriptor {
	return b.desc
}

func (b *base) CalculateCost(inputTokens, outputTokens int64) decimal.Decimal {
	return CalculateCost(b.desc.Pricing, inputTokens, outputTokens)
}

// maxTokens resolves the effective output cap for a request.
func (b *base) maxTokens(request *llm.Request) int64 {
	if request.MaxTokens > 0 {
		if b.desc.MaxTokens > 0 && request.MaxTokens > b.desc.MaxTokens {
			return b.desc.MaxTokens
		}

		return request.MaxTokens
	}

	if b.desc.MaxTokens > 0 {
		return b.desc.MaxTokens
	}

	return defaultMaxTokens
}

const defaultMaxTokens = 4096
