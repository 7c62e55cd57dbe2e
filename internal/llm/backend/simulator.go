package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/neuraform/neuraform/internal/llm"
	"github.com/neuraform/neuraform/internal/pkg/httpclient"
	"github.com/neuraform/neuraform/internal/pkg/streams"
	"github.com/neuraform/neuraform/internal/policy"
)

// simulatorAdapter produces deterministic canned completions without any
// network calls. It backs local development and the end-to-end tests.
type simulatorAdapter struct {
	desc policy.BackendDescriptor
}

func newSimulator(desc policy.BackendDescriptor, _ *httpclient.HttpClient) (Adapter, error) {
	return &simulatorAdapter{desc: desc}, nil
}

func (a *simulatorAdapter) Descriptor() policy.BackendDescriptor {
	return a.desc
}

func (a *simulatorAdapter) complete(request *llm.Request) (string, llm.Usage) {
	text := fmt.Sprintf("[%s] Simulated response to: %s", a.desc.ID, request.Prompt)

	return text, llm.Usage{
		InputTokens:  llm.EstimateTokens(request.Prompt),
		OutputTokens: llm.EstimateTokens(text),
	}
}

func (a *simulatorAdapter) Generate(_ context.Context, request *llm.Request) (*llm.Response, error) {
	text, usage := a.complete(request)

	return &llm.Response{
		Text:     text,
		Model:    a.desc.ID,
		Provider: a.desc.Provider,
		Usage:    usage,
	}, nil
}

func (a *simulatorAdapter) StreamGenerate(_ context.Context, request *llm.Request) (streams.Stream[*llm.Chunk], error) {
	text, usage := a.complete(request)

	words := strings.SplitAfter(text, " ")

	chunks := make([]*llm.Chunk, 0, len(words)+1)
	for _, word := range words {
		chunks = append(chunks, &llm.Chunk{Text: word})
	}

	chunks = append(chunks, &llm.Chunk{Usage: &usage})

	return streams.SliceStream(chunks), nil
}

func (a *simulatorAdapter) CalculateCost(inputTokens, outputTokens int64) decimal.Decimal {
	return CalculateCost(a.desc.Pricing, inputTokens, outputTokens)
}

func (a *simulatorAdapter) IsAvailable(_ context.Context) bool {
	return true
}
