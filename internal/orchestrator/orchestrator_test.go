package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuraform/neuraform/internal/audit"
	"github.com/neuraform/neuraform/internal/authz"
	"github.com/neuraform/neuraform/internal/llm"
	"github.com/neuraform/neuraform/internal/llm/backend"
	"github.com/neuraform/neuraform/internal/objects"
	"github.com/neuraform/neuraform/internal/pii"
	"github.com/neuraform/neuraform/internal/pkg/httpclient"
	"github.com/neuraform/neuraform/internal/pkg/streams"
	"github.com/neuraform/neuraform/internal/policy"
	"github.com/neuraform/neuraform/internal/router"
)

// generateCalls counts echo backend invocations across one test run.
var generateCalls atomic.Int64

func init() {
	backend.Register("echo", func(desc policy.BackendDescriptor, _ *httpclient.HttpClient) (backend.Adapter, error) {
		return &echoAdapter{desc: desc}, nil
	})
}

// echoAdapter reflects the assembled prompt back, so redaction of model
// output can be exercised deterministically.
type echoAdapter struct {
	desc policy.BackendDescriptor
}

func (a *echoAdapter) Descriptor() policy.BackendDescriptor {
	return a.desc
}

func (a *echoAdapter) IsAvailable(context.Context) bool {
	return true
}

func (a *echoAdapter) Generate(_ context.Context, request *llm.Request) (*llm.Response, error) {
	generateCalls.Add(1)

	return &llm.Response{
		Text:     "echo: " + request.Prompt,
		Model:    a.desc.ID,
		Provider: a.desc.Provider,
		Usage:    llm.Usage{InputTokens: 1000, OutputTokens: 1000},
	}, nil
}

func (a *echoAdapter) StreamGenerate(ctx context.Context, request *llm.Request) (streams.Stream[*llm.Chunk], error) {
	resp, err := a.Generate(ctx, request)
	if err != nil {
		return nil, err
	}

	return streams.SliceStream([]*llm.Chunk{{Text: resp.Text, Usage: &resp.Usage}}), nil
}

func (a *echoAdapter) CalculateCost(inputTokens, outputTokens int64) decimal.Decimal {
	return backend.CalculateCost(a.desc.Pricing, inputTokens, outputTokens)
}

// captureEmitter hands entries to the test through a channel.
type captureEmitter struct {
	entries chan audit.Entry
}

func (e *captureEmitter) Emit(_ context.Context, entry audit.Entry) {
	e.entries <- entry
}

func testDocument(backends ...policy.BackendDoc) policy.Document {
	return policy.Document{
		DefaultModel: "echo-1",
		Roles: []policy.RoleDoc{
			{ID: "analyst", Name: "Analyst", Tier: "standard"},
			{ID: "super_admin", Name: "Super Admin", Tier: "super_admin"},
		},
		Personas: []policy.PersonaDoc{
			{ID: "assistant", SystemPrompt: "You are a helpful assistant.", AllowedModels: []string{"echo-1"}},
		},
		Backends: backends,
		PII: policy.PIIDoc{
			Patterns: []policy.PatternDoc{
				{
					Name:        "email",
					Pattern:     `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`,
					Sensitivity: "high",
				},
			},
			Redaction: policy.RedactionDoc{
				DefaultMethod: "mask_all",
				Methods:       map[string]string{"email": "mask_partial"},
			},
		},
	}
}

func echoBackend(id string) policy.BackendDoc {
	return policy.BackendDoc{
		ID:       id,
		Provider: "echo",
		Enabled:  true,
		Pricing:  policy.PricingDoc{InputPer1K: 0.01, OutputPer1K: 0.03},
	}
}

func setupOrchestrator(t *testing.T, doc policy.Document, emitter AuditEmitter) *Orchestrator {
	t.Helper()

	store := policy.NewStoreFromDocument(doc)
	registry := router.NewRegistry(context.Background(), router.Config{}, store, nil)

	return New(
		Config{AuditTimeout: time.Second},
		authz.NewChecker(store),
		pii.NewScanner(store),
		router.NewRouter(registry, store),
		emitter,
	)
}

func TestProcessCrossDivisionDenied(t *testing.T) {
	orchestrator := setupOrchestrator(t, testDocument(echoBackend("echo-1")), nil)

	before := generateCalls.Load()

	result, err := orchestrator.Process(context.Background(), "show manufacturing output", objects.RequestContext{
		UserID:           "u1",
		DivisionID:       "fmcg",
		DepartmentID:     "sales",
		RoleID:           "analyst",
		TargetDivisionID: "manufacturing",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Error)
	assert.Contains(t, result.Message, "Authorization failed")
	assert.Empty(t, result.Text)

	// The rejection happens before any backend is touched.
	assert.Equal(t, before, generateCalls.Load())
}

func TestProcessSuperAdminCrossesDivisions(t *testing.T) {
	orchestrator := setupOrchestrator(t, testDocument(echoBackend("echo-1")), nil)

	result, err := orchestrator.Process(context.Background(), "show manufacturing output", objects.RequestContext{
		UserID:           "u1",
		DivisionID:       "fmcg",
		DepartmentID:     "sales",
		RoleID:           "super_admin",
		TargetDivisionID: "manufacturing",
	})
	require.NoError(t, err)
	assert.False(t, result.Error)
	assert.Equal(t, "echo-1", result.ModelID)
}

func TestProcessRedactsResponse(t *testing.T) {
	emitter := &captureEmitter{entries: make(chan audit.Entry, 1)}
	orchestrator := setupOrchestrator(t, testDocument(echoBackend("echo-1")), emitter)

	result, err := orchestrator.Process(context.Background(), "email me at test@example.com", objects.RequestContext{
		UserID:       "u1",
		DivisionID:   "fmcg",
		DepartmentID: "sales",
		RoleID:       "analyst",
		PersonaID:    "assistant",
	})
	require.NoError(t, err)
	require.False(t, result.Error)

	assert.NotContains(t, result.Text, "test@example.com")
	assert.Contains(t, result.Text, "te***@example.com")

	require.Len(t, result.RedactedPII, 1)
	assert.Equal(t, "email", result.RedactedPII[0].Type)
	assert.Equal(t, "high", result.RedactedPII[0].Sensitivity)

	assert.Equal(t, int64(2000), result.TokensUsed)
	assert.True(t, result.Cost.Equal(decimal.RequireFromString("0.04")), "got %s", result.Cost)

	select {
	case entry := <-emitter.entries:
		assert.Equal(t, "u1", entry.UserID)
		assert.Equal(t, "fmcg", entry.DivisionID)
		assert.Equal(t, "echo-1", entry.ModelID)
		assert.Equal(t, int64(2000), entry.TokensUsed)
		assert.Equal(t, 1, entry.PIICount)
		assert.True(t, entry.Cost.Equal(decimal.RequireFromString("0.04")))
	case <-time.After(2 * time.Second):
		t.Fatal("audit entry was not emitted")
	}
}

func TestProcessInvalidInput(t *testing.T) {
	orchestrator := setupOrchestrator(t, testDocument(echoBackend("echo-1")), nil)

	tests := []struct {
		name   string
		query  string
		reqCtx objects.RequestContext
	}{
		{
			name:   "empty query",
			query:  "",
			reqCtx: objects.RequestContext{UserID: "u1", DivisionID: "fmcg", RoleID: "analyst"},
		},
		{
			name:   "missing user",
			query:  "hi",
			reqCtx: objects.RequestContext{DivisionID: "fmcg", RoleID: "analyst"},
		},
		{
			name:   "missing division",
			query:  "hi",
			reqCtx: objects.RequestContext{UserID: "u1", RoleID: "analyst"},
		},
		{
			name:   "missing role",
			query:  "hi",
			reqCtx: objects.RequestContext{UserID: "u1", DivisionID: "fmcg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := orchestrator.Process(context.Background(), tt.query, tt.reqCtx)
			require.ErrorIs(t, err, ErrInvalidInput)
			require.NotNil(t, result)
			assert.True(t, result.Error)
			assert.NotEmpty(t, result.Message)
		})
	}
}

func TestProcessNoBackendAvailable(t *testing.T) {
	orchestrator := setupOrchestrator(t, testDocument(), nil)

	result, err := orchestrator.Process(context.Background(), "hi", objects.RequestContext{
		UserID:       "u1",
		DivisionID:   "fmcg",
		DepartmentID: "sales",
		RoleID:       "analyst",
	})
	require.ErrorIs(t, err, ErrNoBackendAvailable)
	require.NotNil(t, result)
	assert.True(t, result.Error)
	assert.Contains(t, result.Message, "Error generating response")
}

func TestProcessUnknownRoleDenied(t *testing.T) {
	orchestrator := setupOrchestrator(t, testDocument(echoBackend("echo-1")), nil)

	result, err := orchestrator.Process(context.Background(), "hi", objects.RequestContext{
		UserID:     "u1",
		DivisionID: "fmcg",
		RoleID:     "ghost",
	})
	require.NoError(t, err)
	assert.True(t, result.Error)
}
