package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuraform/neuraform/internal/authz"
	"github.com/neuraform/neuraform/internal/orchestrator"
	"github.com/neuraform/neuraform/internal/pii"
	"github.com/neuraform/neuraform/internal/policy"
	"github.com/neuraform/neuraform/internal/router"
)

func testShell(t *testing.T, input string) (*Shell, *bytes.Buffer) {
	t.Helper()

	store := policy.NewStoreFromDocument(policy.Document{
		DefaultModel: "sim-1",
		Roles: []policy.RoleDoc{
			{ID: "analyst", Tier: "standard"},
		},
		Backends: []policy.BackendDoc{
			{ID: "sim-1", Provider: "simulator", Enabled: true},
		},
	})

	registry := router.NewRegistry(context.Background(), router.Config{}, store, nil)

	o := orchestrator.New(
		orchestrator.Config{},
		authz.NewChecker(store),
		pii.NewScanner(store),
		router.NewRouter(registry, store),
		nil,
	)

	out := &bytes.Buffer{}

	return &Shell{
		orchestrator: o,
		in:           strings.NewReader(input),
		out:          out,
	}, out
}

func TestShellProcessesQuery(t *testing.T) {
	shell, out := testShell(t, `{"query": "hello", "user_id": "u1", "division_id": "fmcg", "role_id": "analyst"}`+"\n")

	require.NoError(t, shell.Run())

	assert.Contains(t, out.String(), "Simulated response")
	assert.Contains(t, out.String(), "sim-1")
}

func TestShellSkipsBlankAndRejectsInvalid(t *testing.T) {
	shell, out := testShell(t, "\n\nnot json\n")

	require.NoError(t, shell.Run())
	assert.Contains(t, out.String(), "invalid request")
}
