package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/automaton/pkg/adapters/memory"
	"github.com/aretw0/automaton/pkg/definition"
	"github.com/aretw0/automaton/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	def := &definition.Definition{
		Name:    "turnstile",
		Initial: "locked",
		Transitions: []definition.Transition{
			{From: "locked", On: "coin", Do: "unlock", To: "unlocked"},
			{From: "unlocked", On: "push", Do: "lock", To: "locked"},
		},
	}
	return NewServer(session.NewManager(memory.NewStore()), def)
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", res.Content[0])
	return ""
}

func TestTools_SessionFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleStartSession(ctx, call(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var state StateResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &state))
	assert.Equal(t, StateResponse{SessionID: "s1", State: "locked", Accepts: []string{"coin"}}, state)

	res, err = s.handleFireEvent(ctx, call(map[string]any{"session_id": "s1", "event": "coin"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var fired session.Result
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &fired))
	assert.Equal(t, "unlock", fired.Action)
	assert.Equal(t, "unlocked", fired.State)

	res, err = s.handleGetState(ctx, call(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &state))
	assert.Equal(t, "unlocked", state.State)
	assert.Equal(t, []string{"push"}, state.Accepts)
}

func TestTools_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	_, err := s.handleStartSession(ctx, call(map[string]any{"session_id": "s"}))
	require.NoError(t, err)

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
		errMsg  string
	}{
		{"Illegal Event", s.handleFireEvent, map[string]any{"session_id": "s", "event": "push"}, `event "push" not supported in state "locked"`},
		{"Unknown Session", s.handleFireEvent, map[string]any{"session_id": "ghost", "event": "coin"}, "session not found"},
		{"Missing Event", s.handleFireEvent, map[string]any{"session_id": "s"}, "event"},
		{"Missing Session", s.handleGetState, map[string]any{}, "session_id"},
		{"Duplicate Start", s.handleStartSession, map[string]any{"session_id": "s"}, "already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.handler(ctx, call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.errMsg)
		})
	}
}

func TestTools_GetGraph(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleGetGraph(context.Background(), call(nil))
	require.NoError(t, err)

	var graph struct {
		Name    string     `json:"name"`
		Initial string     `json:"initial"`
		Edges   [][]string `json:"edges"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &graph))
	assert.Equal(t, "turnstile", graph.Name)
	assert.Equal(t, [][]string{
		{"locked", "coin", "unlock", "unlocked"},
		{"unlocked", "push", "lock", "locked"},
	}, graph.Edges)
}
