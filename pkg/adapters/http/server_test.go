package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	api "github.com/aretw0/automaton/pkg/adapters/http"
	"github.com/aretw0/automaton/pkg/adapters/memory"
	"github.com/aretw0/automaton/pkg/definition"
	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/aretw0/automaton/pkg/observability"
	"github.com/aretw0/automaton/pkg/registry"
	"github.com/aretw0/automaton/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const turnstileYAML = `
name: turnstile
initial: locked
transitions:
  - {from: locked, on: coin, do: unlock, to: unlocked}
  - {from: locked, on: push}
  - {from: unlocked, on: push, do: lock, to: locked}
  - {from: unlocked, on: coin, do: refund}
`

func newTestServer(t *testing.T, opts ...api.Option) (*api.Server, *httptest.Server) {
	t.Helper()
	def, err := definition.Parse([]byte(turnstileYAML))
	require.NoError(t, err)

	srv := api.NewServer(session.NewManager(memory.NewStore()), def, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, url, nil)
	} else {
		req, err = http.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestGraph(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/graph", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	graph := decode[api.GraphResponse](t, resp)
	assert.Equal(t, "turnstile", graph.Name)
	assert.Equal(t, "locked", graph.Initial)
	assert.Equal(t, []string{"locked", "unlocked"}, graph.States)
	assert.Len(t, graph.Edges, 4)
	assert.Equal(t, fsm.Edge{Source: "locked", Event: "coin", Action: "unlock", Target: "unlocked"}, graph.Edges[0])
}

func TestSessionLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/sessions", `{"id":"s1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.SessionResponse](t, resp)
	assert.Equal(t, api.SessionResponse{ID: "s1", State: "locked", Accepts: []string{"coin", "push"}}, created)

	resp = do(t, http.MethodPost, ts.URL+"/sessions/s1/events", `{"event":"coin"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t,
		session.Result{SessionID: "s1", Event: "coin", Action: "unlock", State: "unlocked"},
		decode[session.Result](t, resp),
	)

	resp = do(t, http.MethodGet, ts.URL+"/sessions/s1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unlocked", decode[api.SessionResponse](t, resp).State)

	resp = do(t, http.MethodGet, ts.URL+"/sessions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string][]string{"sessions": {"s1"}}, decode[map[string][]string](t, resp))

	resp = do(t, http.MethodDelete, ts.URL+"/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateSession_GeneratedID(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.SessionResponse](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "locked", created.State)
}

func TestCreateSession_Conflict(t *testing.T) {
	_, ts := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/sessions", `{"id":"dup"}`).StatusCode)
	assert.Equal(t, http.StatusConflict, do(t, http.MethodPost, ts.URL+"/sessions", `{"id":"dup"}`).StatusCode)
}

func TestFireEvent_Errors(t *testing.T) {
	_, ts := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/sessions", `{"id":"s"}`).StatusCode)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		errMsg string
	}{
		{"Illegal Event", "/sessions/s/events", `{"event":"kick"}`, http.StatusUnprocessableEntity, `event "kick" not supported in state "locked"`},
		{"Unknown Session", "/sessions/ghost/events", `{"event":"coin"}`, http.StatusNotFound, "session not found"},
		{"Malformed Body", "/sessions/s/events", `{`, http.StatusBadRequest, "invalid request body"},
		{"Empty Event", "/sessions/s/events", `{"event":""}`, http.StatusBadRequest, "event is required"},
		{"Control Characters Only", "/sessions/s/events", `{"event":"\u0007"}`, http.StatusBadRequest, "event is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode[map[string]string](t, resp)
			assert.Contains(t, body["error"], tt.errMsg)
		})
	}

	// Rejected events leave the session where it was.
	resp := do(t, http.MethodGet, ts.URL+"/sessions/s", "")
	assert.Equal(t, "locked", decode[api.SessionResponse](t, resp).State)
}

func TestFireEvent_ActionFailureReportsCommittedState(t *testing.T) {
	def, err := definition.Parse([]byte(turnstileYAML))
	require.NoError(t, err)
	actions := registry.NewRegistry()
	actions.Register("unlock", func(context.Context, fsm.Transition) error {
		return errors.New("coin jammed")
	})
	ts := httptest.NewServer(api.NewHandler(session.NewManager(memory.NewStore(), session.WithActions(actions)), def))
	t.Cleanup(ts.Close)

	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/sessions", `{"id":"s"}`).StatusCode)

	resp := do(t, http.MethodPost, ts.URL+"/sessions/s/events", `{"event":"coin"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[api.FireResponse](t, resp)
	assert.Equal(t, "unlocked", body.State)
	assert.Equal(t, "unlock", body.Action)
	assert.Contains(t, body.Error, "coin jammed")

	resp = do(t, http.MethodGet, ts.URL+"/sessions/s", "")
	assert.Equal(t, "unlocked", decode[api.SessionResponse](t, resp).State)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := observability.NewMetrics(nil)
	def, err := definition.Parse([]byte(turnstileYAML))
	require.NoError(t, err)
	mgr := session.NewManager(memory.NewStore(),
		session.WithAutomatonOptions(fsm.WithHooks(metrics.Hooks())))
	ts := httptest.NewServer(api.NewHandler(mgr, def, api.WithMetrics(metrics)))
	defer ts.Close()

	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/sessions", `{"id":"m"}`).StatusCode)
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, ts.URL+"/sessions/m/events", `{"event":"coin"}`).StatusCode)

	resp := do(t, http.MethodGet, ts.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)
	assert.Contains(t, buf.String(), `automaton_transitions_total{event="coin",from="locked",to="unlocked"} 1`)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	_, ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, ts.URL+"/metrics", "").StatusCode)
}

func TestSetDefinition(t *testing.T) {
	srv, ts := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/sessions", `{"id":"old"}`).StatusCode)

	srv.SetDefinition(&definition.Definition{
		Name:        "door",
		Initial:     "closed",
		Transitions: []definition.Transition{{From: "closed", On: "open", To: "opened"}},
	})

	resp := do(t, http.MethodPost, ts.URL+"/sessions", `{"id":"new"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "closed", decode[api.SessionResponse](t, resp).State)

	resp = do(t, http.MethodGet, ts.URL+"/sessions/old", "")
	assert.Equal(t, "locked", decode[api.SessionResponse](t, resp).State)
}
