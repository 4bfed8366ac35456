package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aretw0/circuitry"
	"github.com/aretw0/circuitry/pkg/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	eng, err := circuitry.New()
	require.NoError(t, err)
	return NewHandler(eng)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createWorkspace(t *testing.T, h http.Handler) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/workspaces", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[WorkspaceResponse](t, w).Name
}

// buildInverter wires input -> not -> output through the API.
func buildInverter(t *testing.T, h http.Handler, name string) {
	t.Helper()
	base := "/workspaces/" + name
	for i, kind := range []string{"input", "not", "output"} {
		w := do(t, h, http.MethodPost, base+"/components", domain.ComponentDoc{Kind: kind, X: float64(i)})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, i, decodeBody[ComponentResponse](t, w).Index)
	}
	w := do(t, h, http.MethodPost, base+"/connections", []domain.ConnectionDoc{
		{From: domain.Endpoint{Component: 0}, To: domain.Endpoint{Component: 1}},
		{From: domain.Endpoint{Component: 1}, To: domain.Endpoint{Component: 2}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(t, h, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeBody[map[string]string](t, w)
	assert.Equal(t, strings.TrimSpace(circuitry.Version), info["version"])

	w = do(t, h, http.MethodOptions, "/workspaces", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWorkspaceLifecycle(t *testing.T) {
	h := newTestHandler(t)
	name := createWorkspace(t, h)
	buildInverter(t, h, name)
	base := "/workspaces/" + name

	w := do(t, h, http.MethodPost, base+"/process", ProcessRequest{Bits: "0"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1", decodeBody[ProcessResponse](t, w).Bits)

	w = do(t, h, http.MethodGet, base+"/truth-table", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []TruthRow{{Inputs: "0", Outputs: "1"}, {Inputs: "1", Outputs: "0"}}, decodeBody[[]TruthRow](t, w))

	w = do(t, h, http.MethodGet, "/workspaces", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeBody[[]string](t, w), name)

	w = do(t, h, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decodeBody[StateResponse](t, w)
	assert.Len(t, state.Document.Components, 3)
	assert.Len(t, state.Document.Connections, 2)
	assert.Equal(t, 4, state.Undo)

	w = do(t, h, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUndoRedo(t *testing.T) {
	h := newTestHandler(t)
	name := createWorkspace(t, h)
	base := "/workspaces/" + name

	w := do(t, h, http.MethodPost, base+"/undo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeBody[StepResponse](t, w).Changed)

	w = do(t, h, http.MethodPost, base+"/components", domain.ComponentDoc{Kind: "and", Inputs: 3})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, h, http.MethodPost, base+"/undo", nil)
	step := decodeBody[StepResponse](t, w)
	assert.True(t, step.Changed)
	assert.Empty(t, step.Document.Components)
	assert.Equal(t, 1, step.Redo)

	w = do(t, h, http.MethodPost, base+"/redo", nil)
	step = decodeBody[StepResponse](t, w)
	assert.True(t, step.Changed)
	require.Len(t, step.Document.Components, 1)
	assert.Equal(t, 3, step.Document.Components[0].Inputs)
}

func TestEditEndpoints(t *testing.T) {
	h := newTestHandler(t)
	name := createWorkspace(t, h)
	buildInverter(t, h, name)
	base := "/workspaces/" + name

	w := do(t, h, http.MethodPatch, base+"/components/1", domain.Point{X: 7, Y: 8})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doc := decodeBody[StateResponse](t, w).Document
	assert.Equal(t, 7.0, doc.Components[1].X)

	w = do(t, h, http.MethodDelete, base+"/connections/2/0", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeBody[StateResponse](t, w).Document.Connections, 1)

	w = do(t, h, http.MethodDelete, base+"/connections/2/0", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodDelete, base+"/components/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decodeBody[StateResponse](t, w)
	assert.Len(t, state.Document.Components, 2)
	assert.Empty(t, state.Document.Connections)

	w = do(t, h, http.MethodPost, base+"/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[StateResponse](t, w).Document.Components)
}

func TestImportAndCustom(t *testing.T) {
	h := newTestHandler(t)
	doc := &domain.Document{
		Components: []domain.ComponentDoc{{Kind: "input"}, {Kind: "input"}, {Kind: "nand"}, {Kind: "output"}},
		Connections: []domain.ConnectionDoc{
			{From: domain.Endpoint{Component: 0}, To: domain.Endpoint{Component: 2, Slot: 0}},
			{From: domain.Endpoint{Component: 1}, To: domain.Endpoint{Component: 2, Slot: 1}},
			{From: domain.Endpoint{Component: 2}, To: domain.Endpoint{Component: 3}},
		},
	}

	w := do(t, h, http.MethodPut, "/workspaces/gates", doc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1", decodeBody[StateResponse](t, w).Outputs)

	w = do(t, h, http.MethodPost, "/workspaces/gates/custom", CustomRequest{Name: "mynand"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, CustomResponse{Name: "mynand", Inputs: 2, Outputs: 1}, decodeBody[CustomResponse](t, w))

	w = do(t, h, http.MethodGet, "/library", nil)
	assert.Equal(t, []string{"mynand"}, decodeBody[[]string](t, w))
	w = do(t, h, http.MethodGet, "/kinds", nil)
	assert.Contains(t, decodeBody[[]string](t, w), "mynand")

	name := createWorkspace(t, h)
	w = do(t, h, http.MethodPost, "/workspaces/"+name+"/components", domain.ComponentDoc{Kind: "mynand"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestEvaluate(t *testing.T) {
	h := newTestHandler(t)
	body := map[string]any{
		"circuit": map[string]any{
			"components": []map[string]any{{"type": "input"}, {"type": "input"}, {"type": "xor"}, {"type": "output"}},
			"connections": []map[string]any{
				{"from": []int{0, 0}, "to": []int{2, 0}},
				{"from": []int{1, 0}, "to": []int{2, 1}},
				{"from": []int{2, 0}, "to": []int{3, 0}},
			},
		},
		"inputs": []bool{true, false},
	}
	w := do(t, h, http.MethodPost, "/evaluate", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []bool{true}, decodeBody[ProcessResponse](t, w).Outputs)

	w = do(t, h, http.MethodPost, "/evaluate", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestErrorMapping(t *testing.T) {
	h := newTestHandler(t)
	name := createWorkspace(t, h)
	base := "/workspaces/" + name

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		raw    string
		want   int
	}{
		{name: "unknown workspace", method: http.MethodGet, path: "/workspaces/nope", want: http.StatusNotFound},
		{name: "unknown kind", method: http.MethodPost, path: base + "/components", body: domain.ComponentDoc{Kind: "flux"}, want: http.StatusUnprocessableEntity},
		{name: "bad arity", method: http.MethodPost, path: base + "/components", body: domain.ComponentDoc{Kind: "not", Inputs: 2}, want: http.StatusUnprocessableEntity},
		{name: "bad json", method: http.MethodPost, path: base + "/components", raw: "{", want: http.StatusBadRequest},
		{name: "bad index", method: http.MethodDelete, path: base + "/components/x", want: http.StatusBadRequest},
		{name: "missing component", method: http.MethodDelete, path: base + "/components/9", want: http.StatusNotFound},
		{name: "bad bits", method: http.MethodPost, path: base + "/process", body: ProcessRequest{Bits: "2"}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.raw != "" {
				req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.raw))
				w = httptest.NewRecorder()
				h.ServeHTTP(w, req)
			} else {
				w = do(t, h, tt.method, tt.path, tt.body)
			}
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.NotEmpty(t, decodeBody[ErrorResponse](t, w).Error)
		})
	}
}

func TestConnectCycleConflict(t *testing.T) {
	h := newTestHandler(t)
	name := createWorkspace(t, h)
	base := "/workspaces/" + name
	for range 2 {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, base+"/components", domain.ComponentDoc{Kind: "not"}).Code)
	}

	w := do(t, h, http.MethodPost, base+"/connections", []domain.ConnectionDoc{
		{From: domain.Endpoint{Component: 0}, To: domain.Endpoint{Component: 1}},
		{From: domain.Endpoint{Component: 1}, To: domain.Endpoint{Component: 0}},
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, base, nil)
	assert.Empty(t, decodeBody[StateResponse](t, w).Document.Connections)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
	assert.Equal(t, http.StatusConflict, StatusFor(&domain.CycleError{}))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(&domain.UnknownKindError{Kind: "x"}))
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("a")
	assert.Equal(t, 1, sm.Subscribers("a"))

	sm.Broadcast("a", "hello")
	sm.Broadcast("b", "ignored")
	assert.Equal(t, "hello", <-ch)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("a"))
	_, ok := <-ch
	assert.False(t, ok)
}

func TestSubscribeEvents(t *testing.T) {
	eng, err := circuitry.New()
	require.NoError(t, err)
	srv := &Server{Engine: eng, Streams: NewStreamManager(), logger: eng.Logger()}
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events?workspace=live&watch=add_component", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	require.Eventually(t, func() bool { return srv.Streams.Subscribers("live") == 1 }, time.Second, 10*time.Millisecond)

	put, err := http.NewRequest(http.MethodPut, ts.URL+"/workspaces/live", strings.NewReader(`{"components":[]}`))
	require.NoError(t, err)
	r1, err := ts.Client().Do(put)
	require.NoError(t, err)
	r1.Body.Close()

	r2, err := ts.Client().Post(ts.URL+"/workspaces/live/components", "application/json", strings.NewReader(`{"type":"or"}`))
	require.NoError(t, err)
	r2.Body.Close()
	require.Equal(t, http.StatusCreated, r2.StatusCode)

	var event ChangeEvent
	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(line, "data: {"); ok {
			require.NoError(t, json.Unmarshal([]byte("{"+strings.TrimSpace(data)), &event))
			break
		}
	}
	assert.Equal(t, ChangeEvent{Workspace: "live", Op: "add_component", Undo: 2}, event)

	cancel()
}

func TestSubscribeEventsRequiresWorkspace(t *testing.T) {
	h := newTestHandler(t)
	w := do(t, h, http.MethodGet, "/events", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
