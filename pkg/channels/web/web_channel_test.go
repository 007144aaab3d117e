package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"helpdesk/pkg/api"
)

// fakeRunner is a canned api.TurnRunner for handler tests.
type fakeRunner struct {
	result   *api.TurnResult
	err      error
	sessions map[string][]api.HistoryEntry
	lastReq  *api.TurnRequest
}

func (f *fakeRunner) RunTurn(ctx context.Context, req *api.TurnRequest) (*api.TurnResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeRunner) NewSession() string { return "sess-123" }

func (f *fakeRunner) ClearSession(id string) bool {
	_, ok := f.sessions[id]
	return ok
}

func (f *fakeRunner) SessionHistory(id string) ([]api.HistoryEntry, bool) {
	entries, ok := f.sessions[id]
	return entries, ok
}

func newTestServer(runner *fakeRunner) *httptest.Server {
	channel := NewWebChannel(WebConfig{}, runner, nil)
	return httptest.NewServer(channel.routes())
}

func TestHandleChat(t *testing.T) {
	runner := &fakeRunner{result: &api.TurnResult{
		SessionID:   "sess-123",
		Message:     "Here you go.",
		SourcesUsed: []string{"Product Catalog"},
		ToolsCalled: []string{"list_products"},
	}}
	srv := newTestServer(runner)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/chat", "application/json",
		strings.NewReader(`{"session_id":"sess-123","message":"what do you sell?"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var result api.TurnResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Message != "Here you go." {
		t.Errorf("message = %q", result.Message)
	}
	if runner.lastReq.Channel != "web" {
		t.Errorf("channel = %q, want web", runner.lastReq.Channel)
	}
}

func TestHandleChatBadRequests(t *testing.T) {
	srv := newTestServer(&fakeRunner{})
	defer srv.Close()

	// Invalid JSON body
	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader("{nope"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid JSON: status = %d, want 400", resp.StatusCode)
	}

	// Empty message fails validation
	resp, err = http.Post(srv.URL+"/chat", "application/json", strings.NewReader(`{"message":"  "}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty message: status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleChatUpstreamFailure(t *testing.T) {
	srv := newTestServer(&fakeRunner{err: errors.New("all fallback providers failed")})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(`{"message":"hello"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestHandleNewSession(t *testing.T) {
	srv := newTestServer(&fakeRunner{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/session/new", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["session_id"] != "sess-123" {
		t.Errorf("session_id = %q", body["session_id"])
	}
}

func TestHandleClearSession(t *testing.T) {
	runner := &fakeRunner{sessions: map[string][]api.HistoryEntry{"sess-123": nil}}
	srv := newTestServer(runner)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/session/sess-123/clear", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("known session: status = %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/session/missing/clear", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown session: status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleHistory(t *testing.T) {
	runner := &fakeRunner{sessions: map[string][]api.HistoryEntry{
		"sess-123": {
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello!"},
		},
	}}
	srv := newTestServer(runner)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/session/sess-123/history")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		SessionID string             `json:"session_id"`
		History   []api.HistoryEntry `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SessionID != "sess-123" || len(body.History) != 2 {
		t.Errorf("unexpected history payload: %+v", body)
	}

	resp, err = http.Get(srv.URL + "/session/missing/history")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown session: status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(&fakeRunner{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	var body struct {
		Status     string `json:"status"`
		ToolsReady bool   `json:"tools_ready"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "healthy" {
		t.Errorf("status = %q, want healthy", body.Status)
	}
	if body.ToolsReady {
		t.Error("tools_ready = true without a gateway")
	}
}

func TestHandleAdminToolsWithoutGateway(t *testing.T) {
	srv := newTestServer(&fakeRunner{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/admin/tools")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Tools []any `json:"tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Tools) != 0 {
		t.Errorf("expected empty tool list, got %v", body.Tools)
	}
}
