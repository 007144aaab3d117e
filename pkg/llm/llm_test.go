package llm

import (
	"context"
	"errors"
	"testing"
)

// stubClient answers from a scripted queue; errors marked transient
// are retryable from the fallback loop's point of view.
type stubClient struct {
	name      string
	results   []*ChatResponse
	errs      []error
	transient bool
	calls     int
}

func (s *stubClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.results) {
		return s.results[i], nil
	}
	return nil, errors.New("stub exhausted")
}

func (s *stubClient) Provider() string { return s.name }

func (s *stubClient) IsTransientError(err error) bool { return s.transient }

func TestFallbackClientFirstProviderWins(t *testing.T) {
	primary := &stubClient{name: "primary", results: []*ChatResponse{{Content: "ok"}}}
	backup := &stubClient{name: "backup"}

	f := &FallbackClient{Clients: []Client{primary, backup}}
	resp, err := f.Chat(context.Background(), &ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("got %q, want ok", resp.Content)
	}
	if backup.calls != 0 {
		t.Error("backup must not be called when primary succeeds")
	}
}

func TestFallbackClientRetriesTransientErrors(t *testing.T) {
	primary := &stubClient{
		name:      "primary",
		errs:      []error{errors.New("503"), nil},
		results:   []*ChatResponse{nil, {Content: "recovered"}},
		transient: true,
	}

	f := &FallbackClient{Clients: []Client{primary}, MaxRetries: 3}
	resp, err := f.Chat(context.Background(), &ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "recovered" {
		t.Errorf("got %q, want recovered", resp.Content)
	}
	if primary.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", primary.calls)
	}
}

func TestFallbackClientSkipsToNextOnHardError(t *testing.T) {
	primary := &stubClient{name: "primary", errs: []error{errors.New("401 unauthorized")}}
	backup := &stubClient{name: "backup", results: []*ChatResponse{{Content: "from-backup"}}}

	f := &FallbackClient{Clients: []Client{primary, backup}, MaxRetries: 3}
	resp, err := f.Chat(context.Background(), &ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "from-backup" {
		t.Errorf("got %q, want from-backup", resp.Content)
	}
	// Hard errors must not burn the retry budget on the same provider
	if primary.calls != 1 {
		t.Errorf("expected a single primary attempt, got %d", primary.calls)
	}
}

func TestFallbackClientAllFail(t *testing.T) {
	a := &stubClient{name: "a", errs: []error{errors.New("down")}}
	b := &stubClient{name: "b", errs: []error{errors.New("also down")}}

	f := &FallbackClient{Clients: []Client{a, b}}
	if _, err := f.Chat(context.Background(), &ChatRequest{}); err == nil {
		t.Fatal("expected error when every provider fails")
	}
}
