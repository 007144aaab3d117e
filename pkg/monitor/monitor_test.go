package monitor

import (
	"testing"
	"time"

	"helpdesk/pkg/api"
)

func TestHubFansOutToEveryMonitor(t *testing.T) {
	hub := NewHub()

	var got []TurnEvent
	hub.Register(MonitorFunc(func(ev TurnEvent) { got = append(got, ev) }))
	hub.Register(MonitorFunc(func(ev TurnEvent) { got = append(got, ev) }))

	req := &api.TurnRequest{SessionID: "sess-1", Message: "where is my order?", Channel: "web"}
	res := &api.TurnResult{
		SessionID:     "sess-1",
		Message:       "It shipped yesterday.",
		ToolsCalled:   []string{"get_order"},
		SourcesUsed:   []string{"Order System"},
		Regenerations: 1,
		TokenUsage:    api.TokenUsage{TotalTokens: 120},
	}
	hub.ObserveTurn(req, res, 1500*time.Millisecond)

	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}

	ev := got[0]
	if ev.SessionID != "sess-1" || ev.Channel != "web" {
		t.Errorf("event identity wrong: %+v", ev)
	}
	if ev.UserMessage != "where is my order?" || ev.Reply != "It shipped yesterday." {
		t.Errorf("event payload wrong: %+v", ev)
	}
	if ev.TookMs != 1500 || ev.TotalTokens != 120 || ev.Regenerations != 1 {
		t.Errorf("event counters wrong: %+v", ev)
	}
}

func TestHubStartStopLifecycle(t *testing.T) {
	hub := NewHub()
	hub.Register(MonitorFunc(func(TurnEvent) {}))

	if err := hub.StartAll(); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	hub.StopAll()
}
