package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"helpdesk/pkg/api"
	"helpdesk/pkg/config"
	"helpdesk/pkg/llm"
	"helpdesk/pkg/tools"
	"helpdesk/pkg/utils"

	"github.com/google/uuid"
)

// TurnObserver receives a notification after every completed turn.
// The monitor channel implements it to broadcast live traffic.
type TurnObserver interface {
	ObserveTurn(req *api.TurnRequest, res *api.TurnResult, took time.Duration)
}

// RegistryConfig carries the shared dependencies every session uses.
type RegistryConfig struct {
	Client       llm.Client
	Gateway      *tools.Gateway
	Company      string
	SystemPrompt string
	System       *config.SystemConfig
	Observer     TurnObserver // optional
}

// Registry owns the session map and implements api.TurnRunner. Engines
// are created on demand and share the classifier, evaluator and driver;
// each keeps its own history, customer name and turn lock.
type Registry struct {
	cfg        RegistryConfig
	classifier *Classifier
	evaluator  *Evaluator
	driver     *Driver

	mu       sync.RWMutex
	sessions map[string]*Engine
}

// NewRegistry creates the session registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.System == nil {
		cfg.System = config.DefaultSystemConfig()
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = config.DefaultSystemPrompt(cfg.Company)
	}
	return &Registry{
		cfg:        cfg,
		classifier: NewClassifier(cfg.Client),
		evaluator:  NewEvaluator(cfg.Client),
		driver:     NewDriver(cfg.Client, cfg.Gateway, cfg.System.MaxToolIterations, cfg.System.EnableTools),
		sessions:   make(map[string]*Engine),
	}
}

// NewSession implements api.TurnRunner.
func (r *Registry) NewSession() string {
	id := utils.GenerateID()
	r.getOrCreate(id)
	slog.Info("Session created", "session", id)
	return id
}

// getOrCreate returns the session's engine, building it on first use.
// Double-checked so concurrent first turns share one engine.
func (r *Registry) getOrCreate(id string) *Engine {
	r.mu.RLock()
	engine, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return engine
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if engine, ok = r.sessions[id]; ok {
		return engine
	}

	engine = &Engine{
		sessionID:        id,
		classifier:       r.classifier,
		evaluator:        r.evaluator,
		driver:           r.driver,
		history:          llm.NewChatHistory(r.cfg.System.HistoryLimit),
		systemPrompt:     r.cfg.SystemPrompt,
		company:          r.cfg.Company,
		maxRegenerations: r.cfg.System.MaxRegenerations,
		turnTimeout:      time.Duration(r.cfg.System.LLMTimeoutMs) * time.Millisecond,
		lastActive:       time.Now(),
	}
	r.sessions[id] = engine
	return engine
}

// RunTurn implements api.TurnRunner.
func (r *Registry) RunTurn(ctx context.Context, req *api.TurnRequest) (*api.TurnResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.SessionID == "" {
		req.SessionID = utils.GenerateID()
	}

	engine := r.getOrCreate(req.SessionID)

	start := time.Now()
	result, err := engine.RunTurn(ctx, req.Message)
	if err != nil {
		return nil, err
	}
	result.TurnID = uuid.NewString()
	result.Timestamp = time.Now()

	took := time.Since(start)
	slog.Info("Turn completed",
		"turn", result.TurnID,
		"session", req.SessionID,
		"channel", req.Channel,
		"tools", len(result.ToolsCalled),
		"regenerations", result.Regenerations,
		"tokens", result.TokenUsage.TotalTokens,
		"took", took.Round(time.Millisecond),
	)

	if r.cfg.Observer != nil {
		r.cfg.Observer.ObserveTurn(req, result, took)
	}
	return result, nil
}

// ClearSession implements api.TurnRunner. The session survives with an
// empty history and a forgotten customer name.
func (r *Registry) ClearSession(sessionID string) bool {
	r.mu.RLock()
	engine, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	engine.reset()
	slog.Info("Session cleared", "session", sessionID)
	return true
}

// SessionHistory implements api.TurnRunner.
func (r *Registry) SessionHistory(sessionID string) ([]api.HistoryEntry, bool) {
	r.mu.RLock()
	engine, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return engine.historyEntries(), true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// PruneIdle drops sessions that have been inactive for longer than
// maxIdle. The session ID age check skips freshly created sessions
// without taking their engine lock.
func (r *Registry) PruneIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	pruned := 0
	for id, engine := range r.sessions {
		if !utils.IsOlderThan(id, maxIdle) {
			continue
		}
		if engine.idleSince(maxIdle) {
			delete(r.sessions, id)
			pruned++
		}
	}
	if pruned > 0 {
		slog.Info("Pruned idle sessions", "count", pruned, "remaining", len(r.sessions))
	}
	return pruned
}
