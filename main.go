package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"helpdesk/pkg/agent"
	"helpdesk/pkg/api"
	"helpdesk/pkg/channels"
	"helpdesk/pkg/config"
	"helpdesk/pkg/data"
	"helpdesk/pkg/llm"
	"helpdesk/pkg/mcp"
	"helpdesk/pkg/monitor"
	"helpdesk/pkg/rag"
	"helpdesk/pkg/tools"

	_ "helpdesk/pkg/channels/autoload"
	_ "helpdesk/pkg/llm/autoload"
)

// sessionPruneInterval controls how often idle sessions are reaped.
const sessionPruneInterval = 10 * time.Minute

// sessionMaxIdle is how long a session may sit untouched before reaping.
const sessionMaxIdle = 2 * time.Hour

func main() {
	monitor.PrintBanner()

	cfg, sysCfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	monitor.SetupSlog(sysCfg.LogLevel)
	slog.Info("Configuration loaded", "company", cfg.CompanyName(), "log_level", sysCfg.LogLevel)

	// 1. LLM clients (with fallback ordering from config)
	client, err := llm.NewFromConfig(cfg.LLM, sysCfg)
	if err != nil {
		slog.Error("Failed to initialize LLM clients", "error", err)
		os.Exit(1)
	}

	// 2. Tool backends: remote MCP plus local CSV / knowledge-base tools
	gateway := buildGateway(cfg)

	// 3. Monitor hub with the CLI sink always attached
	hub := monitor.NewHub()
	hub.Register(monitor.NewCLIMonitor())

	// 4. Session registry (the turn runner shared by all channels)
	registry := agent.NewRegistry(agent.RegistryConfig{
		Client:       client,
		Gateway:      gateway,
		Company:      cfg.CompanyName(),
		SystemPrompt: cfg.SystemPrompt,
		System:       sysCfg,
		Observer:     hub,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ticker := time.NewTicker(sessionPruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				registry.PruneIdle(sessionMaxIdle)
			}
		}
	}()

	// 5. Channels
	loaded := channels.LoadFromConfig(cfg.Channels, channels.Deps{
		Runner:  registry,
		System:  sysCfg,
		Hub:     hub,
		Gateway: gateway,
	})
	if len(loaded) == 0 {
		slog.Error("No channels configured, nothing to serve")
		os.Exit(1)
	}

	if err := hub.StartAll(); err != nil {
		slog.Error("Failed to start monitors", "error", err)
		os.Exit(1)
	}

	for _, ch := range loaded {
		if err := ch.Start(ctx); err != nil {
			slog.Error("Failed to start channel", "channel", ch.ID(), "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Service ready", "channels", len(loaded), "sessions", registry.Len())

	// Block until SIGINT/SIGTERM, then shut channels down in order
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("Shutting down", "signal", sig.String())

	cancel()
	for _, ch := range loaded {
		if err := ch.Stop(); err != nil {
			slog.Warn("Channel stop failed", "channel", ch.ID(), "error", err)
		}
	}
	hub.StopAll()
}

// buildGateway assembles the tool gateway from the configured backends.
// Returns nil when no backend is configured so the agent runs tool-less.
func buildGateway(cfg *config.Config) *tools.Gateway {
	var backends []tools.Backend

	if url := cfg.Tools.MCPServerURL; url != "" {
		backends = append(backends, mcp.NewClient(url))
		slog.Info("MCP backend configured", "endpoint", url)
	}

	registry := tools.NewRegistry()

	if dir := cfg.Tools.DataDir; dir != "" {
		store, err := data.NewStore(dir)
		if err != nil {
			slog.Warn("Local data tools disabled", "error", err)
		} else {
			data.RegisterTools(registry, store)
			slog.Info("Local data tools registered", "dir", dir)
		}
	}

	if kc := cfg.Tools.Knowledge; kc != nil {
		store, err := rag.NewQdrantStore(rag.QdrantConfig{
			URL:            kc.QdrantURL,
			CollectionName: kc.Collection,
			APIKey:         kc.QdrantAPIKey,
		})
		if err != nil {
			slog.Warn("Knowledge base tool disabled", "error", err)
		} else {
			embedder := rag.NewOpenAIEmbedder(kc.EmbeddingAPIKey, kc.EmbeddingModel)
			registry.Register(rag.NewKnowledgeTool(embedder, store, kc.TopK))
			slog.Info("Knowledge base tool registered", "collection", kc.Collection)
		}
	}

	if defs, _ := registry.ListTools(context.Background()); len(defs) > 0 {
		backends = append(backends, registry)
	}

	if len(backends) == 0 {
		slog.Warn("No tool backends configured")
		return nil
	}
	return tools.NewGateway(backends...)
}

// Compile-time check: the registry serves every channel as a TurnRunner.
var _ api.TurnRunner = (*agent.Registry)(nil)
