package ollama

import (
	"log/slog"

	"helpdesk/pkg/config"
	"helpdesk/pkg/llm"
)

// OllamaFactory handles creation of Ollama Clients
type OllamaFactory struct{}

// Create implements ProviderFactory
func (f *OllamaFactory) Create(cfg llm.ProviderGroupConfig, sys *config.SystemConfig) ([]llm.Client, error) {
	var clients []llm.Client

	for _, model := range cfg.Models {
		// Factory guarantees a valid URL (if not set in config, it remains empty or client uses default)
		client, err := NewOllamaClient(model, cfg.BaseURL, cfg.Options)
		if err != nil {
			slog.Error("Failed to create Ollama client", "model", model, "error", err)
			continue
		}
		clients = append(clients, client)
	}
	return clients, nil
}

func init() {
	llm.RegisterProvider("ollama", &OllamaFactory{})
}
