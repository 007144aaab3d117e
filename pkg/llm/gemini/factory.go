package gemini

import (
	"log/slog"

	"helpdesk/pkg/config"
	"helpdesk/pkg/llm"
)

// GeminiFactory handles creation of Gemini Clients
type GeminiFactory struct{}

// Create implements ProviderFactory
func (f *GeminiFactory) Create(cfg llm.ProviderGroupConfig, sys *config.SystemConfig) ([]llm.Client, error) {
	var clients []llm.Client

	// Cartesian Product: Models x Keys (prioritize models)
	for _, model := range cfg.Models {
		for _, key := range cfg.APIKeys {
			client, err := NewGeminiClient(key, model)
			if err != nil {
				slog.Error("Failed to create Gemini client", "model", model, "error", err)
				continue
			}
			clients = append(clients, client)
		}
	}
	return clients, nil
}

func init() {
	llm.RegisterProvider("gemini", &GeminiFactory{})
}
