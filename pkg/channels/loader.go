package channels

import (
	"log/slog"

	"helpdesk/pkg/api"

	jsoniter "github.com/json-iterator/go"
)

// LoadFromConfig acts as the central orchestration point for dynamic
// channel initialization. It iterates through the provided configuration
// map, resolves factories, and returns the resulting channels.
func LoadFromConfig(configs map[string]jsoniter.RawMessage, deps Deps) []api.Channel {
	var loaded []api.Channel

	for name, rawConfig := range configs {
		factory, ok := GetChannelFactory(name)
		if !ok {
			slog.Warn("Unknown channel type", "name", name)
			continue
		}

		channel, err := factory.Create(rawConfig, deps)
		if err != nil {
			slog.Error("Failed to create channel", "name", name, "error", err)
			continue
		}

		// If Create returns nil (e.g., channel disabled but not an error), skip
		if channel == nil {
			continue
		}

		loaded = append(loaded, channel)
		slog.Info("Channel registered", "name", name)
	}

	return loaded
}
