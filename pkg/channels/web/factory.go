package web

import (
	"fmt"

	"helpdesk/pkg/api"
	"helpdesk/pkg/channels"
	"helpdesk/pkg/monitor"

	jsoniter "github.com/json-iterator/go"
)

// WebFactory 負責建立 Web Channels
type WebFactory struct{}

// Create 實作 ChannelFactory
func (f *WebFactory) Create(rawConfig jsoniter.RawMessage, deps channels.Deps) (api.Channel, error) {
	var pCfg WebConfig
	// 設定預設 Port
	pCfg.Port = 9453

	if err := json.Unmarshal(rawConfig, &pCfg); err != nil {
		return nil, fmt.Errorf("failed to parse web config: %w", err)
	}

	channel := NewWebChannel(pCfg, deps.Runner, deps.Gateway)

	// Feed the /monitor endpoint from the turn hub when available
	if deps.Hub != nil {
		deps.Hub.Register(monitor.MonitorFunc(channel.OnTurn))
	}

	return channel, nil
}

func init() {
	channels.RegisterChannel("web", &WebFactory{})
}
