package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Config defines the global application configuration structure.
// This structure maps directly to the config.json file and holds
// business-level settings like the company identity, channel API keys
// and LLM provider choices.
type Config struct {
	// Company is the business name injected into prompts and templated
	// greetings (e.g. "TechStore Pro").
	Company string `json:"company"`
	// Channels contains a map of channel identifiers (e.g., "telegram", "web")
	// to their specific configuration payloads in raw JSON format.
	Channels map[string]jsoniter.RawMessage `json:"channels"`
	// LLM holds the configuration for the LLM provider groups in raw JSON.
	LLM jsoniter.RawMessage `json:"llm"`
	// SystemPrompt overrides the built-in support-agent persona when set.
	SystemPrompt string `json:"system_prompt,omitempty"`
	// Tools configures the tool backends available to the agent.
	Tools ToolsConfig `json:"tools"`
}

// ToolsConfig selects and configures the tool-execution backends.
// Both backends may be active at once; their catalogs are merged.
type ToolsConfig struct {
	// MCPServerURL points at a remote MCP server (streamable HTTP). When
	// empty, no remote backend is attached.
	MCPServerURL string `json:"mcp_server_url,omitempty"`
	// DataDir is the directory holding the structured CSV data files
	// (products.csv, orders.csv, customers.csv). When empty, the local
	// lookup tools are not registered.
	DataDir string `json:"data_dir,omitempty"`
	// Knowledge configures the document-retrieval tool. Nil disables it.
	Knowledge *KnowledgeConfig `json:"knowledge,omitempty"`
}

// KnowledgeConfig wires the search_knowledge_base tool to a vector store.
type KnowledgeConfig struct {
	QdrantURL       string `json:"qdrant_url"`
	QdrantAPIKey    string `json:"qdrant_api_key,omitempty"`
	Collection      string `json:"collection"`
	EmbeddingModel  string `json:"embedding_model,omitempty"`  // default: text-embedding-3-small
	EmbeddingAPIKey string `json:"embedding_api_key,omitempty"`
	TopK            int    `json:"top_k,omitempty"` // default: 4
}

// Validate ensures the configuration structure contains all mandatory fields.
// It acts as a primary guard before the system proceeds to initialization.
func (c *Config) Validate() error {
	if len(c.LLM) == 0 {
		return fmt.Errorf("mandatory 'llm' configuration is missing or empty")
	}
	return nil
}

// CompanyName returns the configured company, falling back to the default.
func (c *Config) CompanyName() string {
	if c.Company != "" {
		return c.Company
	}
	return DefaultCompany
}

// SystemConfig defines engine-level technical parameters.
// These settings are usually stored in system.json and control the
// performance, reliability, and technical behavior of the engine.
type SystemConfig struct {
	// MaxRetries is the number of times the system will attempt to
	// recover from a transient LLM or network error before giving up.
	MaxRetries int `json:"max_retries"`
	// RetryDelayMs is the duration to wait (in milliseconds) between
	// consecutive retry attempts.
	RetryDelayMs int `json:"retry_delay_ms"`
	// LLMTimeoutMs is the hard cutoff time (in milliseconds) for a single
	// turn. The context will be cancelled if exceeded.
	LLMTimeoutMs int `json:"llm_timeout_ms"`
	// MaxRegenerations bounds how many times an unsatisfactory answer is
	// regenerated with evaluator feedback before the last draft ships.
	MaxRegenerations int `json:"max_regenerations"`
	// MaxToolIterations bounds the tool-calling loop per generation. When
	// exceeded the turn returns a fixed fallback message.
	MaxToolIterations int `json:"max_tool_iterations"`
	// HistoryLimit caps the retained conversation entries per session.
	HistoryLimit int `json:"history_limit"`
	// TelegramMessageLimit is the maximum character count for a single
	// Telegram message. Longer responses will be split into multiple chunks.
	TelegramMessageLimit int `json:"telegram_message_limit"`
	// LogLevel sets the minimum severity for log output.
	// Accepted values: "debug", "info", "warn", "error". Default: "info".
	LogLevel string `json:"log_level"`
	// EnableTools globally toggles the tool calling (agentic) functionality.
	// If false, the AI will not be provided with any external tools.
	EnableTools bool `json:"enable_tools"`
}

// DefaultCompany is used when config.json does not name one.
const DefaultCompany = "TechStore Pro"

// DefaultSystemConfig returns a SystemConfig pointer initialized with hardcoded
// safe default values. This is used as a fallback when the system.json file
// is missing or corrupt, ensuring the engine can always start.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		MaxRetries:           3,
		RetryDelayMs:         500,
		LLMTimeoutMs:         600000,
		MaxRegenerations:     3,
		MaxToolIterations:    10,
		HistoryLimit:         40,
		TelegramMessageLimit: 4000,
		LogLevel:             "info",
		EnableTools:          true,
	}
}

// Load reads and parses the JSON configuration files from the current working directory.
// It first attempts to load 'config.json' (app config). If this file is missing, it returns an error.
// Then it calls LoadSystemConfig to load 'system.json'.
// Returns pointers to the loaded Config and SystemConfig, or an error if the mandatory app config fails.
func Load() (*Config, *SystemConfig, error) {
	// 1. Load Application Config
	appPath := "config.json"
	if _, err := os.Stat(appPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("config file '%s' not found. please create one", appPath)
	}

	appFile, err := os.ReadFile(appPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(appFile, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// 1a. Validate structure integrity
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	// 2. Load System Config independently
	sysCfg := LoadSystemConfig("system.json")

	return &cfg, sysCfg, nil
}

// LoadSystemConfig attempts to load system settings, returns defaults if it fails
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg // File not found, use defaults
	}

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(file, cfg); err != nil {
		return cfg // Parse failed, use defaults
	}

	return cfg
}
