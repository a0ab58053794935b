// Package config provides configuration types and loading for opsdesk.
package config

// Config is the root configuration struct.
type Config struct {
	Paths      PathsConfig      `json:"paths"`
	Telegram   TelegramConfig   `json:"telegram"`
	Completion CompletionConfig `json:"completion"`
	Gateway    GatewayConfig    `json:"gateway"`
}

// PathsConfig groups filesystem path settings.
type PathsConfig struct {
	// Data is the root directory for knowledge records, conversation state
	// and the journal database.
	Data string `json:"data" envconfig:"OPSDESK_DATA"`
}

// TelegramConfig configures the Telegram transport.
type TelegramConfig struct {
	Token string `json:"token" envconfig:"TELEGRAM_TOKEN"`
}

// CompletionConfig configures the completion gateway. An empty API key
// disables completions; the dispatcher falls back to its static reply.
// Temperature is a pointer so an explicit 0 survives default filling.
type CompletionConfig struct {
	APIKey      string   `json:"apiKey" envconfig:"OPENAI_KEY"`
	APIBase     string   `json:"apiBase" envconfig:"OPENAI_API_BASE"`
	Model       string   `json:"model" envconfig:"OPENAI_MODEL"`
	Temperature *float64 `json:"temperature,omitempty" envconfig:"OPENAI_TEMPERATURE"`
}

// GatewayConfig configures the webhook HTTP server.
type GatewayConfig struct {
	Host string `json:"host" envconfig:"OPSDESK_HOST"`
	Port int    `json:"port" envconfig:"OPSDESK_PORT"`
}
