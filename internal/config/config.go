// Package config provides configuration types and loading for donna.
package config

// Config is the root configuration.
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Provider ProviderConfig `yaml:"provider"`
	Agent    AgentConfig    `yaml:"agent"`
	Safety   SafetyConfig   `yaml:"safety"`
	Tools    ToolsConfig    `yaml:"tools"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PathsConfig contains filesystem locations.
type PathsConfig struct {
	// DataDir holds the database, sessions, and recordings.
	DataDir string `yaml:"dataDir" envconfig:"DATA_DIR"`
}

// ProviderConfig selects and configures the model backend.
type ProviderConfig struct {
	// Backend is "groq", "ollama", or "openai".
	Backend string `yaml:"backend" envconfig:"BACKEND"`
	APIKey  string `yaml:"apiKey" envconfig:"API_KEY"`
	// APIBase overrides the backend's default endpoint.
	APIBase string `yaml:"apiBase" envconfig:"API_BASE"`
	// Host is the Ollama daemon address.
	Host  string `yaml:"host" envconfig:"HOST"`
	Model string `yaml:"model" envconfig:"MODEL"`
}

// AgentConfig tunes the reasoning loop and pipeline.
type AgentConfig struct {
	MaxCycles     int     `yaml:"maxCycles" envconfig:"MAX_CYCLES"`
	MaxTokens     int     `yaml:"maxTokens" envconfig:"MAX_TOKENS"`
	Temperature   float64 `yaml:"temperature" envconfig:"TEMPERATURE"`
	CriticEnabled bool    `yaml:"criticEnabled" envconfig:"CRITIC_ENABLED"`
}

// SafetyConfig tunes the interception gate.
type SafetyConfig struct {
	// Affirmatives are the exact tokens that approve a red action.
	Affirmatives []string `yaml:"affirmatives" envconfig:"AFFIRMATIVES"`
	// RedKeywords promote a green invocation to red when any string
	// argument contains one as a whole word.
	RedKeywords []string `yaml:"redKeywords" envconfig:"RED_KEYWORDS"`
	// MaxRedPerSession caps approved red actions per session. 0 = unlimited.
	MaxRedPerSession int `yaml:"maxRedPerSession" envconfig:"MAX_RED_PER_SESSION"`
	// ConfirmTimeoutSeconds bounds the wait for a confirmation answer.
	// 0 = wait until cancelled.
	ConfirmTimeoutSeconds int `yaml:"confirmTimeoutSeconds" envconfig:"CONFIRM_TIMEOUT_SECONDS"`
}

// ToolsConfig tunes tool execution.
type ToolsConfig struct {
	ShellTimeoutSeconds int `yaml:"shellTimeoutSeconds" envconfig:"SHELL_TIMEOUT_SECONDS"`
}

// LoggingConfig tunes slog output.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level" envconfig:"LEVEL"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir: "~/.donna",
		},
		Provider: ProviderConfig{
			Backend: "groq",
			Model:   "llama-3.3-70b-versatile",
			Host:    "http://localhost:11434",
		},
		Agent: AgentConfig{
			MaxCycles:     10,
			MaxTokens:     4096,
			Temperature:   0.7,
			CriticEnabled: false,
		},
		Safety: SafetyConfig{
			Affirmatives:          []string{"y", "yes"},
			RedKeywords:           []string{"rm", "sudo", "del"},
			MaxRedPerSession:      10,
			ConfirmTimeoutSeconds: 120,
		},
		Tools: ToolsConfig{
			ShellTimeoutSeconds: 120,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
