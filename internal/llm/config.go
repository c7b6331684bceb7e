package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "groq", "openai", "anthropic", "gemini", "openrouter", "mock"
	Provider string

	Groq       OpenAICompatConfig
	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	Gemini     GeminiConfig
	OpenRouter OpenAICompatConfig
	Retry      RetryConfig

	// Timeout bounds a single Generate call including retries. Zero
	// disables the bound.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenAICompatConfig configures a vendor that speaks the OpenAI chat API
// from a different base URL (Groq, OpenRouter).
type OpenAICompatConfig struct {
	APIKey  string
	Model   string
	BaseURL string // Empty means the vendor default.
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults. Groq serving
// Llama 3.3 70B is the default tutor model.
func DefaultConfig() Config {
	return Config{
		Provider: "groq",
		Groq: OpenAICompatConfig{
			Model: "llama-3.3-70b-versatile",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenAICompatConfig{
			Model: "meta-llama/llama-3.3-70b-instruct",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from MATHTUTOR_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setFromEnv(&cfg.Provider, "MATHTUTOR_LLM_PROVIDER")

	setFromEnv(&cfg.Groq.APIKey, "MATHTUTOR_GROQ_API_KEY")
	setFromEnv(&cfg.Groq.Model, "MATHTUTOR_GROQ_MODEL")

	setFromEnv(&cfg.OpenAI.APIKey, "MATHTUTOR_OPENAI_API_KEY")
	setFromEnv(&cfg.OpenAI.Model, "MATHTUTOR_OPENAI_MODEL")
	setFromEnv(&cfg.OpenAI.BaseURL, "MATHTUTOR_OPENAI_BASE_URL")

	setFromEnv(&cfg.Anthropic.APIKey, "MATHTUTOR_ANTHROPIC_API_KEY")
	setFromEnv(&cfg.Anthropic.Model, "MATHTUTOR_ANTHROPIC_MODEL")

	setFromEnv(&cfg.Gemini.APIKey, "MATHTUTOR_GEMINI_API_KEY")
	setFromEnv(&cfg.Gemini.Model, "MATHTUTOR_GEMINI_MODEL")

	setFromEnv(&cfg.OpenRouter.APIKey, "MATHTUTOR_OPENROUTER_API_KEY")
	setFromEnv(&cfg.OpenRouter.Model, "MATHTUTOR_OPENROUTER_MODEL")

	if d := os.Getenv("MATHTUTOR_LLM_TIMEOUT"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil {
			cfg.Timeout = parsed
		}
	}

	return cfg
}

// DiscoverConfig probes standard API key env vars in priority order
// (Groq → OpenAI → Anthropic → Gemini → OpenRouter) and returns a Config
// for the first provider whose key is found. Returns (Config{}, false) if
// none is found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GROQ_API_KEY"); k != "" {
		cfg.Provider = "groq"
		cfg.Groq.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case "groq":
		key, env = c.Groq.APIKey, "MATHTUTOR_GROQ_API_KEY"
	case "openai":
		key, env = c.OpenAI.APIKey, "MATHTUTOR_OPENAI_API_KEY"
	case "anthropic":
		key, env = c.Anthropic.APIKey, "MATHTUTOR_ANTHROPIC_API_KEY"
	case "gemini":
		key, env = c.Gemini.APIKey, "MATHTUTOR_GEMINI_API_KEY"
	case "openrouter":
		key, env = c.OpenRouter.APIKey, "MATHTUTOR_OPENROUTER_API_KEY"
	case "mock":
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
