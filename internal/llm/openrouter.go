package llm

import "fmt"

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultGroqBaseURL       = "https://api.groq.com/openai/v1"
)

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
// OpenRouter exposes an OpenAI-compatible API, so the OpenAI SDK is reused.
func NewOpenRouterProvider(cfg OpenAICompatConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	return newOpenAICompatible(cfg.APIKey, orDefault(cfg.BaseURL, defaultOpenRouterBaseURL), cfg.Model, jsonModeSchema), nil
}

// NewGroqProvider creates a provider targeting Groq's OpenAI-compatible
// API. Structured output uses JSON-object mode and local schema checks.
func NewGroqProvider(cfg OpenAICompatConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}
	return newOpenAICompatible(cfg.APIKey, orDefault(cfg.BaseURL, defaultGroqBaseURL), cfg.Model, jsonModeObject), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
