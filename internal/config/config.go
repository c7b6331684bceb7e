// Package config loads the tutor's settings from an optional YAML file
// with environment overrides. LLM vendor selection lives in the llm
// package; this covers everything else.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/mathtutor/internal/assess"
	"github.com/abhisek/mathtutor/internal/speech"
	"github.com/abhisek/mathtutor/internal/stage"
	"github.com/abhisek/mathtutor/internal/visuals"
	"github.com/abhisek/mathtutor/internal/window"
)

// Config holds all tutor settings.
type Config struct {
	// DBPath overrides the default database location when set.
	DBPath string `yaml:"db_path"`

	// Owner is the student id sessions are created under.
	Owner string `yaml:"owner"`

	Window     WindowConfig     `yaml:"window"`
	Tutor      GenerationConfig `yaml:"tutor"`
	Assessment GenerationConfig `yaml:"assessment"`
	Speech     SpeechConfig     `yaml:"speech"`
	Visuals    VisualsConfig    `yaml:"visuals"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// WindowConfig bounds the working history.
type WindowConfig struct {
	Cap                int     `yaml:"cap"`
	SummaryMaxTokens   int     `yaml:"summary_max_tokens"`
	SummaryTemperature float64 `yaml:"summary_temperature"`
}

// GenerationConfig holds token and sampling settings for one request kind.
type GenerationConfig struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// SpeechConfig controls audio input and output.
type SpeechConfig struct {
	Enabled  bool   `yaml:"enabled"`
	STTModel string `yaml:"stt_model"`
	TTSModel string `yaml:"tts_model"`
	Voice    string `yaml:"voice"`
}

// VisualsConfig controls equation and graph extraction.
type VisualsConfig struct {
	Enabled          bool `yaml:"enabled"`
	GenerationConfig `yaml:",inline"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	w := window.DefaultConfig()
	a := assess.DefaultConfig()
	t := stage.DefaultConfig()
	v := visuals.DefaultConfig()
	s := speech.DefaultConfig()
	return &Config{
		Owner: "local",
		Window: WindowConfig{
			Cap:                w.Cap,
			SummaryMaxTokens:   w.MaxTokens,
			SummaryTemperature: w.Temperature,
		},
		Tutor:      GenerationConfig{MaxTokens: t.MaxTokens, Temperature: t.Temperature},
		Assessment: GenerationConfig{MaxTokens: a.MaxTokens, Temperature: a.Temperature},
		Speech: SpeechConfig{
			STTModel: s.STTModel,
			TTSModel: s.TTSModel,
			Voice:    s.Voice,
		},
		Visuals: VisualsConfig{
			Enabled:          true,
			GenerationConfig: GenerationConfig{MaxTokens: v.MaxTokens, Temperature: v.Temperature},
		},
		Logging: LoggingConfig{Level: "warn"},
	}
}

// DefaultPath returns the config file location under the XDG config
// directory, or "" if it cannot be determined.
func DefaultPath() string {
	if p := os.Getenv("MATHTUTOR_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mathtutor", "config.yaml")
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.DBPath = getEnv("MATHTUTOR_DB", c.DBPath)
	c.Owner = getEnv("MATHTUTOR_OWNER", c.Owner)
	c.Window.Cap = getEnvInt("MATHTUTOR_WINDOW_CAP", c.Window.Cap)
	c.Speech.Enabled = getEnvBool("MATHTUTOR_SPEECH", c.Speech.Enabled)
	c.Visuals.Enabled = getEnvBool("MATHTUTOR_VISUALS", c.Visuals.Enabled)
	c.Logging.Level = getEnv("MATHTUTOR_LOG_LEVEL", c.Logging.Level)
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.Owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if c.Window.Cap < 2 {
		return fmt.Errorf("window cap must be >= 2, got %d", c.Window.Cap)
	}
	gens := map[string]GenerationConfig{
		"window summary": {MaxTokens: c.Window.SummaryMaxTokens, Temperature: c.Window.SummaryTemperature},
		"tutor":          c.Tutor,
		"assessment":     c.Assessment,
		"visuals":        c.Visuals.GenerationConfig,
	}
	for name, g := range gens {
		if g.MaxTokens <= 0 {
			return fmt.Errorf("%s max tokens must be > 0", name)
		}
		if g.Temperature < 0 || g.Temperature > 1 {
			return fmt.Errorf("%s temperature must be within [0, 1], got %g", name, g.Temperature)
		}
	}
	if c.Speech.Enabled && (c.Speech.STTModel == "" || c.Speech.TTSModel == "" || c.Speech.Voice == "") {
		return fmt.Errorf("speech is enabled but a model or voice is missing")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", c.Logging.Level)
	}
	return nil
}

// WindowSettings converts to the window package's config.
func (c *Config) WindowSettings() window.Config {
	return window.Config{
		Cap:         c.Window.Cap,
		MaxTokens:   c.Window.SummaryMaxTokens,
		Temperature: c.Window.SummaryTemperature,
	}
}

// TutorSettings converts to the stage package's config.
func (c *Config) TutorSettings() stage.Config {
	return stage.Config{MaxTokens: c.Tutor.MaxTokens, Temperature: c.Tutor.Temperature}
}

// AssessmentSettings converts to the assess package's config.
func (c *Config) AssessmentSettings() assess.Config {
	return assess.Config{MaxTokens: c.Assessment.MaxTokens, Temperature: c.Assessment.Temperature}
}

// VisualsSettings converts to the visuals package's config.
func (c *Config) VisualsSettings() visuals.Config {
	return visuals.Config{MaxTokens: c.Visuals.MaxTokens, Temperature: c.Visuals.Temperature}
}

// SpeechSettings converts to the speech package's config. The API key is
// supplied by the caller.
func (c *Config) SpeechSettings(apiKey string) speech.Config {
	s := speech.DefaultConfig()
	s.APIKey = apiKey
	s.STTModel = c.Speech.STTModel
	s.TTSModel = c.Speech.TTSModel
	s.Voice = c.Speech.Voice
	return s
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
