// Package config provides configuration loading for signald.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration for signald.
type Config struct {
	Identity  IdentityConfig  `koanf:"identity"`
	Paths     PathsConfig     `koanf:"paths"`
	Sentiment SentimentConfig `koanf:"sentiment"`
	Inference InferenceConfig `koanf:"inference"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// IdentityConfig names the two parties of a session. Passed explicitly to
// components instead of being cached in package globals.
type IdentityConfig struct {
	// Principal is the human the assistant works for.
	Principal string `koanf:"principal"`

	// Assistant is the assistant's display name.
	Assistant string `koanf:"assistant"`
}

// PathsConfig holds the canonical directory locations for on-disk state.
type PathsConfig struct {
	// SessionDir holds per-session state, including the current-work pointer
	// and the JSONL transcript.
	SessionDir string `koanf:"session_dir"`

	// TaskDir holds one subdirectory per task (criteria + thread documents).
	TaskDir string `koanf:"task_dir"`

	// SignalsDir holds the append-only rating store.
	SignalsDir string `koanf:"signals_dir"`

	// LearningsDir holds categorized learning records.
	LearningsDir string `koanf:"learnings_dir"`
}

// SentimentConfig tunes the sentiment classifier.
type SentimentConfig struct {
	// Timeout bounds the inference call. The call races this timeout;
	// a late result is discarded.
	Timeout Duration `koanf:"timeout"`

	// MinConfidence suppresses persistence of classifications below it.
	MinConfidence float64 `koanf:"min_confidence"`

	// MinMessageLength skips messages shorter than this many runes.
	MinMessageLength int `koanf:"min_message_length"`

	// ContextTurns is how many recent transcript turns to include.
	ContextTurns int `koanf:"context_turns"`

	// ContextCharLimit truncates each context turn to this many chars.
	ContextCharLimit int `koanf:"context_char_limit"`
}

// InferenceConfig configures the inference backend.
type InferenceConfig struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   Secret `koanf:"api_key"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// NewDefault returns a Config with production-ready defaults. Paths default
// under the user's home directory and are overridable via file or env.
func NewDefault() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".signald")

	return &Config{
		Identity: IdentityConfig{
			Principal: "user",
			Assistant: "assistant",
		},
		Paths: PathsConfig{
			SessionDir:   filepath.Join(base, "session"),
			TaskDir:      filepath.Join(base, "tasks"),
			SignalsDir:   filepath.Join(base, "signals"),
			LearningsDir: filepath.Join(base, "learnings"),
		},
		Sentiment: SentimentConfig{
			Timeout:          Duration(15 * time.Second),
			MinConfidence:    0.6,
			MinMessageLength: 10,
			ContextTurns:     6,
			ContextCharLimit: 600,
		},
		Inference: InferenceConfig{
			Provider: "anthropic",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Identity.Principal == "" {
		return fmt.Errorf("identity.principal cannot be empty")
	}
	if c.Identity.Assistant == "" {
		return fmt.Errorf("identity.assistant cannot be empty")
	}
	if c.Paths.SessionDir == "" || c.Paths.TaskDir == "" ||
		c.Paths.SignalsDir == "" || c.Paths.LearningsDir == "" {
		return fmt.Errorf("all paths must be set")
	}
	if c.Sentiment.Timeout.Duration() <= 0 {
		return fmt.Errorf("sentiment.timeout must be > 0")
	}
	if c.Sentiment.MinConfidence < 0 || c.Sentiment.MinConfidence > 1 {
		return fmt.Errorf("sentiment.min_confidence must be in [0,1], got %v", c.Sentiment.MinConfidence)
	}
	if c.Sentiment.MinMessageLength < 0 {
		return fmt.Errorf("sentiment.min_message_length must be >= 0")
	}
	if c.Sentiment.ContextTurns < 0 {
		return fmt.Errorf("sentiment.context_turns must be >= 0")
	}
	if c.Sentiment.ContextCharLimit <= 0 {
		return fmt.Errorf("sentiment.context_char_limit must be > 0")
	}
	if c.Inference.Provider != "anthropic" && c.Inference.Provider != "none" {
		return fmt.Errorf("inference.provider must be 'anthropic' or 'none', got %q", c.Inference.Provider)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}
