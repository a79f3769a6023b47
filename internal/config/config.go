package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type SupabaseConfig struct {
	URL        string `toml:"url"`
	ServiceKey string `toml:"service_key"`
}

// Prompt templates use fmt.Sprintf %s placeholders. The wording lives in
// config/config.toml; only the placeholder arity is a code-level contract.
type ExtractionPrompts struct {
	System string `toml:"system"`
	User   string `toml:"user"` // 1 arg: combined entries text
}

type PatternPrompts struct {
	System string `toml:"system"`
	User   string `toml:"user"` // 1 arg: situations JSON
}

type LetterPrompts struct {
	System string `toml:"system"`
	User   string `toml:"user"` // 3 args: core pattern, situations JSON, context
}

type InsightPrompts struct {
	System string `toml:"system"`
	User   string `toml:"user"`  // 1 arg: entries summary
	Empty  string `toml:"empty"` // no args, used when the summary is blank
}

type MoodPrompts struct {
	System string `toml:"system"`
	User   string `toml:"user"` // 1 arg: moods JSON
}

type Prompts struct {
	Extraction ExtractionPrompts `toml:"extraction"`
	Pattern    PatternPrompts    `toml:"pattern"`
	Letter     LetterPrompts     `toml:"letter"`
	Insight    InsightPrompts    `toml:"insight"`
	Moods      MoodPrompts       `toml:"moods"`
}

type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Supabase SupabaseConfig `toml:"supabase"`
	Prompts  Prompts        `toml:"prompts"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides file values with environment variables when present.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		c.Supabase.URL = v
	}
	if v := os.Getenv("SUPABASE_SERVICE_ROLE_KEY"); v != "" {
		c.Supabase.ServiceKey = v
	}
}
