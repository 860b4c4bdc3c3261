package config

import "time"

// LLMProviderConfig describes a single OpenAI-compatible completion backend.
type LLMProviderConfig struct {
	Name        string        `yaml:"name" validate:"required"`
	BaseURL     string        `yaml:"base_url" validate:"required,url"`
	Model       string        `yaml:"model" validate:"required"`
	APIKeyEnv   string        `yaml:"api_key_env,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxTokens   int           `yaml:"max_tokens,omitempty" validate:"omitempty,min=1"`
	Temperature float32       `yaml:"temperature,omitempty"`
}

// LLMRoutingConfig names which registered providers act as primary/fallback.
type LLMRoutingConfig struct {
	Primary            string        `yaml:"primary" validate:"required"`
	Fallback           string        `yaml:"fallback" validate:"required"`
	FirstTokenDeadline time.Duration `yaml:"first_token_deadline,omitempty"`
}

// ContextProviderConfig toggles and bounds a single context provider.
type ContextProviderConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Deadline time.Duration `yaml:"deadline,omitempty"`
}

// ScheduleFitConfig tunes the beam search in pkg/schedulefit.
type ScheduleFitConfig struct {
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	BeamWidth int           `yaml:"beam_width,omitempty" validate:"omitempty,min=1"`
	NodeLimit int           `yaml:"node_limit,omitempty" validate:"omitempty,min=1"`
}

// DegreeProgressConfig toggles the degree-progress context provider.
type DegreeProgressConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TokenBudgetConfig carries the per-section base budgets and priority
// weights used during prompt assembly. Present in config so operators can
// retune without a binary rebuild; BuiltinDefaults() supplies the shipped
// values.
type TokenBudgetConfig struct {
	TotalCeiling int                `yaml:"total_ceiling,omitempty" validate:"omitempty,min=1"`
	Sections     map[string]int     `yaml:"sections,omitempty"`
	Weights      map[string]float64 `yaml:"weights,omitempty"`
}

// RedisConfig is loaded from environment, not YAML — see pkg/kvstore.LoadConfigFromEnv.
// It is not a field of Config, and ConfigStats does not report it.
type RedisConfig struct {
	URL string
}
