package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/go-playground/validator/v10"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg  *Config
	vtag *validator.Validate
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg, vtag: validator.New()}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at the
// first error). Order: defaults → LLM providers → LLM routing → context
// providers → schedule-fit → server, so dependents are checked after the
// registries they reference.
func (v *Validator) ValidateAll() error {
	if err := v.validateDefaults(); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}
	if err := v.validateLLMProviders(); err != nil {
		return fmt.Errorf("LLM provider validation failed: %w", err)
	}
	if err := v.validateLLMRouting(); err != nil {
		return fmt.Errorf("LLM routing validation failed: %w", err)
	}
	if err := v.validateContextProviders(); err != nil {
		return fmt.Errorf("context provider validation failed: %w", err)
	}
	if err := v.validateScheduleFit(); err != nil {
		return fmt.Errorf("schedule_fit validation failed: %w", err)
	}
	if err := v.validateServer(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateDefaults() error {
	d := v.cfg.Defaults
	if d == nil {
		return fmt.Errorf("defaults configuration is nil")
	}
	if d.MaxPromptTokens < 1 {
		return NewValidationError("defaults", "", "max_prompt_tokens", fmt.Errorf("must be at least 1"))
	}
	if d.ConversationTail < 0 {
		return NewValidationError("defaults", "", "conversation_tail", fmt.Errorf("must be non-negative"))
	}
	if d.TokenBudget.TotalCeiling < 1 {
		return NewValidationError("defaults", "", "token_budget.total_ceiling", fmt.Errorf("must be at least 1"))
	}
	sum := 0
	for _, n := range d.TokenBudget.Sections {
		sum += n
	}
	if sum > d.TokenBudget.TotalCeiling {
		return NewValidationError("defaults", "", "token_budget.sections",
			fmt.Errorf("section budgets sum to %d, exceeds total_ceiling %d", sum, d.TokenBudget.TotalCeiling))
	}
	return nil
}

func (v *Validator) validateLLMProviders() error {
	for name, provider := range v.cfg.LLMProviderRegistry.GetAll() {
		if err := v.vtag.Struct(provider); err != nil {
			return NewValidationError("llm_provider", name, "", err)
		}
		if provider.APIKeyEnv != "" {
			if value := os.Getenv(provider.APIKeyEnv); value == "" {
				return NewValidationError("llm_provider", name, "api_key_env",
					fmt.Errorf("environment variable %s is not set", provider.APIKeyEnv))
			}
		}
		if _, err := url.Parse(provider.BaseURL); err != nil {
			return NewValidationError("llm_provider", name, "base_url", err)
		}
	}
	return nil
}

func (v *Validator) validateLLMRouting() error {
	routing := v.cfg.LLMRouting
	if routing == nil {
		return fmt.Errorf("llm routing configuration is nil")
	}
	if !v.cfg.LLMProviderRegistry.Has(routing.Primary) {
		return NewValidationError("llm_routing", "", "primary", fmt.Errorf("provider '%s' not found", routing.Primary))
	}
	if !v.cfg.LLMProviderRegistry.Has(routing.Fallback) {
		return NewValidationError("llm_routing", "", "fallback", fmt.Errorf("provider '%s' not found", routing.Fallback))
	}
	if routing.FirstTokenDeadline <= 0 {
		return NewValidationError("llm_routing", "", "first_token_deadline", fmt.Errorf("must be positive"))
	}
	return nil
}

func (v *Validator) validateContextProviders() error {
	for name, p := range v.cfg.ContextProviderRegistry.GetAll() {
		if p.Enabled && p.Deadline < 0 {
			return NewValidationError("context_provider", name, "deadline", fmt.Errorf("must be non-negative"))
		}
	}
	return nil
}

func (v *Validator) validateScheduleFit() error {
	sf := v.cfg.ScheduleFit
	if sf == nil {
		return fmt.Errorf("schedule_fit configuration is nil")
	}
	if sf.BeamWidth < 1 {
		return NewValidationError("schedule_fit", "", "beam_width", fmt.Errorf("must be at least 1"))
	}
	if sf.NodeLimit < 1 {
		return NewValidationError("schedule_fit", "", "node_limit", fmt.Errorf("must be at least 1"))
	}
	if sf.Timeout <= 0 {
		return NewValidationError("schedule_fit", "", "timeout", fmt.Errorf("must be positive"))
	}
	return nil
}

func (v *Validator) validateServer() error {
	s := v.cfg.Server
	if s == nil {
		return fmt.Errorf("server configuration is nil")
	}
	if s.Addr == "" {
		return NewValidationError("server", "", "addr", fmt.Errorf("required"))
	}
	if s.GradesCSVPath == "" {
		return NewValidationError("server", "", "grades_csv_path", fmt.Errorf("required"))
	}
	return nil
}
