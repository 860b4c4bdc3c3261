package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AdvisorYAMLConfig represents the complete advisor.yaml file structure: the
// system-wide block plus defaults and context-provider toggles.
type AdvisorYAMLConfig struct {
	System           *SystemYAMLConfig                `yaml:"system"`
	Defaults         *Defaults                        `yaml:"defaults"`
	ContextProviders map[string]ContextProviderConfig `yaml:"context_providers"`
	ScheduleFit      *ScheduleFitConfig               `yaml:"schedule_fit"`
	DegreeProgress   *DegreeProgressConfig            `yaml:"degree_progress"`
}

// SystemYAMLConfig groups system-wide infrastructure settings.
type SystemYAMLConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	GradesCSVPath  string   `yaml:"grades_csv_path"`
}

// LLMProvidersYAMLConfig represents the complete llm-providers.yaml file structure.
type LLMProvidersYAMLConfig struct {
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
	Routing      *LLMRoutingConfig            `yaml:"routing"`
}

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point for configuration loading.
//
// Steps performed:
// 1. Load YAML files from configDir
// 2. Expand environment variables
// 3. Parse YAML into structs
// 4. Merge built-in + user-defined configurations
// 5. Build in-memory registries
// 6. Apply default values
// 7. Validate all configuration
// 8. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized successfully",
		"llm_providers", stats.LLMProviders,
		"context_providers", stats.ContextProviders)

	return cfg, nil
}

// load is the internal loader (not exported).
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	advisorConfig, err := loader.loadAdvisorYAML()
	if err != nil {
		return nil, NewLoadError("advisor.yaml", err)
	}

	llmProviders, err := loader.loadLLMProvidersYAML()
	if err != nil {
		return nil, NewLoadError("llm-providers.yaml", err)
	}

	// Merge built-in + user-defined components (user overrides built-in).
	providers := mergeLLMProviders(builtinLLMProviders(), llmProviders.LLMProviders)
	contextProviders := mergeContextProviders(builtinContextProviders(), advisorConfig.ContextProviders)

	llmProviderRegistry := NewLLMProviderRegistry(providers)
	contextProviderRegistry := NewContextProviderRegistry(contextProviders)

	routing := llmProviders.Routing
	if routing == nil {
		routing = builtinLLMRouting()
	}

	defaults, err := mergeDefaults(BuiltinDefaults(), advisorConfig.Defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to merge defaults: %w", err)
	}
	if routing.FirstTokenDeadline == 0 {
		routing.FirstTokenDeadline = defaults.FirstTokenDeadline
	}

	scheduleFit := advisorConfig.ScheduleFit
	if scheduleFit == nil {
		sf := defaults.ScheduleFit
		scheduleFit = &sf
	}

	degreeProgress := advisorConfig.DegreeProgress
	if degreeProgress == nil {
		degreeProgress = &DegreeProgressConfig{Enabled: true}
	}

	server := resolveServerConfig(advisorConfig.System)

	return &Config{
		configDir:               configDir,
		Defaults:                defaults,
		Server:                  server,
		LLMProviderRegistry:     llmProviderRegistry,
		LLMRouting:              routing,
		ContextProviderRegistry: contextProviderRegistry,
		ScheduleFit:             scheduleFit,
		DegreeProgress:          degreeProgress,
	}, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	v := NewValidator(cfg)
	return v.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// ExpandEnv substitutes environment variable references and has no
	// error path; any problem in the expanded content is reported by the
	// YAML parser.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadAdvisorYAML() (*AdvisorYAMLConfig, error) {
	var config AdvisorYAMLConfig
	config.ContextProviders = make(map[string]ContextProviderConfig)

	if err := l.loadYAML("advisor.yaml", &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func (l *configLoader) loadLLMProvidersYAML() (*LLMProvidersYAMLConfig, error) {
	var config LLMProvidersYAMLConfig
	config.LLMProviders = make(map[string]LLMProviderConfig)

	if err := l.loadYAML("llm-providers.yaml", &config); err != nil {
		return nil, err
	}

	return &config, nil
}
