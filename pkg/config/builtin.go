package config

import "os"

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// builtinLLMProviders returns the provider entries shipped with the binary:
// a local vLLM endpoint as primary and an OpenAI fallback. Operators
// override or extend these via llm-providers.yaml; nothing here talks to a
// remote endpoint without an API key configured through the named env var,
// so shipping a builtin is safe.
func builtinLLMProviders() map[string]LLMProviderConfig {
	return map[string]LLMProviderConfig{
		"local-vllm": {
			Name:    "local-vllm",
			BaseURL: envOr("VLLM_BASE_URL", "http://localhost:8000/v1"),
			Model:   envOr("LOCAL_MODEL", "meta-llama/Llama-3.1-8B-Instruct"),
		},
		"openai-fallback": {
			Name:      "openai-fallback",
			BaseURL:   "https://api.openai.com/v1",
			Model:     envOr("FALLBACK_MODEL", "gpt-4o-mini"),
			APIKeyEnv: "OPENAI_API_KEY",
		},
	}
}

func builtinLLMRouting() *LLMRoutingConfig {
	return &LLMRoutingConfig{
		Primary:            "local-vllm",
		Fallback:           "openai-fallback",
		FirstTokenDeadline: 0, // resolved from Defaults.FirstTokenDeadline if unset
	}
}

// builtinContextProviders holds one toggle for the student_profile section
// and one for each of the nine shipped context providers, all enabled by
// default. Operators disable individual providers (e.g. turning off
// "conflict" in a single-term deployment) via advisor.yaml.
func builtinContextProviders() map[string]ContextProviderConfig {
	names := []string{
		"student_profile",
		"vector_search",
		"graph_analysis",
		"professor_intel",
		"difficulty_data",
		"grades",
		"enrollment_data",
		"schedule_fit",
		"degree_progress",
		"conflict",
	}
	result := make(map[string]ContextProviderConfig, len(names))
	for _, n := range names {
		result[n] = ContextProviderConfig{Enabled: true}
	}
	return result
}
