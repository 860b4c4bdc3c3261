package config

import "dario.cat/mergo"

// mergeDefaults overlays operator-supplied defaults on top of BuiltinDefaults(),
// non-zero-field-wins. mergo handles the field-by-field walk so adding a new
// tunable to Defaults never requires touching this function.
func mergeDefaults(base *Defaults, override *Defaults) (*Defaults, error) {
	merged := *base
	if override == nil {
		return &merged, nil
	}
	if err := mergo.Merge(&merged, *override, mergo.WithOverride); err != nil {
		return nil, err
	}
	return &merged, nil
}

// mergeLLMProviders merges built-in and user-defined LLM provider configurations.
// User-defined providers override built-in providers with the same name.
func mergeLLMProviders(builtinProviders map[string]LLMProviderConfig, userProviders map[string]LLMProviderConfig) map[string]*LLMProviderConfig {
	result := make(map[string]*LLMProviderConfig)

	for name, provider := range builtinProviders {
		providerCopy := provider
		result[name] = &providerCopy
	}

	for name, userProvider := range userProviders {
		providerCopy := userProvider
		result[name] = &providerCopy
	}

	return result
}

// mergeContextProviders merges built-in and user-defined context provider toggles.
// User-defined entries override built-in entries with the same name.
func mergeContextProviders(builtinProviders map[string]ContextProviderConfig, userProviders map[string]ContextProviderConfig) map[string]*ContextProviderConfig {
	result := make(map[string]*ContextProviderConfig)

	for name, provider := range builtinProviders {
		providerCopy := provider
		result[name] = &providerCopy
	}

	for name, userProvider := range userProviders {
		providerCopy := userProvider
		result[name] = &providerCopy
	}

	return result
}
