package config

// Config is the umbrella configuration object returned by Initialize() and
// threaded through the rest of the application.
type Config struct {
	configDir string

	Defaults *Defaults
	Server   *ServerConfig

	LLMProviderRegistry     *LLMProviderRegistry
	LLMRouting              *LLMRoutingConfig
	ContextProviderRegistry *ContextProviderRegistry
	ScheduleFit             *ScheduleFitConfig
	DegreeProgress          *DegreeProgressConfig
}

// ConfigStats reports what was loaded, for startup logging.
type ConfigStats struct {
	LLMProviders     int
	ContextProviders int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		LLMProviders:     len(c.LLMProviderRegistry.GetAll()),
		ContextProviders: len(c.ContextProviderRegistry.GetAll()),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetLLMProvider retrieves an LLM provider configuration by name.
func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}

// GetContextProvider retrieves a context provider's toggle/deadline config by name.
func (c *Config) GetContextProvider(name string) (*ContextProviderConfig, error) {
	return c.ContextProviderRegistry.Get(name)
}
