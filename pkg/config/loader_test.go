package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigDir(t *testing.T, advisorYAML, llmYAML string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "advisor.yaml"), []byte(advisorYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "llm-providers.yaml"), []byte(llmYAML), 0o644))
	return dir
}

const minimalAdvisorYAML = `
system:
  addr: ":9090"
  grades_csv_path: "testdata/grades.csv"
`

const minimalLLMYAML = `
llm_providers:
  local:
    name: local
    base_url: "http://localhost:8000/v1"
    model: "local-model"
  remote:
    name: remote
    base_url: "https://api.example.com/v1"
    model: "remote-model"
routing:
  primary: local
  fallback: remote
`

func TestInitializeAppliesDefaultsAndOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	dir := writeConfigDir(t, minimalAdvisorYAML, minimalLLMYAML)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "testdata/grades.csv", cfg.Server.GradesCSVPath)

	// Routing names resolve against the merged registry.
	assert.Equal(t, "local", cfg.LLMRouting.Primary)
	primary, err := cfg.GetLLMProvider("local")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/v1", primary.BaseURL)

	// Unset routing deadline falls back to the defaults block.
	assert.Equal(t, 200*time.Millisecond, cfg.LLMRouting.FirstTokenDeadline)

	// Built-in tunables survive when the operator supplies no defaults block.
	assert.Equal(t, 1200, cfg.Defaults.MaxPromptTokens)
	assert.Equal(t, 150*time.Millisecond, cfg.Defaults.ContextTimeout)
	assert.Equal(t, 1024, cfg.ScheduleFit.BeamWidth)
}

func TestInitializeMergesOperatorDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	advisor := minimalAdvisorYAML + `
defaults:
  max_prompt_tokens: 2000
context_providers:
  professor_intel:
    enabled: false
`
	dir := writeConfigDir(t, advisor, minimalLLMYAML)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2000, cfg.Defaults.MaxPromptTokens)
	// Untouched defaults survive the merge.
	assert.Equal(t, 200*time.Millisecond, cfg.Defaults.FirstTokenDeadline)
	assert.False(t, cfg.ContextProviderRegistry.Enabled("professor_intel"))
	assert.True(t, cfg.ContextProviderRegistry.Enabled("vector_search"))
}

func TestInitializeExpandsEnvInYAML(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("ADVISOR_TEST_ADDR", ":7070")
	advisor := `
system:
  addr: "${ADVISOR_TEST_ADDR}"
  grades_csv_path: "data/grades.csv"
`
	dir := writeConfigDir(t, advisor, minimalLLMYAML)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestInitializeFailsWithoutConfigFiles(t *testing.T) {
	_, err := Initialize(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestInitializeRejectsUnknownRoutingTarget(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	llm := `
llm_providers:
  local:
    name: local
    base_url: "http://localhost:8000/v1"
    model: "local-model"
routing:
  primary: local
  fallback: nonexistent
`
	dir := writeConfigDir(t, minimalAdvisorYAML, llm)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback")
}
