package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MISTRAL_API_KEY", "test-key")
	t.Setenv("PROMPT_SERVER_URL", "http://prompts.local:8000")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "minerva", cfg.App.Name)
	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "financial-research-task-queue", cfg.Temporal.TaskQueue)
	assert.Equal(t, "https://api.mistral.ai", cfg.Mistral.BaseURL)

	assert.Equal(t, 2*time.Second, cfg.Retry.InitialInterval)
	assert.Equal(t, 2.0, cfg.Retry.BackoffCoefficient)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaximumInterval)
	assert.Equal(t, 10, cfg.Retry.MaximumAttempts)
	assert.Equal(t, time.Minute, cfg.Retry.StartToCloseTimeout)
	assert.Equal(t, time.Minute, cfg.Retry.ScheduleToCloseTimeout)

	assert.Equal(t, 5, cfg.Plan.MinSearches)
	assert.Equal(t, 15, cfg.Plan.MaxSearches)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RETRY_MAXIMUM_ATTEMPTS", "3")
	t.Setenv("PLAN_MIN_SEARCHES", "2")
	t.Setenv("PLAN_MAX_SEARCHES", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Retry.MaximumAttempts)
	assert.Equal(t, 2, cfg.Plan.MinSearches)
	assert.Equal(t, 4, cfg.Plan.MaxSearches)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	// t.Setenv restores the original value; the unset makes the variable
	// absent rather than empty.
	t.Setenv("MISTRAL_API_KEY", "placeholder")
	require.NoError(t, os.Unsetenv("MISTRAL_API_KEY"))
	t.Setenv("PROMPT_SERVER_URL", "http://prompts.local:8000")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidPlanBounds(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PLAN_MIN_SEARCHES", "10")
	t.Setenv("PLAN_MAX_SEARCHES", "5")

	_, err := Load()
	require.Error(t, err)
}

func TestPromptMountURLs(t *testing.T) {
	cfg := PromptsConfig{BaseURL: "http://prompts.local:8000"}
	assert.Equal(t, "http://prompts.local:8000/financials", cfg.FinancialsURL())
	assert.Equal(t, "http://prompts.local:8000/prices", cfg.PricesURL())
}
