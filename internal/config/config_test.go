package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngineConfig(t *testing.T) {
	cfg := DefaultEngineConfig()

	assert.Equal(t, 5, cfg.Batch.Concurrency)
	assert.Equal(t, 60*time.Second, cfg.Batch.CellTimeout())
	assert.Equal(t, 30*time.Minute, cfg.Batch.Deadline())
	assert.Equal(t, 3, cfg.Batch.MaxRetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.Batch.RetryDelay())
	assert.Equal(t, "03:00", cfg.Batch.DailyRunAt)

	perMessage, perSession, infra := cfg.CostDecimals()
	assert.Equal(t, "0.005", perMessage.String())
	assert.Equal(t, "0.03", perSession.String())
	assert.Equal(t, "25", infra.String())
}

func TestPlanPrice(t *testing.T) {
	cfg := DefaultEngineConfig()

	assert.Equal(t, "58", cfg.PlanPrice("basico").String())
	assert.Equal(t, "116", cfg.PlanPrice("profissional").String())
	assert.Equal(t, "290", cfg.PlanPrice("enterprise").String())
	assert.True(t, cfg.PlanPrice("free").IsZero())
	assert.True(t, cfg.PlanPrice("trial").IsZero(), "unknown plans price at zero")
}

func TestLoadEngineConfigOverridesDefaults(t *testing.T) {
	content := `
[batch]
concurrency = 10
cell_timeout_seconds = 120
daily_run_at = "04:30"

[costs]
per_message_usd = "0.01"

[plans.monthly_prices]
basico = "79.00"
`
	path := filepath.Join(t.TempDir(), "engine.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadEngineConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Batch.Concurrency)
	assert.Equal(t, 120*time.Second, cfg.Batch.CellTimeout())
	assert.Equal(t, "04:30", cfg.Batch.DailyRunAt)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, 3, cfg.Batch.MaxRetryAttempts)
	assert.Equal(t, "0.01", cfg.Costs.PerMessageUSD)
	assert.Equal(t, "0.03", cfg.Costs.PerSessionUSD)
	assert.Equal(t, "79", cfg.PlanPrice("basico").String())
}

func TestLoadEngineConfigMissingFile(t *testing.T) {
	cfg, err := LoadEngineConfig("/nonexistent/engine.toml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
