package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// EngineConfig represents the complete metrics engine configuration.
type EngineConfig struct {
	Batch BatchConfig `toml:"batch"`
	Costs CostConfig  `toml:"costs"`
	Plans PlanConfig  `toml:"plans"`
}

// BatchConfig contains concurrency, timeout and retry settings for a run.
type BatchConfig struct {
	Concurrency        int    `toml:"concurrency"`
	CellTimeoutSeconds int    `toml:"cell_timeout_seconds"`
	DeadlineMinutes    int    `toml:"deadline_minutes"`
	MaxRetryAttempts   int    `toml:"max_retry_attempts"`
	RetryDelaySeconds  int    `toml:"retry_delay_seconds"`
	DailyRunAt         string `toml:"daily_run_at"`
}

// CostConfig contains the external cost assumptions of the cost model.
type CostConfig struct {
	PerMessageUSD   string `toml:"per_message_usd"`
	PerSessionUSD   string `toml:"per_session_usd"`
	InfraMonthlyUSD string `toml:"infra_monthly_usd"`
}

// PlanConfig maps subscription plan names to monthly prices, used for the
// platform MRR sum.
type PlanConfig struct {
	MonthlyPrices map[string]string `toml:"monthly_prices"`
}

// LoadEngineConfig loads configuration from a TOML file.
func LoadEngineConfig(filename string) (*EngineConfig, error) {
	config := DefaultEngineConfig()
	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return config, nil
}

// DefaultEngineConfig returns the defaults used when no config file is
// provided.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Batch: BatchConfig{
			Concurrency:        5,
			CellTimeoutSeconds: 60,
			DeadlineMinutes:    30,
			MaxRetryAttempts:   3,
			RetryDelaySeconds:  2,
			DailyRunAt:         "03:00",
		},
		Costs: CostConfig{
			PerMessageUSD:   "0.005",
			PerSessionUSD:   "0.03",
			InfraMonthlyUSD: "25.00",
		},
		Plans: PlanConfig{
			MonthlyPrices: map[string]string{
				"basico":       "58.00",
				"profissional": "116.00",
				"enterprise":   "290.00",
				"free":         "0",
			},
		},
	}
}

func (b BatchConfig) CellTimeout() time.Duration {
	return time.Duration(b.CellTimeoutSeconds) * time.Second
}

func (b BatchConfig) Deadline() time.Duration {
	return time.Duration(b.DeadlineMinutes) * time.Minute
}

func (b BatchConfig) RetryDelay() time.Duration {
	return time.Duration(b.RetryDelaySeconds) * time.Second
}

// PlanPrice resolves a plan's monthly price; unknown plans price at zero.
func (c *EngineConfig) PlanPrice(plan string) decimal.Decimal {
	raw, ok := c.Plans.MonthlyPrices[plan]
	if !ok {
		return decimal.Zero
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return price
}

// CostDecimals parses the cost rate strings, falling back to zero on
// malformed values.
func (c *EngineConfig) CostDecimals() (perMessage, perSession, infraMonthly decimal.Decimal) {
	perMessage, _ = decimal.NewFromString(c.Costs.PerMessageUSD)
	perSession, _ = decimal.NewFromString(c.Costs.PerSessionUSD)
	infraMonthly, _ = decimal.NewFromString(c.Costs.InfraMonthlyUSD)
	return
}
