package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EngulfSentinel/internal/model"
	"EngulfSentinel/internal/risk"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, model.TF15m, cfg.PrimaryTimeframe())
	assert.Equal(t, model.TF4h, cfg.ConfluenceTimeframe())
	assert.Equal(t, 50, cfg.Strategy.Lookback)
	assert.True(t, cfg.ConfluenceEnabled())
	assert.False(t, cfg.Strategy.IncludeFormingBar)
	assert.Equal(t, risk.StopLossEntryCandle, cfg.Risk.StopLoss)
	assert.Equal(t, "5 */15 * * * *", cfg.Schedule.BarCron)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
symbol: GBPUSD=X
timeframes:
  primary: 5m
  confluence: 1h
strategy:
  lookback: 40
  use_confluence: false
session:
  start: "08:00"
  end: "16:30"
risk:
  sizing: percent_risk
  percent_risk: 0.5
kafka:
  brokers: [a:9092]
`)
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("STRATEGY_LOOKBACK", "30")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "GBPUSD=X", cfg.Symbol)
	assert.Equal(t, model.TF5m, cfg.PrimaryTimeframe())
	assert.Equal(t, 30, cfg.Strategy.Lookback)
	assert.False(t, cfg.ConfluenceEnabled())
	assert.Equal(t, risk.SizingPercentRisk, cfg.Risk.Sizing)
	assert.Equal(t, 0.5, cfg.Risk.PercentRisk)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)

	w, err := cfg.SessionWindow()
	require.NoError(t, err)
	assert.Equal(t, "08:00-16:30", w.String())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad session time", "session:\n  start: \"9am\"\n"},
		{"unknown timeframe", "timeframes:\n  primary: 7m\n"},
		{"confluence not coarser", "timeframes:\n  primary: 4h\n  confluence: 1h\n"},
		{"history shorter than lookback", "timeframes:\n  history: 20\n"},
		{"half telegram", "telegram:\n  bot_token: abc\n"},
		{"bad risk mode", "risk:\n  sizing: martingale\n"},
	}
	for _, tt := range tests {
		cfg, err := Load(writeConfig(t, tt.yaml))
		require.NoError(t, err, tt.name)
		assert.Error(t, cfg.Validate(), tt.name)
	}
}

func TestSessionWindow_Invalid(t *testing.T) {
	cfg, err := Load(writeConfig(t, "session:\n  start: \"25:00\"\n"))
	require.NoError(t, err)
	_, err = cfg.SessionWindow()
	assert.Error(t, err)
	assert.Error(t, cfg.Validate())
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "symbol: [unterminated"))
	assert.Error(t, err)
}
