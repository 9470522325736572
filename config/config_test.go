package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/riskgate/config"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, 3.0, cfg.Zones.ATRMultiplier)
	assert.Equal(t, 1, cfg.Zones.MinLookback)
	assert.Equal(t, 0.0005, cfg.Gate.DefaultTolerance)
	assert.False(t, cfg.Gate.BlockShortGamma)
	assert.Equal(t, 10.0, cfg.Auditor.OutlierCap)
	assert.Equal(t, 10000.0, cfg.Survival.InitialEquity)
	assert.Equal(t, 0.01, cfg.Survival.RiskPerTradePct)
	assert.Equal(t, 1000, cfg.Survival.NumTrades)
	assert.Equal(t, 500, cfg.Survival.Trials)
	assert.Equal(t, uint64(1), cfg.Survival.Seed)
	assert.Equal(t, 1.0, cfg.Alerts.RatePerSec)
	assert.Equal(t, 5, cfg.Alerts.Burst)
	assert.Equal(t, "riskgate.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestParse_Sections(t *testing.T) {
	yml := `
zones:
  atr_multiplier: 2.5
  min_lookback: 20
gate:
  default_tolerance: 0.001
  tolerances:
    fx: 0.0005
    index: 2.5
  instruments:
    EURUSD: fx
    SPX: index
  block_short_gamma: true
survival:
  trials: 100
  seed: 42
`
	cfg, err := config.Parse([]byte(yml))
	require.NoError(t, err)

	assert.Equal(t, 2.5, cfg.Zones.ATRMultiplier)
	assert.Equal(t, 20, cfg.Zones.MinLookback)
	assert.Equal(t, 2.5, cfg.Gate.Tolerances["index"])
	assert.Equal(t, "fx", cfg.Gate.Instruments["EURUSD"])
	assert.True(t, cfg.Gate.BlockShortGamma)
	assert.Equal(t, 100, cfg.Survival.Trials)
	assert.Equal(t, uint64(42), cfg.Survival.Seed)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"risk too high":  "survival:\n  risk_per_trade_pct: 1.5\n",
		"unknown class":  "gate:\n  instruments:\n    EURUSD: fx\n",
		"bad log format": "log:\n  format: xml\n",
		"bad yaml":       "zones: [",
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse([]byte(yml))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ALERT_WEBHOOK_URL", "https://hooks.example.com/x")
	t.Setenv("RISKGATE_DB", ":memory:")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("SURVIVAL_SEED", "99")

	cfg, err := config.Parse([]byte("storage:\n  dsn: file.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/x", cfg.Alerts.WebhookURL)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, uint64(99), cfg.Survival.Seed)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auditor:\n  outlier_cap: 5\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Auditor.OutlierCap)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
