package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del pipeline de riesgo.
type Config struct {
	Zones    ZonesConfig    `yaml:"zones"`
	Gate     GateConfig     `yaml:"gate"`
	Auditor  AuditorConfig  `yaml:"auditor"`
	Survival SurvivalConfig `yaml:"survival"`
	Sentinel SentinelConfig `yaml:"sentinel"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// ZonesConfig controla la detección de zonas.
type ZonesConfig struct {
	ATRMultiplier float64 `yaml:"atr_multiplier"` // cuerpo mínimo del impulso en rangos medios
	MinLookback   int     `yaml:"min_lookback"`
}

// GateConfig controla el SignalGate.
type GateConfig struct {
	DefaultTolerance float64            `yaml:"default_tolerance"`
	Tolerances       map[string]float64 `yaml:"tolerances"`  // clase -> distancia absoluta
	Instruments      map[string]string  `yaml:"instruments"` // símbolo -> clase
	BlockShortGamma  bool               `yaml:"block_short_gamma"`
}

// AuditorConfig controla la atribución de alpha.
type AuditorConfig struct {
	OutlierCap float64 `yaml:"outlier_cap"` // R a partir del cual un win es outlier
}

// SurvivalConfig controla la simulación Monte Carlo.
type SurvivalConfig struct {
	InitialEquity   float64 `yaml:"initial_equity"`
	RiskPerTradePct float64 `yaml:"risk_per_trade_pct"` // fracción, 0.01 = 1%
	NumTrades       int     `yaml:"num_trades"`
	Trials          int     `yaml:"trials"`
	Seed            uint64  `yaml:"seed"`
	Workers         int     `yaml:"workers"` // 0 = NumCPU
}

// SentinelConfig controla el barrido de stop losses.
type SentinelConfig struct {
	Workers int `yaml:"workers"` // 0 = NumCPU*2
}

// AlertsConfig controla el webhook de alertas.
type AlertsConfig struct {
	WebhookURL string  `yaml:"webhook_url"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// MetricsConfig controla el endpoint de Prometheus.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // vacío = deshabilitado
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// Parse construye la configuración a partir de YAML ya leído.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default devuelve la configuración por defecto (sin archivo).
func Default() *Config {
	var cfg Config
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		cfg.Alerts.WebhookURL = v
	}
	if v := os.Getenv("RISKGATE_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("SURVIVAL_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Survival.Seed = seed
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Zones.ATRMultiplier <= 0 {
		cfg.Zones.ATRMultiplier = 3.0
	}
	if cfg.Zones.MinLookback <= 0 {
		cfg.Zones.MinLookback = 1
	}
	if cfg.Gate.DefaultTolerance <= 0 {
		cfg.Gate.DefaultTolerance = 0.0005 // 5 pips FX
	}
	if cfg.Auditor.OutlierCap <= 0 {
		cfg.Auditor.OutlierCap = 10
	}
	if cfg.Survival.InitialEquity <= 0 {
		cfg.Survival.InitialEquity = 10000
	}
	if cfg.Survival.RiskPerTradePct <= 0 {
		cfg.Survival.RiskPerTradePct = 0.01
	}
	if cfg.Survival.NumTrades <= 0 {
		cfg.Survival.NumTrades = 1000
	}
	if cfg.Survival.Trials <= 0 {
		cfg.Survival.Trials = 500
	}
	if cfg.Survival.Seed == 0 {
		cfg.Survival.Seed = 1
	}
	if cfg.Alerts.RatePerSec <= 0 {
		cfg.Alerts.RatePerSec = 1
	}
	if cfg.Alerts.Burst <= 0 {
		cfg.Alerts.Burst = 5
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "riskgate.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate rechaza combinaciones que los defaults no pueden arreglar.
func (c *Config) Validate() error {
	var errs []error
	if c.Survival.RiskPerTradePct >= 1 {
		errs = append(errs, fmt.Errorf("survival.risk_per_trade_pct must be < 1, got %v", c.Survival.RiskPerTradePct))
	}
	for class, tol := range c.Gate.Tolerances {
		if tol < 0 {
			errs = append(errs, fmt.Errorf("gate.tolerances[%s] must be >= 0, got %v", class, tol))
		}
	}
	for symbol, class := range c.Gate.Instruments {
		if _, ok := c.Gate.Tolerances[class]; !ok {
			errs = append(errs, fmt.Errorf("gate.instruments[%s]: unknown class %q", symbol, class))
		}
	}
	if c.Survival.Workers < 0 || c.Sentinel.Workers < 0 {
		errs = append(errs, errors.New("workers must be >= 0"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config.Validate: %w", errors.Join(errs...))
	}
	return nil
}
