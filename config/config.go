package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del engine.
type Config struct {
	Detector DetectorConfig `yaml:"detector"`
	Stake    StakeConfig    `yaml:"stake"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Replay   ReplayConfig   `yaml:"replay"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// DetectorConfig controla los umbrales de detección de anomalías.
// Valores empíricos heredados de la estrategia original — se sobreescriben
// aquí, no se re-derivan en el código.
type DetectorConfig struct {
	WindowSeconds    int     `yaml:"window_seconds"`     // ventana deslizante por mercado
	PriceMovePct     float64 `yaml:"price_move_pct"`     // 0.03 = 3%
	VolumeMult       float64 `yaml:"volume_mult"`        // 3.0 = 3× el valor medio
	PressureTrades   int     `yaml:"pressure_trades"`    // lookback del run monótono
	PressureRangePct float64 `yaml:"pressure_range_pct"` // 0.02 = 2%
	WalletLookback   int     `yaml:"wallet_lookback"`    // trades para wallets_involved
}

// StakeConfig define la curva confianza → stake.
type StakeConfig struct {
	MinConfidence  int     `yaml:"min_confidence"`
	MidConfidence  int     `yaml:"mid_confidence"`
	HighConfidence int     `yaml:"high_confidence"`
	BaseStake      float64 `yaml:"base_stake"`
	MidStake       float64 `yaml:"mid_stake"`
	HighStake      float64 `yaml:"high_stake"`
	MaxStake       float64 `yaml:"max_stake"`
}

// LedgerConfig controla el paper trade ledger.
type LedgerConfig struct {
	ExchangeRate float64 `yaml:"exchange_rate"` // USD → USDC
}

// ReplayConfig controla el feed de replay desde archivo.
type ReplayConfig struct {
	Path         string  `yaml:"path"`           // archivo JSONL de trades
	TradesPerSec float64 `yaml:"trades_per_sec"` // 0 = sin pacing
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env
// si existe. Las variables de entorno sobreescriben el YAML.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Default devuelve una configuración usable sin archivo YAML.
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg
}

// Window devuelve la ventana del detector como time.Duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Detector.WindowSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("REPLAY_PATH"); v != "" {
		cfg.Replay.Path = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Detector.WindowSeconds <= 0 {
		cfg.Detector.WindowSeconds = 120
	}
	if cfg.Detector.PriceMovePct <= 0 {
		cfg.Detector.PriceMovePct = 0.03
	}
	if cfg.Detector.VolumeMult <= 0 {
		cfg.Detector.VolumeMult = 3.0
	}
	if cfg.Detector.PressureTrades <= 0 {
		cfg.Detector.PressureTrades = 5
	}
	if cfg.Detector.PressureRangePct <= 0 {
		cfg.Detector.PressureRangePct = 0.02
	}
	if cfg.Detector.WalletLookback <= 0 {
		cfg.Detector.WalletLookback = 10
	}
	if cfg.Stake.MinConfidence <= 0 {
		cfg.Stake.MinConfidence = 50
	}
	if cfg.Stake.MidConfidence <= 0 {
		cfg.Stake.MidConfidence = 70
	}
	if cfg.Stake.HighConfidence <= 0 {
		cfg.Stake.HighConfidence = 90
	}
	if cfg.Stake.BaseStake <= 0 {
		cfg.Stake.BaseStake = 1.0
	}
	if cfg.Stake.MidStake <= 0 {
		cfg.Stake.MidStake = 2.0
	}
	if cfg.Stake.HighStake <= 0 {
		cfg.Stake.HighStake = 5.0
	}
	if cfg.Stake.MaxStake <= 0 {
		cfg.Stake.MaxStake = 6.0
	}
	if cfg.Ledger.ExchangeRate <= 0 {
		cfg.Ledger.ExchangeRate = 1.0
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "whalewatch.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
