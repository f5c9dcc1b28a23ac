package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"EngulfSentinel/internal/model"
	"EngulfSentinel/internal/risk"
	"EngulfSentinel/internal/session"
)

// Config holds all application configuration.
type Config struct {
	Symbol string `yaml:"symbol" env:"SYMBOL"`

	DataSource struct {
		BaseURL string `yaml:"base_url" env:"VSTRADER_BASE_URL"`
		APIKey  string `yaml:"api_key" env:"VSTRADER_API_KEY"`
		Mock    bool   `yaml:"mock" env:"DATA_SOURCE_MOCK"`
	} `yaml:"data_source"`

	Timeframes struct {
		Primary    string `yaml:"primary" env:"TIMEFRAME_PRIMARY"`
		Confluence string `yaml:"confluence" env:"TIMEFRAME_CONFLUENCE"`
		History    int    `yaml:"history" env:"TIMEFRAME_HISTORY"`
	} `yaml:"timeframes"`

	Strategy struct {
		Lookback          int     `yaml:"lookback" env:"STRATEGY_LOOKBACK"`
		UseConfluence     *bool   `yaml:"use_confluence" env:"STRATEGY_USE_CONFLUENCE"`
		IncludeFormingBar bool    `yaml:"include_forming_bar" env:"STRATEGY_INCLUDE_FORMING_BAR"`
		PriceTolerance    float64 `yaml:"price_tolerance" env:"STRATEGY_PRICE_TOLERANCE"`
		OrderLabel        string  `yaml:"order_label" env:"STRATEGY_ORDER_LABEL"`
	} `yaml:"strategy"`

	Session struct {
		Start    string `yaml:"start" env:"SESSION_START"`
		End      string `yaml:"end" env:"SESSION_END"`
		Location string `yaml:"location" env:"SESSION_LOCATION"`
	} `yaml:"session"`

	Risk risk.Config `yaml:"risk"`

	Schedule struct {
		BarCron   string `yaml:"bar_cron" env:"CRON_BAR"`
		QuoteCron string `yaml:"quote_cron" env:"CRON_QUOTE"`
	} `yaml:"schedule"`

	Telegram struct {
		BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`

	Kafka struct {
		Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
		Topic   string   `yaml:"topic" env:"KAFKA_TOPIC"`
	} `yaml:"kafka"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	} `yaml:"database"`

	API struct {
		Addr string `yaml:"addr" env:"API_ADDR"`
	} `yaml:"api"`

	Log struct {
		Level       string `yaml:"level" env:"LOG_LEVEL"`
		Development bool   `yaml:"development" env:"LOG_DEVELOPMENT"`
	} `yaml:"log"`

	Proxy string `yaml:"proxy" env:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Symbol == "" {
		cfg.Symbol = "EURUSD=X"
	}
	if cfg.Timeframes.Primary == "" {
		cfg.Timeframes.Primary = string(model.TF15m)
	}
	if cfg.Timeframes.Confluence == "" {
		cfg.Timeframes.Confluence = string(model.TF4h)
	}
	if cfg.Timeframes.History == 0 {
		cfg.Timeframes.History = 300
	}
	if cfg.Strategy.Lookback == 0 {
		cfg.Strategy.Lookback = 50
	}
	if cfg.Strategy.UseConfluence == nil {
		on := true
		cfg.Strategy.UseConfluence = &on
	}
	if cfg.Strategy.OrderLabel == "" {
		cfg.Strategy.OrderLabel = "engulf-combo"
	}
	if cfg.Session.Start == "" {
		cfg.Session.Start = "00:00"
	}
	if cfg.Session.End == "" {
		cfg.Session.End = cfg.Session.Start
	}
	r := &cfg.Risk
	if r.StopLoss == "" {
		r.StopLoss = risk.StopLossEntryCandle
	}
	if r.StopLossPips == 0 {
		r.StopLossPips = 10
	}
	if r.TakeProfit == "" {
		r.TakeProfit = risk.TakeProfitRiskReward
	}
	if r.TakeProfitPips == 0 {
		r.TakeProfitPips = 10
	}
	if r.RiskReward == 0 {
		r.RiskReward = 1
	}
	if r.Sizing == "" {
		r.Sizing = risk.SizingFixedLot
	}
	if r.Lots == 0 {
		r.Lots = 1
	}
	if r.PercentRisk == 0 {
		r.PercentRisk = 1
	}
	if r.PipSize == 0 {
		r.PipSize = 0.0001
	}
	if r.PipValue == 0 {
		r.PipValue = 0.0001
	}
	if r.LotSize == 0 {
		r.LotSize = 100000
	}
	if r.VolumeStep == 0 {
		r.VolumeStep = 1000
	}
	if cfg.Schedule.BarCron == "" {
		// 5s after every quarter hour, once the 15m bar has closed
		cfg.Schedule.BarCron = "5 */15 * * * *"
	}
	if cfg.Schedule.QuoteCron == "" {
		cfg.Schedule.QuoteCron = "@every 2s"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "engulf.orders"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/engulf_sentinel.db"
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks that all fields are usable. Session times that do not
// parse are reported here so the process can stop before it starts trading.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	primary, err := model.ParseTimeframe(c.Timeframes.Primary)
	if err != nil {
		return fmt.Errorf("timeframes.primary: %w", err)
	}
	confluence, err := model.ParseTimeframe(c.Timeframes.Confluence)
	if err != nil {
		return fmt.Errorf("timeframes.confluence: %w", err)
	}
	if confluence.Duration() <= primary.Duration() {
		return fmt.Errorf("timeframes.confluence (%s) must be coarser than timeframes.primary (%s)", confluence, primary)
	}
	if c.Timeframes.History < c.Strategy.Lookback {
		return fmt.Errorf("timeframes.history (%d) must cover strategy.lookback (%d)", c.Timeframes.History, c.Strategy.Lookback)
	}
	if c.Strategy.Lookback <= 0 {
		return fmt.Errorf("strategy.lookback must be positive")
	}
	if c.Strategy.PriceTolerance < 0 {
		return fmt.Errorf("strategy.price_tolerance must not be negative")
	}
	if _, err := c.SessionWindow(); err != nil {
		return err
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// SessionWindow parses the trading session.
func (c *Config) SessionWindow() (session.Window, error) {
	return session.Parse(c.Session.Start, c.Session.End, c.Session.Location)
}

// PrimaryTimeframe returns the validated primary timeframe.
func (c *Config) PrimaryTimeframe() model.Timeframe { return model.Timeframe(c.Timeframes.Primary) }

// ConfluenceTimeframe returns the validated confluence timeframe.
func (c *Config) ConfluenceTimeframe() model.Timeframe {
	return model.Timeframe(c.Timeframes.Confluence)
}

// ConfluenceEnabled reports whether combos are gated on the higher timeframe.
func (c *Config) ConfluenceEnabled() bool {
	return c.Strategy.UseConfluence == nil || *c.Strategy.UseConfluence
}
