package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"crypto_tycoon/internal/domain"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수로 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr             string  `yaml:"addr"`
		MaxSessions      int     `yaml:"max_sessions"`
		IntentBurst      int     `yaml:"intent_burst"`
		IntentsPerSecond float64 `yaml:"intents_per_second"`
		PprofAddr        string  `yaml:"pprof_addr"`
	} `yaml:"server"`

	Game struct {
		Seed             int64         `yaml:"seed"` // 0 = new seed per session
		StartingCash     float64       `yaml:"starting_cash"`
		TickIntervalMS   int           `yaml:"tick_interval_ms"`
		PriceWindow      int           `yaml:"price_window"`
		NetWorthWindow   int           `yaml:"networth_window"`
		Drift            float64       `yaml:"drift"`
		Volatility       float64       `yaml:"volatility"`
		PriceFloor       float64       `yaml:"price_floor"`
		InitialPriceMin  float64       `yaml:"initial_price_min"`
		InitialPriceSpan float64       `yaml:"initial_price_span"`
		Coins            []domain.Coin `yaml:"coins"`
	} `yaml:"game"`

	Journal struct {
		DSN string `yaml:"dsn"`
	} `yaml:"journal"`

	Autoplayer struct {
		URL         string  `yaml:"url"`
		Name        string  `yaml:"name"`
		ShortWindow int     `yaml:"short_window"`
		LongWindow  int     `yaml:"long_window"`
		BuyFraction float64 `yaml:"buy_fraction"`
	} `yaml:"autoplayer"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	cfg := baseConfig()
	fillBlanks(cfg)
	return cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
// A missing file is not an error: defaults and environment overrides apply.
// Keys present in the file win over defaults, including explicit zeros.
func LoadConfig(path string) (*Config, error) {
	cfg := baseConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// 환경 변수 오버라이드 지원
	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	fillBlanks(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// baseConfig holds every numeric default. The file is decoded on top of it,
// so a key set to 0 stays 0.
func baseConfig() *Config {
	cfg := &Config{}
	cfg.Server.MaxSessions = 64
	cfg.Server.IntentBurst = 10
	cfg.Server.IntentsPerSecond = 20
	cfg.Game.StartingCash = 10000
	cfg.Game.TickIntervalMS = 900
	cfg.Game.PriceWindow = 60
	cfg.Game.NetWorthWindow = 200
	cfg.Game.Drift = 0.0005
	cfg.Game.Volatility = 0.012
	cfg.Game.PriceFloor = 0.01
	cfg.Game.InitialPriceMin = 100
	cfg.Game.InitialPriceSpan = 1000
	cfg.Autoplayer.ShortWindow = 5
	cfg.Autoplayer.LongWindow = 20
	cfg.Autoplayer.BuyFraction = 0.1
	return cfg
}

// fillBlanks fills settings that are never meaningful when empty.
func fillBlanks(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = AppName
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8080"
	}
	if len(cfg.Game.Coins) == 0 {
		cfg.Game.Coins = domain.DefaultCoins()
	}
	if cfg.Autoplayer.URL == "" {
		cfg.Autoplayer.URL = "ws://" + cfg.Server.Addr + "/ws"
	}
	if cfg.Autoplayer.Name == "" {
		cfg.Autoplayer.Name = "Autoplayer"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Server.MaxSessions < 1 {
		return fmt.Errorf("max sessions must be positive")
	}
	if c.Server.IntentBurst < 1 || c.Server.IntentsPerSecond <= 0 {
		return fmt.Errorf("intent rate limit must be positive")
	}
	if c.Game.StartingCash < 0 {
		return fmt.Errorf("starting cash must not be negative")
	}
	if c.Game.TickIntervalMS <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.Game.PriceWindow < 1 || c.Game.NetWorthWindow < 1 {
		return fmt.Errorf("history windows must be positive")
	}
	if c.Game.Volatility < 0 || c.Game.Volatility >= 1 {
		return fmt.Errorf("volatility must be in [0, 1): %v", c.Game.Volatility)
	}
	if c.Game.PriceFloor < 0.01 {
		return fmt.Errorf("price floor must be at least 0.01")
	}
	if c.Game.InitialPriceMin < 0 || c.Game.InitialPriceSpan < 0 {
		return fmt.Errorf("initial price range must not be negative")
	}
	if err := domain.ValidateCoins(c.Game.Coins); err != nil {
		return err
	}
	if !strings.HasPrefix(c.Autoplayer.URL, "ws://") && !strings.HasPrefix(c.Autoplayer.URL, "wss://") {
		return fmt.Errorf("invalid autoplayer WS URL: %s", c.Autoplayer.URL)
	}
	if c.Autoplayer.ShortWindow < 1 || c.Autoplayer.LongWindow <= c.Autoplayer.ShortWindow {
		return fmt.Errorf("autoplayer windows must satisfy 0 < short < long")
	}
	if c.Autoplayer.BuyFraction <= 0 || c.Autoplayer.BuyFraction > 1 {
		return fmt.Errorf("autoplayer buy fraction must be in (0, 1]")
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
// 환경 변수는 설정 파일보다 우선합니다.
func overrideWithEnv(cfg *Config) error {
	if addr := os.Getenv("TYCOON_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if seed := os.Getenv("TYCOON_SEED"); seed != "" {
		v, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TYCOON_SEED %q: %w", seed, err)
		}
		cfg.Game.Seed = v
	}
	if level := os.Getenv("TYCOON_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if dsn := os.Getenv("TYCOON_JOURNAL"); dsn != "" {
		cfg.Journal.DSN = dsn
	}
	return nil
}

// GetUserAgent returns the User-Agent sent by outbound WebSocket clients.
func GetUserAgent() string {
	return AppName + "/1.0"
}
