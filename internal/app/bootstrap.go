package app

import (
	"fmt"
	"log/slog"
	"time"

	"crypto_tycoon/internal/engine"
	"crypto_tycoon/internal/infra"
	"crypto_tycoon/internal/market"
	"crypto_tycoon/internal/server"
	"crypto_tycoon/internal/storage"
	"crypto_tycoon/pkg/quant"
)

// Overrides carries command-line values that win over the config file.
type Overrides struct {
	ConfigPath string
	Addr       string
	Seed       int64
	SeedSet    bool
	LogLevel   string
}

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	EventStore *storage.EventStore
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads config, installs the logger and opens the journal.
func (b *Bootstrap) Initialize(o Overrides) error {
	// 1. Load Config (Dynamic Path Resolution)
	path := o.ConfigPath
	if path == "" {
		path = infra.ResolveConfigPath()
	}
	cfg, err := infra.LoadConfig(path)
	if err != nil {
		return err
	}
	if o.Addr != "" {
		cfg.Server.Addr = o.Addr
	}
	if o.SeedSet {
		cfg.Game.Seed = o.Seed
	}
	if o.LogLevel != "" {
		if _, err := infra.ParseLevel(o.LogLevel); err != nil {
			return err
		}
		cfg.Logging.Level = o.LogLevel
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("Bootstrapping Crypto Tycoon...", slog.String("config", path))

	// 3. Initialize the session journal (in-memory unless configured)
	dsn := cfg.Journal.DSN
	if err := infra.EnsureJournalDir(dsn); err != nil {
		return fmt.Errorf("failed to create journal dir: %w", err)
	}
	evStore, err := storage.NewEventStore(dsn)
	if err != nil {
		return err
	}
	b.EventStore = evStore
	slog.Info("EventStore initialized", slog.String("dsn", displayDSN(dsn)))

	return nil
}

func displayDSN(dsn string) string {
	if dsn == "" {
		return storage.MemoryDSN
	}
	return dsn
}

// SessionConfig builds the engine config for one new session. Without a
// configured seed every session draws its own.
func (b *Bootstrap) SessionConfig() engine.Config {
	g := b.Config.Game

	cfg := engine.DefaultConfig()
	cfg.Seed = g.Seed
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	cfg.Coins = g.Coins
	cfg.StartingCash = quant.ToCents(g.StartingCash)
	cfg.TickInterval = time.Duration(g.TickIntervalMS) * time.Millisecond
	cfg.NetWorthWindow = g.NetWorthWindow
	cfg.Market = market.Params{
		Drift:        g.Drift,
		Volatility:   g.Volatility,
		Floor:        quant.ToCents(g.PriceFloor),
		InitialMin:   quant.ToCents(g.InitialPriceMin),
		InitialSpan:  quant.ToCents(g.InitialPriceSpan),
		SeriesWindow: g.PriceWindow,
	}
	return cfg
}

// ServerOptions maps config onto the transport.
func (b *Bootstrap) ServerOptions() server.Options {
	s := b.Config.Server
	return server.Options{
		Addr:             s.Addr,
		MaxSessions:      s.MaxSessions,
		IntentBurst:      s.IntentBurst,
		IntentsPerSecond: s.IntentsPerSecond,
		SessionConfig:    b.SessionConfig,
		PruneJournal:     b.EventStore != nil && b.EventStore.InMemory(),
	}
}

// Close releases the journal.
func (b *Bootstrap) Close() error {
	if b.EventStore == nil {
		return nil
	}
	return b.EventStore.Close()
}
