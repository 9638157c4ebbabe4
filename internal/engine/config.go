package engine

import (
	"fmt"
	"time"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/market"
	"crypto_tycoon/pkg/quant"
)

// Config fixes everything a session needs to be rebuilt deterministically.
type Config struct {
	SessionID      string
	PlayerID       string
	Seed           int64
	Coins          []domain.Coin
	StartingCash   quant.Cents
	TickInterval   time.Duration
	NetWorthWindow int
	Market         market.Params
	InboxSize      int

	// Clock stamps events. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultConfig returns the stock game settings.
func DefaultConfig() Config {
	return Config{
		Coins:          domain.DefaultCoins(),
		StartingCash:   quant.ToCents(10000),
		TickInterval:   900 * time.Millisecond,
		NetWorthWindow: 200,
		Market:         market.DefaultParams(),
		InboxSize:      64,
	}
}

// Validate rejects settings the session cannot run with.
func (c Config) Validate() error {
	if err := domain.ValidateCoins(c.Coins); err != nil {
		return err
	}
	if c.StartingCash < 0 {
		return fmt.Errorf("starting cash must not be negative: %s", c.StartingCash)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive: %s", c.TickInterval)
	}
	if c.NetWorthWindow < 1 || c.Market.SeriesWindow < 1 {
		return fmt.Errorf("history windows must be positive")
	}
	if c.Market.Floor < 1 {
		return fmt.Errorf("price floor must be at least 0.01")
	}
	if c.Market.Volatility < 0 || c.Market.Volatility >= 1 {
		return fmt.Errorf("volatility must be in [0, 1): %v", c.Market.Volatility)
	}
	return nil
}

// SessionInfo records the identity and game settings of cfg for the journal.
func (c Config) SessionInfo(startedAt quant.TimeStamp) domain.SessionInfo {
	m := c.Market
	return domain.SessionInfo{
		ID:             c.SessionID,
		PlayerID:       c.PlayerID,
		Seed:           c.Seed,
		StartedAt:      startedAt,
		Coins:          c.Coins,
		StartingCash:   c.StartingCash,
		NetWorthWindow: c.NetWorthWindow,
		Market: domain.MarketRules{
			Drift:        m.Drift,
			Volatility:   m.Volatility,
			Floor:        m.Floor,
			InitialMin:   m.InitialMin,
			InitialSpan:  m.InitialSpan,
			SeriesWindow: m.SeriesWindow,
		},
	}
}

// WithSessionInfo returns c with the identity and game settings of a
// journaled session. Sessions journaled without settings keep c's.
func (c Config) WithSessionInfo(info domain.SessionInfo) Config {
	c.SessionID = info.ID
	c.PlayerID = info.PlayerID
	c.Seed = info.Seed
	if len(info.Coins) == 0 {
		return c
	}

	m := info.Market
	c.Coins = info.Coins
	c.StartingCash = info.StartingCash
	c.NetWorthWindow = info.NetWorthWindow
	c.Market = market.Params{
		Drift:        m.Drift,
		Volatility:   m.Volatility,
		Floor:        m.Floor,
		InitialMin:   m.InitialMin,
		InitialSpan:  m.InitialSpan,
		SeriesWindow: m.SeriesWindow,
	}
	return c
}
