package domain

import "crypto_tycoon/pkg/quant"

// SessionInfo identifies a game session and the inputs needed to rebuild it.
// Game settings are stored with the session so a later config change cannot
// alter how its journal replays.
type SessionInfo struct {
	ID        string          `json:"id"`
	PlayerID  string          `json:"player_id"`
	Seed      int64           `json:"seed,string"`
	StartedAt quant.TimeStamp `json:"started_at,string"`

	Coins          []Coin      `json:"coins,omitempty"`
	StartingCash   quant.Cents `json:"starting_cash"`
	NetWorthWindow int         `json:"networth_window"`
	Market         MarketRules `json:"market"`
}

// MarketRules is the random-walk tuning a session ran with.
type MarketRules struct {
	Drift        float64     `json:"drift"`
	Volatility   float64     `json:"volatility"`
	Floor        quant.Cents `json:"floor"`
	InitialMin   quant.Cents `json:"initial_min"`
	InitialSpan  quant.Cents `json:"initial_span"`
	SeriesWindow int         `json:"series_window"`
}
