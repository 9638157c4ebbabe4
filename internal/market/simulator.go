// Package market simulates coin prices with a bounded multiplicative random walk.
package market

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/pkg/quant"
)

// RandomSource supplies uniform values in [0, 1).
// *rand.Rand satisfies it; tests inject fixed sequences.
type RandomSource interface {
	Float64() float64
}

// NewRand returns a seeded source so a seed reproduces a price path exactly.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Params configures the random walk.
type Params struct {
	Drift        float64     // Constant upward bias per tick
	Volatility   float64     // Shock bound: shock ∈ [-Volatility, +Volatility]
	Floor        quant.Cents // Minimum price
	InitialMin   quant.Cents // Lowest possible starting price
	InitialSpan  quant.Cents // Starting price = InitialMin + U[0,1) × InitialSpan
	SeriesWindow int         // Price points kept per coin
}

// DefaultParams returns the stock game tuning.
func DefaultParams() Params {
	return Params{
		Drift:        0.0005,
		Volatility:   0.012,
		Floor:        1,      // 0.01
		InitialMin:   10000,  // 100.00
		InitialSpan:  100000, // 1000.00
		SeriesWindow: 60,
	}
}

// Simulator owns the price state of every coin.
// Not safe for concurrent use: the session event loop is the only caller.
type Simulator struct {
	params Params
	rng    RandomSource
	coins  []domain.Coin
	states map[string]*domain.PriceState
}

// NewSimulator creates the price state with a randomized initial price per coin.
func NewSimulator(coins []domain.Coin, params Params, rng RandomSource) *Simulator {
	s := &Simulator{
		params: params,
		rng:    rng,
		coins:  append([]domain.Coin(nil), coins...),
		states: make(map[string]*domain.PriceState, len(coins)),
	}
	for _, c := range s.coins {
		s.states[c.Symbol] = domain.NewPriceState(c.Symbol, s.initialPrice(), params.SeriesWindow)
	}
	return s
}

func (s *Simulator) initialPrice() quant.Cents {
	span := s.params.InitialSpan.Decimal().Mul(decimal.NewFromFloat(s.rng.Float64()))
	p := quant.CentsFromDecimal(s.params.InitialMin.Decimal().Add(span))
	if p < s.params.Floor {
		return s.params.Floor
	}
	return p
}

// Walk computes the next price from prev:
// max(floor, prev × (1 + drift + shock)) rounded to 2 decimals.
// It never fails and never returns a price below the floor.
func (s *Simulator) Walk(prev quant.Cents) quant.Cents {
	shock := (s.rng.Float64()*2 - 1) * s.params.Volatility
	step := decimal.NewFromFloat(1 + s.params.Drift + shock)
	next := quant.CentsFromDecimal(prev.Decimal().Mul(step))
	if next < s.params.Floor {
		return s.params.Floor
	}
	return next
}

// Advance moves one coin forward and appends (tick, price) to its series,
// evicting the oldest point beyond the window.
func (s *Simulator) Advance(symbol string, tick uint64) (quant.Cents, bool) {
	st, ok := s.states[symbol]
	if !ok {
		return 0, false
	}
	next := s.Walk(st.Price)
	st.Record(tick, next)
	return next, true
}

// Step advances every coin once, in coin order.
func (s *Simulator) Step(tick uint64) {
	for _, c := range s.coins {
		s.Advance(c.Symbol, tick)
	}
}

// Price returns the current price of symbol.
func (s *Simulator) Price(symbol string) (quant.Cents, bool) {
	st, ok := s.states[symbol]
	if !ok {
		return 0, false
	}
	return st.Price, true
}

// Prices returns a symbol → current price map.
func (s *Simulator) Prices() map[string]quant.Cents {
	out := make(map[string]quant.Cents, len(s.states))
	for sym, st := range s.states {
		out[sym] = st.Price
	}
	return out
}

// State returns a copy of the price series of symbol, oldest first.
func (s *Simulator) State(symbol string) ([]domain.PricePoint, bool) {
	st, ok := s.states[symbol]
	if !ok {
		return nil, false
	}
	return st.Series(), true
}

// Series is State without the presence flag.
func (s *Simulator) Series(symbol string) []domain.PricePoint {
	series, _ := s.State(symbol)
	return series
}

// Coins returns the fixed coin set.
func (s *Simulator) Coins() []domain.Coin {
	return append([]domain.Coin(nil), s.coins...)
}
