package strategy

import (
	"fmt"

	"crypto_tycoon/pkg/quant"
	"crypto_tycoon/pkg/safe"
)

// SMACrossStrategy implements a simple SMA Crossover strategy for one coin.
// It is stateful and deterministic.
// Uses a ring buffer so the hot path does not allocate.
type SMACrossStrategy struct {
	symbol      string
	shortPeriod int
	longPeriod  int

	// State (Ring Buffer)
	prices []quant.Cents
	head   int         // Current write position
	count  int         // Number of elements filled
	sum    quant.Cents // Running sum over the long period

	primed       bool
	prevShortSMA quant.Cents
	prevLongSMA  quant.Cents
}

// NewSMACrossStrategy creates a new instance.
func NewSMACrossStrategy(symbol string, shortPeriod, longPeriod int) (*SMACrossStrategy, error) {
	if shortPeriod < 1 || shortPeriod >= longPeriod {
		return nil, fmt.Errorf("sma cross: need 0 < short (%d) < long (%d)", shortPeriod, longPeriod)
	}
	return &SMACrossStrategy{
		symbol:      symbol,
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		prices:      make([]quant.Cents, longPeriod), // Fixed size allocation
	}, nil
}

// OnPrice records the price and reports a golden cross (BUY) or dead cross (SELL).
func (s *SMACrossStrategy) OnPrice(symbol string, price quant.Cents) Signal {
	if symbol != s.symbol {
		return SignalNone
	}

	// If full, subtract the oldest value from sum before overwriting
	if s.count == s.longPeriod {
		s.sum = safe.Sub(s.sum, s.prices[s.head])
	}

	s.prices[s.head] = price
	s.sum = safe.Add(s.sum, price)
	s.head = (s.head + 1) % s.longPeriod

	if s.count < s.longPeriod {
		s.count++
	}
	if s.count < s.longPeriod {
		return SignalNone
	}

	currLongSMA := safe.Div(s.sum, quant.Cents(s.longPeriod))
	currShortSMA := s.calculateShortSMA()

	signal := SignalNone
	if s.primed {
		switch {
		case s.prevShortSMA <= s.prevLongSMA && currShortSMA > currLongSMA:
			signal = SignalBuy // Golden Cross
		case s.prevShortSMA >= s.prevLongSMA && currShortSMA < currLongSMA:
			signal = SignalSell // Dead Cross
		}
	}

	s.primed = true
	s.prevShortSMA = currShortSMA
	s.prevLongSMA = currLongSMA

	return signal
}

// calculateShortSMA calculates the SMA for the short period using the ring buffer.
func (s *SMACrossStrategy) calculateShortSMA() quant.Cents {
	var sum quant.Cents
	// head points to the next write slot, so head-1 is the latest
	idx := s.head
	for i := 0; i < s.shortPeriod; i++ {
		idx--
		if idx < 0 {
			idx = s.longPeriod - 1
		}
		sum = safe.Add(sum, s.prices[idx])
	}
	return safe.Div(sum, quant.Cents(s.shortPeriod))
}

// Portfolio fans prices out to one SMACrossStrategy per coin.
type Portfolio struct {
	strategies map[string]*SMACrossStrategy
	short      int
	long       int
}

// NewPortfolio creates per-coin strategies lazily with the given periods.
func NewPortfolio(shortPeriod, longPeriod int) (*Portfolio, error) {
	if _, err := NewSMACrossStrategy("", shortPeriod, longPeriod); err != nil {
		return nil, err
	}
	return &Portfolio{
		strategies: make(map[string]*SMACrossStrategy),
		short:      shortPeriod,
		long:       longPeriod,
	}, nil
}

// OnPrice routes the price to the coin's strategy.
func (p *Portfolio) OnPrice(symbol string, price quant.Cents) Signal {
	st, ok := p.strategies[symbol]
	if !ok {
		st, _ = NewSMACrossStrategy(symbol, p.short, p.long)
		p.strategies[symbol] = st
	}
	return st.OnPrice(symbol, price)
}
