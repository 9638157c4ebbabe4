package domain

import (
	"crypto_tycoon/pkg/quant"
	"crypto_tycoon/pkg/ring"
)

// PricePoint is one entry of a coin's price series.
type PricePoint struct {
	Tick  uint64      `json:"t"`
	Price quant.Cents `json:"p"`
}

// PriceState holds the current price of a single coin and its rolling series.
type PriceState struct {
	Price  quant.Cents
	Symbol string
	series *ring.Window[PricePoint]
}

// NewPriceState creates the state with the initial price recorded at tick 0.
func NewPriceState(symbol string, initial quant.Cents, window int) *PriceState {
	ps := &PriceState{
		Symbol: symbol,
		series: ring.New[PricePoint](window),
	}
	ps.Record(0, initial)
	return ps
}

// Record sets the current price and appends it to the series.
func (ps *PriceState) Record(tick uint64, price quant.Cents) {
	ps.Price = price
	ps.series.Push(PricePoint{Tick: tick, Price: price})
}

// Series returns a copy of the series, oldest first.
func (ps *PriceState) Series() []PricePoint {
	return ps.series.Items()
}
