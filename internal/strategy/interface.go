package strategy

import (
	"crypto_tycoon/pkg/quant"
)

// Signal is a trading decision for one coin.
type Signal int

const (
	SignalNone Signal = iota
	SignalBuy
	SignalSell
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "NONE"
	}
}

// Strategy defines the interface for trading logic.
type Strategy interface {
	// OnPrice is called once per tick with the coin's latest price.
	OnPrice(symbol string, price quant.Cents) Signal
}
