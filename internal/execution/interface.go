package execution

import (
	"crypto_tycoon/internal/domain"
	"crypto_tycoon/pkg/quant"
)

// Executor defines the interface for trade execution against an account.
type Executor interface {
	// Buy spends cash on qty units of symbol at price.
	Buy(acc *domain.Account, symbol string, qty quant.Units, price quant.Cents) (Fill, error)

	// Sell converts up to qty owned units of symbol into cash at price.
	Sell(acc *domain.Account, symbol string, qty quant.Units, price quant.Cents) (Fill, error)

	// Fills returns executed fills since the last Reset.
	Fills() []Fill

	// Reset discards the fill log.
	Reset()
}
