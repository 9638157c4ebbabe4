package domain

import "crypto_tycoon/pkg/quant"

// Position is a held coin valued at the current price.
type Position struct {
	Symbol string      `json:"symbol"`
	Qty    quant.Units `json:"qty"`
	Price  quant.Cents `json:"price"`
	Value  quant.Cents `json:"value"`
}

// IsPriced reports whether the position has a known market price.
// Unpriced positions count as zero in net worth.
func (p *Position) IsPriced() bool {
	return p.Price > 0
}
