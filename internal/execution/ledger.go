package execution

import (
	"errors"
	"math"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/pkg/quant"
)

var (
	ErrNonPositiveQty   = errors.New("quantity must be positive")
	ErrInsufficientCash = errors.New("insufficient cash")
	ErrNoHoldings       = errors.New("nothing to sell")
	ErrNoPrice          = errors.New("no valid price")
	ErrOutOfRange       = errors.New("amount out of range")
)

// Fill represents an executed trade.
type Fill struct {
	Symbol string      `json:"symbol"`
	Side   domain.Side `json:"side"`
	Price  quant.Cents `json:"price"`
	Qty    quant.Units `json:"qty"`
	Amount quant.Cents `json:"amount"` // Cash moved, always positive
}

// Ledger executes trades immediately against the account at the given price.
// Every check runs before any mutation, so a rejected trade leaves the
// account unchanged.
type Ledger struct {
	fills []Fill
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{fills: make([]Fill, 0)}
}

// Buy debits qty × price (rounded to cents) and credits qty units.
func (l *Ledger) Buy(acc *domain.Account, symbol string, qty quant.Units, price quant.Cents) (Fill, error) {
	if qty <= 0 {
		return Fill{}, ErrNonPositiveQty
	}
	if price <= 0 {
		return Fill{}, ErrNoPrice
	}

	notional := quant.Notional(price, qty)
	if notional.GreaterThan(acc.Cash.Decimal()) {
		return Fill{}, ErrInsufficientCash
	}
	cost := quant.CentsFromDecimal(notional)
	if cost > acc.Cash {
		// Rounding up pushed the cost past the balance.
		return Fill{}, ErrInsufficientCash
	}
	if acc.Holdings.Get(symbol) > quant.Units(math.MaxInt64)-qty {
		return Fill{}, ErrOutOfRange
	}

	acc.Debit(cost)
	acc.AddUnits(symbol, qty)

	fill := Fill{Symbol: symbol, Side: domain.SideBuy, Price: price, Qty: qty, Amount: cost}
	l.fills = append(l.fills, fill)
	return fill, nil
}

// Sell clamps qty to the owned quantity, credits the proceeds and removes
// the holding entry when nothing is left.
func (l *Ledger) Sell(acc *domain.Account, symbol string, qty quant.Units, price quant.Cents) (Fill, error) {
	if qty <= 0 {
		return Fill{}, ErrNonPositiveQty
	}
	if price <= 0 {
		return Fill{}, ErrNoPrice
	}

	clamped := min(qty, acc.Holdings.Get(symbol))
	if clamped <= 0 {
		return Fill{}, ErrNoHoldings
	}
	proceeds := quant.CentsFromDecimal(quant.Notional(price, clamped))
	if acc.Cash > quant.Cents(math.MaxInt64)-proceeds {
		return Fill{}, ErrOutOfRange
	}

	acc.RemoveUnits(symbol, clamped)
	acc.Credit(proceeds)

	fill := Fill{Symbol: symbol, Side: domain.SideSell, Price: price, Qty: clamped, Amount: proceeds}
	l.fills = append(l.fills, fill)
	return fill, nil
}

// Fills returns all executed fills.
func (l *Ledger) Fills() []Fill {
	result := make([]Fill, len(l.fills))
	copy(result, l.fills)
	return result
}

// Reset discards the fill log.
func (l *Ledger) Reset() {
	l.fills = l.fills[:0]
}
