// Package networth values an account at current prices.
package networth

import (
	"github.com/shopspring/decimal"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/pkg/quant"
)

// Compute returns cash + Σ(quantity × price) rounded to cents once, at the end.
// A held coin without a price counts as zero.
func Compute(acc *domain.Account, prices map[string]quant.Cents) quant.Cents {
	total := acc.Cash.Decimal()
	for sym, qty := range acc.Holdings {
		price, ok := prices[sym]
		if !ok {
			continue
		}
		total = total.Add(quant.Notional(price, qty))
	}
	return quant.CentsFromDecimal(total)
}

// Record computes the net worth and appends (ts, value) to the account's
// history, evicting the oldest entry beyond the window.
func Record(acc *domain.Account, prices map[string]quant.Cents, ts quant.TimeStamp) quant.Cents {
	value := Compute(acc, prices)
	acc.RecordNetWorth(domain.NetWorthPoint{Ts: ts, Value: value})
	return value
}

// Change returns the relative change from the first to the last history
// point (0.05 = +5%). Zero when fewer than two points exist.
func Change(acc *domain.Account) decimal.Decimal {
	first, last, ok := acc.NetWorthSpan()
	if !ok || first.Value == 0 {
		return decimal.Zero
	}
	return last.Value.Decimal().Sub(first.Value.Decimal()).Div(first.Value.Decimal())
}
