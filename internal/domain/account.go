package domain

import (
	"fmt"
	"sort"

	"crypto_tycoon/pkg/quant"
	"crypto_tycoon/pkg/ring"
	"crypto_tycoon/pkg/safe"
)

// NetWorthPoint is one entry of the net-worth history.
type NetWorthPoint struct {
	Ts    quant.TimeStamp `json:"t"`
	Value quant.Cents     `json:"value"`
}

// Holdings maps a coin symbol to the owned quantity.
// Entries are never zero or negative.
type Holdings map[string]quant.Units

// Get returns the owned quantity (0 when absent).
func (h Holdings) Get(symbol string) quant.Units {
	return h[symbol]
}

// Symbols returns held symbols in sorted order.
func (h Holdings) Symbols() []string {
	out := make([]string, 0, len(h))
	for k := range h {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Account is the player's cash, holdings and net-worth history.
// All monetary values are strictly int64 fixed point.
type Account struct {
	ID       string
	Cash     quant.Cents
	Holdings Holdings
	history  *ring.Window[NetWorthPoint]
}

// NewAccount creates a fresh account with empty holdings and history.
func NewAccount(id string, cash quant.Cents, historyWindow int) *Account {
	return &Account{
		ID:       id,
		Cash:     cash,
		Holdings: make(Holdings),
		history:  ring.New[NetWorthPoint](historyWindow),
	}
}

// Credit adds cash.
func (a *Account) Credit(amount quant.Cents) {
	if amount < 0 {
		panic(fmt.Sprintf("CREDIT_NEGATIVE: %d", amount))
	}
	a.Cash = safe.Add(a.Cash, amount)
}

// Debit removes cash. Callers must check solvency first.
func (a *Account) Debit(amount quant.Cents) {
	if amount < 0 {
		panic(fmt.Sprintf("DEBIT_NEGATIVE: %d", amount))
	}
	if amount > a.Cash {
		panic(fmt.Sprintf("INSUFFICIENT_CASH: need %d, have %d", amount, a.Cash))
	}
	a.Cash = safe.Sub(a.Cash, amount)
}

// AddUnits increases the holding for symbol.
func (a *Account) AddUnits(symbol string, qty quant.Units) {
	if qty <= 0 {
		panic(fmt.Sprintf("ADD_UNITS_NON_POSITIVE: %s %d", symbol, qty))
	}
	a.Holdings[symbol] = safe.Add(a.Holdings[symbol], qty)
}

// RemoveUnits decreases the holding for symbol and drops the entry at zero.
func (a *Account) RemoveUnits(symbol string, qty quant.Units) {
	owned := a.Holdings[symbol]
	if qty <= 0 || qty > owned {
		panic(fmt.Sprintf("REMOVE_UNITS_INVALID: %s remove %d, own %d", symbol, qty, owned))
	}
	left := safe.Sub(owned, qty)
	if left <= 0 {
		delete(a.Holdings, symbol)
		return
	}
	a.Holdings[symbol] = left
}

// RecordNetWorth appends to the history, evicting the oldest beyond capacity.
func (a *Account) RecordNetWorth(p NetWorthPoint) {
	a.history.Push(p)
}

// NetWorthSpan returns the oldest and newest history points. ok is false
// until at least two points exist.
func (a *Account) NetWorthSpan() (first, last NetWorthPoint, ok bool) {
	if a.history.Len() < 2 {
		return first, last, false
	}
	first, _ = a.history.First()
	last, _ = a.history.Last()
	return first, last, true
}

// NetWorthHistory returns a copy of the history, oldest first.
func (a *Account) NetWorthHistory() []NetWorthPoint {
	return a.history.Items()
}

// Positions values every holding at the given prices, sorted by symbol.
func (a *Account) Positions(prices map[string]quant.Cents) []Position {
	out := make([]Position, 0, len(a.Holdings))
	for _, sym := range a.Holdings.Symbols() {
		qty := a.Holdings[sym]
		price := prices[sym]
		out = append(out, Position{
			Symbol: sym,
			Qty:    qty,
			Price:  price,
			Value:  quant.CentsFromDecimal(quant.Notional(price, qty)),
		})
	}
	return out
}

// VerifyInvariant panics if the account is in an impossible state.
func (a *Account) VerifyInvariant() {
	if a.Cash < 0 {
		panic(fmt.Sprintf("INVARIANT_VIOLATION: %s cash negative (%d)", a.ID, a.Cash))
	}
	for sym, qty := range a.Holdings {
		if qty <= 0 {
			panic(fmt.Sprintf("INVARIANT_VIOLATION: %s holds %d of %s", a.ID, qty, sym))
		}
	}
}
