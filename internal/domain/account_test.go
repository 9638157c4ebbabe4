package domain

import (
	"reflect"
	"testing"

	"crypto_tycoon/pkg/quant"
)

func TestAccount_CreditDebit(t *testing.T) {
	a := NewAccount("p1", 100, 10)

	a.Credit(50)
	if a.Cash != 150 {
		t.Errorf("expected 150, got %d", a.Cash)
	}

	a.Debit(30)
	if a.Cash != 120 {
		t.Errorf("expected 120, got %d", a.Cash)
	}

	// Invariant should pass
	a.VerifyInvariant()
}

func TestAccount_Units(t *testing.T) {
	a := NewAccount("p1", 0, 10)

	a.AddUnits("BTC", 1000)
	a.AddUnits("BTC", 500)
	if got := a.Holdings.Get("BTC"); got != 1500 {
		t.Errorf("expected 1500, got %d", got)
	}

	a.RemoveUnits("BTC", 400)
	if got := a.Holdings.Get("BTC"); got != 1100 {
		t.Errorf("expected 1100, got %d", got)
	}

	// Removing the remainder drops the entry entirely
	a.RemoveUnits("BTC", 1100)
	if _, ok := a.Holdings["BTC"]; ok {
		t.Error("expected BTC entry to be removed at zero")
	}

	a.VerifyInvariant()
}

func TestAccount_DebitPanic_Insufficient(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for insufficient cash")
		}
	}()

	a := NewAccount("p1", 50, 10)
	a.Debit(100) // Should panic
}

func TestAccount_RemoveUnitsPanic_Oversell(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic when removing more than owned")
		}
	}()

	a := NewAccount("p1", 0, 10)
	a.AddUnits("ETH", 10)
	a.RemoveUnits("ETH", 11)
}

func TestAccount_InvariantPanic_NegativeCash(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for negative cash")
		}
	}()

	a := &Account{ID: "p1", Cash: -1, Holdings: Holdings{}}
	a.VerifyInvariant()
}

func TestAccount_InvariantPanic_ZeroHolding(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for a zero holding entry")
		}
	}()

	a := &Account{ID: "p1", Holdings: Holdings{"BTC": 0}}
	a.VerifyInvariant()
}

func TestAccount_NetWorthHistoryCapped(t *testing.T) {
	a := NewAccount("p1", 0, 3)
	for i := 1; i <= 5; i++ {
		a.RecordNetWorth(NetWorthPoint{Ts: quant.TimeStamp(i), Value: quant.Cents(i * 100)})
	}

	got := a.NetWorthHistory()
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Ts != 3 || got[2].Ts != 5 {
		t.Errorf("expected oldest entries evicted first, got %v", got)
	}
}

func TestAccount_NetWorthSpan(t *testing.T) {
	a := NewAccount("p1", 0, 3)
	a.RecordNetWorth(NetWorthPoint{Ts: 1, Value: 100})
	if _, _, ok := a.NetWorthSpan(); ok {
		t.Error("expected no span with a single point")
	}

	for i := 2; i <= 5; i++ {
		a.RecordNetWorth(NetWorthPoint{Ts: quant.TimeStamp(i), Value: quant.Cents(i * 100)})
	}
	first, last, ok := a.NetWorthSpan()
	if !ok || first.Ts != 3 || last.Ts != 5 {
		t.Errorf("unexpected span %v..%v (ok=%v)", first, last, ok)
	}
}

func TestAccount_Positions(t *testing.T) {
	a := NewAccount("p1", 0, 10)
	a.AddUnits("ETH", 2000000)  // 2 ETH
	a.AddUnits("BTC", 10000000) // 10 BTC

	prices := map[string]quant.Cents{"BTC": 12000, "ETH": 5050}
	got := a.Positions(prices)
	want := []Position{
		{Symbol: "BTC", Qty: 10000000, Price: 12000, Value: 120000},
		{Symbol: "ETH", Qty: 2000000, Price: 5050, Value: 10100},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Positions() = %+v, want %+v", got, want)
	}
}
