package execution

import (
	"errors"
	"maps"
	"math/rand"
	"reflect"
	"testing"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/pkg/quant"
)

func TestLedger_ImplementsInterface(t *testing.T) {
	var _ Executor = (*Ledger)(nil)         // Compile-time check
	var _ Executor = (*LoggedExecutor)(nil) // Compile-time check
}

func newAccount(cash quant.Cents) *domain.Account {
	return domain.NewAccount("test-player", cash, 200)
}

func TestLedger_Buy(t *testing.T) {
	l := NewLedger()
	acc := newAccount(quant.ToCents(10000))

	// Buy 10 BTC @ 100.00
	fill, err := l.Buy(acc, "BTC", quant.ParseUnits("10"), quant.ToCents(100))
	if err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	if acc.Cash != quant.ToCents(9000) {
		t.Errorf("expected cash 9000.00, got %s", acc.Cash)
	}
	if acc.Holdings.Get("BTC") != quant.ParseUnits("10") {
		t.Errorf("expected 10 BTC, got %s", acc.Holdings.Get("BTC"))
	}
	if fill.Amount != quant.ToCents(1000) || fill.Side != domain.SideBuy {
		t.Errorf("unexpected fill: %+v", fill)
	}
}

func TestLedger_Buy_InsufficientCash(t *testing.T) {
	l := NewLedger()
	acc := newAccount(quant.ToCents(50))
	before := *acc
	beforeHoldings := maps.Clone(acc.Holdings)

	_, err := l.Buy(acc, "BTC", quant.ParseUnits("1"), quant.ToCents(100))
	if !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("expected ErrInsufficientCash, got %v", err)
	}

	if acc.Cash != before.Cash {
		t.Errorf("cash changed: %s -> %s", before.Cash, acc.Cash)
	}
	if !reflect.DeepEqual(acc.Holdings, beforeHoldings) {
		t.Errorf("holdings changed: %v", acc.Holdings)
	}
	if len(l.Fills()) != 0 {
		t.Error("rejected buy must not record a fill")
	}
}

func TestLedger_Buy_ExactCash(t *testing.T) {
	l := NewLedger()
	acc := newAccount(quant.ToCents(100))

	if _, err := l.Buy(acc, "BTC", quant.ParseUnits("1"), quant.ToCents(100)); err != nil {
		t.Fatalf("spending the exact balance should succeed: %v", err)
	}
	if acc.Cash != 0 {
		t.Errorf("expected zero cash, got %s", acc.Cash)
	}
}

func TestLedger_Buy_RoundingCannotOverdraw(t *testing.T) {
	l := NewLedger()
	acc := newAccount(1) // 0.01

	// 0.009999 × 1.00 = 0.009999 <= 0.01, rounds to 0.01
	if _, err := l.Buy(acc, "BTC", 9999, 100); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	if acc.Cash != 0 {
		t.Errorf("expected zero cash, got %s", acc.Cash)
	}
}

func TestLedger_RejectsNonPositiveQty(t *testing.T) {
	l := NewLedger()
	acc := newAccount(quant.ToCents(10000))
	acc.AddUnits("BTC", quant.ParseUnits("1"))

	for _, qty := range []quant.Units{0, -1, quant.ParseUnits("not a number")} {
		if _, err := l.Buy(acc, "BTC", qty, 100); !errors.Is(err, ErrNonPositiveQty) {
			t.Errorf("Buy(%d): expected ErrNonPositiveQty, got %v", qty, err)
		}
		if _, err := l.Sell(acc, "BTC", qty, 100); !errors.Is(err, ErrNonPositiveQty) {
			t.Errorf("Sell(%d): expected ErrNonPositiveQty, got %v", qty, err)
		}
	}
	if acc.Cash != quant.ToCents(10000) || acc.Holdings.Get("BTC") != quant.ParseUnits("1") {
		t.Error("rejected trades mutated the account")
	}
}

func TestLedger_RejectsMissingPrice(t *testing.T) {
	l := NewLedger()
	acc := newAccount(quant.ToCents(10000))

	if _, err := l.Buy(acc, "BTC", quant.ParseUnits("1"), 0); !errors.Is(err, ErrNoPrice) {
		t.Errorf("expected ErrNoPrice, got %v", err)
	}
}

func TestLedger_Sell_ClampsToOwned(t *testing.T) {
	l := NewLedger()
	acc := newAccount(0)
	acc.AddUnits("BTC", quant.ParseUnits("10"))

	// Sell 15 BTC @ 120.00 while owning 10
	fill, err := l.Sell(acc, "BTC", quant.ParseUnits("15"), quant.ToCents(120))
	if err != nil {
		t.Fatalf("Sell failed: %v", err)
	}

	if fill.Qty != quant.ParseUnits("10") {
		t.Errorf("expected clamped qty 10, got %s", fill.Qty)
	}
	if acc.Cash != quant.ToCents(1200) {
		t.Errorf("expected cash +1200.00, got %s", acc.Cash)
	}
	if _, ok := acc.Holdings["BTC"]; ok {
		t.Error("expected BTC entry to be removed")
	}
}

func TestLedger_Sell_Partial(t *testing.T) {
	l := NewLedger()
	acc := newAccount(0)
	acc.AddUnits("ETH", quant.ParseUnits("2"))

	if _, err := l.Sell(acc, "ETH", quant.ParseUnits("0.5"), quant.ToCents(2000)); err != nil {
		t.Fatalf("Sell failed: %v", err)
	}
	if acc.Holdings.Get("ETH") != quant.ParseUnits("1.5") {
		t.Errorf("expected 1.5 ETH left, got %s", acc.Holdings.Get("ETH"))
	}
	if acc.Cash != quant.ToCents(1000) {
		t.Errorf("expected cash 1000.00, got %s", acc.Cash)
	}
}

func TestLedger_Sell_NothingOwned(t *testing.T) {
	l := NewLedger()
	acc := newAccount(quant.ToCents(10))

	if _, err := l.Sell(acc, "DOGE", quant.ParseUnits("1"), 100); !errors.Is(err, ErrNoHoldings) {
		t.Errorf("expected ErrNoHoldings, got %v", err)
	}
	if acc.Cash != quant.ToCents(10) {
		t.Error("rejected sell mutated cash")
	}
}

func TestLedger_FillsAndReset(t *testing.T) {
	l := NewLedger()
	acc := newAccount(quant.ToCents(1000))

	l.Buy(acc, "BTC", quant.ParseUnits("1"), quant.ToCents(100))
	l.Sell(acc, "BTC", quant.ParseUnits("1"), quant.ToCents(110))

	fills := l.Fills()
	if len(fills) != 2 || fills[0].Side != domain.SideBuy || fills[1].Side != domain.SideSell {
		t.Fatalf("unexpected fills: %+v", fills)
	}

	l.Reset()
	if len(l.Fills()) != 0 {
		t.Error("expected empty fill log after reset")
	}
}

// TestLedger_RandomSequence_Invariants drives random trades and checks the
// account never reaches an impossible state.
func TestLedger_RandomSequence_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	l := NewLedger()
	acc := newAccount(quant.ToCents(10000))
	symbols := []string{"BTC", "ETH", "SOL"}

	for i := 0; i < 5000; i++ {
		sym := symbols[rng.Intn(len(symbols))]
		qty := quant.Units(rng.Int63n(20*quant.UnitsScale)) - quant.ParseUnits("1")
		price := quant.Cents(1 + rng.Int63n(100000))

		if rng.Intn(2) == 0 {
			l.Buy(acc, sym, qty, price)
		} else {
			l.Sell(acc, sym, qty, price)
		}

		if acc.Cash < 0 {
			t.Fatalf("step %d: negative cash %s", i, acc.Cash)
		}
		for s, q := range acc.Holdings {
			if q <= 0 {
				t.Fatalf("step %d: holding %s = %d", i, s, q)
			}
		}
	}
}
