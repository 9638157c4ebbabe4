package domain

import (
	"testing"

	"crypto_tycoon/pkg/quant"
)

func TestPosition_IsPriced(t *testing.T) {
	tests := []struct {
		name  string
		price int64
		want  bool
	}{
		{"Priced", 12000, true},
		{"Unpriced", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Position{Price: quant.Cents(tt.price)}
			if got := p.IsPriced(); got != tt.want {
				t.Errorf("Position.IsPriced() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateCoins(t *testing.T) {
	if err := ValidateCoins(DefaultCoins()); err != nil {
		t.Errorf("default coins invalid: %v", err)
	}
	if err := ValidateCoins(nil); err == nil {
		t.Error("expected error for empty coin set")
	}
	dup := []Coin{{Symbol: "BTC"}, {Symbol: "BTC"}}
	if err := ValidateCoins(dup); err == nil {
		t.Error("expected error for duplicate symbol")
	}
	blank := []Coin{{Symbol: " ", Name: "Nothing"}}
	if err := ValidateCoins(blank); err == nil {
		t.Error("expected error for blank symbol")
	}
}
