package domain

import (
	"fmt"
	"strings"
)

// Coin is a tradable asset. The set is fixed when the process starts.
type Coin struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Name   string `json:"name" yaml:"name"`
}

// DefaultCoins returns the built-in coin set.
func DefaultCoins() []Coin {
	return []Coin{
		{Symbol: "BTC", Name: "Bitcoin"},
		{Symbol: "ETH", Name: "Ethereum"},
		{Symbol: "SOL", Name: "Solana"},
		{Symbol: "DOGE", Name: "Dogecoin"},
		{Symbol: "ADA", Name: "Cardano"},
	}
}

// ValidateCoins checks that symbols are present and unique.
func ValidateCoins(coins []Coin) error {
	if len(coins) == 0 {
		return fmt.Errorf("at least one coin is required")
	}
	seen := make(map[string]bool, len(coins))
	for _, c := range coins {
		sym := strings.TrimSpace(c.Symbol)
		if sym == "" {
			return fmt.Errorf("coin %q has an empty symbol", c.Name)
		}
		if seen[sym] {
			return fmt.Errorf("duplicate coin symbol: %s", sym)
		}
		seen[sym] = true
	}
	return nil
}
