package engine

import (
	"github.com/Rhymond/go-money"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/networth"
	"crypto_tycoon/pkg/quant"
)

// CoinView is one market row.
type CoinView struct {
	Symbol       string              `json:"symbol"`
	Name         string              `json:"name"`
	Price        quant.Cents         `json:"price"`
	PriceDisplay string              `json:"price_display"`
	Series       []domain.PricePoint `json:"series"`
}

// HoldingView is one portfolio row valued at the current price.
type HoldingView struct {
	Symbol       string      `json:"symbol"`
	Qty          string      `json:"qty"`
	Price        quant.Cents `json:"price"`
	Value        quant.Cents `json:"value"`
	ValueDisplay string      `json:"value_display"`
	Priced       bool        `json:"priced"`
}

// View is an immutable snapshot of a session for the render boundary.
type View struct {
	SessionID       string                 `json:"session_id"`
	Seq             uint64                 `json:"seq"`
	Tick            uint64                 `json:"tick"`
	Screen          domain.Screen          `json:"screen"`
	Name            string                 `json:"name"`
	PlayerID        string                 `json:"player_id"`
	Avatar          domain.Avatar          `json:"avatar"`
	Cash            quant.Cents            `json:"cash"`
	CashDisplay     string                 `json:"cash_display"`
	NetWorth        quant.Cents            `json:"net_worth"`
	NetWorthDisplay string                 `json:"net_worth_display"`
	NetWorthChange  string                 `json:"net_worth_change"`
	Holdings        []HoldingView          `json:"holdings"`
	Coins           []CoinView             `json:"coins"`
	History         []domain.NetWorthPoint `json:"history"`
}

// Display formats cents as US dollars ("$1,234.56").
func Display(c quant.Cents) string {
	return money.New(int64(c), money.USD).Display()
}

// snapshot must be called with s.mu held.
func (s *Session) snapshot() View {
	prices := s.sim.Prices()
	worth := networth.Compute(s.account, prices)

	v := View{
		SessionID:       s.id,
		Seq:             s.nextSeq - 1,
		Tick:            s.tick,
		Screen:          s.screen,
		Name:            s.name,
		PlayerID:        s.account.ID,
		Avatar:          domain.AvatarFor(s.name),
		Cash:            s.account.Cash,
		CashDisplay:     Display(s.account.Cash),
		NetWorth:        worth,
		NetWorthDisplay: Display(worth),
		NetWorthChange:  networth.Change(s.account).Shift(2).StringFixed(2),
		History:         s.account.NetWorthHistory(),
	}

	for _, p := range s.account.Positions(prices) {
		v.Holdings = append(v.Holdings, HoldingView{
			Symbol:       p.Symbol,
			Qty:          p.Qty.String(),
			Price:        p.Price,
			Value:        p.Value,
			ValueDisplay: Display(p.Value),
			Priced:       p.IsPriced(),
		})
	}

	for _, c := range s.sim.Coins() {
		price := prices[c.Symbol]
		v.Coins = append(v.Coins, CoinView{
			Symbol:       c.Symbol,
			Name:         c.Name,
			Price:        price,
			PriceDisplay: Display(price),
			Series:       s.sim.Series(c.Symbol),
		})
	}
	return v
}
