// Package autoplay drives a game session over WebSocket with a trading strategy.
package autoplay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/engine"
	"crypto_tycoon/internal/protocol"
	"crypto_tycoon/internal/strategy"
	"crypto_tycoon/pkg/quant"
)

// Sender delivers an intent to the server.
type Sender func(v any) error

// Player implements infra.WebSocketHandler[protocol.Message]. Each connection is a fresh
// session, so the strategy is rebuilt on every connect.
type Player struct {
	url         string
	name        string
	buyFraction decimal.Decimal
	newStrategy func() strategy.Strategy

	mu       sync.Mutex
	send     Sender
	strat    strategy.Strategy
	lastTick uint64
	ticks    int
	intents  int
	last     *engine.View
}

// NewPlayer creates a player that buys buyFraction of its cash on a golden
// cross and sells the whole holding on a dead cross.
func NewPlayer(url, name string, buyFraction float64, newStrategy func() strategy.Strategy) *Player {
	return &Player{
		url:         url,
		name:        name,
		buyFraction: decimal.NewFromFloat(buyFraction),
		newStrategy: newStrategy,
		strat:       newStrategy(),
	}
}

// SetSender wires the outbound channel, normally BaseWSWorker.WriteJSON.
func (p *Player) SetSender(send Sender) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.send = send
}

func (p *Player) GetURL() string { return p.url }
func (p *Player) ID() string     { return "AUTOPLAYER" }

// OnConnect names the player and enters the market.
func (p *Player) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	p.mu.Lock()
	p.strat = p.newStrategy()
	p.lastTick = 0
	p.last = nil
	p.mu.Unlock()

	if err := conn.WriteJSON(protocol.Intent{Action: protocol.ActionSetName, Name: p.name}); err != nil {
		return err
	}
	return conn.WriteJSON(protocol.Intent{Action: protocol.ActionConfirmAvatar})
}

// OnPing keeps the connection alive.
func (p *Player) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

// OnMessage feeds each new tick's prices to the strategy and trades on signals.
func (p *Player) OnMessage(ctx context.Context, m protocol.Message) {
	if m.Error != "" {
		slog.Debug("Autoplayer: intent rejected", slog.String("action", m.Action), slog.String("error", m.Error))
		return
	}
	if m.View == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.last = m.View
	v := m.View
	if v.Screen != domain.ScreenMarket || v.Tick == p.lastTick {
		return
	}
	p.lastTick = v.Tick
	p.ticks++

	budget := v.Cash.Decimal()
	for _, c := range v.Coins {
		switch p.strat.OnPrice(c.Symbol, c.Price) {
		case strategy.SignalBuy:
			spend := budget.Mul(p.buyFraction)
			qty := spend.Div(c.Price.Decimal()).Truncate(quant.UnitsPlaces)
			if !qty.IsPositive() {
				continue
			}
			budget = budget.Sub(quant.CentsFromDecimal(qty.Mul(c.Price.Decimal())).Decimal())
			p.emit(protocol.Intent{Action: protocol.ActionBuy, Symbol: c.Symbol, Qty: qty.String()})
		case strategy.SignalSell:
			if held := holding(v, c.Symbol); held != "" {
				p.emit(protocol.Intent{Action: protocol.ActionSell, Symbol: c.Symbol, Qty: held})
			}
		}
	}
}

// emit must be called with p.mu held.
func (p *Player) emit(in protocol.Intent) {
	if p.send == nil {
		return
	}
	if err := p.send(in); err != nil {
		slog.Warn("Autoplayer: send failed", slog.String("action", in.Action), slog.Any("error", err))
		return
	}
	p.intents++
	slog.Info("Autoplayer: trade", slog.String("action", in.Action), slog.String("symbol", in.Symbol), slog.String("qty", in.Qty))
}

func holding(v *engine.View, symbol string) string {
	for _, h := range v.Holdings {
		if h.Symbol == symbol {
			return h.Qty
		}
	}
	return ""
}

// Stats reports observed ticks and sent trade intents.
func (p *Player) Stats() (ticks, intents int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks, p.intents
}

// LastView returns the most recent view, if any.
func (p *Player) LastView() (engine.View, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return engine.View{}, false
	}
	return *p.last, true
}
