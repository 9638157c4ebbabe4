package execution

import (
	"log/slog"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/pkg/quant"
)

// LoggedExecutor wraps an Executor and logs every fill and rejection.
type LoggedExecutor struct {
	next   Executor
	logger *slog.Logger
}

// NewLoggedExecutor decorates next. A nil logger uses slog.Default().
func NewLoggedExecutor(next Executor, logger *slog.Logger) *LoggedExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggedExecutor{next: next, logger: logger}
}

func (e *LoggedExecutor) Buy(acc *domain.Account, symbol string, qty quant.Units, price quant.Cents) (Fill, error) {
	fill, err := e.next.Buy(acc, symbol, qty, price)
	e.log(acc, domain.SideBuy, symbol, qty, price, fill, err)
	return fill, err
}

func (e *LoggedExecutor) Sell(acc *domain.Account, symbol string, qty quant.Units, price quant.Cents) (Fill, error) {
	fill, err := e.next.Sell(acc, symbol, qty, price)
	e.log(acc, domain.SideSell, symbol, qty, price, fill, err)
	return fill, err
}

func (e *LoggedExecutor) Fills() []Fill { return e.next.Fills() }

func (e *LoggedExecutor) Reset() { e.next.Reset() }

func (e *LoggedExecutor) log(acc *domain.Account, side domain.Side, symbol string, qty quant.Units, price quant.Cents, fill Fill, err error) {
	if err != nil {
		// Rejections are ordinary game outcomes, not failures.
		e.logger.Debug("Trade rejected",
			slog.String("player", acc.ID),
			slog.String("side", string(side)),
			slog.String("symbol", symbol),
			slog.String("qty", qty.String()),
			slog.String("price", price.String()),
			slog.String("reason", err.Error()))
		return
	}
	e.logger.Info("Trade filled",
		slog.String("player", acc.ID),
		slog.String("side", string(fill.Side)),
		slog.String("symbol", fill.Symbol),
		slog.String("qty", fill.Qty.String()),
		slog.String("price", fill.Price.String()),
		slog.String("amount", fill.Amount.String()),
		slog.String("cash", acc.Cash.String()))
}
