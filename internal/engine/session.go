package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/event"
	"crypto_tycoon/internal/execution"
	"crypto_tycoon/internal/market"
	"crypto_tycoon/internal/networth"
	"crypto_tycoon/pkg/quant"
)

var (
	ErrInvalidTransition = errors.New("intent not allowed on this screen")
	ErrNotTrading        = errors.New("market is not open")
	ErrEmptyName         = errors.New("name must not be empty")
	ErrNameTooLong       = fmt.Errorf("name must be at most %d characters", MaxNameLength)
	ErrUnknownCoin       = errors.New("unknown coin")
	ErrSessionClosed     = errors.New("session closed")
)

// MaxNameLength bounds player names in characters.
const MaxNameLength = 32

// Journal persists session events before they are applied.
type Journal interface {
	SaveSessionInfo(ctx context.Context, info domain.SessionInfo) error
	SaveEvent(ctx context.Context, sessionID string, ev event.Event) error
}

// Update is invoked from the event loop after every processed event.
// err is non-nil when the event was rejected; view is the state afterwards.
type Update func(ev event.Event, view View, err error)

// Session is the single-threaded state owner of one game.
// All mutations happen on the goroutine running Run (or the caller of
// Apply/ReplayEvent when Run is not running).
type Session struct {
	cfg     Config
	id      string
	inbox   chan event.Event
	done    chan struct{}
	nextSeq uint64
	tick    uint64

	screen  domain.Screen
	name    string
	sim     *market.Simulator
	account *domain.Account
	exec    execution.Executor

	journal  Journal
	onUpdate Update
	logger   *slog.Logger

	live   bool
	ticker *time.Ticker
	err    error // Set when Run halts on a panic; read after Done

	mu sync.RWMutex // Guards state against external View reads
}

// NewSession creates a session on the start screen and records its identity
// in the journal. A nil journal disables journaling.
func NewSession(ctx context.Context, cfg Config, journal Journal, onUpdate Update) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.PlayerID == "" {
		cfg.PlayerID = uuid.NewString()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 64
	}

	logger := slog.Default().With(slog.String("session", cfg.SessionID))

	s := &Session{
		cfg:      cfg,
		id:       cfg.SessionID,
		inbox:    make(chan event.Event, cfg.InboxSize),
		done:     make(chan struct{}),
		nextSeq:  1,
		screen:   domain.ScreenStart,
		sim:      market.NewSimulator(cfg.Coins, cfg.Market, market.NewRand(cfg.Seed)),
		account:  domain.NewAccount(cfg.PlayerID, cfg.StartingCash, cfg.NetWorthWindow),
		exec:     execution.NewLoggedExecutor(execution.NewLedger(), logger),
		journal:  journal,
		onUpdate: onUpdate,
		logger:   logger,
	}

	if journal != nil {
		info := cfg.SessionInfo(quant.FromTime(cfg.Clock()))
		if err := journal.SaveSessionInfo(ctx, info); err != nil {
			return nil, fmt.Errorf("failed to save session info: %w", err)
		}
	}
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err reports why Run halted. It is nil after a normal shutdown and only
// meaningful once Done is closed.
func (s *Session) Err() error {
	return s.err
}

// Submit enqueues ev for the event loop. Safe for concurrent use.
func (s *Session) Submit(ctx context.Context, ev event.Event) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.inbox <- ev:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the inbox until ctx is cancelled. This MUST be run in a single
// goroutine. The tick timer runs only while the session is in the market.
// A panic halts only this session: it is logged, recorded in Err and Run
// returns.
func (s *Session) Run(ctx context.Context) {
	s.logger.Info("Session started", slog.Int64("seed", s.cfg.Seed))

	defer close(s.done)
	defer s.stopTicker()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("CRITICAL_PANIC_DETECTED",
				slog.Any("panic", r),
				slog.Uint64("next_seq", s.nextSeq),
				slog.String("screen", s.screen.String()))
			s.err = fmt.Errorf("HALTED: %v", r)
		}
	}()

	s.live = true
	s.syncTicker()

	for {
		var tickC <-chan time.Time
		if s.ticker != nil {
			tickC = s.ticker.C
		}

		select {
		case <-ctx.Done():
			s.logger.Info("Session stopping...")
			return
		case ev := <-s.inbox:
			s.process(ev)
		case <-tickC:
			s.process(&event.TickEvent{})
		}
	}
}

// Apply processes ev synchronously, exactly as the event loop would.
// It must not be called while Run is active.
func (s *Session) Apply(ev event.Event) error {
	return s.process(ev)
}

func (s *Session) process(ev event.Event) error {
	if r, ok := ev.(*event.ResetEvent); ok && r.PlayerID == "" {
		r.PlayerID = uuid.NewString()
	}

	view, err := s.apply(ev)
	if err != nil {
		s.logger.Debug("Intent rejected",
			slog.String("type", ev.GetType().String()),
			slog.Uint64("seq", ev.GetSeq()),
			slog.Any("error", err))
	}

	s.syncTicker()

	if s.onUpdate != nil {
		s.onUpdate(ev, view, err)
	}
	return err
}

func (s *Session) apply(ev event.Event) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.Stamp(s.nextSeq, quant.FromTime(s.cfg.Clock()))

	// WAL-first. The journal is an audit trail, so a failed write is
	// reported and the game continues.
	if s.journal != nil {
		if err := s.journal.SaveEvent(context.Background(), s.id, ev); err != nil {
			s.logger.Error("JOURNAL_WRITE_FAILED",
				slog.Uint64("seq", ev.GetSeq()),
				slog.Any("error", err))
		}
	}

	err := s.dispatch(ev)
	s.nextSeq++
	return s.snapshot(), err
}

// ReplayEvent processes an already stamped event without journaling.
// This is used exclusively by the Replayer.
func (s *Session) ReplayEvent(ev event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.GetSeq() != s.nextSeq {
		panic(fmt.Sprintf("REPLAY_GAP_DETECTED: expected %d, got %d", s.nextSeq, ev.GetSeq()))
	}

	err := s.dispatch(ev)
	s.nextSeq++
	return err
}

func (s *Session) dispatch(ev event.Event) error {
	switch e := ev.(type) {
	case *event.TickEvent:
		return s.handleTick(e)
	case *event.SetNameEvent:
		return s.handleSetName(e)
	case *event.ConfirmAvatarEvent:
		return s.handleConfirmAvatar()
	case *event.BuyEvent:
		return s.handleTrade(domain.SideBuy, e.Symbol, e.Qty)
	case *event.SellEvent:
		return s.handleTrade(domain.SideSell, e.Symbol, e.Qty)
	case *event.ResetEvent:
		return s.handleReset(e)
	default:
		s.logger.Warn("Unknown event type", slog.Any("type", ev.GetType()))
		return fmt.Errorf("unsupported event %s", ev.GetType())
	}
}

func (s *Session) handleTick(e *event.TickEvent) error {
	if s.screen != domain.ScreenMarket {
		return ErrNotTrading
	}
	s.tick++
	s.sim.Step(s.tick)
	networth.Record(s.account, s.sim.Prices(), e.Ts)
	return nil
}

func (s *Session) handleSetName(e *event.SetNameEvent) error {
	if s.screen != domain.ScreenStart {
		return ErrInvalidTransition
	}
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	s.name = name
	s.screen = domain.ScreenAvatar
	return nil
}

func (s *Session) handleConfirmAvatar() error {
	if s.screen != domain.ScreenAvatar {
		return ErrInvalidTransition
	}
	s.screen = domain.ScreenMarket
	return nil
}

func (s *Session) handleTrade(side domain.Side, symbol string, qty quant.Units) error {
	if s.screen != domain.ScreenMarket {
		return ErrNotTrading
	}
	price, ok := s.sim.Price(symbol)
	if !ok {
		return ErrUnknownCoin
	}

	var err error
	if side == domain.SideBuy {
		_, err = s.exec.Buy(s.account, symbol, qty, price)
	} else {
		_, err = s.exec.Sell(s.account, symbol, qty, price)
	}
	if err != nil {
		return err
	}

	s.account.VerifyInvariant()
	return nil
}

// handleReset replaces the account; prices and series are untouched.
func (s *Session) handleReset(e *event.ResetEvent) error {
	if s.screen != domain.ScreenMarket {
		return ErrInvalidTransition
	}
	s.account = domain.NewAccount(e.PlayerID, s.cfg.StartingCash, s.cfg.NetWorthWindow)
	s.exec.Reset()
	s.logger.Info("Account reset", slog.String("player", e.PlayerID))
	return nil
}

// syncTicker starts the tick timer on entering the market and stops it
// otherwise. Only the event loop goroutine touches the ticker.
func (s *Session) syncTicker() {
	if !s.live {
		return
	}
	s.mu.RLock()
	trading := s.screen == domain.ScreenMarket
	s.mu.RUnlock()

	switch {
	case trading && s.ticker == nil:
		s.ticker = time.NewTicker(s.cfg.TickInterval)
	case !trading:
		s.stopTicker()
	}
}

func (s *Session) stopTicker() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

// View returns a snapshot of the session state (external read).
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Fills returns the trades executed since the last reset.
func (s *Session) Fills() []execution.Fill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exec.Fills()
}
