package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"crypto_tycoon/internal/engine"
	"crypto_tycoon/internal/event"
	"crypto_tycoon/internal/storage"
)

// ErrIncompleteJournal is returned when a session's sequence numbers have gaps.
var ErrIncompleteJournal = errors.New("journal is missing events")

// Replayer rebuilds sessions from the journal.
type Replayer struct {
	store *storage.EventStore
	base  engine.Config
}

// NewReplayer creates a replayer over store. Identity, seed and game settings
// come from the journal; base fills in anything a session did not record.
func NewReplayer(store *storage.EventStore, base engine.Config) *Replayer {
	return &Replayer{store: store, base: base}
}

// Replay constructs a fresh session with the journaled seed and settings and
// feeds every event through Session.ReplayEvent. The returned session is not
// running. A journal with missing events is rejected before replay starts.
func (r *Replayer) Replay(ctx context.Context, sessionID string) (*engine.Session, error) {
	info, err := r.store.LoadSessionInfo(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cfg := r.base.WithSessionInfo(info)

	session, err := engine.NewSession(ctx, cfg, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	events, err := r.store.LoadEvents(ctx, sessionID, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	last, err := r.store.GetLastSeq(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if last != uint64(len(events)) {
		return nil, fmt.Errorf("%w: session %s has %d events up to seq %d",
			ErrIncompleteJournal, sessionID, len(events), last)
	}

	rejected := 0
	for _, ev := range events {
		if err := session.ReplayEvent(ev); err != nil {
			rejected++
		}
	}

	slog.Info("Session replayed",
		slog.String("session", sessionID),
		slog.Time("started_at", info.StartedAt.Time()),
		slog.Int("events", len(events)),
		slog.Int("rejected", rejected))
	return session, nil
}

// ReplayAll replays every journaled session and returns their final views.
func (r *Replayer) ReplayAll(ctx context.Context) ([]engine.View, error) {
	sessions, err := r.store.Sessions(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]engine.View, 0, len(sessions))
	for _, info := range sessions {
		s, err := r.Replay(ctx, info.ID)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", info.ID, err)
		}
		views = append(views, s.View())
	}
	return views, nil
}

// Count returns how many events of each type a session journaled.
func (r *Replayer) Count(ctx context.Context, sessionID string) (map[event.Type]int, error) {
	events, err := r.store.LoadEvents(ctx, sessionID, 1)
	if err != nil {
		return nil, err
	}
	out := make(map[event.Type]int)
	for _, ev := range events {
		out[ev.GetType()]++
	}
	return out, nil
}
