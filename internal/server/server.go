// Package server exposes game sessions over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"crypto_tycoon/internal/engine"
	"crypto_tycoon/internal/event"
	"crypto_tycoon/internal/infra"
	"crypto_tycoon/internal/protocol"
)

// ErrThrottled is reported to clients that exceed their intent rate.
var ErrThrottled = errors.New("too many intents")

const (
	outboxSize   = 64
	writeTimeout = 5 * time.Second

	// maxIntentBytes bounds one inbound frame. Intents are small JSON objects.
	maxIntentBytes = 4096
)

// Options configures the server.
type Options struct {
	Addr             string
	MaxSessions      int
	IntentBurst      int
	IntentsPerSecond float64

	// SessionConfig returns the config for each new connection's session.
	SessionConfig func() engine.Config

	// PruneJournal drops a session's journal rows once its connection ends.
	// Set for in-memory journals, which nothing can replay after exit.
	PruneJournal bool
}

// sessionPruner is implemented by journals that can forget a session.
type sessionPruner interface {
	DeleteSession(ctx context.Context, sessionID string) error
}

// Server owns one isolated session per WebSocket connection.
type Server struct {
	opts     Options
	journal  engine.Journal
	router   *mux.Router
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*engine.Session
}

// New creates a server. journal may be nil.
func New(opts Options, journal engine.Journal) *Server {
	if opts.SessionConfig == nil {
		opts.SessionConfig = engine.DefaultConfig
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:    opts,
		journal: journal,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*engine.Session),
	}
	s.router = s.newRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ActiveSessions returns the number of connected sessions.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ListenAndServe serves until ctx is cancelled, then stops every session.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", slog.String("addr", s.opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// Close stops every session and waits for their connections to finish.
func (s *Server) Close() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.ActiveSessions(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	switch {
	case s.ctx.Err() != nil:
		s.mu.Unlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	case len(s.sessions) >= s.opts.MaxSessions:
		s.mu.Unlock()
		http.Error(w, "session limit reached", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WS upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	s.serveConn(conn)
}

// serveConn runs one session for the lifetime of conn. The session loop is
// the only writer of game state; this goroutine reads intents and a second
// goroutine owns every write to conn.
func (s *Server) serveConn(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	conn.SetReadLimit(maxIntentBytes)

	outbox := make(chan protocol.Message, outboxSize)
	push := func(msg protocol.Message) {
		select {
		case outbox <- msg:
		default:
			slog.Warn("WS outbox full, dropping message", slog.Uint64("seq", msg.Seq))
		}
	}

	session, err := engine.NewSession(ctx, s.opts.SessionConfig(), s.journal,
		func(ev event.Event, view engine.View, err error) {
			if err != nil {
				push(protocol.Rejected(ev.GetSeq(), ev.GetType().String(), err))
				return
			}
			push(protocol.ViewMessage(view))
		})
	if err != nil {
		slog.Error("Failed to create session", slog.Any("error", err))
		conn.WriteJSON(protocol.Message{Error: "session unavailable"})
		return
	}

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, session.ID())
		s.mu.Unlock()
	}()

	go session.Run(ctx)
	push(protocol.ViewMessage(session.View()))

	// A halted session ends only its own connection
	go func() {
		<-session.Done()
		cancel()
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx, conn, outbox)
		cancel()
	}()

	s.readLoop(ctx, conn, session, push)

	cancel()
	<-session.Done()
	<-writerDone
	if err := session.Err(); err != nil {
		slog.Error("Session halted", slog.String("session", session.ID()), slog.Any("error", err))
	}
	s.pruneJournal(session.ID())
	slog.Info("Session closed", slog.String("session", session.ID()))
}

func (s *Server) pruneJournal(sessionID string) {
	if !s.opts.PruneJournal {
		return
	}
	p, ok := s.journal.(sessionPruner)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := p.DeleteSession(ctx, sessionID); err != nil {
		slog.Warn("Failed to prune journal", slog.String("session", sessionID), slog.Any("error", err))
	}
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, session *engine.Session, push func(protocol.Message)) {
	throttle := infra.NewThrottle(s.opts.IntentBurst, s.opts.IntentsPerSecond, time.Now())

	// Unblock ReadMessage when the session ends first
	go func() {
		<-ctx.Done()
		conn.SetReadDeadline(time.Now())
	}()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("WS read error", slog.Any("error", err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var in protocol.Intent
		if err := json.Unmarshal(msg, &in); err != nil {
			push(protocol.Rejected(0, "", fmt.Errorf("malformed intent: %w", err)))
			continue
		}
		if !throttle.Allow(time.Now()) {
			retry := throttle.RetryIn().Round(time.Millisecond)
			push(protocol.Rejected(0, in.Action, fmt.Errorf("%w, retry in %s", ErrThrottled, retry)))
			continue
		}

		ev, err := in.ToEvent()
		if err != nil {
			push(protocol.Rejected(0, in.Action, err))
			continue
		}
		if err := session.Submit(ctx, ev); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, outbox <-chan protocol.Message) {
	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
				time.Now().Add(time.Second))
			return
		case msg := <-outbox:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				slog.Debug("WS write error", slog.Any("error", err))
				return
			}
		}
	}
}
