package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/engine"
	"crypto_tycoon/internal/event"
	"crypto_tycoon/internal/protocol"
	"crypto_tycoon/internal/storage"
)

func testOptions(tick time.Duration) Options {
	return Options{
		MaxSessions:      2,
		IntentBurst:      50,
		IntentsPerSecond: 100,
		SessionConfig: func() engine.Config {
			cfg := engine.DefaultConfig()
			cfg.Seed = 11
			cfg.TickInterval = tick
			return cfg
		},
	}
}

func startServer(t *testing.T, opts Options, journal engine.Journal) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(opts, journal)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, in protocol.Intent) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(in))
}

// readUntil reads frames until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(protocol.Message) bool) protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg protocol.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func onScreen(screen domain.Screen) func(protocol.Message) bool {
	return func(m protocol.Message) bool { return m.View != nil && m.View.Screen == screen }
}

func isError(m protocol.Message) bool { return m.Error != "" }

func TestServer_GameFlow(t *testing.T) {
	_, ts := startServer(t, testOptions(time.Hour), nil)
	conn := dial(t, ts)

	first := readUntil(t, conn, onScreen(domain.ScreenStart))
	assert.Equal(t, "$10,000.00", first.View.CashDisplay)
	assert.Len(t, first.View.Coins, 5)

	send(t, conn, protocol.Intent{Action: protocol.ActionBuy, Symbol: "BTC", Qty: "1"})
	rejected := readUntil(t, conn, isError)
	assert.Equal(t, protocol.ActionBuy, rejected.Action)
	assert.Equal(t, engine.ErrNotTrading.Error(), rejected.Error)

	send(t, conn, protocol.Intent{Action: protocol.ActionSetName, Name: "Ada"})
	v := readUntil(t, conn, onScreen(domain.ScreenAvatar))
	assert.Equal(t, "Ada", v.View.Name)

	send(t, conn, protocol.Intent{Action: protocol.ActionConfirmAvatar})
	market := readUntil(t, conn, onScreen(domain.ScreenMarket))

	send(t, conn, protocol.Intent{Action: protocol.ActionBuy, Symbol: "BTC", Qty: "2"})
	bought := readUntil(t, conn, func(m protocol.Message) bool {
		return m.View != nil && len(m.View.Holdings) == 1
	})
	price := market.View.Coins[0].Price
	assert.Equal(t, market.View.Cash-2*price, bought.View.Cash)

	send(t, conn, protocol.Intent{Action: protocol.ActionSell, Symbol: "BTC", Qty: "abc"})
	rejected = readUntil(t, conn, isError)
	assert.Equal(t, protocol.ActionSell, rejected.Action)

	send(t, conn, protocol.Intent{Action: "short"})
	rejected = readUntil(t, conn, isError)
	assert.Contains(t, rejected.Error, "unknown action")

	send(t, conn, protocol.Intent{Action: protocol.ActionReset})
	reset := readUntil(t, conn, func(m protocol.Message) bool {
		return m.View != nil && len(m.View.Holdings) == 0
	})
	assert.Equal(t, first.View.Cash, reset.View.Cash)
}

func TestServer_TicksStreamInMarket(t *testing.T) {
	_, ts := startServer(t, testOptions(10*time.Millisecond), nil)
	conn := dial(t, ts)

	send(t, conn, protocol.Intent{Action: protocol.ActionSetName, Name: "Ada"})
	send(t, conn, protocol.Intent{Action: protocol.ActionConfirmAvatar})

	msg := readUntil(t, conn, func(m protocol.Message) bool {
		return m.View != nil && m.View.Tick >= 3
	})
	assert.Len(t, msg.View.History, int(msg.View.Tick))
	assert.Equal(t, msg.View.NetWorth, msg.View.History[len(msg.View.History)-1].Value)
}

func TestServer_Throttling(t *testing.T) {
	opts := testOptions(time.Hour)
	opts.IntentBurst = 2
	opts.IntentsPerSecond = 0.001
	_, ts := startServer(t, opts, nil)
	conn := dial(t, ts)

	for i := 0; i < 3; i++ {
		send(t, conn, protocol.Intent{Action: protocol.ActionConfirmAvatar})
	}

	var throttled bool
	for i := 0; i < 4 && !throttled; i++ {
		msg := readUntil(t, conn, isError)
		throttled = strings.HasPrefix(msg.Error, ErrThrottled.Error()+", retry in ")
	}
	assert.True(t, throttled)
}

func TestServer_SessionLimitAndHealth(t *testing.T) {
	srv, ts := startServer(t, testOptions(time.Hour), nil)

	for i := 0; i < 2; i++ {
		conn := dial(t, ts)
		readUntil(t, conn, onScreen(domain.ScreenStart))
	}
	assert.Equal(t, 2, srv.ActiveSessions())

	url := strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()

	var health struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 2, health.Sessions)
}

func TestServer_SessionsAreIsolated(t *testing.T) {
	_, ts := startServer(t, testOptions(time.Hour), nil)
	a := dial(t, ts)
	b := dial(t, ts)
	readUntil(t, a, onScreen(domain.ScreenStart))
	readUntil(t, b, onScreen(domain.ScreenStart))

	send(t, a, protocol.Intent{Action: protocol.ActionSetName, Name: "Ada"})
	readUntil(t, a, onScreen(domain.ScreenAvatar))

	send(t, b, protocol.Intent{Action: protocol.ActionConfirmAvatar})
	msg := readUntil(t, b, isError)
	assert.Equal(t, engine.ErrInvalidTransition.Error(), msg.Error)
}

func TestServer_DisconnectReleasesSession(t *testing.T) {
	srv, ts := startServer(t, testOptions(time.Hour), nil)
	conn := dial(t, ts)
	readUntil(t, conn, onScreen(domain.ScreenStart))
	require.Equal(t, 1, srv.ActiveSessions())

	conn.Close()
	require.Eventually(t, func() bool {
		return srv.ActiveSessions() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_JournalsEverySession(t *testing.T) {
	store, err := storage.NewEventStore("")
	require.NoError(t, err)
	defer store.Close()

	_, ts := startServer(t, testOptions(time.Hour), store)
	conn := dial(t, ts)
	start := readUntil(t, conn, onScreen(domain.ScreenStart))

	send(t, conn, protocol.Intent{Action: protocol.ActionSetName, Name: "Ada"})
	readUntil(t, conn, onScreen(domain.ScreenAvatar))

	info, err := store.LoadSessionInfo(context.Background(), start.View.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(11), info.Seed)

	last, err := store.GetLastSeq(context.Background(), start.View.SessionID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), last)
}

func TestServer_OversizedFrameClosesConnection(t *testing.T) {
	srv, ts := startServer(t, testOptions(time.Hour), nil)
	conn := dial(t, ts)
	readUntil(t, conn, onScreen(domain.ScreenStart))

	send(t, conn, protocol.Intent{Action: protocol.ActionSetName, Name: strings.Repeat("x", 2*maxIntentBytes)})

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var err error
	for err == nil {
		_, _, err = conn.ReadMessage()
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "unexpected read error: %v", err)
	require.Eventually(t, func() bool {
		return srv.ActiveSessions() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_LongNameRejected(t *testing.T) {
	_, ts := startServer(t, testOptions(time.Hour), nil)
	conn := dial(t, ts)
	readUntil(t, conn, onScreen(domain.ScreenStart))

	send(t, conn, protocol.Intent{Action: protocol.ActionSetName, Name: strings.Repeat("x", engine.MaxNameLength+1)})
	msg := readUntil(t, conn, isError)
	assert.Equal(t, engine.ErrNameTooLong.Error(), msg.Error)

	// The connection survives the rejection
	send(t, conn, protocol.Intent{Action: protocol.ActionSetName, Name: "Ada"})
	readUntil(t, conn, onScreen(domain.ScreenAvatar))
}

// haltingJournal panics when asked to save the name "boom".
type haltingJournal struct{}

func (haltingJournal) SaveSessionInfo(context.Context, domain.SessionInfo) error { return nil }
func (haltingJournal) SaveEvent(_ context.Context, _ string, ev event.Event) error {
	if name, ok := ev.(*event.SetNameEvent); ok && name.Name == "boom" {
		panic("journal corrupted")
	}
	return nil
}

func TestServer_HaltedSessionClosesOnlyItsConnection(t *testing.T) {
	srv, ts := startServer(t, testOptions(time.Hour), haltingJournal{})
	doomed := dial(t, ts)
	healthy := dial(t, ts)
	readUntil(t, doomed, onScreen(domain.ScreenStart))
	readUntil(t, healthy, onScreen(domain.ScreenStart))

	send(t, doomed, protocol.Intent{Action: protocol.ActionSetName, Name: "boom"})

	doomed.SetReadDeadline(time.Now().Add(3 * time.Second))
	var err error
	for err == nil {
		_, _, err = doomed.ReadMessage()
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected read error: %v", err)
	require.Eventually(t, func() bool {
		return srv.ActiveSessions() == 1
	}, 2*time.Second, 10*time.Millisecond)

	send(t, healthy, protocol.Intent{Action: protocol.ActionSetName, Name: "Ada"})
	v := readUntil(t, healthy, onScreen(domain.ScreenAvatar))
	assert.Equal(t, "Ada", v.View.Name)
}

func TestServer_PrunesInMemoryJournal(t *testing.T) {
	store, err := storage.NewEventStore("")
	require.NoError(t, err)
	defer store.Close()

	opts := testOptions(time.Hour)
	opts.PruneJournal = store.InMemory()
	srv, ts := startServer(t, opts, store)
	conn := dial(t, ts)
	start := readUntil(t, conn, onScreen(domain.ScreenStart))
	id := start.View.SessionID

	send(t, conn, protocol.Intent{Action: protocol.ActionSetName, Name: "Ada"})
	readUntil(t, conn, onScreen(domain.ScreenAvatar))

	ctx := context.Background()
	last, err := store.GetLastSeq(ctx, id)
	require.NoError(t, err)
	require.Equal(t, uint64(1), last)

	conn.Close()
	require.Eventually(t, func() bool {
		return srv.ActiveSessions() == 0
	}, 2*time.Second, 10*time.Millisecond)

	events, err := store.LoadEvents(ctx, id, 1)
	require.NoError(t, err)
	assert.Empty(t, events)
	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
