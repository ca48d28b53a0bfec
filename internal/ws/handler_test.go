package ws

import (
	"context"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/kartyduel/backend/internal/catalog"
	"github.com/kartyduel/backend/internal/game"
	"github.com/kartyduel/backend/internal/hub"
	"github.com/kartyduel/backend/internal/lobby"
	"github.com/kartyduel/backend/pkg/types"
)

func TestToCommand(t *testing.T) {
	cases := []struct {
		name string
		msg  types.ClientMessage
		want game.Command
		ok   bool
	}{
		{
			name: "select card carries id and slot",
			msg:  types.ClientMessage{Type: "select-card", CardID: 3, IsSupport: true},
			want: game.Command{Type: game.CmdSelectCard, CardID: 3, IsSupport: true},
			ok:   true,
		},
		{
			name: "ready",
			msg:  types.ClientMessage{Type: "ready"},
			want: game.Command{Type: game.CmdReady},
			ok:   true,
		},
		{
			name: "gamble",
			msg:  types.ClientMessage{Type: "gamble"},
			want: game.Command{Type: game.CmdGamble},
			ok:   true,
		},
		{
			name: "save to inventory",
			msg:  types.ClientMessage{Type: "save-to-inventory", CardID: 101},
			want: game.Command{Type: game.CmdSaveToInventory, CardID: 101},
			ok:   true,
		},
		{
			name: "start match",
			msg:  types.ClientMessage{Type: "start-match"},
			want: game.Command{Type: game.CmdStartMatch},
			ok:   true,
		},
		{
			name: "lobby management is not a game command",
			msg:  types.ClientMessage{Type: "join-lobby", Code: "1234"},
			ok:   false,
		},
		{
			name: "unknown type",
			msg:  types.ClientMessage{Type: "dance"},
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toCommand(tc.msg)
			if ok != tc.ok {
				t.Fatalf("ok: got %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

// handlerGoroutines counts goroutines still running inside Handler
// (reader loop and writer) across all connections.
func handlerGoroutines() int {
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	return strings.Count(string(buf[:n]), "internal/ws.Handler")
}

func TestHandler_ConnectionTeardownStopsWriter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := hub.NewHub(ctx, hub.Config{
		Catalog:    catalog.Default(),
		Rules:      game.DefaultRules(),
		RoundDelay: 50 * time.Millisecond,
		Log:        zap.NewNop(),
	})
	srv := httptest.NewServer(Handler(h, zap.NewNop()))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	for range 5 {
		conn, _, err := websocket.Dial(ctx, url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		// Exercise the writer before hanging up.
		if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"create-lobby","name":"Pepa"}`)); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, _, err := conn.Read(ctx); err != nil {
			t.Fatalf("read: %v", err)
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}

	// Both goroutines of every closed connection must wind down; a
	// parked writer here is a leak that grows for the server's lifetime.
	deadline := time.After(2 * time.Second)
	for handlerGoroutines() > 0 {
		select {
		case <-deadline:
			t.Fatalf("%d connection goroutines still parked after close", handlerGoroutines())
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestClientJoin_TimeoutWithdrawsSeat(t *testing.T) {
	old := joinTimeout
	joinTimeout = 50 * time.Millisecond
	defer func() { joinTimeout = old }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emptied := make(chan string, 1)
	l := lobby.New(ctx, lobby.Config{
		Code:       "4242",
		Catalog:    catalog.Default(),
		Rules:      game.DefaultRules(),
		RoundDelay: time.Second,
		OnEmpty:    func(code string) { emptied <- code },
	})

	// Stall the loop with an unread state request so the join reply
	// cannot arrive before the timeout.
	stall := make(chan lobby.View)
	l.Inbox() <- lobby.GetState{Reply: stall}

	out := make(chan types.ServerMessage, 8)
	c := client{id: "c1", out: out, log: zap.NewNop()}
	c.join(l, "Pepa")

	if c.lobby != nil {
		t.Fatalf("timed-out join must not attach the client")
	}
	select {
	case msg := <-out:
		if msg.Type != types.EvtError {
			t.Fatalf("want an error reply, got %q", msg.Type)
		}
	default:
		t.Fatalf("no reply after the join timed out")
	}

	// Resume the loop: the queued join seats the client, and the
	// withdrawal right behind it must empty the lobby again.
	<-stall
	select {
	case <-emptied:
	case <-time.After(time.Second):
		t.Fatalf("late-seated member was never removed")
	}
}
