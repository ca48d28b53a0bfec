package hub

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/kartyduel/backend/internal/catalog"
	"github.com/kartyduel/backend/internal/game"
	"github.com/kartyduel/backend/internal/lobby"
	"github.com/kartyduel/backend/pkg/types"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewHub(ctx, Config{
		Catalog:    catalog.Default(),
		Rules:      game.DefaultRules(),
		RoundDelay: 50 * time.Millisecond,
	})
}

func createLobby(t *testing.T, h *Hub) Created {
	t.Helper()
	reply := make(chan Created, 1)
	h.Inbox() <- CreateLobby{Reply: reply}
	select {
	case c := <-reply:
		return c
	case <-time.After(time.Second):
		t.Fatalf("timed out creating lobby")
		return Created{} // unreachable
	}
}

func getLobby(t *testing.T, h *Hub, code string) *lobby.Lobby {
	t.Helper()
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- GetLobby{Code: code, Reply: reply}
	select {
	case lb := <-reply:
		return lb
	case <-time.After(time.Second):
		t.Fatalf("timed out getting lobby")
		return nil // unreachable
	}
}

func TestHub_CreateGetSamePointer(t *testing.T) {
	h := newTestHub(t)

	created := createLobby(t, h)
	if created.Lobby == nil {
		t.Fatalf("create returned nil lobby")
	}
	if !regexp.MustCompile(`^\d{4}$`).MatchString(created.Code) {
		t.Fatalf("want a 4-digit code, got %q", created.Code)
	}

	if got := getLobby(t, h, created.Code); got != created.Lobby {
		t.Fatalf("get returned a different lobby")
	}
}

func TestHub_GetUnknownCodeIsNil(t *testing.T) {
	h := newTestHub(t)
	if lb := getLobby(t, h, "0000"); lb != nil {
		t.Fatalf("expected nil for unknown code")
	}
}

func TestHub_CodesAreUnique(t *testing.T) {
	h := newTestHub(t)
	seen := map[string]bool{}
	for range 20 {
		c := createLobby(t, h)
		if seen[c.Code] {
			t.Fatalf("code %q issued twice", c.Code)
		}
		seen[c.Code] = true
	}
}

func TestHub_RemoveLobby(t *testing.T) {
	h := newTestHub(t)
	created := createLobby(t, h)

	h.Inbox() <- RemoveLobby{Code: created.Code}
	if lb := getLobby(t, h, created.Code); lb != nil {
		t.Fatalf("lobby should be gone after remove")
	}
}

func TestHub_EmptiedLobbyIsRemoved(t *testing.T) {
	h := newTestHub(t)
	created := createLobby(t, h)

	out := make(chan types.ServerMessage, 8)
	reply := make(chan error, 1)
	created.Lobby.Inbox() <- lobby.Join{ClientID: "a", Name: "Pepa", Outbox: out, Reply: reply}
	if err := <-reply; err != nil {
		t.Fatalf("join: %v", err)
	}

	created.Lobby.Inbox() <- lobby.Leave{ClientID: "a"}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if getLobby(t, h, created.Code) == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("emptied lobby was never removed from the hub")
}
