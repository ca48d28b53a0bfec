package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kartyduel/backend/internal/game"
	"github.com/kartyduel/backend/internal/hub"
	"github.com/kartyduel/backend/internal/lobby"
	"github.com/kartyduel/backend/pkg/types"
)

const writeTimeout = 3 * time.Second

// joinTimeout is a var so tests can shorten it.
var joinTimeout = 2 * time.Second

// Handler upgrades the connection and bridges it to the hub: inbound
// JSON intents become lobby messages, and the lobby's outbox is
// serialized back out by a writer goroutine.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := game.PlayerID(uuid.NewString())
		out := make(chan types.ServerMessage, 16)
		log := log.With(zap.String("client", string(clientID)))
		log.Info("client connected")

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case msg := <-out:
					payload, err := json.Marshal(msg)
					if err != nil {
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					_ = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
				}
			}
		}()

		c := client{
			id:  clientID,
			out: out,
			hub: h,
			log: log,
		}
		defer c.detach()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Info("client disconnected")
				default:
					log.Info("client connection dropped", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				c.reply(types.Error("bad json"))
				continue
			}
			c.handle(cm)
		}
	}
}

type client struct {
	id  game.PlayerID
	out chan types.ServerMessage
	hub *hub.Hub
	log *zap.Logger

	lobby *lobby.Lobby
}

func (c *client) handle(cm types.ClientMessage) {
	switch cm.Type {
	case "create-lobby":
		c.createLobby(cm.Name)

	case "join-lobby":
		c.joinLobby(cm.Code, cm.Name)

	case "leave-lobby":
		c.detach()

	default:
		cmd, ok := toCommand(cm)
		if !ok {
			c.reply(types.Error("unknown message type"))
			return
		}
		if c.lobby == nil {
			// Race with lobby teardown; the client will be reconciled
			// by membership events, so stay quiet.
			return
		}
		c.lobby.Inbox() <- lobby.FromClient{ClientID: c.id, Cmd: cmd}
	}
}

func (c *client) createLobby(name string) {
	if c.lobby != nil {
		c.reply(types.Error("already in a lobby"))
		return
	}
	reply := make(chan hub.Created, 1)
	c.hub.Inbox() <- hub.CreateLobby{Reply: reply}
	created := <-reply
	c.join(created.Lobby, name)
}

func (c *client) joinLobby(code, name string) {
	if c.lobby != nil {
		c.reply(types.Error("already in a lobby"))
		return
	}
	reply := make(chan *lobby.Lobby, 1)
	c.hub.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
	lb := <-reply
	if lb == nil {
		c.reply(types.Error("lobby does not exist"))
		return
	}
	c.join(lb, name)
}

func (c *client) join(lb *lobby.Lobby, name string) {
	jr := make(chan error, 1)
	lb.Inbox() <- lobby.Join{ClientID: c.id, Name: name, Outbox: c.out, Reply: jr}
	select {
	case err := <-jr:
		if err != nil {
			c.reply(types.Error(err.Error()))
			return
		}
	case <-time.After(joinTimeout):
		// The lobby stopped, or is too slow to trust. Queue a leave
		// behind the join so a late-seated member is removed again
		// instead of holding a seat for a connection that gave up.
		select {
		case lb.Inbox() <- lobby.Leave{ClientID: c.id}:
		default:
		}
		c.reply(types.Error("lobby does not exist"))
		return
	}
	c.lobby = lb
}

func (c *client) detach() {
	if c.lobby == nil {
		return
	}
	c.lobby.Inbox() <- lobby.Leave{ClientID: c.id}
	c.lobby = nil
}

// reply writes directly to this connection's outbox, bypassing the
// lobby (used before the client is attached anywhere).
func (c *client) reply(msg types.ServerMessage) {
	select {
	case c.out <- msg:
	default:
	}
}

func toCommand(cm types.ClientMessage) (game.Command, bool) {
	var t game.CommandType
	switch cm.Type {
	case "start-match":
		t = game.CmdStartMatch
	case "select-card":
		t = game.CmdSelectCard
	case "unselect-card":
		t = game.CmdUnselectCard
	case "save-to-inventory":
		t = game.CmdSaveToInventory
	case "use-from-inventory":
		t = game.CmdUseFromInventory
	case "gamble":
		t = game.CmdGamble
	case "ready":
		t = game.CmdReady
	case "play-again":
		t = game.CmdPlayAgain
	case "return-to-lobby":
		t = game.CmdReturnToLobby
	default:
		return game.Command{}, false
	}
	return game.Command{Type: t, CardID: cm.CardID, IsSupport: cm.IsSupport}, true
}
