package hub

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kartyduel/backend/internal/catalog"
	"github.com/kartyduel/backend/internal/game"
	"github.com/kartyduel/backend/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

// CreateLobby makes a lobby under a fresh 4-digit code.
type CreateLobby struct {
	Reply chan Created
}

type Created struct {
	Code  string
	Lobby *lobby.Lobby
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	Code string
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

type Config struct {
	Catalog    *catalog.Catalog
	Rules      game.Rules
	RoundDelay time.Duration
	Log        *zap.Logger
}

// Hub is the registry of live lobbies, keyed by code. Like the
// lobbies it manages, it is a single goroutine fed by a channel.
type Hub struct {
	cfg     Config
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, cfg Config) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	h := &Hub{
		cfg:     cfg,
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		log:     cfg.Log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				code := h.freshCode()
				lb := lobby.New(h.ctx, lobby.Config{
					Code:       code,
					Catalog:    h.cfg.Catalog,
					Rules:      h.cfg.Rules,
					RoundDelay: h.cfg.RoundDelay,
					OnEmpty:    h.lobbyEmptied,
					Log:        h.cfg.Log,
				})
				h.lobbies[code] = lb
				h.log.Info("lobby created", zap.String("lobby", code))
				msg.Reply <- Created{Code: code, Lobby: lb}

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // may be nil

			case RemoveLobby:
				if _, ok := h.lobbies[msg.Code]; ok {
					delete(h.lobbies, msg.Code)
					h.log.Info("lobby removed", zap.String("lobby", msg.Code))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// lobbyEmptied runs on the emptied lobby's goroutine; it only posts a
// message back so the map stays owned by the hub loop.
func (h *Hub) lobbyEmptied(code string) {
	select {
	case h.inbox <- RemoveLobby{Code: code}:
	case <-h.ctx.Done():
	}
}

// freshCode draws random 4-digit codes until one is unused.
func (h *Hub) freshCode() string {
	for {
		code := randomCode()
		if _, taken := h.lobbies[code]; !taken {
			return code
		}
	}
}

func randomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(err)
	}
	return strconv.FormatInt(n.Int64()+1000, 10)
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Inbox() <- lobby.Shutdown{}
	}
	clear(h.lobbies)
	h.cancel()
}
