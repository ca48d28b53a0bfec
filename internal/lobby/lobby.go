package lobby

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kartyduel/backend/internal/catalog"
	"github.com/kartyduel/backend/internal/game"
	"github.com/kartyduel/backend/pkg/types"
)

var (
	ErrLobbyFull     = errors.New("lobby is full")
	ErrDuplicateName = errors.New("name already taken")
)

type Msg interface{ isLobbyMsg() }

// Join registers a client. Reply gets nil on success or a validation
// error; on success the client starts receiving events on Outbox.
type Join struct {
	ClientID game.PlayerID
	Name     string
	Outbox   chan types.ServerMessage
	Reply    chan error
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID game.PlayerID }

func (Leave) isLobbyMsg() {}

// FromClient carries a decoded intent from one connection.
type FromClient struct {
	ClientID game.PlayerID
	Cmd      game.Command
}

func (FromClient) isLobbyMsg() {}

// advanceRound is the scheduler's delayed re-entry. Gen invalidates
// fires armed for earlier rounds or for a match that was torn down.
type advanceRound struct{ Gen int }

func (advanceRound) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

// GetState reflects internal state without data races (tests only).
type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type View struct {
	Code       string
	Players    []types.PlayerInfo
	NumMembers int
	HasMatch   bool
	Round      int
	Status     game.Status
}

type member struct {
	id     game.PlayerID
	name   string
	isHost bool
	outbox chan types.ServerMessage
}

type Config struct {
	Code       string
	Catalog    *catalog.Catalog
	Rules      game.Rules
	RoundDelay time.Duration
	// Deal overrides the default dealer (tests). Nil means random.
	Deal game.DealFunc
	// OnEmpty is called once when the last member leaves, right before
	// the lobby shuts itself down.
	OnEmpty func(code string)
	Log     *zap.Logger
}

// Lobby owns one lobby's membership and match state. All mutation
// happens on the single loop goroutine; clients talk to it through the
// inbox and listen on their outbox channels.
type Lobby struct {
	cfg      Config
	inbox    chan Msg
	members  []*member
	match    *game.Match
	timerGen int
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, cfg Config) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Deal == nil {
		cfg.Deal = game.NewDealer(cfg.Catalog, cfg.Rules)
	}
	l := &Lobby{
		cfg:    cfg,
		inbox:  make(chan Msg, 64),
		log:    cfg.Log.With(zap.String("lobby", cfg.Code)),
		ctx:    ctx,
		cancel: cancel,
	}
	go l.loop()
	return l
}

// Inbox exposes the message channel to the ws layer and tests.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) Code() string { return l.cfg.Code }

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.handleJoin(msg)

			case Leave:
				if l.handleLeave(msg.ClientID) {
					return
				}

			case FromClient:
				l.handleCommand(msg.ClientID, msg.Cmd)

			case advanceRound:
				l.handleAdvance(msg.Gen)

			case GetState:
				msg.Reply <- View{
					Code:       l.cfg.Code,
					Players:    l.membersInfo(),
					NumMembers: len(l.members),
					HasMatch:   l.match != nil,
					Round:      l.matchRound(),
					Status:     l.matchStatus(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) handleJoin(msg Join) {
	if len(l.members) >= 2 {
		msg.Reply <- ErrLobbyFull
		return
	}
	for _, m := range l.members {
		if m.name == msg.Name {
			msg.Reply <- ErrDuplicateName
			return
		}
	}

	creator := len(l.members) == 0
	joined := &member{id: msg.ClientID, name: msg.Name, isHost: creator, outbox: msg.Outbox}
	l.members = append(l.members, joined)
	msg.Reply <- nil

	ack := types.EvtLobbyJoined
	if creator {
		ack = types.EvtLobbyCreated
	}
	l.send(joined, types.ServerMessage{Type: ack, Data: types.LobbyCodePayload{LobbyCode: l.cfg.Code}})
	for _, m := range l.members {
		if m != joined {
			l.send(m, types.ServerMessage{Type: types.EvtPlayerJoined, Data: types.PlayerNamePayload{PlayerName: msg.Name}})
		}
	}
	l.broadcast(types.ServerMessage{Type: types.EvtPlayersUpdated, Data: l.membersInfo()})
	l.log.Info("player joined", zap.String("client", string(msg.ClientID)), zap.String("name", msg.Name))
}

// handleLeave reports true when the lobby emptied and shut down.
func (l *Lobby) handleLeave(id game.PlayerID) bool {
	idx := -1
	for i, m := range l.members {
		if m.id == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}
	leaving := l.members[idx]
	l.members = append(l.members[:idx], l.members[idx+1:]...)
	l.log.Info("player left", zap.String("name", leaving.name))

	if len(l.members) == 0 {
		l.timerGen++
		if l.cfg.OnEmpty != nil {
			l.cfg.OnEmpty(l.cfg.Code)
		}
		l.shutdown()
		return true
	}

	// Host migration: first remaining member inherits the lobby.
	if leaving.isHost {
		l.members[0].isHost = true
	}
	for _, m := range l.members {
		l.send(m, types.ServerMessage{Type: types.EvtPlayerLeft, Data: types.PlayerNamePayload{PlayerName: leaving.name}})
	}
	l.broadcast(types.ServerMessage{Type: types.EvtPlayersUpdated, Data: l.membersInfo()})
	return false
}

func (l *Lobby) handleCommand(id game.PlayerID, cmd game.Command) {
	sender := l.memberByID(id)
	if sender == nil {
		return
	}
	cmd.Player = id

	switch cmd.Type {
	case game.CmdStartMatch:
		if !sender.isHost || len(l.members) != 2 {
			return
		}
		l.timerGen++
		seats := [2]game.Seat{
			{ID: l.members[0].id, Name: l.members[0].name},
			{ID: l.members[1].id, Name: l.members[1].name},
		}
		match, events := game.NewMatch(l.cfg.Catalog, l.cfg.Rules, l.cfg.Deal, seats)
		l.match = match
		l.log.Info("match started")
		l.processEvents(events)

	case game.CmdReturnToLobby:
		if l.match == nil {
			return
		}
		l.timerGen++
		l.match = nil
		l.broadcast(types.ServerMessage{Type: types.EvtPlayersUpdated, Data: l.membersInfo()})

	default:
		if l.match == nil {
			return
		}
		events, err := l.match.Apply(cmd)
		if err != nil {
			l.send(sender, types.Error(err.Error()))
			return
		}
		l.processEvents(events)
	}
}

func (l *Lobby) handleAdvance(gen int) {
	if gen != l.timerGen || l.match == nil {
		return
	}
	events, _ := l.match.Apply(game.Command{Type: game.CmdAdvanceRound})
	l.processEvents(events)
}

func (l *Lobby) processEvents(events []game.Event) {
	for _, ev := range events {
		switch ev.Type {
		case game.EvtScheduleNextRound:
			l.armRoundTimer()

		case game.EvtMatchStarted, game.EvtGameUpdated:
			// Snapshots are per recipient: opponents' hands stay hidden.
			for _, m := range l.members {
				snap := l.match.SnapshotFor(m.id)
				l.send(m, types.ServerMessage{Type: string(ev.Type), Data: types.GameStatePayload{GameState: snap}})
			}

		default:
			msg := types.ServerMessage{Type: string(ev.Type), Data: ev.Data}
			if ev.To == "" {
				l.broadcast(msg)
				continue
			}
			if m := l.memberByID(ev.To); m != nil {
				l.send(m, msg)
			}
		}
	}
}

func (l *Lobby) armRoundTimer() {
	l.timerGen++
	gen := l.timerGen
	time.AfterFunc(l.cfg.RoundDelay, func() {
		select {
		case l.inbox <- advanceRound{Gen: gen}:
		case <-l.ctx.Done():
		}
	})
}

func (l *Lobby) memberByID(id game.PlayerID) *member {
	for _, m := range l.members {
		if m.id == id {
			return m
		}
	}
	return nil
}

func (l *Lobby) membersInfo() []types.PlayerInfo {
	info := make([]types.PlayerInfo, 0, len(l.members))
	for _, m := range l.members {
		info = append(info, types.PlayerInfo{ID: m.id, Name: m.name, IsHost: m.isHost})
	}
	return info
}

func (l *Lobby) broadcast(msg types.ServerMessage) {
	for _, m := range l.members {
		l.send(m, msg)
	}
}

// send never blocks the loop; a client that cannot drain its outbox
// loses the event and is reconciled by the next snapshot.
func (l *Lobby) send(m *member, msg types.ServerMessage) {
	select {
	case m.outbox <- msg:
	default:
		l.log.Warn("outbox full, dropping event",
			zap.String("client", string(m.id)), zap.String("event", msg.Type))
	}
}

func (l *Lobby) shutdown() {
	// Outboxes belong to the connections, which may outlive the lobby;
	// dropping the members is enough, the ws layer tears its writer
	// down with the socket.
	l.members = nil
	l.match = nil
	l.cancel()
}

func (l *Lobby) matchRound() int {
	if l.match == nil {
		return 0
	}
	return l.match.Round
}

func (l *Lobby) matchStatus() game.Status {
	if l.match == nil {
		return ""
	}
	return l.match.Status
}
