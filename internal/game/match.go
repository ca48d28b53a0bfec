package game

import (
	"errors"
	"fmt"

	"github.com/kartyduel/backend/internal/catalog"
)

var (
	ErrCardNotOwned  = errors.New("you do not own that card")
	ErrWrongCategory = errors.New("card cannot be played in that slot")
	ErrNoGamblesLeft = errors.New("no gamble attempts left")
	ErrUnsupported   = errors.New("unsupported command")
)

type Status string

const (
	StatusSelecting Status = "selecting"
	StatusEnded     Status = "ended"
)

type CommandType string

const (
	// Session lifecycle, handled by the lobby rather than Apply.
	CmdStartMatch    CommandType = "start-match"
	CmdReturnToLobby CommandType = "return-to-lobby"

	CmdSelectCard       CommandType = "select-card"
	CmdUnselectCard     CommandType = "unselect-card"
	CmdSaveToInventory  CommandType = "save-to-inventory"
	CmdUseFromInventory CommandType = "use-from-inventory"
	CmdGamble           CommandType = "gamble"
	CmdReady            CommandType = "ready"
	CmdPlayAgain        CommandType = "play-again"

	// Scheduler re-entry, never sent by clients.
	CmdAdvanceRound CommandType = "advance-round"
)

type Command struct {
	Type      CommandType
	Player    PlayerID
	CardID    int
	IsSupport bool
}

type EventType string

const (
	EvtMatchStarted     EventType = "match-started"
	EvtYourHand         EventType = "your-hand"
	EvtSelectionAck     EventType = "selection-ack"
	EvtGameUpdated      EventType = "game-updated"
	EvtReadinessWaiting EventType = "readiness-waiting"
	EvtHPUpdated        EventType = "hp-updated"
	EvtRoundResult      EventType = "round-result"
	EvtNextRound        EventType = "next-round"
	EvtMatchEnded       EventType = "match-ended"
	EvtGambleResult     EventType = "gamble-result"

	// Internal: tells the lobby to arm the round-advance timer.
	EvtScheduleNextRound EventType = "schedule-next-round"
)

// Event is an outcome of applying a command. To targets a single
// player; empty To means the whole lobby. Snapshot-bearing events
// (match-started, game-updated) carry no data here because the lobby
// builds a redacted snapshot per recipient.
type Event struct {
	Type EventType
	To   PlayerID
	Data any
}

type HandPayload struct {
	AllCards      []catalog.Card `json:"allCards"`
	Round         int            `json:"round"`
	GamblesUsed   int            `json:"gamblesUsed"`
	GamblesLeft   int            `json:"gamblesLeft"`
	InventoryCard *catalog.Card  `json:"inventoryCard,omitempty"`
}

type SelectionAckPayload struct {
	Message string       `json:"message"`
	Card    catalog.Card `json:"card"`
}

type ReadinessPayload struct {
	WaitingFor []string `json:"waitingFor"`
}

type HPPayload struct {
	Player1HP int `json:"player1HP"`
	Player2HP int `json:"player2HP"`
}

type NextRoundPayload struct {
	Round   int    `json:"round"`
	Message string `json:"message"`
}

type MatchEndedPayload struct {
	// Winner is a PlayerRef, or the literal string "tie" when both
	// players dropped to zero in the same round (loser stays null).
	Winner any        `json:"winner"`
	Loser  *PlayerRef `json:"loser"`
	Rounds int        `json:"rounds"`
}

type GambleResultPayload struct {
	Message     string `json:"message"`
	GamblesUsed int    `json:"gamblesUsed"`
	GamblesLeft int    `json:"gamblesLeft"`
}

// Snapshot is the match state as seen by one recipient.
type Snapshot struct {
	Players []PlayerView `json:"players"`
	Round   int          `json:"round"`
	Status  Status       `json:"status"`
}

// Seat pairs a connection with a display name at match start.
type Seat struct {
	ID   PlayerID
	Name string
}

// Match is the authoritative per-lobby session state. It is owned by a
// single lobby goroutine and never shared; Apply is the only entry
// point for mutation.
type Match struct {
	Players []*Player
	Round   int
	Status  Status

	// resolved latches after a round resolves so stray ready events and
	// stale timers cannot resolve the same round twice.
	resolved bool

	cat   *catalog.Catalog
	rules Rules
	deal  DealFunc
}

// NewMatch starts a session for both seats: full HP, round 1, fresh
// hands. The returned events announce the match and each private hand.
func NewMatch(cat *catalog.Catalog, rules Rules, deal DealFunc, seats [2]Seat) (*Match, []Event) {
	m := &Match{
		Round:  1,
		Status: StatusSelecting,
		cat:    cat,
		rules:  rules,
		deal:   deal,
	}
	for _, seat := range seats {
		m.Players = append(m.Players, &Player{
			ID:   seat.ID,
			Name: seat.Name,
			HP:   rules.StartHP,
			Hand: deal(),
		})
	}
	events := []Event{{Type: EvtMatchStarted}}
	for _, p := range m.Players {
		events = append(events, m.handEvent(p))
	}
	return m, events
}

func (m *Match) player(id PlayerID) *Player {
	for _, p := range m.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// SnapshotFor renders the match for one recipient, with the opponent's
// hand and inventory redacted.
func (m *Match) SnapshotFor(viewer PlayerID) Snapshot {
	s := Snapshot{Round: m.Round, Status: m.Status}
	for _, p := range m.Players {
		s.Players = append(s.Players, p.view(viewer))
	}
	return s
}

// Apply runs one client intent (or the scheduler's round advance)
// against the match. Validation failures come back as errors and leave
// the state untouched; references to unknown players are no-ops.
func (m *Match) Apply(cmd Command) ([]Event, error) {
	if cmd.Type == CmdAdvanceRound {
		return m.advanceRound(), nil
	}

	p := m.player(cmd.Player)
	if p == nil {
		return nil, nil
	}

	switch cmd.Type {
	case CmdSelectCard:
		return m.selectCard(p, cmd.CardID, cmd.IsSupport)
	case CmdUnselectCard:
		return m.unselectCard(p, cmd.IsSupport), nil
	case CmdSaveToInventory:
		return m.saveToInventory(p, cmd.CardID), nil
	case CmdUseFromInventory:
		return m.useFromInventory(p), nil
	case CmdGamble:
		return m.gamble(p)
	case CmdReady:
		return m.ready(p), nil
	case CmdPlayAgain:
		return m.playAgain(), nil
	default:
		return nil, ErrUnsupported
	}
}

func (m *Match) selectCard(p *Player, cardID int, isSupport bool) ([]Event, error) {
	card, ok := p.holds(cardID)
	if !ok {
		return nil, ErrCardNotOwned
	}
	if isSupport && card.Type != catalog.TypeSupport {
		return nil, ErrWrongCategory
	}
	if !isSupport && card.Type != catalog.TypeMain {
		return nil, ErrWrongCategory
	}

	picked := *card
	slot := "Main"
	if isSupport {
		p.Support = &picked
		slot = "Support"
	} else {
		p.Selected = &picked
	}
	p.Ready = false

	return []Event{
		{Type: EvtSelectionAck, To: p.ID, Data: SelectionAckPayload{
			Message: fmt.Sprintf("%s: %s", slot, picked.Name),
			Card:    picked,
		}},
		{Type: EvtGameUpdated},
	}, nil
}

func (m *Match) unselectCard(p *Player, isSupport bool) []Event {
	if isSupport {
		p.Support = nil
	} else {
		p.Selected = nil
	}
	p.Ready = false
	return []Event{{Type: EvtGameUpdated}}
}

func (m *Match) saveToInventory(p *Player, cardID int) []Event {
	if p.Inventory != nil {
		return nil
	}
	card, ok := p.holds(cardID)
	if !ok {
		return nil
	}
	kept := *card
	p.Inventory = &kept
	p.removeFromHand(cardID)
	return []Event{m.handEvent(p)}
}

func (m *Match) useFromInventory(p *Player) []Event {
	if p.Inventory == nil {
		return nil
	}
	p.Hand = append(p.Hand, *p.Inventory)
	p.Inventory = nil
	return []Event{m.handEvent(p)}
}

func (m *Match) gamble(p *Player) ([]Event, error) {
	if p.Gambles >= m.rules.GambleAttempts {
		return nil, ErrNoGamblesLeft
	}
	p.Selected = nil
	p.Support = nil
	p.Ready = false
	p.Gambles++
	p.Hand = m.deal()

	left := m.rules.GambleAttempts - p.Gambles
	return []Event{
		m.handEvent(p),
		{Type: EvtGambleResult, To: p.ID, Data: GambleResultPayload{
			Message:     fmt.Sprintf("Gamble %d/%d used", p.Gambles, m.rules.GambleAttempts),
			GamblesUsed: p.Gambles,
			GamblesLeft: left,
		}},
	}, nil
}

func (m *Match) ready(p *Player) []Event {
	if m.Status != StatusSelecting || m.resolved || p.Selected == nil {
		return nil
	}
	p.Ready = true

	var waiting []string
	for _, other := range m.Players {
		if !other.Ready || other.Selected == nil {
			waiting = append(waiting, other.Name)
		}
	}
	if len(waiting) > 0 {
		return []Event{{Type: EvtReadinessWaiting, Data: ReadinessPayload{WaitingFor: waiting}}}
	}
	return m.resolveRound()
}

func (m *Match) resolveRound() []Event {
	p1, p2 := m.Players[0], m.Players[1]
	result := Resolve(m.cat, p1.side(), p2.side())
	if result == nil {
		return nil
	}
	m.resolved = true
	p1.HP = result.Player1.HP
	p2.HP = result.Player2.HP

	events := []Event{
		{Type: EvtHPUpdated, Data: HPPayload{Player1HP: p1.HP, Player2HP: p2.HP}},
		{Type: EvtRoundResult, Data: result},
	}

	if !result.GameOver {
		return append(events, Event{Type: EvtScheduleNextRound})
	}

	m.Status = StatusEnded
	end := MatchEndedPayload{Winner: "tie", Rounds: m.Round}
	switch {
	case p1.HP > 0:
		end.Winner = &PlayerRef{ID: p1.ID, Name: p1.Name}
		end.Loser = &PlayerRef{ID: p2.ID, Name: p2.Name}
	case p2.HP > 0:
		end.Winner = &PlayerRef{ID: p2.ID, Name: p2.Name}
		end.Loser = &PlayerRef{ID: p1.ID, Name: p1.Name}
	}
	return append(events, Event{Type: EvtMatchEnded, Data: end})
}

func (m *Match) advanceRound() []Event {
	if m.Status != StatusSelecting || !m.resolved {
		return nil
	}
	m.Round++
	m.resolved = false

	events := []Event{{Type: EvtNextRound, Data: NextRoundPayload{
		Round:   m.Round,
		Message: "New round! Pick a main and a support card.",
	}}}
	for _, p := range m.Players {
		p.Selected = nil
		p.Support = nil
		p.Ready = false
		p.Gambles = 0
		p.Hand = m.deal()
		if p.Inventory != nil {
			p.Hand = append(p.Hand, *p.Inventory)
			p.Inventory = nil
		}
		events = append(events, m.handEvent(p))
	}
	return events
}

func (m *Match) playAgain() []Event {
	if m.Status != StatusEnded {
		return nil
	}
	m.Round = 1
	m.Status = StatusSelecting
	m.resolved = false

	events := []Event{{Type: EvtMatchStarted}}
	for _, p := range m.Players {
		p.HP = m.rules.StartHP
		p.Hand = m.deal()
		p.Selected = nil
		p.Support = nil
		p.Ready = false
		p.Gambles = 0
		p.Inventory = nil
		events = append(events, m.handEvent(p))
	}
	return events
}

func (m *Match) handEvent(p *Player) Event {
	return Event{Type: EvtYourHand, To: p.ID, Data: HandPayload{
		AllCards:      append([]catalog.Card(nil), p.Hand...),
		Round:         m.Round,
		GamblesUsed:   p.Gambles,
		GamblesLeft:   m.rules.GambleAttempts - p.Gambles,
		InventoryCard: p.Inventory,
	}}
}
