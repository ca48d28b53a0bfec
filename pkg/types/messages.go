package types

import "github.com/kartyduel/backend/internal/game"

// ClientMessage is the single inbound intent shape. Type selects the
// operation; the remaining fields are read per type.
//
//	create-lobby:       name
//	join-lobby:         name, code
//	start-match:        -
//	select-card:        cardId, isSupport
//	unselect-card:      isSupport
//	save-to-inventory:  cardId
//	use-from-inventory: -
//	gamble:             -
//	ready:              -
//	play-again:         -
//	return-to-lobby:    -
//	leave-lobby:        -
type ClientMessage struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	Code      string `json:"code,omitempty"`
	CardID    int    `json:"cardId,omitempty"`
	IsSupport bool   `json:"isSupport,omitempty"`
}

// ServerMessage is the outbound event envelope.
type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Lobby-scoped event names. Match-scoped names live on game.EventType.
const (
	EvtLobbyCreated   = "lobby-created"
	EvtLobbyJoined    = "lobby-joined"
	EvtError          = "error"
	EvtPlayersUpdated = "players-updated"
	EvtPlayerJoined   = "player-joined"
	EvtPlayerLeft     = "player-left"
)

type ErrorPayload struct {
	Message string `json:"message"`
}

type LobbyCodePayload struct {
	LobbyCode string `json:"lobbyCode"`
}

// PlayerInfo is one entry of a players-updated membership list.
type PlayerInfo struct {
	ID     game.PlayerID `json:"id"`
	Name   string        `json:"name"`
	IsHost bool          `json:"isHost"`
}

type PlayerNamePayload struct {
	PlayerName string `json:"playerName"`
}

// GameStatePayload wraps a per-recipient match snapshot.
type GameStatePayload struct {
	GameState game.Snapshot `json:"gameState"`
}

func Error(msg string) ServerMessage {
	return ServerMessage{Type: EvtError, Data: ErrorPayload{Message: msg}}
}
