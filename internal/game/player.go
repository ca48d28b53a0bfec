package game

import "github.com/kartyduel/backend/internal/catalog"

// PlayerID is the connection-scoped identity of a player.
type PlayerID string

// Rules are the tunable match parameters.
type Rules struct {
	StartHP        int
	MainPerHand    int
	SupportPerHand int
	GambleAttempts int
}

func DefaultRules() Rules {
	return Rules{
		StartHP:        100,
		MainPerHand:    2,
		SupportPerHand: 2,
		GambleAttempts: 3,
	}
}

// Player is one side's session state within a match.
type Player struct {
	ID        PlayerID
	Name      string
	HP        int
	Hand      []catalog.Card
	Selected  *catalog.Card
	Support   *catalog.Card
	Ready     bool
	Gambles   int
	Inventory *catalog.Card
}

// PlayerView is a player's state as seen by a given recipient. Hands
// and the inventory slot are redacted for everyone but the owner.
type PlayerView struct {
	ID              PlayerID       `json:"id"`
	Name            string         `json:"name"`
	HP              int            `json:"hp"`
	Cards           []catalog.Card `json:"cards"`
	SelectedCard    *catalog.Card  `json:"selectedCard"`
	SelectedSupport *catalog.Card  `json:"selectedSupport"`
	Ready           bool           `json:"ready"`
	GamblesUsed     int            `json:"gamblesUsed"`
	InventoryCard   *catalog.Card  `json:"inventoryCard,omitempty"`
}

func (p *Player) view(viewer PlayerID) PlayerView {
	v := PlayerView{
		ID:              p.ID,
		Name:            p.Name,
		HP:              p.HP,
		Cards:           []catalog.Card{},
		SelectedCard:    p.Selected,
		SelectedSupport: p.Support,
		Ready:           p.Ready,
		GamblesUsed:     p.Gambles,
	}
	if p.ID == viewer {
		// Copied so later hand mutations cannot race the outbound
		// marshaling on the connection's writer goroutine.
		v.Cards = append(v.Cards, p.Hand...)
		v.InventoryCard = p.Inventory
	}
	return v
}

func (p *Player) holds(cardID int) (*catalog.Card, bool) {
	for i := range p.Hand {
		if p.Hand[i].ID == cardID {
			return &p.Hand[i], true
		}
	}
	return nil, false
}

func (p *Player) removeFromHand(cardID int) {
	for i := range p.Hand {
		if p.Hand[i].ID == cardID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return
		}
	}
}

func (p *Player) side() Side {
	return Side{ID: p.ID, Name: p.Name, HP: p.HP, Card: p.Selected, Support: p.Support}
}
