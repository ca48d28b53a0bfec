package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

const (
	TypeMain    = "main"
	TypeSupport = "support"
)

// BestSupport names the one support card that gives a main card its
// optimal pairing, together with the pairing multiplier.
type BestSupport struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

// Card is an immutable catalog value. Main cards carry damage/hp and
// optionally a boost target list and a best-support pairing; support
// cards carry the bonusDamage and bonusHeal multipliers instead.
type Card struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Damage      int          `json:"damage,omitempty"`
	HP          int          `json:"hp,omitempty"`
	Type        string       `json:"type"`
	CardType    string       `json:"cardType,omitempty"`
	Gender      string       `json:"gender,omitempty"`
	Ability     string       `json:"ability,omitempty"`
	Description string       `json:"description,omitempty"`
	Image       string       `json:"image,omitempty"`
	Boost       []string     `json:"boost,omitempty"`
	BestSupport *BestSupport `json:"bestSupport,omitempty"`
	BonusDamage float64      `json:"bonusDamage,omitempty"`
	BonusHeal   float64      `json:"bonusHeal,omitempty"`
}

// Catalog is the static card pool plus the counter table keyed by
// attacker main-card id. It is read-only after construction.
type Catalog struct {
	Mains    []Card
	Supports []Card
	Counters map[int][]int
}

// Default returns the built-in deck.
func Default() *Catalog {
	return &Catalog{
		Mains: []Card{
			{
				ID: 1, Name: "Alfa", Damage: 50, HP: 10,
				Type: TypeMain, CardType: "legend", Gender: "male",
				Ability:     "Bonus damage against certain named cards.",
				Description: "Carries a wolf aura.",
				Image:       "alfa.png",
				Boost:       []string{"vladimir", "tomas"},
				BestSupport: &BestSupport{ID: 101, Name: "Golden labubu", Multiplier: 2},
			},
			{
				ID: 2, Name: "Živý Mrtvý Chodící Děti", Damage: 30, HP: 15,
				Type: TypeMain, CardType: "mindset", Gender: "male",
				Ability:     "Bonus damage against poor cards.",
				Description: "Owns all the money in the world.",
				Image:       "chodicideti.png",
				BestSupport: &BestSupport{ID: 101, Name: "Golden labubu", Multiplier: 1.5},
			},
			{
				ID: 3, Name: "František Ředitel", Damage: 30, HP: 15,
				Type: TypeMain, CardType: "mindset", Gender: "male",
				Ability:     "Never invites mayors to barbecues.",
				Description: "Vinegar, salt, salt, thickener, vinegar, salt, vinegar, cream.",
				Image:       "frantisek.png",
			},
			{
				ID: 4, Name: "Tomáš Garrigue Masaryk", Damage: 30, HP: 15,
				Type: TypeMain, CardType: "mindset", Gender: "male",
				Ability:     "Reforms society.",
				Description: "Gains damage when allied with a state institution.",
				Image:       "tomas.png",
			},
		},
		Supports: []Card{
			{
				ID: 101, Name: "Golden labubu",
				Type:        TypeSupport,
				BonusDamage: 1.5,
				BonusHeal:   2,
				Ability:     "Gold stops bullets.",
				Description: "A cursed charm for whoever carries it.",
				Image:       "labubu.png",
			},
		},
		Counters: map[int][]int{
			1: {3, 7},
			2: {4, 6},
		},
	}
}

type rawDeck struct {
	MainCards    []Card           `json:"mainCards"`
	SupportCards []Card           `json:"supportCards"`
	Counters     map[string][]int `json:"counters"`
}

// Load reads a deck file and validates it. The file uses the same card
// shape as the wire format, with counters keyed by stringified ids.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck file %s: %w", path, err)
	}
	var rd rawDeck
	if err := json.Unmarshal(b, &rd); err != nil {
		return nil, fmt.Errorf("parse deck file %s: %w", path, err)
	}
	counters := make(map[int][]int, len(rd.Counters))
	for k, v := range rd.Counters {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("deck file %s: counter key %q is not a card id", path, k)
		}
		counters[id] = v
	}
	c := &Catalog{Mains: rd.MainCards, Supports: rd.SupportCards, Counters: counters}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("deck file %s: %w", path, err)
	}
	return c, nil
}

func (c *Catalog) validate() error {
	if len(c.Mains) == 0 {
		return fmt.Errorf("mainCards is empty")
	}
	seen := make(map[int]string, len(c.Mains)+len(c.Supports))
	for _, card := range c.Mains {
		if card.Name == "" {
			return fmt.Errorf("main card %d missing name", card.ID)
		}
		if card.Type != TypeMain {
			return fmt.Errorf("card %q listed as main but typed %q", card.Name, card.Type)
		}
		if prev, ok := seen[card.ID]; ok {
			return fmt.Errorf("duplicate card id %d (%q and %q)", card.ID, prev, card.Name)
		}
		seen[card.ID] = card.Name
	}
	for _, card := range c.Supports {
		if card.Name == "" {
			return fmt.Errorf("support card %d missing name", card.ID)
		}
		if card.Type != TypeSupport {
			return fmt.Errorf("card %q listed as support but typed %q", card.Name, card.Type)
		}
		if prev, ok := seen[card.ID]; ok {
			return fmt.Errorf("duplicate card id %d (%q and %q)", card.ID, prev, card.Name)
		}
		seen[card.ID] = card.Name
	}
	return nil
}

// IsCounter reports whether attacker has a counter advantage over defender.
func (c *Catalog) IsCounter(attackerID, defenderID int) bool {
	for _, id := range c.Counters[attackerID] {
		if id == defenderID {
			return true
		}
	}
	return false
}
