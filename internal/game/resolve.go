package game

import (
	"fmt"
	"strings"

	"github.com/kartyduel/backend/internal/catalog"
)

const (
	counterBonus = 15
	boostBonus   = 10
	baseHeal     = 10

	maxPlayerHP = 100
)

// Side is one combatant's input to a round: the selected main card, the
// optional support card, and the player's HP entering the round.
type Side struct {
	ID      PlayerID
	Name    string
	HP      int
	Card    *catalog.Card
	Support *catalog.Card
}

// FighterResult is one player's half of a round outcome.
type FighterResult struct {
	ID                PlayerID      `json:"id"`
	Name              string        `json:"name"`
	Card              *catalog.Card `json:"card"`
	Support           *catalog.Card `json:"support"`
	DamageDealt       int           `json:"damageDealt"`
	CardDamageTaken   int           `json:"cardDamageTaken"`
	PlayerDamageTaken int           `json:"playerDamageTaken"`
	Healed            int           `json:"healed"`
	HP                int           `json:"hp"`
	CardSurvived      bool          `json:"cardSurvived"`
}

// PlayerRef identifies a player in winner/loser fields.
type PlayerRef struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}

type CounterInfo struct {
	Player1Counter bool   `json:"player1Counter"`
	Player2Counter bool   `json:"player2Counter"`
	CounterReason1 string `json:"counterReason1"`
	CounterReason2 string `json:"counterReason2"`
}

type BoostInfo struct {
	Player1Boost bool   `json:"player1Boost"`
	Player2Boost bool   `json:"player2Boost"`
	BoostReason1 string `json:"boostReason1"`
	BoostReason2 string `json:"boostReason2"`
}

// RoundResult is the deterministic outcome of one resolved round.
type RoundResult struct {
	Player1     FighterResult `json:"player1"`
	Player2     FighterResult `json:"player2"`
	RoundWinner *PlayerRef    `json:"roundWinner"`
	Counters    CounterInfo   `json:"counters"`
	Boosts      BoostInfo     `json:"boosts"`
	GameOver    bool          `json:"gameOver"`
}

// Resolve computes a round outcome from both sides' selections. It is
// pure: player HP changes are reported in the result, never applied.
// Returns nil if either side has no selected main card.
func Resolve(cat *catalog.Catalog, p1, p2 Side) *RoundResult {
	if p1.Card == nil || p2.Card == nil {
		return nil
	}

	card1HP := p1.Card.HP
	card2HP := p2.Card.HP

	damage1 := p1.Card.Damage
	damage2 := p2.Card.Damage
	healing1 := 0
	healing2 := 0

	var counters CounterInfo
	if cat.IsCounter(p1.Card.ID, p2.Card.ID) {
		damage1 += counterBonus
		counters.Player1Counter = true
		counters.CounterReason1 = fmt.Sprintf("%s has a type advantage against %s", p1.Card.Name, p2.Card.Name)
	}
	if cat.IsCounter(p2.Card.ID, p1.Card.ID) {
		damage2 += counterBonus
		counters.Player2Counter = true
		counters.CounterReason2 = fmt.Sprintf("%s has a type advantage against %s", p2.Card.Name, p1.Card.Name)
	}

	var boosts BoostInfo
	if target, ok := boostMatch(p1.Card.Boost, p2.Card.Name); ok {
		damage1 += boostBonus
		boosts.Player1Boost = true
		boosts.BoostReason1 = fmt.Sprintf("%s has a boost against %q", p1.Card.Name, target)
	}
	if target, ok := boostMatch(p2.Card.Boost, p1.Card.Name); ok {
		damage2 += boostBonus
		boosts.Player2Boost = true
		boosts.BoostReason2 = fmt.Sprintf("%s has a boost against %q", p2.Card.Name, target)
	}

	if p1.Support != nil && p1.Support.Type == catalog.TypeSupport {
		damage1 = int(float64(damage1) * supportMultiplier(p1.Card, p1.Support))
		healing1 = int(float64(baseHeal) * healMultiplier(p1.Support))
	}
	if p2.Support != nil && p2.Support.Type == catalog.TypeSupport {
		damage2 = int(float64(damage2) * supportMultiplier(p2.Card, p2.Support))
		healing2 = int(float64(baseHeal) * healMultiplier(p2.Support))
	}

	// Damage lands on the opposing battle card first; anything past its
	// remaining hp overflows onto the opposing player. The card itself
	// never absorbs more than its hp.
	damageToCard2 := max(0, damage1)
	overflowToPlayer2 := 0
	if damageToCard2 >= card2HP {
		overflowToPlayer2 = damageToCard2 - card2HP
		card2HP = 0
	} else {
		card2HP -= damageToCard2
	}

	damageToCard1 := max(0, damage2)
	overflowToPlayer1 := 0
	if damageToCard1 >= card1HP {
		overflowToPlayer1 = damageToCard1 - card1HP
		card1HP = 0
	} else {
		card1HP -= damageToCard1
	}

	hp1 := clampHP(p1.HP - overflowToPlayer1 + healing1)
	hp2 := clampHP(p2.HP - overflowToPlayer2 + healing2)

	var winner *PlayerRef
	total1 := damageToCard2 + overflowToPlayer2
	total2 := damageToCard1 + overflowToPlayer1
	switch {
	case total1 > total2:
		winner = &PlayerRef{ID: p1.ID, Name: p1.Name}
	case total2 > total1:
		winner = &PlayerRef{ID: p2.ID, Name: p2.Name}
	}

	return &RoundResult{
		Player1: FighterResult{
			ID: p1.ID, Name: p1.Name, Card: p1.Card, Support: p1.Support,
			DamageDealt:       damage1,
			CardDamageTaken:   damageToCard1,
			PlayerDamageTaken: overflowToPlayer1,
			Healed:            healing1,
			HP:                hp1,
			CardSurvived:      card1HP > 0,
		},
		Player2: FighterResult{
			ID: p2.ID, Name: p2.Name, Card: p2.Card, Support: p2.Support,
			DamageDealt:       damage2,
			CardDamageTaken:   damageToCard2,
			PlayerDamageTaken: overflowToPlayer2,
			Healed:            healing2,
			HP:                hp2,
			CardSurvived:      card2HP > 0,
		},
		RoundWinner: winner,
		Counters:    counters,
		Boosts:      boosts,
		GameOver:    hp1 <= 0 || hp2 <= 0,
	}
}

// boostMatch returns the first declared target that is a
// case-insensitive substring of the opposing card's name.
func boostMatch(targets []string, opponentName string) (string, bool) {
	lower := strings.ToLower(opponentName)
	for _, target := range targets {
		if strings.Contains(lower, strings.ToLower(target)) {
			return target, true
		}
	}
	return "", false
}

// supportMultiplier prefers the main card's declared best-support
// pairing; otherwise the support's generic damage multiplier applies.
func supportMultiplier(main, support *catalog.Card) float64 {
	if main.BestSupport != nil && main.BestSupport.ID == support.ID {
		if main.BestSupport.Multiplier != 0 {
			return main.BestSupport.Multiplier
		}
		return 1.5
	}
	if support.BonusDamage != 0 {
		return support.BonusDamage
	}
	return 1
}

func healMultiplier(support *catalog.Card) float64 {
	if support.BonusHeal != 0 {
		return support.BonusHeal
	}
	return 1
}

func clampHP(hp int) int {
	return max(0, min(maxPlayerHP, hp))
}
