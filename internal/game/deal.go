package game

import (
	"math/rand/v2"

	"github.com/kartyduel/backend/internal/catalog"
)

// DealFunc produces a fresh random hand. Kept as a function value so
// tests can substitute fixed hands.
type DealFunc func() []catalog.Card

// NewDealer builds the default dealer for a catalog: both pools are
// shuffled independently, the configured count is taken from each, and
// the combined hand is shuffled again so category order is hidden.
func NewDealer(cat *catalog.Catalog, rules Rules) DealFunc {
	return func() []catalog.Card {
		mains := shuffled(cat.Mains)
		supports := shuffled(cat.Supports)

		hand := make([]catalog.Card, 0, rules.MainPerHand+rules.SupportPerHand)
		hand = append(hand, mains[:min(rules.MainPerHand, len(mains))]...)
		hand = append(hand, supports[:min(rules.SupportPerHand, len(supports))]...)

		rand.Shuffle(len(hand), func(i, j int) {
			hand[i], hand[j] = hand[j], hand[i]
		})
		return hand
	}
}

func shuffled(pool []catalog.Card) []catalog.Card {
	out := make([]catalog.Card, len(pool))
	copy(out, pool)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
