package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartyduel/backend/internal/catalog"
)

func TestDealer_HandComposition(t *testing.T) {
	cat := catalog.Default()
	deal := NewDealer(cat, DefaultRules())

	for range 50 {
		hand := deal()
		// Two mains plus however many supports the pool can cover
		// (the default deck only has one).
		require.Len(t, hand, 3)

		mains, supports := 0, 0
		seen := map[int]bool{}
		for _, c := range hand {
			assert.False(t, seen[c.ID], "duplicate card %d in hand", c.ID)
			seen[c.ID] = true
			switch c.Type {
			case catalog.TypeMain:
				mains++
			case catalog.TypeSupport:
				supports++
			}
		}
		assert.Equal(t, 2, mains)
		assert.Equal(t, 1, supports)
	}
}

func TestDealer_DoesNotMutateCatalog(t *testing.T) {
	cat := catalog.Default()
	firstMain := cat.Mains[0].ID
	deal := NewDealer(cat, DefaultRules())

	for range 50 {
		deal()
	}
	assert.Equal(t, firstMain, cat.Mains[0].ID)
}

func TestDealer_CountsRespectSmallPools(t *testing.T) {
	cat := &catalog.Catalog{
		Mains:    []catalog.Card{{ID: 1, Name: "Solo", Type: catalog.TypeMain}},
		Supports: nil,
		Counters: map[int][]int{},
	}
	deal := NewDealer(cat, DefaultRules())
	hand := deal()
	require.Len(t, hand, 1)
	assert.Equal(t, 1, hand[0].ID)
}
