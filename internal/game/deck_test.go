package game

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildComposition(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(1)))
	d.Build()
	require.Equal(t, DeckSize, d.DrawPileSize())
	assert.Equal(t, 0, d.DiscardPileSize())

	ids := map[uuid.UUID]bool{}
	perColor := map[models.Color]int{}
	numbers := map[models.Color]map[int]int{}
	actions := map[models.Color]map[models.Kind]int{}
	wilds := map[models.Kind]int{}
	for _, c := range d.drawPile {
		require.False(t, ids[c.ID], "duplicate id %s", c.ID)
		ids[c.ID] = true

		if c.Kind.IsWild() {
			assert.Equal(t, models.ColorNone, c.Color)
			assert.Equal(t, models.NoValue, c.Value)
			wilds[c.Kind]++
			continue
		}
		require.True(t, c.Color.Concrete())
		perColor[c.Color]++
		if c.Kind == models.KindNumber {
			if numbers[c.Color] == nil {
				numbers[c.Color] = map[int]int{}
			}
			numbers[c.Color][c.Value]++
		} else {
			assert.Equal(t, models.NoValue, c.Value)
			if actions[c.Color] == nil {
				actions[c.Color] = map[models.Kind]int{}
			}
			actions[c.Color][c.Kind]++
		}
	}

	for _, color := range models.Colors {
		assert.Equal(t, 25, perColor[color], "color %s", color)
		assert.Equal(t, 1, numbers[color][0])
		for v := 1; v <= 9; v++ {
			assert.Equal(t, 2, numbers[color][v], "%s %d", color, v)
		}
		for _, k := range []models.Kind{models.KindSkip, models.KindReverse, models.KindDrawTwo} {
			assert.Equal(t, 2, actions[color][k], "%s %s", color, k)
		}
	}
	assert.Equal(t, 4, wilds[models.KindWild])
	assert.Equal(t, 4, wilds[models.KindWildDrawFour])
}

func TestShuffleKeepsPopulation(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(7)))
	d.Build()
	before := map[uuid.UUID]bool{}
	for _, c := range d.drawPile {
		before[c.ID] = true
	}
	d.Shuffle()
	require.Len(t, d.drawPile, DeckSize)
	for _, c := range d.drawPile {
		assert.True(t, before[c.ID])
	}
}

func TestDrawRecyclesKeepingTopCard(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(3)))
	d.Build()
	d.Shuffle()
	for d.DrawPileSize() > 0 {
		c, ok := d.Draw()
		require.True(t, ok)
		d.Discard(c)
	}
	top, _ := d.Top()

	c, ok := d.Draw()
	require.True(t, ok)
	assert.NotEqual(t, top.ID, c.ID)
	assert.Equal(t, 1, d.DiscardPileSize())
	assert.Equal(t, DeckSize-2, d.DrawPileSize())

	still, _ := d.Top()
	assert.Equal(t, top.ID, still.ID)
}

func TestDrawExhausted(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(3)))
	_, ok := d.Draw()
	assert.False(t, ok)

	d.Discard(models.Card{ID: uuid.New(), Color: models.ColorRed, Kind: models.KindNumber, Value: 4})
	_, ok = d.Draw()
	assert.False(t, ok, "the top card is never recycled")
	assert.Empty(t, d.DrawMany(3))
	assert.Equal(t, 1, d.DiscardPileSize())
}

func TestDrawManyStopsAtExhaustion(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(3)))
	d.Build()
	got := d.DrawMany(DeckSize + 5)
	assert.Len(t, got, DeckSize)
	assert.Equal(t, 0, d.DrawPileSize())
}
