// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// DeckSize is the number of cards in a full deck.
const DeckSize = 108

// Deck holds the draw pile and the discard pile. The last element of the
// discard pile is the top card; draws pop from the end of the draw pile.
type Deck struct {
	drawPile    []models.Card
	discardPile []models.Card
	rng         *rand.Rand
}

// NewDeck returns an empty deck that shuffles with rng.
func NewDeck(rng *rand.Rand) *Deck {
	return &Deck{rng: rng}
}

// Build replaces both piles with a fresh, unshuffled 108-card population.
func (d *Deck) Build() {
	cards := make([]models.Card, 0, DeckSize)
	add := func(color models.Color, kind models.Kind, value int) {
		cards = append(cards, models.Card{ID: uuid.New(), Color: color, Kind: kind, Value: value})
	}
	for _, color := range models.Colors {
		add(color, models.KindNumber, 0)
		for v := 1; v <= 9; v++ {
			add(color, models.KindNumber, v)
			add(color, models.KindNumber, v)
		}
		for _, kind := range []models.Kind{models.KindSkip, models.KindReverse, models.KindDrawTwo} {
			add(color, kind, models.NoValue)
			add(color, kind, models.NoValue)
		}
	}
	for i := 0; i < 4; i++ {
		add(models.ColorNone, models.KindWild, models.NoValue)
		add(models.ColorNone, models.KindWildDrawFour, models.NoValue)
	}
	d.drawPile = cards
	d.discardPile = nil
}

// Shuffle permutes the draw pile uniformly (Fisher-Yates).
func (d *Deck) Shuffle() {
	for i := len(d.drawPile) - 1; i > 0; i-- {
		j := d.rng.Intn(i + 1)
		d.drawPile[i], d.drawPile[j] = d.drawPile[j], d.drawPile[i]
	}
}

// Draw pops one card, recycling the discard pile first when the draw pile is
// empty. ok is false only when both piles are exhausted.
func (d *Deck) Draw() (card models.Card, ok bool) {
	if len(d.drawPile) == 0 {
		d.Recycle()
	}
	if len(d.drawPile) == 0 {
		return models.Card{}, false
	}
	last := len(d.drawPile) - 1
	card = d.drawPile[last]
	d.drawPile = d.drawPile[:last]
	return card, true
}

// DrawMany draws up to n cards. Fewer are returned on exhaustion.
func (d *Deck) DrawMany(n int) []models.Card {
	out := make([]models.Card, 0, n)
	for i := 0; i < n; i++ {
		c, ok := d.Draw()
		if !ok {
			break
		}
		out = append(out, c)
	}
	return out
}

// Discard puts card on top of the discard pile.
func (d *Deck) Discard(card models.Card) {
	d.discardPile = append(d.discardPile, card)
}

// Top returns the current top card of the discard pile.
func (d *Deck) Top() (models.Card, bool) {
	if len(d.discardPile) == 0 {
		return models.Card{}, false
	}
	return d.discardPile[len(d.discardPile)-1], true
}

// Recycle moves every discarded card except the top back into the draw pile
// and shuffles it.
func (d *Deck) Recycle() {
	if len(d.discardPile) <= 1 {
		return
	}
	last := len(d.discardPile) - 1
	top := d.discardPile[last]
	d.drawPile = append(d.drawPile, d.discardPile[:last]...)
	d.discardPile = []models.Card{top}
	d.Shuffle()
}

// returnToDrawPile puts a drawn card back and reshuffles. Used for the
// initial flip.
func (d *Deck) returnToDrawPile(card models.Card) {
	d.drawPile = append(d.drawPile, card)
	d.Shuffle()
}

func (d *Deck) DrawPileSize() int    { return len(d.drawPile) }
func (d *Deck) DiscardPileSize() int { return len(d.discardPile) }

// cards calls fn for every card held in either pile.
func (d *Deck) cards(fn func(models.Card)) {
	for _, c := range d.drawPile {
		fn(c)
	}
	for _, c := range d.discardPile {
		fn(c)
	}
}
