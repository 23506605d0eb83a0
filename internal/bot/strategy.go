package bot

import (
	"sort"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
)

func legalCards(v View) []models.Card {
	var out []models.Card
	for _, c := range v.Hand {
		if game.LegalToPlay(c, v.TopCard, v.ActiveColor) {
			out = append(out, c)
		}
	}
	return out
}

func exposedOpponent(opps []Opponent) *uuid.UUID {
	for _, o := range opps {
		if o.CardCount == 1 && !o.UnoSafe {
			id := o.ID
			return &id
		}
	}
	return nil
}

// smartPick applies the heuristic order: punish a near-winning opponent,
// keep tempo when low, dump the dominant color's highest number, then other
// action cards, then wilds.
func smartPick(legal []models.Card, v View) models.Card {
	var draws, tempo, numbers, wilds []models.Card
	for _, c := range legal {
		switch c.Kind {
		case models.KindDrawTwo, models.KindWildDrawFour:
			draws = append(draws, c)
		case models.KindSkip, models.KindReverse:
			tempo = append(tempo, c)
		case models.KindNumber:
			numbers = append(numbers, c)
		case models.KindWild:
			wilds = append(wilds, c)
		}
	}

	opponentClose := false
	for _, o := range v.Opponents {
		if o.CardCount <= 2 {
			opponentClose = true
			break
		}
	}
	if opponentClose && len(draws) > 0 {
		return draws[0]
	}
	if len(v.Hand) <= 3 && len(tempo) > 0 {
		return tempo[0]
	}

	if len(numbers) > 0 {
		sort.SliceStable(numbers, func(i, j int) bool { return numbers[i].Value > numbers[j].Value })
		dominant := dominantColor(v.Hand)
		for _, c := range numbers {
			if c.Color == dominant {
				return c
			}
		}
		return numbers[0]
	}

	for _, c := range append(tempo, draws...) {
		if c.Kind != models.KindWildDrawFour {
			return c
		}
	}
	if len(wilds) > 0 {
		return wilds[0]
	}
	if len(draws) > 0 {
		return draws[0]
	}
	return legal[0]
}

func dominantColor(hand []models.Card) models.Color {
	counts := map[models.Color]int{}
	for _, c := range hand {
		if c.Color.Concrete() {
			counts[c.Color]++
		}
	}
	best, bestN := models.ColorNone, 0
	for _, color := range models.Colors {
		if counts[color] > bestN {
			best, bestN = color, counts[color]
		}
	}
	return best
}
