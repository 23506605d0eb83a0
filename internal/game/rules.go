// internal/game/rules.go
package game

import "github.com/jason-s-yu/uno/internal/models"

const (
	MinPlayers      = 2
	MaxPlayers      = 10
	InitialHandSize = 7

	DrawTwoPenalty       = 2
	WildDrawFourPenalty  = 4
	FailedChallengeExtra = 2 // added on top of WildDrawFourPenalty for a lost challenge
	UnoPenalty           = 2

	actionCardScore = 20
	wildCardScore   = 50
)

// LegalToPlay reports whether card may be played onto top while active is the
// color in force. Wild-family cards are always legal.
func LegalToPlay(card, top models.Card, active models.Color) bool {
	if card.Kind.IsWild() {
		return true
	}
	if card.Color == active {
		return true
	}
	if card.Kind == models.KindNumber {
		return top.Kind == models.KindNumber && card.Value == top.Value
	}
	return card.Kind == top.Kind
}

// CardScore is the points a card is worth when left in a losing hand.
func CardScore(c models.Card) int {
	switch {
	case c.Kind == models.KindNumber:
		return c.Value
	case c.Kind.IsWild():
		return wildCardScore
	default:
		return actionCardScore
	}
}

func HandScore(hand []models.Card) int {
	total := 0
	for _, c := range hand {
		total += CardScore(c)
	}
	return total
}
