// internal/game/effects.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// effectFunc resolves a played card after it reaches the discard pile.
// prevColor is the color that was active before the play.
type effectFunc func(e *Engine, playerID uuid.UUID, prevColor models.Color, out *Outcome)

var effects = map[models.Kind]effectFunc{
	models.KindNumber:       passTurn,
	models.KindWild:         passTurn,
	models.KindSkip:         skipNext,
	models.KindReverse:      reverseDirection,
	models.KindDrawTwo:      drawTwo,
	models.KindWildDrawFour: openWildDrawFour,
}

func passTurn(e *Engine, _ uuid.UUID, _ models.Color, _ *Outcome) {
	e.advance(1)
}

func skipNext(e *Engine, _ uuid.UUID, _ models.Color, out *Outcome) {
	skipped := e.order[e.seat(1)]
	out.SkippedID = &skipped
	e.advance(2)
}

// With two players reverse is a skip.
func reverseDirection(e *Engine, playerID uuid.UUID, prevColor models.Color, out *Outcome) {
	if len(e.order) == 2 {
		skipNext(e, playerID, prevColor, out)
		return
	}
	e.direction = -e.direction
	out.Reversed = true
	e.advance(1)
}

func drawTwo(e *Engine, _ uuid.UUID, _ models.Color, out *Outcome) {
	e.advance(1)
	target := e.order[e.current]
	out.TargetID = &target
	out.SkippedID = &target
	e.give(target, DrawTwoPenalty, out)
	e.advance(1)
}

// openWildDrawFour defers the penalty: the next seat must accept or challenge.
// The turn stays with the player who played it until then.
func openWildDrawFour(e *Engine, playerID uuid.UUID, prevColor models.Color, out *Outcome) {
	target := e.order[e.seat(1)]
	hadMatch := false
	for _, c := range e.hands[playerID] {
		if c.Color == prevColor {
			hadMatch = true
			break
		}
	}
	e.pending = &PendingChallenge{
		SourceID:               playerID,
		TargetID:               target,
		ColorAtPlay:            prevColor,
		SourceHadMatchingColor: hadMatch,
	}
	out.TargetID = &target
	p := *e.pending
	out.Opened = &p
}
