// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// PublicSeat is one player's state as every other player may see it.
type PublicSeat struct {
	PlayerID  uuid.UUID `json:"playerId"`
	CardCount int       `json:"cardCount"`
	UnoSafe   bool      `json:"unoSafe"`
	IsCurrent bool      `json:"isCurrent"`
}

// PublicState is a snapshot that never includes hand contents.
type PublicState struct {
	State           State             `json:"state"`
	Turn            uint64            `json:"turn"`
	Seats           []PublicSeat      `json:"seats"`
	CurrentPlayerID *uuid.UUID        `json:"currentPlayerId,omitempty"`
	ActorID         *uuid.UUID        `json:"actorId,omitempty"`
	Direction       int               `json:"direction"`
	TopCard         *models.Card      `json:"topCard,omitempty"`
	ActiveColor     models.Color      `json:"activeColor"`
	DrawPileSize    int               `json:"drawPileSize"`
	DiscardPileSize int               `json:"discardPileSize"`
	Pending         *PendingChallenge `json:"pendingChallenge,omitempty"`
	Result          *Result           `json:"result,omitempty"`
}

// PublicState builds the shared snapshot of the game.
func (e *Engine) PublicState() PublicState {
	ps := PublicState{
		State:           e.state,
		Turn:            e.turn,
		Direction:       e.direction,
		ActiveColor:     e.ActiveColor(),
		DrawPileSize:    e.deck.DrawPileSize(),
		DiscardPileSize: e.deck.DiscardPileSize(),
		Pending:         e.Pending(),
		Result:          e.result,
	}
	if top, ok := e.deck.Top(); ok {
		ps.TopCard = &top
	}
	if e.state == StatePlaying {
		cur := e.order[e.current]
		actor := e.Actor()
		ps.CurrentPlayerID = &cur
		ps.ActorID = &actor
	}
	ps.Seats = make([]PublicSeat, 0, len(e.order))
	for i, id := range e.order {
		ps.Seats = append(ps.Seats, PublicSeat{
			PlayerID:  id,
			CardCount: len(e.hands[id]),
			UnoSafe:   e.IsUnoSafe(id),
			IsCurrent: e.state == StatePlaying && i == e.current,
		})
	}
	return ps
}
