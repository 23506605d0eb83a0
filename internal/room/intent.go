package room

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// IntentKind is a turn-level player request.
type IntentKind string

const (
	IntentPlay                  IntentKind = "play"
	IntentDraw                  IntentKind = "draw"
	IntentCallUno               IntentKind = "call_uno"
	IntentChallengeUno          IntentKind = "challenge_uno"
	IntentChallengeWildDrawFour IntentKind = "challenge_wild_draw_four"
)

// Intent carries the arguments of a turn-level request. Unused fields are ignored.
type Intent struct {
	Kind     IntentKind
	CardID   uuid.UUID
	Color    models.Color
	TargetID uuid.UUID
}
