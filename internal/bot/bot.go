// internal/bot/bot.go
package bot

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// Opponent is what a bot may know about another seat.
type Opponent struct {
	ID        uuid.UUID
	CardCount int
	UnoSafe   bool
}

// View is the read-only slice of game state handed to a bot.
type View struct {
	Hand        []models.Card
	TopCard     models.Card
	ActiveColor models.Color
	Opponents   []Opponent
	// ChallengeTarget is true while a wild draw four is pending against the bot.
	ChallengeTarget bool
}

// MoveAction is the turn action a bot proposes.
type MoveAction string

const (
	MoveDraw      MoveAction = "draw"
	MovePlay      MoveAction = "play"
	MoveAccept    MoveAction = "accept"
	MoveChallenge MoveAction = "challenge"
)

// Move is always complete: a play carries a legal card and, for wilds, a
// concrete color.
type Move struct {
	Action MoveAction
	CardID uuid.UUID
	Color  models.Color

	// CallUno is set when the bot declares before playing.
	CallUno bool
	// ChallengeUno names an opponent caught on one undeclared card.
	ChallengeUno *uuid.UUID
}

// Bot is an automated seat. It keeps no game state between decisions and is
// not safe for concurrent use.
type Bot struct {
	ID         uuid.UUID
	Name       string
	Difficulty Difficulty

	profile Profile
	rng     *rand.Rand
}

// New creates a bot with a random name. rng may be nil.
func New(d Difficulty, rng *rand.Rand) *Bot {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Bot{
		ID:         uuid.New(),
		Name:       botNames[rng.Intn(len(botNames))],
		Difficulty: d,
		profile:    ProfileFor(d),
		rng:        rng,
	}
}

// Player returns the seat entry for this bot.
func (b *Bot) Player() *models.Player {
	return &models.Player{ID: b.ID, DisplayName: b.Name, IsBot: true, Connected: true}
}

// ThinkTime is the delay before the bot acts, jittered per call.
func (b *Bot) ThinkTime() time.Duration {
	d := b.profile.ThinkTime
	if b.profile.Jitter > 0 {
		d += time.Duration(b.rng.Int63n(int64(b.profile.Jitter)))
	}
	return d
}

// Decide proposes the bot's next move.
func (b *Bot) Decide(v View) Move {
	if v.ChallengeTarget {
		if b.rng.Float64() < b.profile.ChallengeWD {
			return Move{Action: MoveChallenge}
		}
		return Move{Action: MoveAccept}
	}

	var mv Move
	smart := b.rng.Float64() < b.profile.SmartChance
	if smart {
		mv.ChallengeUno = exposedOpponent(v.Opponents)
	}

	legal := legalCards(v)
	if len(legal) == 0 {
		mv.Action = MoveDraw
		return mv
	}

	var chosen models.Card
	if smart {
		chosen = smartPick(legal, v)
	} else {
		chosen = legal[b.rng.Intn(len(legal))]
	}
	mv.Action = MovePlay
	mv.CardID = chosen.ID
	if chosen.Kind.IsWild() {
		mv.Color = b.pickColor(v.Hand, chosen.ID)
	}
	mv.CallUno = b.shouldCallUno(len(v.Hand))
	return mv
}

func (b *Bot) shouldCallUno(handSize int) bool {
	if handSize > 2 {
		return false
	}
	return b.rng.Float64() >= b.profile.ForgetUno
}

// pickColor declares the most common color left in hand after played is
// gone, choosing randomly when only wilds remain.
func (b *Bot) pickColor(hand []models.Card, played uuid.UUID) models.Color {
	counts := map[models.Color]int{}
	for _, c := range hand {
		if c.ID != played && c.Color.Concrete() {
			counts[c.Color]++
		}
	}
	best, bestN := models.ColorNone, 0
	for _, color := range models.Colors {
		if counts[color] > bestN {
			best, bestN = color, counts[color]
		}
	}
	if bestN == 0 {
		return models.Colors[b.rng.Intn(len(models.Colors))]
	}
	return best
}
