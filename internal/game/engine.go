// internal/game/engine.go
package game

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// State is the lifecycle phase of an Engine.
type State string

const (
	StateWaiting  State = "WAITING"
	StatePlaying  State = "PLAYING"
	StateFinished State = "FINISHED"
)

// Action names the kind of move an Outcome describes.
type Action string

const (
	ActionPlay         Action = "play"
	ActionDraw         Action = "draw"
	ActionAccept       Action = "accept" // target took the wild draw four without challenging
	ActionChallenge    Action = "challenge"
	ActionCallUno      Action = "call_uno"
	ActionChallengeUno Action = "challenge_uno"
)

// PendingChallenge is the open window after a wild draw four during which only
// the target may act. The bluff flag is never serialized.
type PendingChallenge struct {
	SourceID               uuid.UUID    `json:"sourceId"`
	TargetID               uuid.UUID    `json:"targetId"`
	ColorAtPlay            models.Color `json:"colorAtPlay"`
	SourceHadMatchingColor bool         `json:"-"`
}

// ChallengeResolution reports how a pending wild draw four was closed.
type ChallengeResolution struct {
	SourceID    uuid.UUID `json:"sourceId"`
	TargetID    uuid.UUID `json:"targetId"`
	Challenged  bool      `json:"challenged"`
	BluffProven bool      `json:"bluffProven"`
	PenalizedID uuid.UUID `json:"penalizedId"`
	Penalty     int       `json:"penalty"`
}

// Result is produced exactly once, when the engine reaches StateFinished.
// WinnerID is nil when a game was force-finished with nobody left.
type Result struct {
	WinnerID *uuid.UUID        `json:"winnerId"`
	Scores   map[uuid.UUID]int `json:"scores"`
}

// Outcome describes what a successful action changed.
type Outcome struct {
	Action   Action
	PlayerID uuid.UUID
	TimedOut bool

	Card      *models.Card
	Effect    models.Kind
	SkippedID *uuid.UUID
	Reversed  bool
	TargetID  *uuid.UUID

	// Drawn holds the cards that entered each hand during this action.
	Drawn     map[uuid.UUID][]models.Card
	Exhausted bool

	Opened   *PendingChallenge
	Resolved *ChallengeResolution
	Result   *Result
}

// Changed lists every player whose hand differs after the action.
func (o *Outcome) Changed() []uuid.UUID {
	ids := []uuid.UUID{o.PlayerID}
	for id := range o.Drawn {
		if id != o.PlayerID {
			ids = append(ids, id)
		}
	}
	return ids
}

// Engine is the turn state machine for one game. It is not safe for concurrent
// use; callers serialize access.
type Engine struct {
	deck *Deck
	rng  *rand.Rand

	order     []uuid.UUID
	hands     map[uuid.UUID][]models.Card
	current   int
	direction int
	override  models.Color

	pending *PendingChallenge
	unoSafe map[uuid.UUID]struct{}

	state  State
	turn   uint64
	result *Result
}

// NewEngine creates a waiting engine. rng drives every shuffle, so a seeded
// source makes a game reproducible.
func NewEngine(rng *rand.Rand) *Engine {
	return &Engine{
		deck:      NewDeck(rng),
		rng:       rng,
		hands:     make(map[uuid.UUID][]models.Card),
		unoSafe:   make(map[uuid.UUID]struct{}),
		direction: 1,
		override:  models.ColorNone,
		state:     StateWaiting,
	}
}

// Start deals a new game to players in seat order. The first flip is always a
// number card: anything else goes back into the draw pile, which is reshuffled
// before flipping again. Seat 0 moves first, clockwise, with no starting effect.
func (e *Engine) Start(players []uuid.UUID) error {
	if e.state != StateWaiting {
		return ErrAlreadyStarted
	}
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return ErrInsufficientPlayers
	}

	e.deck.Build()
	e.deck.Shuffle()

	e.order = append([]uuid.UUID(nil), players...)
	for _, id := range e.order {
		e.hands[id] = make([]models.Card, 0, InitialHandSize)
	}
	for round := 0; round < InitialHandSize; round++ {
		for _, id := range e.order {
			c, _ := e.deck.Draw()
			e.hands[id] = append(e.hands[id], c)
		}
	}

	for {
		c, _ := e.deck.Draw()
		if c.Kind == models.KindNumber {
			e.deck.Discard(c)
			break
		}
		e.deck.returnToDrawPile(c)
	}

	e.current = 0
	e.direction = 1
	e.override = models.ColorNone
	e.state = StatePlaying
	e.turn++
	return nil
}

// PlayCard plays cardID from playerID's hand. chosen is required for
// wild-family cards and ignored otherwise.
func (e *Engine) PlayCard(playerID, cardID uuid.UUID, chosen models.Color) (*Outcome, error) {
	if err := e.requirePlayer(playerID); err != nil {
		return nil, err
	}
	if e.pending != nil {
		return nil, ErrChallengePending
	}
	if playerID != e.order[e.current] {
		return nil, ErrNotYourTurn
	}

	hand := e.hands[playerID]
	idx := -1
	for i, c := range hand {
		if c.ID == cardID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrCardNotHeld
	}
	card := hand[idx]
	top, _ := e.deck.Top()
	prevColor := e.ActiveColor()
	if !LegalToPlay(card, top, prevColor) {
		return nil, ErrIllegalMove
	}
	if card.Kind.IsWild() && !chosen.Concrete() {
		return nil, ErrColorRequired
	}

	e.hands[playerID] = append(hand[:idx:idx], hand[idx+1:]...)
	e.deck.Discard(card)
	if card.Kind.IsWild() {
		e.override = chosen
	} else {
		e.override = models.ColorNone
	}
	e.handChanged(playerID)

	out := &Outcome{Action: ActionPlay, PlayerID: playerID, Card: &card, Effect: card.Kind}
	effects[card.Kind](e, playerID, prevColor, out)
	e.turn++

	if len(e.hands[playerID]) == 0 && e.pending == nil {
		out.Result = e.finish(&playerID)
	}
	return out, nil
}

// DrawCard draws one card for the current player and passes the turn. When a
// wild draw four is pending against playerID it accepts the penalty instead.
func (e *Engine) DrawCard(playerID uuid.UUID) (*Outcome, error) {
	if err := e.requirePlayer(playerID); err != nil {
		return nil, err
	}
	if e.pending != nil {
		if playerID != e.pending.TargetID {
			return nil, ErrChallengePending
		}
		return e.accept(), nil
	}
	if playerID != e.order[e.current] {
		return nil, ErrNotYourTurn
	}

	out := &Outcome{Action: ActionDraw, PlayerID: playerID}
	e.give(playerID, 1, out)
	e.advance(1)
	e.turn++
	return out, nil
}

func (e *Engine) accept() *Outcome {
	p := e.pending
	e.pending = nil

	out := &Outcome{Action: ActionAccept, PlayerID: p.TargetID}
	e.give(p.TargetID, WildDrawFourPenalty, out)
	out.Resolved = &ChallengeResolution{
		SourceID:    p.SourceID,
		TargetID:    p.TargetID,
		PenalizedID: p.TargetID,
		Penalty:     WildDrawFourPenalty,
	}
	e.turn++
	if len(e.hands[p.SourceID]) == 0 {
		out.Result = e.finish(&p.SourceID)
		return out
	}
	e.advance(2)
	return out
}

// Challenge contests the pending wild draw four. Only its target may call it.
func (e *Engine) Challenge(playerID uuid.UUID) (*Outcome, error) {
	if err := e.requirePlayer(playerID); err != nil {
		return nil, err
	}
	p := e.pending
	if p == nil {
		return nil, ErrNoChallenge
	}
	if playerID != p.TargetID {
		return nil, ErrNotChallengeTarget
	}
	e.pending = nil

	out := &Outcome{Action: ActionChallenge, PlayerID: playerID}
	res := &ChallengeResolution{SourceID: p.SourceID, TargetID: p.TargetID, Challenged: true}
	out.Resolved = res
	e.turn++

	if p.SourceHadMatchingColor {
		sourceWasEmpty := len(e.hands[p.SourceID]) == 0
		e.give(p.SourceID, WildDrawFourPenalty, out)
		res.BluffProven = true
		res.PenalizedID = p.SourceID
		res.Penalty = WildDrawFourPenalty
		e.advance(1)
		if sourceWasEmpty {
			out.Result = e.finish(&p.SourceID)
		}
		return out, nil
	}

	penalty := WildDrawFourPenalty + FailedChallengeExtra
	e.give(playerID, penalty, out)
	res.PenalizedID = playerID
	res.Penalty = penalty
	e.advance(2)
	if len(e.hands[p.SourceID]) == 0 {
		out.Result = e.finish(&p.SourceID)
	}
	return out, nil
}

// CallUno marks playerID as having declared while holding two or fewer cards.
func (e *Engine) CallUno(playerID uuid.UUID) (*Outcome, error) {
	if err := e.requirePlayer(playerID); err != nil {
		return nil, err
	}
	if len(e.hands[playerID]) > 2 {
		return nil, ErrCannotCallUno
	}
	e.unoSafe[playerID] = struct{}{}
	return &Outcome{Action: ActionCallUno, PlayerID: playerID}, nil
}

// ChallengeUno penalizes targetID for sitting on one card without declaring.
// The target is marked safe afterwards so the same lapse is punished once.
func (e *Engine) ChallengeUno(challengerID, targetID uuid.UUID) (*Outcome, error) {
	if err := e.requirePlayer(challengerID); err != nil {
		return nil, err
	}
	if _, ok := e.hands[targetID]; !ok {
		return nil, ErrUnknownPlayer
	}
	if challengerID == targetID {
		return nil, ErrInvalidTarget
	}
	if e.IsUnoSafe(targetID) {
		return nil, ErrAlreadySafe
	}
	if len(e.hands[targetID]) != 1 {
		return nil, ErrUnoNotApplicable
	}

	out := &Outcome{Action: ActionChallengeUno, PlayerID: challengerID, TargetID: &targetID}
	e.give(targetID, UnoPenalty, out)
	e.unoSafe[targetID] = struct{}{}
	return out, nil
}

// HandleTimeout resolves an expired turn as a draw, or as accepting a pending
// wild draw four when playerID is its target.
func (e *Engine) HandleTimeout(playerID uuid.UUID) (*Outcome, error) {
	if err := e.requirePlayer(playerID); err != nil {
		return nil, err
	}
	if playerID != e.Actor() {
		return nil, ErrNotYourTurn
	}
	out, err := e.DrawCard(playerID)
	if err != nil {
		return nil, err
	}
	out.TimedOut = true
	return out, nil
}

// ForceFinish ends a game in progress, crediting winner (which may be nil).
func (e *Engine) ForceFinish(winner *uuid.UUID) *Result {
	if e.state != StatePlaying {
		return e.result
	}
	e.pending = nil
	e.turn++
	return e.finish(winner)
}

func (e *Engine) finish(winner *uuid.UUID) *Result {
	scores := make(map[uuid.UUID]int, len(e.order))
	total := 0
	for _, id := range e.order {
		if winner != nil && id == *winner {
			continue
		}
		s := HandScore(e.hands[id])
		scores[id] = s
		total += s
	}
	var winnerID *uuid.UUID
	if winner != nil {
		w := *winner
		winnerID = &w
		scores[w] = total
	}
	e.state = StateFinished
	e.result = &Result{WinnerID: winnerID, Scores: scores}
	return e.result
}

func (e *Engine) requirePlayer(id uuid.UUID) error {
	switch e.state {
	case StateWaiting:
		return ErrGameNotStarted
	case StateFinished:
		return ErrGameOver
	}
	if _, ok := e.hands[id]; !ok {
		return ErrUnknownPlayer
	}
	return nil
}

// give draws n cards into id's hand, recording them on out.
func (e *Engine) give(id uuid.UUID, n int, out *Outcome) {
	cards := e.deck.DrawMany(n)
	if len(cards) < n {
		out.Exhausted = true
	}
	e.hands[id] = append(e.hands[id], cards...)
	if out.Drawn == nil {
		out.Drawn = make(map[uuid.UUID][]models.Card)
	}
	out.Drawn[id] = append(out.Drawn[id], cards...)
	e.handChanged(id)
}

// handChanged drops the uno declaration once a hand holds more than one card.
func (e *Engine) handChanged(id uuid.UUID) {
	if len(e.hands[id]) > 1 {
		delete(e.unoSafe, id)
	}
}

func (e *Engine) seat(offset int) int {
	n := len(e.order)
	return ((e.current+e.direction*offset)%n + n) % n
}

func (e *Engine) advance(steps int) {
	e.current = e.seat(steps)
}

// Verify checks card conservation and that no card id appears twice.
func (e *Engine) Verify() error {
	if e.state == StateWaiting {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, DeckSize)
	var dup *models.Card
	count := func(c models.Card) {
		if _, ok := seen[c.ID]; ok && dup == nil {
			cc := c
			dup = &cc
		}
		seen[c.ID] = struct{}{}
	}
	e.deck.cards(count)
	for _, id := range e.order {
		for _, c := range e.hands[id] {
			count(c)
		}
	}
	if dup != nil {
		return fmt.Errorf("duplicate card %s (%s)", dup.ID, dup)
	}
	if len(seen) != DeckSize {
		return fmt.Errorf("card count is %d, expected %d", len(seen), DeckSize)
	}
	return nil
}

// --- read-only queries ---

func (e *Engine) State() State { return e.state }

// Turn is a token that changes every time the actor may have changed.
func (e *Engine) Turn() uint64 { return e.turn }

// Actor is the only player who may take a turn action right now: the pending
// challenge target if there is one, else the seat whose turn it is.
func (e *Engine) Actor() uuid.UUID {
	if e.state != StatePlaying {
		return uuid.Nil
	}
	if e.pending != nil {
		return e.pending.TargetID
	}
	return e.order[e.current]
}

func (e *Engine) Direction() int { return e.direction }

// ActiveColor is the declared override after a wild, else the top card's color.
func (e *Engine) ActiveColor() models.Color {
	if e.override != models.ColorNone {
		return e.override
	}
	top, ok := e.deck.Top()
	if !ok {
		return models.ColorNone
	}
	return top.Color
}

func (e *Engine) TopCard() (models.Card, bool) { return e.deck.Top() }

func (e *Engine) Players() []uuid.UUID { return append([]uuid.UUID(nil), e.order...) }

// Hand returns a copy of id's hand.
func (e *Engine) Hand(id uuid.UUID) []models.Card {
	return append([]models.Card(nil), e.hands[id]...)
}

func (e *Engine) HandSize(id uuid.UUID) int { return len(e.hands[id]) }

func (e *Engine) IsUnoSafe(id uuid.UUID) bool {
	_, ok := e.unoSafe[id]
	return ok
}

// Pending returns a copy of the open challenge, or nil.
func (e *Engine) Pending() *PendingChallenge {
	if e.pending == nil {
		return nil
	}
	p := *e.pending
	return &p
}

func (e *Engine) Result() *Result { return e.result }

func (e *Engine) DrawPileSize() int    { return e.deck.DrawPileSize() }
func (e *Engine) DiscardPileSize() int { return e.deck.DiscardPileSize() }
