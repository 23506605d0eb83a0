package game

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	red    = models.ColorRed
	blue   = models.ColorBlue
	green  = models.ColorGreen
	yellow = models.ColorYellow
)

type cardSpec struct {
	color models.Color
	kind  models.Kind
	value int
}

func num(c models.Color, v int) cardSpec         { return cardSpec{c, models.KindNumber, v} }
func act(c models.Color, k models.Kind) cardSpec { return cardSpec{c, k, models.NoValue} }
func wild() cardSpec                             { return cardSpec{models.ColorNone, models.KindWild, models.NoValue} }
func wildDrawFour() cardSpec {
	return cardSpec{models.ColorNone, models.KindWildDrawFour, models.NoValue}
}

func (s cardSpec) matches(c models.Card) bool {
	return c.Kind == s.kind && c.Color == s.color && c.Value == s.value
}

// newStartedEngine deals a seeded game to n fresh players.
func newStartedEngine(t *testing.T, n int, seed int64) (*Engine, []uuid.UUID) {
	t.Helper()
	e := NewEngine(rand.New(rand.NewSource(seed)))
	players := make([]uuid.UUID, n)
	for i := range players {
		players[i] = uuid.New()
	}
	require.NoError(t, e.Start(players))
	return e, players
}

// take removes a card matching want from anywhere except exclude's hand. A
// card taken from another hand is replaced from the draw pile.
func take(t *testing.T, e *Engine, exclude uuid.UUID, want cardSpec) models.Card {
	t.Helper()
	for i, c := range e.deck.drawPile {
		if want.matches(c) {
			e.deck.drawPile = append(e.deck.drawPile[:i], e.deck.drawPile[i+1:]...)
			return c
		}
	}
	for id, hand := range e.hands {
		if id == exclude {
			continue
		}
		for i, c := range hand {
			if want.matches(c) {
				repl, ok := e.deck.Draw()
				require.True(t, ok)
				hand[i] = repl
				return c
			}
		}
	}
	for i := 0; i < len(e.deck.discardPile)-1; i++ {
		if c := e.deck.discardPile[i]; want.matches(c) {
			e.deck.discardPile = append(e.deck.discardPile[:i], e.deck.discardPile[i+1:]...)
			return c
		}
	}
	t.Fatalf("no %v %v %d left to rig", want.color, want.kind, want.value)
	return models.Card{}
}

// rigHand replaces id's hand with real cards matching specs, in order.
func rigHand(t *testing.T, e *Engine, id uuid.UUID, specs ...cardSpec) []models.Card {
	t.Helper()
	e.deck.drawPile = append(e.deck.drawPile, e.hands[id]...)
	e.hands[id] = nil
	for _, s := range specs {
		e.hands[id] = append(e.hands[id], take(t, e, id, s))
	}
	delete(e.unoSafe, id)
	require.NoError(t, e.Verify())
	return e.Hand(id)
}

func setTop(t *testing.T, e *Engine, s cardSpec) {
	t.Helper()
	e.deck.Discard(take(t, e, uuid.Nil, s))
	e.override = models.ColorNone
	require.NoError(t, e.Verify())
}

func TestStartDealsAndFlipsNumberCard(t *testing.T) {
	for seed := int64(1); seed <= 100; seed++ {
		e, players := newStartedEngine(t, 4, seed)
		for _, id := range players {
			assert.Equal(t, InitialHandSize, e.HandSize(id))
		}
		top, ok := e.TopCard()
		require.True(t, ok)
		require.Equal(t, models.KindNumber, top.Kind, "seed %d", seed)
		assert.Equal(t, top.Color, e.ActiveColor())
		assert.Equal(t, 1, e.DiscardPileSize())
		assert.Equal(t, DeckSize-4*InitialHandSize-1, e.DrawPileSize())
		assert.Equal(t, players[0], e.Actor())
		assert.Equal(t, 1, e.Direction())
		require.NoError(t, e.Verify())
	}
}

func TestStartPlayerBounds(t *testing.T) {
	e := NewEngine(rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, e.Start([]uuid.UUID{uuid.New()}), ErrInsufficientPlayers)

	eleven := make([]uuid.UUID, 11)
	for i := range eleven {
		eleven[i] = uuid.New()
	}
	assert.ErrorIs(t, e.Start(eleven), ErrInsufficientPlayers)
	assert.Equal(t, StateWaiting, e.State())

	require.NoError(t, e.Start(eleven[:10]))
	assert.ErrorIs(t, e.Start(eleven[:2]), ErrAlreadyStarted)
}

func TestActionsBeforeStart(t *testing.T) {
	e := NewEngine(rand.New(rand.NewSource(1)))
	_, err := e.DrawCard(uuid.New())
	assert.ErrorIs(t, err, ErrGameNotStarted)
}

func TestLegalToPlay(t *testing.T) {
	card := func(c models.Color, k models.Kind, v int) models.Card {
		return models.Card{ID: uuid.New(), Color: c, Kind: k, Value: v}
	}
	red5 := card(red, models.KindNumber, 5)

	// top red 5, red active
	assert.True(t, LegalToPlay(card(blue, models.KindNumber, 5), red5, red))
	assert.False(t, LegalToPlay(card(blue, models.KindNumber, 3), red5, red))
	assert.True(t, LegalToPlay(card(models.ColorNone, models.KindWild, models.NoValue), red5, red))
	assert.True(t, LegalToPlay(card(models.ColorNone, models.KindWildDrawFour, models.NoValue), red5, red))
	assert.True(t, LegalToPlay(card(red, models.KindSkip, models.NoValue), red5, red))
	assert.False(t, LegalToPlay(card(green, models.KindSkip, models.NoValue), red5, red))

	blueSkip := card(blue, models.KindSkip, models.NoValue)
	assert.True(t, LegalToPlay(card(yellow, models.KindSkip, models.NoValue), blueSkip, blue))
	assert.False(t, LegalToPlay(card(yellow, models.KindReverse, models.NoValue), blueSkip, blue))

	// after a wild declared green only green or wilds match
	w := card(models.ColorNone, models.KindWild, models.NoValue)
	assert.True(t, LegalToPlay(card(green, models.KindNumber, 2), w, green))
	assert.False(t, LegalToPlay(card(red, models.KindNumber, 2), w, green))
}

func TestRandomPlayPreservesInvariants(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		rng := rand.New(rand.NewSource(seed * 31))
		e, _ := newStartedEngine(t, 2+int(seed%9), seed)

		for step := 0; step < 500 && e.State() == StatePlaying; step++ {
			actor := e.Actor()
			if e.Pending() != nil {
				var err error
				if rng.Intn(2) == 0 {
					_, err = e.Challenge(actor)
				} else {
					_, err = e.DrawCard(actor)
				}
				require.NoError(t, err)
				require.NoError(t, e.Verify())
				continue
			}

			top, _ := e.TopCard()
			var legal []models.Card
			for _, c := range e.Hand(actor) {
				if LegalToPlay(c, top, e.ActiveColor()) {
					legal = append(legal, c)
				}
			}
			if len(legal) == 0 {
				_, err := e.DrawCard(actor)
				require.NoError(t, err)
				require.NoError(t, e.Verify())
				continue
			}

			c := legal[rng.Intn(len(legal))]
			handBefore := e.HandSize(actor)
			discardBefore := e.DiscardPileSize()
			drawBefore := e.DrawPileSize()
			_, err := e.PlayCard(actor, c.ID, models.Colors[rng.Intn(len(models.Colors))])
			require.NoError(t, err)

			assert.Equal(t, handBefore-1, e.HandSize(actor))
			if c.Kind != models.KindDrawTwo || drawBefore >= DrawTwoPenalty {
				assert.Equal(t, discardBefore+1, e.DiscardPileSize())
			}
			require.NoError(t, e.Verify())
		}
	}
}

func TestIllegalActionsLeaveStateUnchanged(t *testing.T) {
	e, p := newStartedEngine(t, 3, 11)
	a, b := p[0], p[1]
	setTop(t, e, num(red, 5))
	hand := rigHand(t, e, a, num(red, 7), num(blue, 3), wild(), num(green, 9))
	bCard := e.Hand(b)[0]

	type snap struct {
		state PublicState
		hands map[uuid.UUID][]models.Card
	}
	capture := func() snap {
		s := snap{state: e.PublicState(), hands: map[uuid.UUID][]models.Card{}}
		for _, id := range p {
			s.hands[id] = e.Hand(id)
		}
		return s
	}
	before := capture()

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"wrong turn", func() error { _, err := e.PlayCard(b, bCard.ID, models.ColorNone); return err }, ErrNotYourTurn},
		{"card not held", func() error { _, err := e.PlayCard(a, bCard.ID, models.ColorNone); return err }, ErrCardNotHeld},
		{"color mismatch", func() error { _, err := e.PlayCard(a, hand[1].ID, models.ColorNone); return err }, ErrIllegalMove},
		{"wild without color", func() error { _, err := e.PlayCard(a, hand[2].ID, models.ColorNone); return err }, ErrColorRequired},
		{"wild with bogus color", func() error { _, err := e.PlayCard(a, hand[2].ID, models.Color("purple")); return err }, ErrColorRequired},
		{"draw out of turn", func() error { _, err := e.DrawCard(b); return err }, ErrNotYourTurn},
		{"challenge with nothing pending", func() error { _, err := e.Challenge(a); return err }, ErrNoChallenge},
		{"uno with four cards", func() error { _, err := e.CallUno(a); return err }, ErrCannotCallUno},
		{"uno challenge on a full hand", func() error { _, err := e.ChallengeUno(b, a); return err }, ErrUnoNotApplicable},
		{"uno challenge on self", func() error { _, err := e.ChallengeUno(a, a); return err }, ErrInvalidTarget},
		{"uno challenge on stranger", func() error { _, err := e.ChallengeUno(a, uuid.New()); return err }, ErrUnknownPlayer},
		{"timeout for non-actor", func() error { _, err := e.HandleTimeout(b); return err }, ErrNotYourTurn},
		{"stranger plays", func() error { _, err := e.PlayCard(uuid.New(), hand[0].ID, models.ColorNone); return err }, ErrUnknownPlayer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			var re *RuleError
			assert.True(t, errors.As(err, &re))
			assert.Equal(t, before, capture())
		})
	}
}

func TestPlayNumberPassesTurn(t *testing.T) {
	e, p := newStartedEngine(t, 3, 2)
	setTop(t, e, num(red, 5))
	hand := rigHand(t, e, p[0], num(blue, 5), num(red, 1))
	tok := e.Turn()

	out, err := e.PlayCard(p[0], hand[0].ID, models.ColorNone)
	require.NoError(t, err)
	assert.Equal(t, ActionPlay, out.Action)
	assert.Equal(t, models.KindNumber, out.Effect)
	assert.Equal(t, blue, e.ActiveColor())
	assert.Equal(t, p[1], e.Actor())
	assert.NotEqual(t, tok, e.Turn())
}

func TestTwoPlayerReverseMatchesSkip(t *testing.T) {
	for _, kind := range []models.Kind{models.KindSkip, models.KindReverse} {
		e, p := newStartedEngine(t, 2, 5)
		setTop(t, e, num(red, 5))
		hand := rigHand(t, e, p[0], act(red, kind), num(red, 1), num(red, 2))

		out, err := e.PlayCard(p[0], hand[0].ID, models.ColorNone)
		require.NoError(t, err)
		assert.Equal(t, p[0], e.Actor(), "%s: A plays again", kind)
		require.NotNil(t, out.SkippedID)
		assert.Equal(t, p[1], *out.SkippedID)
		assert.Equal(t, 1, e.Direction())
	}
}

func TestReverseFlipsDirection(t *testing.T) {
	e, p := newStartedEngine(t, 4, 6)
	setTop(t, e, num(red, 5))
	hand := rigHand(t, e, p[0], act(red, models.KindReverse), num(red, 1))

	out, err := e.PlayCard(p[0], hand[0].ID, models.ColorNone)
	require.NoError(t, err)
	assert.True(t, out.Reversed)
	assert.Equal(t, -1, e.Direction())
	assert.Equal(t, p[3], e.Actor())

	_, err = e.DrawCard(p[3])
	require.NoError(t, err)
	assert.Equal(t, p[2], e.Actor())
}

func TestSkipSkipsNextSeat(t *testing.T) {
	e, p := newStartedEngine(t, 3, 8)
	setTop(t, e, num(green, 5))
	hand := rigHand(t, e, p[0], act(green, models.KindSkip), num(red, 1))

	out, err := e.PlayCard(p[0], hand[0].ID, models.ColorNone)
	require.NoError(t, err)
	assert.Equal(t, p[1], *out.SkippedID)
	assert.Equal(t, p[2], e.Actor())
}

func TestDrawTwoPenalizesAndSkipsTarget(t *testing.T) {
	e, p := newStartedEngine(t, 3, 9)
	setTop(t, e, num(yellow, 5))
	hand := rigHand(t, e, p[0], act(yellow, models.KindDrawTwo), num(red, 1))

	out, err := e.PlayCard(p[0], hand[0].ID, models.ColorNone)
	require.NoError(t, err)
	assert.Equal(t, InitialHandSize+2, e.HandSize(p[1]))
	assert.Len(t, out.Drawn[p[1]], 2)
	assert.Equal(t, p[1], *out.TargetID)
	assert.Equal(t, p[2], e.Actor())
	assert.ElementsMatch(t, []uuid.UUID{p[0], p[1]}, out.Changed())
	require.NoError(t, e.Verify())
}

func TestDrawAlwaysPassesTurn(t *testing.T) {
	e, p := newStartedEngine(t, 3, 10)
	setTop(t, e, num(red, 5))
	// even a drawn red card is not played immediately
	rigHand(t, e, p[0], num(blue, 1))
	e.deck.drawPile = append(e.deck.drawPile, take(t, e, p[0], num(red, 3)))

	out, err := e.DrawCard(p[0])
	require.NoError(t, err)
	require.Len(t, out.Drawn[p[0]], 1)
	assert.Equal(t, models.KindNumber, out.Drawn[p[0]][0].Kind)
	assert.Equal(t, 3, out.Drawn[p[0]][0].Value)
	assert.Equal(t, 2, e.HandSize(p[0]))
	assert.Equal(t, p[1], e.Actor())
}

func TestWildSetsOverrideUntilNextColoredPlay(t *testing.T) {
	e, p := newStartedEngine(t, 2, 12)
	setTop(t, e, num(red, 5))
	aHand := rigHand(t, e, p[0], wild(), num(red, 1))
	bHand := rigHand(t, e, p[1], num(blue, 7), num(red, 2))

	_, err := e.PlayCard(p[0], aHand[0].ID, blue)
	require.NoError(t, err)
	assert.Equal(t, blue, e.ActiveColor())

	_, err = e.PlayCard(p[1], bHand[1].ID, models.ColorNone)
	assert.ErrorIs(t, err, ErrIllegalMove)

	_, err = e.PlayCard(p[1], bHand[0].ID, models.ColorNone)
	require.NoError(t, err)
	assert.Equal(t, blue, e.ActiveColor())
	assert.Equal(t, models.ColorNone, e.override)
}

func TestUnoChallengeAfterMissedCall(t *testing.T) {
	e, p := newStartedEngine(t, 3, 13)
	a, b, c := p[0], p[1], p[2]
	setTop(t, e, num(red, 5))
	hand := rigHand(t, e, a, num(red, 7), num(red, 8))

	// A drops to one card without calling
	_, err := e.PlayCard(a, hand[0].ID, models.ColorNone)
	require.NoError(t, err)
	require.Equal(t, 1, e.HandSize(a))
	require.False(t, e.IsUnoSafe(a))

	out, err := e.ChallengeUno(b, a)
	require.NoError(t, err)
	assert.Equal(t, 3, e.HandSize(a))
	assert.Len(t, out.Drawn[a], UnoPenalty)
	assert.True(t, e.IsUnoSafe(a))
	assert.Equal(t, b, e.Actor(), "challenge does not move the turn")

	_, err = e.ChallengeUno(c, a)
	assert.ErrorIs(t, err, ErrAlreadySafe)
	assert.Equal(t, 3, e.HandSize(a))

	// the mark goes away once A's hand grows again
	_, err = e.DrawCard(b)
	require.NoError(t, err)
	_, err = e.DrawCard(c)
	require.NoError(t, err)
	_, err = e.DrawCard(a)
	require.NoError(t, err)
	assert.False(t, e.IsUnoSafe(a))
	require.NoError(t, e.Verify())
}

func TestCallUnoProtects(t *testing.T) {
	e, p := newStartedEngine(t, 2, 14)
	a, b := p[0], p[1]
	setTop(t, e, num(red, 5))
	hand := rigHand(t, e, a, num(red, 7), num(red, 8))

	_, err := e.CallUno(a)
	require.NoError(t, err)
	_, err = e.PlayCard(a, hand[0].ID, models.ColorNone)
	require.NoError(t, err)
	assert.True(t, e.IsUnoSafe(a))

	_, err = e.ChallengeUno(b, a)
	assert.ErrorIs(t, err, ErrAlreadySafe)
	assert.Equal(t, 1, e.HandSize(a))
}

func TestWildDrawFourBluffProven(t *testing.T) {
	e, p := newStartedEngine(t, 3, 15)
	a, b, c := p[0], p[1], p[2]
	setTop(t, e, num(green, 5))
	hand := rigHand(t, e, a, wildDrawFour(), num(green, 2), num(red, 3))
	bCard := e.Hand(b)[0]

	out, err := e.PlayCard(a, hand[0].ID, green)
	require.NoError(t, err)
	require.NotNil(t, out.Opened)
	assert.Equal(t, b, out.Opened.TargetID)
	assert.True(t, out.Opened.SourceHadMatchingColor)
	assert.Equal(t, green, out.Opened.ColorAtPlay)
	assert.Equal(t, InitialHandSize, e.HandSize(b), "nothing drawn yet")
	assert.Equal(t, b, e.Actor())

	// only the target may respond, and only by drawing or challenging
	_, err = e.PlayCard(b, bCard.ID, models.ColorNone)
	assert.ErrorIs(t, err, ErrChallengePending)
	_, err = e.Challenge(c)
	assert.ErrorIs(t, err, ErrNotChallengeTarget)
	_, err = e.DrawCard(c)
	assert.ErrorIs(t, err, ErrChallengePending)
	_, err = e.DrawCard(a)
	assert.ErrorIs(t, err, ErrChallengePending)

	out, err = e.Challenge(b)
	require.NoError(t, err)
	require.NotNil(t, out.Resolved)
	assert.True(t, out.Resolved.BluffProven)
	assert.Equal(t, a, out.Resolved.PenalizedID)
	assert.Equal(t, 2+WildDrawFourPenalty, e.HandSize(a))
	assert.Equal(t, InitialHandSize, e.HandSize(b))
	assert.Nil(t, e.Pending())
	assert.Equal(t, b, e.Actor(), "B keeps the turn")
	require.NoError(t, e.Verify())
}

func TestWildDrawFourBluffUnproven(t *testing.T) {
	e, p := newStartedEngine(t, 3, 16)
	a, b, c := p[0], p[1], p[2]
	setTop(t, e, num(green, 5))
	hand := rigHand(t, e, a, wildDrawFour(), num(red, 3), num(blue, 4))

	out, err := e.PlayCard(a, hand[0].ID, green)
	require.NoError(t, err)
	assert.False(t, out.Opened.SourceHadMatchingColor)

	out, err = e.Challenge(b)
	require.NoError(t, err)
	assert.False(t, out.Resolved.BluffProven)
	assert.Equal(t, 6, out.Resolved.Penalty)
	assert.Equal(t, InitialHandSize+6, e.HandSize(b))
	assert.Equal(t, 2, e.HandSize(a))
	assert.Equal(t, c, e.Actor(), "B is skipped")
	assert.Equal(t, green, e.ActiveColor())
	require.NoError(t, e.Verify())
}

func TestWildDrawFourAccepted(t *testing.T) {
	e, p := newStartedEngine(t, 3, 17)
	a, b, c := p[0], p[1], p[2]
	setTop(t, e, num(green, 5))
	hand := rigHand(t, e, a, wildDrawFour(), num(green, 2))

	_, err := e.PlayCard(a, hand[0].ID, yellow)
	require.NoError(t, err)

	out, err := e.DrawCard(b)
	require.NoError(t, err)
	assert.Equal(t, ActionAccept, out.Action)
	assert.False(t, out.Resolved.Challenged)
	assert.Equal(t, InitialHandSize+WildDrawFourPenalty, e.HandSize(b))
	assert.Equal(t, c, e.Actor())
	assert.Equal(t, yellow, e.ActiveColor())
}

func TestWildDrawFourAsLastCardWinsAfterResolution(t *testing.T) {
	for _, challenge := range []bool{false, true} {
		e, p := newStartedEngine(t, 3, 18)
		a, b := p[0], p[1]
		setTop(t, e, num(green, 5))
		hand := rigHand(t, e, a, wildDrawFour())

		out, err := e.PlayCard(a, hand[0].ID, red)
		require.NoError(t, err)
		assert.Nil(t, out.Result, "win waits for the challenge")
		assert.Equal(t, StatePlaying, e.State())

		if challenge {
			out, err = e.Challenge(b)
		} else {
			out, err = e.DrawCard(b)
		}
		require.NoError(t, err)
		require.NotNil(t, out.Result)
		require.NotNil(t, out.Result.WinnerID)
		assert.Equal(t, a, *out.Result.WinnerID)
		assert.Equal(t, StateFinished, e.State())

		others := HandScore(e.Hand(p[1])) + HandScore(e.Hand(p[2]))
		assert.Equal(t, others, out.Result.Scores[a])
	}
}

func TestWinScoring(t *testing.T) {
	e, p := newStartedEngine(t, 2, 19)
	a, b := p[0], p[1]
	setTop(t, e, num(red, 5))
	hand := rigHand(t, e, a, num(red, 1))
	rigHand(t, e, b, num(red, 9), act(blue, models.KindSkip), wild())

	out, err := e.PlayCard(a, hand[0].ID, models.ColorNone)
	require.NoError(t, err)
	require.NotNil(t, out.Result)
	assert.Equal(t, a, *out.Result.WinnerID)
	assert.Equal(t, 79, out.Result.Scores[a])
	assert.Equal(t, 79, out.Result.Scores[b])
	assert.Same(t, out.Result, e.Result())

	_, err = e.DrawCard(b)
	assert.ErrorIs(t, err, ErrGameOver)
	assert.Equal(t, uuid.Nil, e.Actor())
}

func TestHandleTimeout(t *testing.T) {
	e, p := newStartedEngine(t, 3, 20)
	a, b := p[0], p[1]

	_, err := e.HandleTimeout(b)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	out, err := e.HandleTimeout(a)
	require.NoError(t, err)
	assert.True(t, out.TimedOut)
	assert.Equal(t, ActionDraw, out.Action)
	assert.Equal(t, InitialHandSize+1, e.HandSize(a))
	assert.Equal(t, b, e.Actor())

	// a timeout on a pending wild draw four accepts it
	setTop(t, e, num(red, 5))
	hand := rigHand(t, e, b, wildDrawFour(), num(red, 1))
	_, err = e.PlayCard(b, hand[0].ID, blue)
	require.NoError(t, err)
	out, err = e.HandleTimeout(p[2])
	require.NoError(t, err)
	assert.Equal(t, ActionAccept, out.Action)
	assert.Equal(t, InitialHandSize+WildDrawFourPenalty, e.HandSize(p[2]))
	assert.Equal(t, a, e.Actor())
}

func TestStaleTurnToken(t *testing.T) {
	e, p := newStartedEngine(t, 2, 21)
	tok := e.Turn()
	_, err := e.DrawCard(p[0])
	require.NoError(t, err)
	assert.NotEqual(t, tok, e.Turn())

	// uno calls never move the token
	tok = e.Turn()
	rigHand(t, e, p[1], num(red, 1))
	_, err = e.CallUno(p[1])
	require.NoError(t, err)
	assert.Equal(t, tok, e.Turn())
}

func TestForceFinish(t *testing.T) {
	e, p := newStartedEngine(t, 3, 22)
	res := e.ForceFinish(nil)
	require.NotNil(t, res)
	assert.Nil(t, res.WinnerID)
	for _, id := range p {
		assert.Equal(t, HandScore(e.Hand(id)), res.Scores[id])
	}
	assert.Equal(t, StateFinished, e.State())
	assert.Same(t, res, e.ForceFinish(&p[0]), "finishing twice is a no-op")
}

func TestExhaustedDrawIsForcedPass(t *testing.T) {
	e, p := newStartedEngine(t, 2, 23)
	a, b := p[0], p[1]
	// park every remaining card in B's hand so nothing can be drawn
	e.hands[b] = append(e.hands[b], e.deck.drawPile...)
	e.deck.drawPile = nil
	require.NoError(t, e.Verify())

	out, err := e.DrawCard(a)
	require.NoError(t, err)
	assert.True(t, out.Exhausted)
	assert.Empty(t, out.Drawn[a])
	assert.Equal(t, InitialHandSize, e.HandSize(a))
	assert.Equal(t, b, e.Actor())
	require.NoError(t, e.Verify())
}

func TestVerifyDetectsDuplicates(t *testing.T) {
	e, p := newStartedEngine(t, 2, 24)
	e.hands[p[0]] = append(e.hands[p[0]], e.hands[p[0]][0])
	assert.Error(t, e.Verify())
}

func TestPublicStateHidesHands(t *testing.T) {
	e, p := newStartedEngine(t, 3, 25)
	ps := e.PublicState()
	assert.Equal(t, StatePlaying, ps.State)
	require.Len(t, ps.Seats, 3)
	for i, s := range ps.Seats {
		assert.Equal(t, p[i], s.PlayerID)
		assert.Equal(t, InitialHandSize, s.CardCount)
	}
	assert.True(t, ps.Seats[0].IsCurrent)
	assert.Equal(t, p[0], *ps.ActorID)
	assert.NotNil(t, ps.TopCard)
}
