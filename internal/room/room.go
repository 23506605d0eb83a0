// internal/room/room.go
package room

import (
	"context"
	"fmt"
	"math/rand"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/bot"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxPlayers = 4

	DefaultTurnTimeout             = 30 * time.Second
	DefaultDisconnectedTurnTimeout = 10 * time.Second
	DefaultFinishedTTL             = 5 * time.Minute

	inboxSize      = 64
	persistTimeout = 5 * time.Second
)

// ResultSink receives the outcome of every finished game.
type ResultSink interface {
	RecordResult(ctx context.Context, res models.GameResult) error
}

// ActionLog receives every applied action.
type ActionLog interface {
	PublishGameAction(ctx context.Context, rec cache.GameActionRecord) error
}

// Options configures a Room. Zero values fall back to the defaults above.
type Options struct {
	MaxPlayers              int
	TurnTimeout             time.Duration
	DisconnectedTurnTimeout time.Duration
	FinishedTTL             time.Duration
	BotDelay                time.Duration // fixed bot think time; 0 uses each bot's profile

	Sink    ResultSink // optional
	Actions ActionLog  // optional
	Logger  *logrus.Logger
	Seed    int64 // 0 picks a time-based seed
}

// Info is the roster view of a room, safe to read from any goroutine.
type Info struct {
	Code       string          `json:"code"`
	State      game.State      `json:"state"`
	HostID     uuid.UUID       `json:"hostId"`
	MaxPlayers int             `json:"maxPlayers"`
	Players    []models.Player `json:"players"`
	GameID     *uuid.UUID      `json:"gameId,omitempty"`
}

type request struct {
	fn    func() error
	reply chan error
}

// Room runs one game session. Every mutation happens on the room's own
// goroutine, in the order requests were received.
type Room struct {
	Code string

	opts Options
	log  *logrus.Entry
	rng  *rand.Rand

	inbox chan request
	done  chan struct{}

	// owned by the actor goroutine
	closing     bool
	seats       []*models.Player
	links       map[uuid.UUID]int // open connections per seated human
	hostID      uuid.UUID
	bots        map[uuid.UUID]*bot.Bot
	engine      *game.Engine
	gameID      uuid.UUID
	startedAt   time.Time
	actionIndex int
	finalized   bool
	armedToken  uint64
	turnTimer   *time.Timer
	botTimer    *time.Timer
	lingerTimer *time.Timer

	subsMu     sync.Mutex
	subs       map[int]*subscriber
	nextSub    int
	subsClosed bool

	info atomic.Pointer[Info]
}

// New creates a room and starts its actor goroutine.
func New(code string, opts Options) *Room {
	if opts.MaxPlayers == 0 {
		opts.MaxPlayers = DefaultMaxPlayers
	}
	opts.MaxPlayers = clampPlayers(opts.MaxPlayers)
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = DefaultTurnTimeout
	}
	if opts.DisconnectedTurnTimeout <= 0 {
		opts.DisconnectedTurnTimeout = DefaultDisconnectedTurnTimeout
	}
	if opts.FinishedTTL <= 0 {
		opts.FinishedTTL = DefaultFinishedTTL
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	r := &Room{
		Code:  code,
		opts:  opts,
		log:   opts.Logger.WithField("room", code),
		rng:   rand.New(rand.NewSource(opts.Seed)),
		inbox: make(chan request, inboxSize),
		done:  make(chan struct{}),
		bots:  make(map[uuid.UUID]*bot.Bot),
		links: make(map[uuid.UUID]int),
		subs:  make(map[int]*subscriber),
	}
	r.publishInfo()
	go r.run()
	return r
}

func clampPlayers(n int) int {
	if n < game.MinPlayers {
		return game.MinPlayers
	}
	if n > game.MaxPlayers {
		return game.MaxPlayers
	}
	return n
}

func (r *Room) run() {
	for {
		select {
		case req := <-r.inbox:
			err := r.safely(req.fn)
			if req.reply != nil {
				req.reply <- err
			}
			if r.closing {
				close(r.done)
				return
			}
		case <-r.done:
			return
		}
	}
}

// safely runs fn, turning a panic into a room fault.
func (r *Room) safely(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Errorf("Panic in room actor: %v\n%s", p, debug.Stack())
			r.fault(fmt.Errorf("panic: %v", p))
			err = ErrInternal
		}
	}()
	return fn()
}

// do runs fn on the actor goroutine and waits for its result.
func (r *Room) do(ctx context.Context, fn func() error) error {
	req := request{fn: fn, reply: make(chan error, 1)}
	select {
	case r.inbox <- req:
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-r.done:
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrRoomClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post enqueues fn without waiting. Used by timers.
func (r *Room) post(fn func() error) {
	select {
	case r.inbox <- request{fn: fn}:
	case <-r.done:
	}
}

// Done is closed once the room has shut down.
func (r *Room) Done() <-chan struct{} { return r.done }

// Info returns the latest roster snapshot.
func (r *Room) Info() Info { return *r.info.Load() }

// Close shuts the room down, finishing any running game without a winner.
func (r *Room) Close(ctx context.Context, reason string) error {
	err := r.do(ctx, func() error {
		r.shutdown(reason)
		return nil
	})
	if err == ErrRoomClosed {
		return nil
	}
	return err
}

// --- membership ---

// Join seats p. A seated but disconnected player rejoining during a game is a
// reconnect and receives the current state and their hand. Joining again while
// still connected (a page refresh racing its own Leave) adds a connection to
// the seat; the seat is only given up once every connection has left.
func (r *Room) Join(ctx context.Context, p models.Player) error {
	return r.do(ctx, func() error {
		if seat := r.seat(p.ID); seat != nil {
			if seat.IsBot {
				return ErrAlreadySeated
			}
			if seat.Connected {
				r.links[p.ID]++
				r.log.Infof("Player %s opened another connection (%d)", p.ID, r.links[p.ID])
				r.emitTo(p.ID, EventRosterChanged, r.Info())
				r.replay(p.ID)
				return nil
			}
			seat.Connected = true
			r.links[p.ID] = 1
			r.log.Infof("Player %s reconnected", p.ID)
			r.rosterChanged()
			r.replay(p.ID)
			if r.engine != nil && r.engine.Actor() == p.ID {
				r.schedule(true)
			}
			return nil
		}
		if r.engine != nil {
			return ErrGameInProgress
		}
		if len(r.seats) >= r.opts.MaxPlayers {
			return ErrRoomFull
		}

		p.IsBot = false
		p.Connected = true
		r.seats = append(r.seats, &p)
		r.links[p.ID] = 1
		if r.hostID == uuid.Nil {
			r.hostID = p.ID
		}
		r.log.Infof("Player %s (%s) joined", p.ID, p.DisplayName)
		r.rosterChanged()
		return nil
	})
}

// Leave drops one of the player's connections. When it was the last one, a
// waiting player's seat is removed and a playing one is marked disconnected.
func (r *Room) Leave(ctx context.Context, playerID uuid.UUID) error {
	return r.do(ctx, func() error {
		seat := r.seat(playerID)
		if seat == nil || seat.IsBot || !seat.Connected {
			return ErrNotSeated
		}
		if r.links[playerID] > 1 {
			r.links[playerID]--
			r.log.Debugf("Player %s closed one of %d connections", playerID, r.links[playerID]+1)
			return nil
		}
		delete(r.links, playerID)

		if r.engine == nil {
			r.removeSeat(playerID)
			if r.hostID == playerID {
				r.hostID = r.firstHuman()
			}
			r.log.Infof("Player %s left", playerID)
			r.rosterChanged()
			if r.hostID == uuid.Nil {
				r.shutdown("empty")
			}
			return nil
		}

		seat.Connected = false
		r.log.Infof("Player %s disconnected", playerID)
		r.rosterChanged()

		if r.engine.State() == game.StatePlaying {
			connected := r.connected()
			switch {
			case len(connected) <= 1:
				var winner *uuid.UUID
				if len(connected) == 1 {
					winner = &connected[0]
				}
				r.finalize(r.engine.ForceFinish(winner))
			case !r.anyHumanConnected():
				r.finalize(r.engine.ForceFinish(nil))
			case r.engine.Actor() == playerID:
				r.schedule(true)
			}
		}
		if !r.anyHumanConnected() {
			r.shutdown("empty")
		}
		return nil
	})
}

// AddBot seats a bot. Only the host may do this, and only before the game.
func (r *Room) AddBot(ctx context.Context, requester uuid.UUID, d bot.Difficulty) (*models.Player, error) {
	var added *models.Player
	err := r.do(ctx, func() error {
		if r.engine != nil {
			return ErrGameInProgress
		}
		if requester != r.hostID {
			return ErrNotHost
		}
		if len(r.seats) >= r.opts.MaxPlayers {
			return ErrRoomFull
		}
		b := bot.New(d, rand.New(rand.NewSource(r.rng.Int63())))
		r.bots[b.ID] = b
		added = b.Player()
		r.seats = append(r.seats, added)
		r.log.Infof("Bot %s (%s) added", b.Name, d)
		r.rosterChanged()
		return nil
	})
	if err != nil {
		return nil, err
	}
	p := *added
	return &p, nil
}

// RemoveBot unseats a bot. Only the host may do this, and only before the game.
func (r *Room) RemoveBot(ctx context.Context, requester, botID uuid.UUID) error {
	return r.do(ctx, func() error {
		if r.engine != nil {
			return ErrGameInProgress
		}
		if requester != r.hostID {
			return ErrNotHost
		}
		if _, ok := r.bots[botID]; !ok {
			return ErrBotNotFound
		}
		delete(r.bots, botID)
		r.removeSeat(botID)
		r.rosterChanged()
		return nil
	})
}

// Start deals a game to the current roster in seat order.
func (r *Room) Start(ctx context.Context, requester uuid.UUID) error {
	return r.do(ctx, func() error {
		if r.engine != nil {
			return ErrGameInProgress
		}
		if requester != r.hostID {
			return ErrNotHost
		}
		ids := make([]uuid.UUID, len(r.seats))
		for i, s := range r.seats {
			ids[i] = s.ID
		}
		engine := game.NewEngine(rand.New(rand.NewSource(r.rng.Int63())))
		if err := engine.Start(ids); err != nil {
			return err
		}
		r.engine = engine
		r.gameID = uuid.New()
		r.startedAt = time.Now()
		r.log = r.log.WithField("game", r.gameID)
		r.log.Infof("Game started with %d players", len(ids))

		r.logAction(requester, "game_start", map[string]interface{}{"players": ids})
		r.rosterChanged()
		r.broadcast(EventPublicState, r.snapshot())
		for _, id := range ids {
			r.emitTo(id, EventPrivateHand, PrivateHandPayload{PlayerID: id, Hand: engine.Hand(id)})
		}
		r.schedule(false)
		return nil
	})
}

// Apply routes a turn-level intent from playerID to the engine.
func (r *Room) Apply(ctx context.Context, playerID uuid.UUID, in Intent) error {
	return r.do(ctx, func() error {
		return r.apply(playerID, in)
	})
}

func (r *Room) apply(playerID uuid.UUID, in Intent) error {
	if r.engine == nil {
		return game.ErrGameNotStarted
	}
	if r.seat(playerID) == nil {
		return ErrNotSeated
	}

	var (
		out *game.Outcome
		err error
	)
	switch in.Kind {
	case IntentPlay:
		out, err = r.engine.PlayCard(playerID, in.CardID, in.Color)
	case IntentDraw:
		out, err = r.engine.DrawCard(playerID)
	case IntentCallUno:
		out, err = r.engine.CallUno(playerID)
	case IntentChallengeUno:
		out, err = r.engine.ChallengeUno(playerID, in.TargetID)
	case IntentChallengeWildDrawFour:
		out, err = r.engine.Challenge(playerID)
	default:
		return ErrUnknownIntent
	}
	if err != nil {
		r.log.Debugf("Rejected %s from %s: %v", in.Kind, playerID, err)
		return err
	}
	r.handleOutcome(out)
	return nil
}

// --- turn bookkeeping ---

func (r *Room) handleOutcome(out *game.Outcome) {
	if err := r.engine.Verify(); err != nil {
		r.fault(err)
		return
	}
	r.logAction(out.PlayerID, actionType(out), actionPayload(out))
	r.announce(out)

	for _, id := range out.Changed() {
		r.emitTo(id, EventPrivateHand, PrivateHandPayload{PlayerID: id, Hand: r.engine.Hand(id)})
	}
	r.broadcast(EventPublicState, r.snapshot())

	if out.Result != nil {
		r.finalize(out.Result)
		return
	}
	r.schedule(false)
}

// announce emits the public event describing out.
func (r *Room) announce(out *game.Outcome) {
	name := r.name(out.PlayerID)
	switch out.Action {
	case game.ActionPlay:
		p := CardPlayedPayload{
			PlayerID:   out.PlayerID,
			PlayerName: name,
			Card:       *out.Card,
			Effect:     out.Effect,
			SkippedID:  out.SkippedID,
			TargetID:   out.TargetID,
			Reversed:   out.Reversed,
		}
		if out.Card.Kind.IsWild() {
			p.ChosenColor = r.engine.ActiveColor()
		}
		r.broadcast(EventCardPlayed, p)
		if out.Opened != nil {
			r.broadcast(EventWildDrawFourOpened, ChallengeOpenedPayload{
				SourceID:   out.Opened.SourceID,
				TargetID:   out.Opened.TargetID,
				TargetName: r.name(out.Opened.TargetID),
			})
		}
	case game.ActionDraw:
		if out.TimedOut {
			r.broadcast(EventTurnTimeout, PlayerPayload{PlayerID: out.PlayerID, PlayerName: name})
		}
		r.broadcast(EventCardDrawn, CardDrawnPayload{PlayerID: out.PlayerID, PlayerName: name, Count: len(out.Drawn[out.PlayerID])})
	case game.ActionAccept, game.ActionChallenge:
		if out.TimedOut {
			r.broadcast(EventTurnTimeout, PlayerPayload{PlayerID: out.PlayerID, PlayerName: name})
		}
		r.broadcast(EventWildDrawFourResolved, out.Resolved)
	case game.ActionCallUno:
		r.broadcast(EventUnoCalled, PlayerPayload{PlayerID: out.PlayerID, PlayerName: name})
	case game.ActionChallengeUno:
		r.broadcast(EventUnoChallenged, UnoChallengedPayload{
			ChallengerID:   out.PlayerID,
			ChallengerName: name,
			TargetID:       *out.TargetID,
			TargetName:     r.name(*out.TargetID),
			Penalty:        len(out.Drawn[*out.TargetID]),
		})
	}
	if out.Exhausted {
		r.log.Warn("Draw came up short: deck and discard pile exhausted")
	}
}

// finalize runs once per game, when the engine reports a result.
func (r *Room) finalize(res *game.Result) {
	if r.finalized || res == nil {
		return
	}
	r.finalized = true
	r.stopTimers()

	payload := GameOverPayload{WinnerID: res.WinnerID, Scores: res.Scores}
	if res.WinnerID != nil {
		payload.WinnerName = r.name(*res.WinnerID)
		r.log.Infof("Game over, winner %s (%s)", payload.WinnerName, *res.WinnerID)
	} else {
		r.log.Info("Game over without a winner")
	}
	r.broadcast(EventGameOver, payload)
	r.broadcast(EventPublicState, r.snapshot())
	r.rosterChanged()

	result := models.GameResult{
		SessionID:      r.gameID,
		RoomCode:       r.Code,
		ParticipantIDs: r.engine.Players(),
		WinnerID:       res.WinnerID,
		Scores:         res.Scores,
		StartedAt:      r.startedAt,
		EndedAt:        time.Now(),
	}
	r.logAction(uuid.Nil, "game_end", map[string]interface{}{"winner": res.WinnerID, "scores": res.Scores})
	if r.opts.Sink != nil {
		go func(sink ResultSink, log *logrus.Entry) {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := sink.RecordResult(ctx, result); err != nil {
				log.Errorf("Failed to record game result: %v", err)
			}
		}(r.opts.Sink, r.log)
	} else {
		r.log.Infof("No result sink configured; result %+v", result)
	}

	r.lingerTimer = time.AfterFunc(r.opts.FinishedTTL, func() {
		r.post(func() error {
			r.shutdown("finished")
			return nil
		})
	})
}

// fault ends a game whose state can no longer be trusted and closes the room.
func (r *Room) fault(cause error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Errorf("Panic while terminating room: %v", p)
			r.closing = true
			r.stopTimers()
			r.closeSubscribers()
		}
	}()
	r.log.Errorf("Room fault, terminating: %v", cause)
	r.broadcast(EventError, ErrorPayload{Code: ErrInternal.Code, Message: ErrInternal.Message})
	if r.engine != nil && r.engine.State() == game.StatePlaying {
		r.finalize(r.engine.ForceFinish(nil))
	}
	r.shutdown("internal error")
}

func (r *Room) shutdown(reason string) {
	if r.closing {
		return
	}
	if r.engine != nil && r.engine.State() == game.StatePlaying {
		r.finalize(r.engine.ForceFinish(nil))
	}
	r.closing = true
	r.stopTimers()
	if r.lingerTimer != nil {
		r.lingerTimer.Stop()
		r.lingerTimer = nil
	}
	r.log.Infof("Room closed: %s", reason)
	r.broadcast(EventRoomClosed, RoomClosedPayload{Reason: reason})
	r.closeSubscribers()
}

// --- roster helpers ---

func (r *Room) seat(id uuid.UUID) *models.Player {
	for _, s := range r.seats {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (r *Room) removeSeat(id uuid.UUID) {
	for i, s := range r.seats {
		if s.ID == id {
			r.seats = append(r.seats[:i], r.seats[i+1:]...)
			return
		}
	}
}

func (r *Room) firstHuman() uuid.UUID {
	for _, s := range r.seats {
		if !s.IsBot {
			return s.ID
		}
	}
	return uuid.Nil
}

// connected lists connected seats, bots included.
func (r *Room) connected() []uuid.UUID {
	var ids []uuid.UUID
	for _, s := range r.seats {
		if s.Connected {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func (r *Room) anyHumanConnected() bool {
	for _, s := range r.seats {
		if !s.IsBot && s.Connected {
			return true
		}
	}
	return false
}

func (r *Room) name(id uuid.UUID) string {
	if s := r.seat(id); s != nil {
		return s.DisplayName
	}
	return ""
}

func (r *Room) state() game.State {
	if r.engine == nil {
		return game.StateWaiting
	}
	return r.engine.State()
}

func (r *Room) publishInfo() {
	info := Info{
		Code:       r.Code,
		State:      r.state(),
		HostID:     r.hostID,
		MaxPlayers: r.opts.MaxPlayers,
		Players:    make([]models.Player, len(r.seats)),
	}
	for i, s := range r.seats {
		info.Players[i] = *s
	}
	if r.engine != nil {
		id := r.gameID
		info.GameID = &id
	}
	r.info.Store(&info)
}

// replay sends one player the public state and their hand, if a game exists.
func (r *Room) replay(id uuid.UUID) {
	if r.engine != nil {
		r.emitTo(id, EventPublicState, r.snapshot())
		r.emitTo(id, EventPrivateHand, PrivateHandPayload{PlayerID: id, Hand: r.engine.Hand(id)})
	}
}

func (r *Room) rosterChanged() {
	r.publishInfo()
	r.broadcast(EventRosterChanged, r.Info())
}

func (r *Room) snapshot() Snapshot {
	s := Snapshot{Room: r.Info()}
	if r.engine != nil {
		s.Game = r.engine.PublicState()
	}
	return s
}

// logAction publishes an action record without blocking the actor.
func (r *Room) logAction(actor uuid.UUID, actionType string, payload map[string]interface{}) {
	if r.opts.Actions == nil {
		return
	}
	r.actionIndex++
	rec := cache.GameActionRecord{
		GameID:        r.gameID,
		RoomCode:      r.Code,
		ActionIndex:   r.actionIndex,
		ActorUserID:   actor,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(actions ActionLog, entry *logrus.Entry) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := actions.PublishGameAction(ctx, rec); err != nil {
			entry.Warnf("Failed to publish action %d (%s): %v", rec.ActionIndex, rec.ActionType, err)
		}
	}(r.opts.Actions, r.log)
}

func actionType(out *game.Outcome) string {
	if out.TimedOut {
		return "timeout_" + string(out.Action)
	}
	return string(out.Action)
}

func actionPayload(out *game.Outcome) map[string]interface{} {
	p := map[string]interface{}{}
	if out.Card != nil {
		p["card_id"] = out.Card.ID
		p["card"] = out.Card.String()
	}
	if out.TargetID != nil {
		p["target_id"] = *out.TargetID
	}
	if out.Resolved != nil {
		p["bluff_proven"] = out.Resolved.BluffProven
		p["penalized_id"] = out.Resolved.PenalizedID
		p["penalty"] = out.Resolved.Penalty
	}
	drawn := map[string]int{}
	for id, cards := range out.Drawn {
		drawn[id.String()] = len(cards)
	}
	if len(drawn) > 0 {
		p["drawn"] = drawn
	}
	return p
}
