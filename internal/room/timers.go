// internal/room/timers.go
package room

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/bot"
	"github.com/jason-s-yu/uno/internal/game"
)

// schedule arms exactly one timer for the current actor: a think delay for a
// bot, a turn timeout for a human. Nothing changes while the turn token is
// the one already armed, unless force is set.
func (r *Room) schedule(force bool) {
	if r.engine == nil || r.engine.State() != game.StatePlaying {
		r.stopTimers()
		return
	}
	token := r.engine.Turn()
	if token == r.armedToken && !force {
		return
	}
	r.stopTimers()
	r.armedToken = token

	actor := r.engine.Actor()
	if b, ok := r.bots[actor]; ok {
		delay := b.ThinkTime()
		if r.opts.BotDelay > 0 {
			delay = r.opts.BotDelay
		}
		r.botTimer = time.AfterFunc(delay, func() {
			r.post(func() error { return r.onBotTimer(actor, token) })
		})
		return
	}

	d := r.opts.TurnTimeout
	if s := r.seat(actor); s != nil && !s.Connected {
		d = r.opts.DisconnectedTurnTimeout
	}
	r.turnTimer = time.AfterFunc(d, func() {
		r.post(func() error { return r.onTurnTimer(actor, token) })
	})
}

func (r *Room) stopTimers() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
	if r.botTimer != nil {
		r.botTimer.Stop()
		r.botTimer = nil
	}
}

// stale reports whether a timer armed for (actor, token) has been superseded.
func (r *Room) stale(actor uuid.UUID, token uint64) bool {
	return r.engine == nil ||
		r.engine.State() != game.StatePlaying ||
		r.engine.Turn() != token ||
		r.engine.Actor() != actor
}

func (r *Room) onTurnTimer(actor uuid.UUID, token uint64) error {
	if r.stale(actor, token) {
		r.log.Debugf("Stale turn timer fired for %s (token %d)", actor, token)
		return nil
	}
	r.turnTimer = nil
	out, err := r.engine.HandleTimeout(actor)
	if err != nil {
		r.log.Warnf("Turn timeout for %s rejected: %v", actor, err)
		return nil
	}
	r.log.Debugf("Turn timed out for %s", actor)
	r.handleOutcome(out)
	return nil
}

func (r *Room) onBotTimer(botID uuid.UUID, token uint64) error {
	if r.stale(botID, token) {
		r.log.Debugf("Stale bot timer fired for %s (token %d)", botID, token)
		return nil
	}
	r.botTimer = nil
	b, ok := r.bots[botID]
	if !ok {
		return nil
	}
	r.playBot(b)
	if r.engine.State() == game.StatePlaying && r.engine.Turn() == token {
		// the bot made no turn action; keep the game moving
		r.schedule(true)
	}
	return nil
}

// playBot feeds the bot's proposal through the same entry points as human
// input. A rejected proposal falls back to a draw.
func (r *Room) playBot(b *bot.Bot) {
	mv := b.Decide(r.botView(b.ID))

	if mv.ChallengeUno != nil {
		if err := r.apply(b.ID, Intent{Kind: IntentChallengeUno, TargetID: *mv.ChallengeUno}); err != nil {
			r.log.Debugf("Bot %s uno challenge rejected: %v", b.Name, err)
		}
	}

	var in Intent
	switch mv.Action {
	case bot.MovePlay:
		if mv.CallUno {
			if err := r.apply(b.ID, Intent{Kind: IntentCallUno}); err != nil {
				r.log.Debugf("Bot %s uno call rejected: %v", b.Name, err)
			}
		}
		in = Intent{Kind: IntentPlay, CardID: mv.CardID, Color: mv.Color}
	case bot.MoveChallenge:
		in = Intent{Kind: IntentChallengeWildDrawFour}
	default:
		in = Intent{Kind: IntentDraw}
	}

	if r.closing || r.engine.State() != game.StatePlaying {
		return
	}
	if err := r.apply(b.ID, in); err != nil {
		r.log.Warnf("Bot %s move %s rejected (%v); drawing instead", b.Name, in.Kind, err)
		if err := r.apply(b.ID, Intent{Kind: IntentDraw}); err != nil {
			r.log.Errorf("Bot %s could not draw: %v", b.Name, err)
		}
	}
}

func (r *Room) botView(id uuid.UUID) bot.View {
	top, _ := r.engine.TopCard()
	v := bot.View{
		Hand:        r.engine.Hand(id),
		TopCard:     top,
		ActiveColor: r.engine.ActiveColor(),
	}
	if p := r.engine.Pending(); p != nil && p.TargetID == id {
		v.ChallengeTarget = true
	}
	for _, pid := range r.engine.Players() {
		if pid == id {
			continue
		}
		v.Opponents = append(v.Opponents, bot.Opponent{
			ID:        pid,
			CardCount: r.engine.HandSize(pid),
			UnoSafe:   r.engine.IsUnoSafe(pid),
		})
	}
	return v
}
