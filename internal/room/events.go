// internal/room/events.go
package room

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
)

// EventType names an outbound room event.
type EventType string

const (
	EventRosterChanged        EventType = "roster_changed"
	EventPublicState          EventType = "public_state"
	EventPrivateHand          EventType = "private_hand" // only to the hand's owner
	EventCardPlayed           EventType = "card_played"
	EventCardDrawn            EventType = "card_drawn" // public: who drew and how many
	EventUnoCalled            EventType = "uno_called"
	EventUnoChallenged        EventType = "uno_challenged"
	EventWildDrawFourOpened   EventType = "wild_draw_four_challenge_opened"
	EventWildDrawFourResolved EventType = "wild_draw_four_resolved"
	EventTurnTimeout          EventType = "turn_timeout"
	EventGameOver             EventType = "game_over"
	EventError                EventType = "error"
	EventRoomClosed           EventType = "room_closed"
)

// Event is delivered to subscribers. To is nil for broadcasts.
type Event struct {
	Type    EventType   `json:"type"`
	To      *uuid.UUID  `json:"-"`
	Payload interface{} `json:"payload,omitempty"`
}

// Snapshot is the public_state payload.
type Snapshot struct {
	Room Info             `json:"room"`
	Game game.PublicState `json:"game"`
}

type PrivateHandPayload struct {
	PlayerID uuid.UUID     `json:"playerId"`
	Hand     []models.Card `json:"hand"`
}

type CardPlayedPayload struct {
	PlayerID    uuid.UUID    `json:"playerId"`
	PlayerName  string       `json:"playerName"`
	Card        models.Card  `json:"card"`
	Effect      models.Kind  `json:"effect"`
	ChosenColor models.Color `json:"chosenColor,omitempty"`
	SkippedID   *uuid.UUID   `json:"skippedId,omitempty"`
	TargetID    *uuid.UUID   `json:"targetId,omitempty"`
	Reversed    bool         `json:"reversed,omitempty"`
}

type CardDrawnPayload struct {
	PlayerID   uuid.UUID `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Count      int       `json:"count"`
}

type PlayerPayload struct {
	PlayerID   uuid.UUID `json:"playerId"`
	PlayerName string    `json:"playerName"`
}

type UnoChallengedPayload struct {
	ChallengerID   uuid.UUID `json:"challengerId"`
	ChallengerName string    `json:"challengerName"`
	TargetID       uuid.UUID `json:"targetId"`
	TargetName     string    `json:"targetName"`
	Penalty        int       `json:"penalty"`
}

type ChallengeOpenedPayload struct {
	SourceID   uuid.UUID `json:"sourceId"`
	TargetID   uuid.UUID `json:"targetId"`
	TargetName string    `json:"targetName"`
}

type GameOverPayload struct {
	WinnerID   *uuid.UUID        `json:"winnerId"`
	WinnerName string            `json:"winnerName,omitempty"`
	Scores     map[uuid.UUID]int `json:"scores"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RoomClosedPayload struct {
	Reason string `json:"reason"`
}

// subscriber receives broadcasts plus events addressed to viewer.
type subscriber struct {
	viewer uuid.UUID
	ch     chan Event
}

func (s *subscriber) wants(ev Event) bool {
	return ev.To == nil || *ev.To == s.viewer
}

// Subscribe registers a listener for viewer. Events are dropped, not queued,
// when the buffer is full. The channel is closed by cancel or when the room
// closes. Subscribe before Join so a reconnect replay is not missed.
func (r *Room) Subscribe(viewer uuid.UUID, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	s := &subscriber{viewer: viewer, ch: make(chan Event, buffer)}

	r.subsMu.Lock()
	if r.subsClosed {
		r.subsMu.Unlock()
		close(s.ch)
		return s.ch, func() {}
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = s
	r.subsMu.Unlock()

	cancel := func() {
		r.subsMu.Lock()
		defer r.subsMu.Unlock()
		if _, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(s.ch)
		}
	}
	return s.ch, cancel
}

func (r *Room) emit(ev Event) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for _, s := range r.subs {
		if !s.wants(ev) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			r.log.Warnf("Dropped %s event for %s: subscriber buffer full", ev.Type, s.viewer)
		}
	}
}

func (r *Room) emitTo(id uuid.UUID, t EventType, payload interface{}) {
	r.emit(Event{Type: t, To: &id, Payload: payload})
}

func (r *Room) broadcast(t EventType, payload interface{}) {
	r.emit(Event{Type: t, Payload: payload})
}

// closeSubscribers closes every channel; later Subscribe calls get a closed channel.
func (r *Room) closeSubscribers() {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for id, s := range r.subs {
		close(s.ch)
		delete(r.subs, id)
	}
	r.subsClosed = true
}
