// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/bot"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/jason-s-yu/uno/internal/room"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	subprotocol    = "uno"
	writeTimeout   = 5 * time.Second
	requestTimeout = 5 * time.Second
	leaveTimeout   = 3 * time.Second
	eventBuffer    = 128
)

var (
	errRateLimited = &game.RuleError{Code: "rate_limited", Message: "too many requests, slow down"}
	errBadMessage  = &game.RuleError{Code: "bad_message", Message: "invalid JSON format"}
	errInternal    = &game.RuleError{Code: "internal", Message: "internal server error"}
)

// ClientMessage is every inbound frame. Only the fields of the given Type are read.
type ClientMessage struct {
	Type string `json:"type"`

	MaxPlayers int    `json:"maxPlayers,omitempty"` // create
	Code       string `json:"code,omitempty"`       // join
	Difficulty string `json:"difficulty,omitempty"` // add_bot

	BotID       uuid.UUID `json:"botId,omitempty"`       // remove_bot
	CardID      uuid.UUID `json:"cardId,omitempty"`      // play
	ChosenColor string    `json:"chosenColor,omitempty"` // play, wild cards only
	TargetID    uuid.UUID `json:"targetId,omitempty"`    // challenge_uno
}

type outbound struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// connection is one websocket client, seated in at most one room.
type connection struct {
	gs      *GameServer
	c       *websocket.Conn
	user    *models.User
	log     *logrus.Entry
	limiter *rate.Limiter

	// owned by the read loop
	room     *room.Room
	unsub    func()
	pumpDone chan struct{}
}

// GameWSHandler resolves the caller's identity, upgrades to a websocket
// speaking the "uno" subprotocol and serves room intents until the client
// goes away. A dropped connection leaves the room the client was seated in.
func GameWSHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Resolve before Accept so a guest cookie rides on the upgrade response.
		user, err := gs.Resolver.Resolve(w, r)
		if err != nil {
			gs.Logger.Errorf("Identity resolution failed for %s: %v", r.RemoteAddr, err)
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{subprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			gs.Logger.Warnf("WebSocket accept error for %s: %v", r.RemoteAddr, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != subprotocol {
			gs.Logger.Warnf("Client %s connected with invalid subprotocol: %q", r.RemoteAddr, c.Subprotocol())
			c.Close(websocket.StatusCode(BadSubprotocolError), "Client must use the 'uno' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(gs.Logger, r, user.ID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go func() {
			select {
			case <-gs.shutdown:
				c.Close(websocket.StatusCode(ServerShutdownCode), "server shutting down")
			case <-ctx.Done():
			}
		}()

		conn := &connection{
			gs:      gs,
			c:       c,
			user:    user,
			log:     gs.Logger.WithField("user", user.ID),
			limiter: gs.newLimiter(),
		}
		readErr := conn.readLoop(ctx)
		conn.disconnect()
		middleware.LogWebSocketDisconnect(gs.Logger, r, user.ID, readErr)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readLoop returns nil on a normal close.
func (cn *connection) readLoop(ctx context.Context) error {
	for {
		msgType, data, err := cn.c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			cn.log.Warnf("Received non-text message type %d. Ignoring.", msgType)
			continue
		}
		if !cn.limiter.Allow() {
			cn.sendError(errRateLimited)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			cn.log.Debugf("Invalid JSON received: %v", err)
			cn.sendError(errBadMessage)
			continue
		}
		cn.log.Debugf("Received %q", msg.Type)
		if err := cn.handle(ctx, msg); err != nil {
			cn.sendError(err)
		}
	}
}

func (cn *connection) handle(ctx context.Context, msg ClientMessage) error {
	switch msg.Type {
	case "ping":
		cn.send(outbound{Type: "pong"})
		return nil
	case "create":
		return cn.create(ctx, msg.MaxPlayers)
	case "join":
		return cn.join(ctx, msg.Code)
	case "leave":
		return cn.leave(ctx)
	case "add_bot", "remove_bot", "start",
		"play", "draw", "call_uno", "challenge_uno", "challenge_wild_draw_four":
	default:
		return room.ErrUnknownIntent
	}

	if cn.room == nil {
		return room.ErrNotSeated
	}
	callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case "add_bot":
		d, perr := bot.ParseDifficulty(msg.Difficulty)
		if perr != nil {
			return &game.RuleError{Code: "bad_difficulty", Message: perr.Error()}
		}
		_, err = cn.room.AddBot(callCtx, cn.user.ID, d)
	case "remove_bot":
		err = cn.room.RemoveBot(callCtx, cn.user.ID, msg.BotID)
	case "start":
		err = cn.room.Start(callCtx, cn.user.ID)
	default:
		err = cn.room.Apply(callCtx, cn.user.ID, intentFrom(msg))
	}
	if errors.Is(err, room.ErrRoomClosed) {
		cn.detach()
	}
	return err
}

func intentFrom(msg ClientMessage) room.Intent {
	color, _ := models.ParseColor(msg.ChosenColor)
	return room.Intent{
		Kind:     room.IntentKind(msg.Type),
		CardID:   msg.CardID,
		Color:    color,
		TargetID: msg.TargetID,
	}
}

func (cn *connection) create(ctx context.Context, maxPlayers int) error {
	cn.dropClosedRoom()
	if cn.room != nil {
		return room.ErrAlreadySeated
	}
	r := cn.gs.Rooms.Create(maxPlayers)
	if err := cn.attach(ctx, r); err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
		defer cancel()
		r.Close(closeCtx, "creator failed to join")
		return err
	}
	return nil
}

func (cn *connection) join(ctx context.Context, code string) error {
	cn.dropClosedRoom()
	if cn.room != nil {
		return room.ErrAlreadySeated
	}
	r, err := cn.gs.Rooms.Get(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return err
	}
	return cn.attach(ctx, r)
}

func (cn *connection) leave(ctx context.Context) error {
	if cn.room == nil {
		return room.ErrNotSeated
	}
	callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	err := cn.room.Leave(callCtx, cn.user.ID)
	cn.detach()
	if errors.Is(err, room.ErrRoomClosed) {
		return nil
	}
	return err
}

// attach subscribes before joining so a reconnect replay is delivered.
func (cn *connection) attach(ctx context.Context, r *room.Room) error {
	events, unsub := r.Subscribe(cn.user.ID, eventBuffer)

	callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if err := r.Join(callCtx, *models.NewPlayer(cn.user)); err != nil {
		unsub()
		return err
	}

	cn.room = r
	cn.unsub = unsub
	cn.pumpDone = make(chan struct{})
	go cn.pump(events, cn.pumpDone)
	cn.log.Infof("Seated in room %s", r.Code)
	return nil
}

// dropClosedRoom forgets a room that shut down on its own (linger expiry or
// emptied out) since the last request.
func (cn *connection) dropClosedRoom() {
	if cn.room == nil {
		return
	}
	select {
	case <-cn.room.Done():
		cn.detach()
	default:
	}
}

// detach drops the subscription and waits for the pump to drain.
func (cn *connection) detach() {
	if cn.unsub == nil {
		return
	}
	cn.unsub()
	<-cn.pumpDone
	cn.room, cn.unsub, cn.pumpDone = nil, nil, nil
}

// disconnect leaves the current room on connection loss.
func (cn *connection) disconnect() {
	if cn.room == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
	defer cancel()
	if err := cn.room.Leave(ctx, cn.user.ID); err != nil && !errors.Is(err, room.ErrRoomClosed) {
		cn.log.Warnf("Leave on disconnect from room %s failed: %v", cn.room.Code, err)
	}
	cn.detach()
}

// pump forwards room events until the subscription closes.
func (cn *connection) pump(events <-chan room.Event, done chan<- struct{}) {
	defer close(done)
	for ev := range events {
		cn.send(outbound{Type: string(ev.Type), Payload: ev.Payload})
	}
}

func (cn *connection) send(msg outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		cn.log.Errorf("Failed to marshal %s message: %v", msg.Type, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := cn.c.Write(ctx, websocket.MessageText, data); err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			cn.log.Debugf("Failed to write %s message: %v", msg.Type, err)
		}
	}
}

// sendError replies to this connection only.
func (cn *connection) sendError(err error) {
	var re *game.RuleError
	if !errors.As(err, &re) {
		cn.log.Errorf("Request failed: %v", err)
		re = errInternal
	}
	cn.send(outbound{Type: string(room.EventError), Payload: room.ErrorPayload{Code: re.Code, Message: re.Message}})
}
