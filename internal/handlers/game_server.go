// internal/handlers/game_server.go
package handlers

import (
	"sync"

	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/room"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultIntentRate  = 10
	defaultIntentBurst = 20
)

// GameServer holds the state shared by the HTTP and websocket handlers.
// IntentRate and IntentBurst size each connection's token bucket.
type GameServer struct {
	Rooms    *room.Store
	Resolver *auth.Resolver
	Logger   *logrus.Logger

	IntentRate  rate.Limit
	IntentBurst int

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

func NewGameServer(rooms *room.Store, resolver *auth.Resolver, logger *logrus.Logger) *GameServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GameServer{
		Rooms:       rooms,
		Resolver:    resolver,
		Logger:      logger,
		IntentRate:  defaultIntentRate,
		IntentBurst: defaultIntentBurst,
		shutdown:    make(chan struct{}),
	}
}

// newLimiter gives one connection its own token bucket.
func (gs *GameServer) newLimiter() *rate.Limiter {
	return rate.NewLimiter(gs.IntentRate, gs.IntentBurst)
}

// Shutdown closes every open game websocket. http.Server.Shutdown does not
// reach hijacked connections.
func (gs *GameServer) Shutdown() {
	gs.shutdownOnce.Do(func() { close(gs.shutdown) })
}
