// internal/room/store.go
package room

import (
	"context"
	"crypto/rand"
	"math/big"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/sirupsen/logrus"
)

const (
	codeLength   = 6
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Store maps room codes to live rooms. Rooms remove themselves once closed.
type Store struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	defaults Options
	logger   *logrus.Logger
}

// NewStore creates an empty registry. defaults seeds the Options of every
// room it creates.
func NewStore(defaults Options) *Store {
	if defaults.Logger == nil {
		defaults.Logger = logrus.StandardLogger()
	}
	return &Store{
		rooms:    make(map[string]*Room),
		defaults: defaults,
		logger:   defaults.Logger,
	}
}

// Create opens a room with a fresh code. maxPlayers of 0 uses the default.
func (s *Store) Create(maxPlayers int) *Room {
	opts := s.defaults
	if maxPlayers != 0 {
		opts.MaxPlayers = maxPlayers
	}

	s.mu.Lock()
	code := s.uniqueCode()
	r := New(code, opts)
	s.rooms[code] = r
	s.mu.Unlock()

	s.logger.Infof("RoomStore: Added room %s.", code)
	go func() {
		<-r.Done()
		s.mu.Lock()
		if s.rooms[code] == r {
			delete(s.rooms, code)
		}
		s.mu.Unlock()
		s.logger.Infof("RoomStore: Removed room %s.", code)
	}()
	return r
}

// uniqueCode must be called with mu held.
func (s *Store) uniqueCode() string {
	for {
		code := randomCode()
		if _, taken := s.rooms[code]; !taken {
			return code
		}
	}
}

func randomCode() string {
	b := make([]byte, codeLength)
	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b)
}

// Get returns the room for code, or ErrRoomNotFound.
func (s *Store) Get(code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// List returns the info of every waiting room, ordered by code.
func (s *Store) List() []Info {
	s.mu.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.Unlock()

	out := make([]Info, 0, len(rooms))
	for _, r := range rooms {
		if info := r.Info(); info.State == game.StateWaiting {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len is the number of live rooms.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Route delivers a turn-level intent to the room for code.
func (s *Store) Route(ctx context.Context, code string, playerID uuid.UUID, in Intent) error {
	r, err := s.Get(code)
	if err != nil {
		return err
	}
	return r.Apply(ctx, playerID, in)
}

// CloseAll shuts every room down and waits for them to finish closing.
func (s *Store) CloseAll(ctx context.Context) {
	s.mu.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.Unlock()

	for _, r := range rooms {
		if err := r.Close(ctx, "server shutdown"); err != nil {
			s.logger.Warnf("RoomStore: closing room %s: %v", r.Code, err)
		}
	}
}
