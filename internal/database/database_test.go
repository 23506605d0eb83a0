package database

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoresJSON(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	raw, err := scoresJSON(models.GameResult{Scores: map[uuid.UUID]int{a: 0, b: 42}})
	require.NoError(t, err)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, map[string]int{a.String(): 0, b.String(): 42}, decoded)
}

func TestActionArgs(t *testing.T) {
	game := uuid.New()
	now := time.Now().Truncate(time.Millisecond)

	args, err := actionArgs(cache.GameActionRecord{
		GameID:      game,
		RoomCode:    "ABC123",
		ActionIndex: 3,
		ActionType:  "game_end",
		Timestamp:   now.UnixMilli(),
	})
	require.NoError(t, err)
	require.Len(t, args, 7)

	assert.Equal(t, game, args[0])
	assert.Nil(t, args[3], "system actions have no actor")
	assert.JSONEq(t, `{}`, string(args[5].([]byte)))
	assert.True(t, now.Equal(args[6].(time.Time)))

	actor := uuid.New()
	args, err = actionArgs(cache.GameActionRecord{GameID: game, ActorUserID: actor, ActionPayload: map[string]interface{}{"card": "red 5"}})
	require.NoError(t, err)
	assert.Equal(t, &actor, args[3])
	assert.JSONEq(t, `{"card":"red 5"}`, string(args[5].([]byte)))
}

// openTestStore connects to UNO_TEST_DATABASE_URL or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("UNO_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("UNO_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := &models.User{Username: "alice"}
	require.NoError(t, s.UpsertUser(ctx, u))
	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = s.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	start := time.Now().Add(-time.Minute)
	res := models.GameResult{
		SessionID:      uuid.New(),
		RoomCode:       "ZZ0001",
		ParticipantIDs: []uuid.UUID{u.ID, uuid.New()},
		WinnerID:       &u.ID,
		Scores:         map[uuid.UUID]int{u.ID: 17},
		StartedAt:      start,
		EndedAt:        time.Now(),
	}
	require.NoError(t, s.RecordResult(ctx, res))
	require.NoError(t, s.RecordResult(ctx, res), "re-recording overwrites")

	recs := []cache.GameActionRecord{
		{GameID: res.SessionID, RoomCode: res.RoomCode, ActionIndex: 0, ActorUserID: u.ID, ActionType: "play", Timestamp: time.Now().UnixMilli()},
		{GameID: res.SessionID, RoomCode: res.RoomCode, ActionIndex: 1, ActionType: "game_end", Timestamp: time.Now().UnixMilli()},
	}
	require.NoError(t, s.InsertActions(ctx, recs))
	require.NoError(t, s.InsertActions(ctx, recs), "duplicates are skipped")
}
