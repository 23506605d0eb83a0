package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listRecorder captures RPush calls; every other command panics on the nil
// embedded interface.
type listRecorder struct {
	redis.Cmdable
	key    string
	values []interface{}
	err    error
}

func (l *listRecorder) RPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	l.key = key
	l.values = append(l.values, values...)
	return redis.NewIntResult(int64(len(l.values)), l.err)
}

func TestPublishGameAction(t *testing.T) {
	rec := &listRecorder{}
	p := NewPublisher(rec, "")
	assert.Equal(t, DefaultQueueName, p.Queue())

	action := GameActionRecord{
		GameID:        uuid.New(),
		RoomCode:      "ABC123",
		ActionIndex:   3,
		ActorUserID:   uuid.New(),
		ActionType:    "play",
		ActionPayload: map[string]interface{}{"card": "red 5"},
		Timestamp:     1700000000000,
	}
	require.NoError(t, p.PublishGameAction(context.Background(), action))
	assert.Equal(t, DefaultQueueName, rec.key)
	require.Len(t, rec.values, 1)

	var got GameActionRecord
	require.NoError(t, json.Unmarshal(rec.values[0].([]byte), &got))
	assert.Equal(t, action.GameID, got.GameID)
	assert.Equal(t, "ABC123", got.RoomCode)
	assert.Equal(t, "red 5", got.ActionPayload["card"])
}

func TestPublishGameActionWrapsRedisError(t *testing.T) {
	boom := errors.New("connection refused")
	p := NewPublisher(&listRecorder{err: boom}, "q")
	err := p.PublishGameAction(context.Background(), GameActionRecord{})
	assert.ErrorIs(t, err, boom)
}
