package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/uno/internal/cache"
)

const insertActionQ = `
	INSERT INTO game_actions (
		game_id, action_index, room_code, actor_user_id, action_type, action_payload, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (game_id, action_index) DO NOTHING
`

// InsertActions writes a batch of action records in one transaction.
// Records already stored are skipped, so a redelivered batch is harmless.
func (s *Store) InsertActions(ctx context.Context, records []cache.GameActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		args, err := actionArgs(rec)
		if err != nil {
			return err
		}
		batch.Queue(insertActionQ, args...)
	}

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("insert %d game actions: %w", len(records), err)
	}
	return nil
}

func actionArgs(rec cache.GameActionRecord) ([]interface{}, error) {
	payload := rec.ActionPayload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload of action %d: %w", rec.ActionIndex, err)
	}
	var actor *uuid.UUID
	if rec.ActorUserID != uuid.Nil {
		actor = &rec.ActorUserID
	}
	return []interface{}{
		rec.GameID, rec.ActionIndex, rec.RoomCode, actor, rec.ActionType,
		jsonPayload, time.UnixMilli(rec.Timestamp).UTC(),
	}, nil
}
