// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/uno/internal/models"
)

// RecordResult persists a finished game into game_history. A repeated
// session id overwrites the earlier row.
func (s *Store) RecordResult(ctx context.Context, res models.GameResult) error {
	scores, err := scoresJSON(res)
	if err != nil {
		return err
	}
	q := `
		INSERT INTO game_history (
			id, room_code, participant_ids, winner_id, scores,
			started_at, ended_at, duration_seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			winner_id = EXCLUDED.winner_id,
			scores = EXCLUDED.scores,
			ended_at = EXCLUDED.ended_at,
			duration_seconds = EXCLUDED.duration_seconds
	`
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q,
			res.SessionID, res.RoomCode, res.ParticipantIDs, res.WinnerID, scores,
			res.StartedAt, res.EndedAt, res.DurationSeconds(),
		)
		return e
	})
	if err != nil {
		return fmt.Errorf("insert game_history %s: %w", res.SessionID, err)
	}
	return nil
}

// scoresJSON keys scores by player id string.
func scoresJSON(res models.GameResult) ([]byte, error) {
	m := make(map[string]int, len(res.Scores))
	for id, pts := range res.Scores {
		m[id.String()] = pts
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal scores: %w", err)
	}
	return b, nil
}
