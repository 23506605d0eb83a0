package models

import (
	"time"

	"github.com/google/uuid"
)

// GameResult is handed to the result sink once per finished game.
type GameResult struct {
	SessionID      uuid.UUID         `json:"sessionId"`
	RoomCode       string            `json:"roomCode"`
	ParticipantIDs []uuid.UUID       `json:"participantIds"`
	WinnerID       *uuid.UUID        `json:"winnerId"`
	Scores         map[uuid.UUID]int `json:"scores"`
	StartedAt      time.Time         `json:"startedAt"`
	EndedAt        time.Time         `json:"endedAt"`
}

// DurationSeconds is the wall time of the game, rounded down.
func (r GameResult) DurationSeconds() int {
	return int(r.EndedAt.Sub(r.StartedAt) / time.Second)
}
