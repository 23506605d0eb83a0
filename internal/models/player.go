package models

import "github.com/google/uuid"

// Player is a seat in a room. ID stays stable across disconnects.
type Player struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	IsBot       bool      `json:"isBot"`
	Connected   bool      `json:"connected"`
}

func NewPlayer(user *User) *Player {
	return &Player{
		ID:          user.ID,
		DisplayName: user.Username,
		Connected:   true,
	}
}
