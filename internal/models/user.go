package models

import "github.com/google/uuid"

// User is the identity resolved from a credential token, or a minted guest.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email,omitempty"`
	Username string    `json:"username"`

	IsEphemeral bool `json:"isEphemeral"`
}
