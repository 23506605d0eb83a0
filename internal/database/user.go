package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/models"
)

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var (
		u     models.User
		email *string
	)
	q := `
	SELECT id, email, username, is_ephemeral
	FROM users
	WHERE id=$1
	`
	err := s.pool.QueryRow(ctx, q, id).Scan(&u.ID, &email, &u.Username, &u.IsEphemeral)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user %s: %w", id, err)
	}
	if email != nil {
		u.Email = *email
	}
	return &u, nil
}

// UpsertUser stores a user, refreshing the username of an existing row.
func (s *Store) UpsertUser(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	var email *string
	if u.Email != "" {
		email = &u.Email
	}
	q := `
	INSERT INTO users (id, email, username, is_ephemeral)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
	`
	if _, err := s.pool.Exec(ctx, q, u.ID, email, u.Username, u.IsEphemeral); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}
