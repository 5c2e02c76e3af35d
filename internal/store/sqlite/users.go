package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/store"
)

// GetUser returns store.ErrNotFound if the user has never been recorded.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
		updatedAt string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at, display_name FROM users WHERE id = ?`, userID,
	).Scan(&u.ID, &createdAt, &updatedAt, &u.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUser creates the user or updates the display name.
func (s *Store) UpsertUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		return store.ErrInvalidInput.WithMessage("user id is required")
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, created_at, updated_at, display_name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			updated_at = excluded.updated_at`,
		u.ID, formatTime(u.CreatedAt), formatTime(u.UpdatedAt), u.DisplayName)
	return err
}
