package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/id"
	"github.com/listenupapp/readlist/internal/store"
)

// entryColumns must match the scan order in scanEntry.
const entryColumns = `id, created_at, updated_at, owner_id, title, author, isbn,
	status, added_at, rating, description, reputation, owned, active_read`

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*domain.Entry, error) {
	var e domain.Entry

	var (
		createdAt  string
		updatedAt  string
		addedAt    string
		isbn       sql.NullString
		status     string
		rating     sql.NullInt64
		owned      int
		activeRead int
	)

	err := scanner.Scan(
		&e.ID,
		&createdAt,
		&updatedAt,
		&e.OwnerID,
		&e.Title,
		&e.Author,
		&isbn,
		&status,
		&addedAt,
		&rating,
		&e.Description,
		&e.Reputation,
		&owned,
		&activeRead,
	)
	if err != nil {
		return nil, err
	}

	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if e.AddedAt, err = parseTime(addedAt); err != nil {
		return nil, err
	}

	e.ISBN = isbn.String
	e.Status = domain.Status(status)
	e.Rating = ratingPtr(rating)
	e.Owned = owned != 0
	e.ActiveRead = activeRead != 0

	return &e, nil
}

// ListEntries returns an owner's entries, oldest first.
func (s *Store) ListEntries(ctx context.Context, ownerID string) ([]*domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM reading_list_entries WHERE owner_id = ? ORDER BY added_at, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetEntry returns store.ErrNotFound if the owner has no such entry.
func (s *Store) GetEntry(ctx context.Context, ownerID, entryID string) (*domain.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM reading_list_entries WHERE id = ? AND owner_id = ?`, entryID, ownerID)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateEntry inserts an entry, assigning its id and timestamps when unset.
func (s *Store) CreateEntry(ctx context.Context, e *domain.Entry) error {
	if err := ensureID(&e.ID, id.PrefixEntry); err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.InitTimestamps()
	}
	if e.AddedAt.IsZero() {
		e.AddedAt = e.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reading_list_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		formatTime(e.CreatedAt),
		formatTime(e.UpdatedAt),
		e.OwnerID,
		e.Title,
		e.Author,
		nullString(e.ISBN),
		string(e.Status),
		formatTime(e.AddedAt),
		nullRating(e.Rating),
		e.Description,
		e.Reputation,
		boolToInt(e.Owned),
		boolToInt(e.ActiveRead),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// UpdateEntry writes every mutable field. Last write wins.
func (s *Store) UpdateEntry(ctx context.Context, e *domain.Entry) error {
	e.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE reading_list_entries SET
			updated_at = ?,
			title = ?,
			author = ?,
			isbn = ?,
			status = ?,
			rating = ?,
			description = ?,
			reputation = ?,
			owned = ?,
			active_read = ?
		WHERE id = ? AND owner_id = ?`,
		formatTime(e.UpdatedAt),
		e.Title,
		e.Author,
		nullString(e.ISBN),
		string(e.Status),
		nullRating(e.Rating),
		e.Description,
		e.Reputation,
		boolToInt(e.Owned),
		boolToInt(e.ActiveRead),
		e.ID,
		e.OwnerID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// DeleteEntry hard-deletes an entry.
func (s *Store) DeleteEntry(ctx context.Context, ownerID, entryID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM reading_list_entries WHERE id = ? AND owner_id = ?`, entryID, ownerID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
